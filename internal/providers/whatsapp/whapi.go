package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// WhapiProvider sends documents through a Whapi.Cloud style gateway.
type WhapiProvider struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewWhapi(baseURL, token string) *WhapiProvider {
	return &WhapiProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// GatewayError carries the gateway's response body for the delivery log.
type GatewayError struct {
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("whatsapp gateway error (status %d): %s", e.StatusCode, e.Body)
}

type whapiResponse struct {
	ID      string `json:"id"`
	Message struct {
		ID string `json:"id"`
	} `json:"message"`
}

func (p *WhapiProvider) SendDocument(ctx context.Context, doc Document) (string, error) {
	if doc.To == "" {
		return "", ErrNoRecipient
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages/document", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send document: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &GatewayError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var decoded whapiResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode gateway response: %w", err)
	}
	if decoded.Message.ID != "" {
		return decoded.Message.ID, nil
	}
	return decoded.ID, nil
}
