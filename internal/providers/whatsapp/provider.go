package whatsapp

import (
	"context"
	"errors"
)

// Document is a file sent to a chat. Media is a data URI.
type Document struct {
	To       string `json:"to"`
	Media    string `json:"media"`
	Filename string `json:"filename"`
	Caption  string `json:"caption,omitempty"`
}

type Provider interface {
	SendDocument(ctx context.Context, doc Document) (string, error)
}

var ErrNoRecipient = errors.New("whatsapp_no_recipient")

type NoOpProvider struct{}

func (p *NoOpProvider) SendDocument(ctx context.Context, doc Document) (string, error) {
	if doc.To == "" {
		return "", ErrNoRecipient
	}
	return "", nil
}
