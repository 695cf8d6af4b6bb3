package email

import (
	"context"
	"errors"
)

// Attachment content is base64 encoded.
type Attachment struct {
	Filename    string `json:"filename"`
	Content     string `json:"content"`
	ContentType string `json:"content_type,omitempty"`
}

type Message struct {
	From        string
	To          []string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Provider delivers a message and returns the provider's message id, which
// may be empty when the transport does not issue one.
type Provider interface {
	Send(ctx context.Context, msg Message) (string, error)
}

var ErrNoRecipients = errors.New("email_no_recipients")

type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, msg Message) (string, error) {
	if len(msg.To) == 0 {
		return "", ErrNoRecipients
	}
	return "", nil
}
