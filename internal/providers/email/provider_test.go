package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResendSend(t *testing.T) {
	var got resendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"em_123"}`))
	}))
	defer srv.Close()

	id, err := NewResend("re_test", srv.URL).Send(context.Background(), Message{
		From:    "FocalDive (Pvt) Ltd <billing@focaldive.com>",
		To:      []string{"client@example.com"},
		Subject: "Invoice FD-ABC-2601-001",
		HTML:    "<p>hi</p>",
		Attachments: []Attachment{
			{Filename: "FD-ABC-2601-001.pdf", Content: "JVBERi0=", ContentType: "application/pdf"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "em_123", id)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "application/pdf", got.Attachments[0].ContentType)
}

func TestResendSendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"domain not verified"}`))
	}))
	defer srv.Close()

	_, err := NewResend("re_test", srv.URL).Send(context.Background(), Message{To: []string{"a@b.c"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "domain not verified")
}

func TestSMTPBuildsMultipartMessage(t *testing.T) {
	var (
		gotFrom string
		gotTo   []string
		gotBody string
	)
	p := NewSMTP(Config{Host: "smtp.example.com", Port: 587})
	p.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		assert.Equal(t, "smtp.example.com:587", addr)
		gotFrom, gotTo, gotBody = from, to, string(msg)
		return nil
	}

	_, err := p.Send(context.Background(), Message{
		From:    "FocalDive <billing@focaldive.com>",
		To:      []string{"client@example.com"},
		Subject: "Invoice FD-ABC-2601-001",
		HTML:    "<p>Invoice attached</p>",
		Attachments: []Attachment{
			{Filename: "FD-ABC-2601-001.pdf", Content: "JVBERi0=", ContentType: "application/pdf"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "billing@focaldive.com", gotFrom)
	assert.Equal(t, []string{"client@example.com"}, gotTo)
	assert.Contains(t, gotBody, "multipart/mixed")
	assert.Contains(t, gotBody, `filename="FD-ABC-2601-001.pdf"`)
	assert.Contains(t, gotBody, "JVBERi0=")
	assert.Contains(t, gotBody, "<p>Invoice attached</p>")
}
