// Package notify holds the outbound email collaborator. The back office
// does not speak SMTP itself; it posts to an HTTP mail-delivery API and
// treats any failure as a retryable dispatch error.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrDispatch reports a failed or timed-out delivery attempt. Callers may
// safely retry: no partial side effect survives a failed dispatch.
var ErrDispatch = errors.New("notify: dispatch failed")

const defaultTimeout = 10 * time.Second

type message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// Mailer delivers verification codes through the configured mail API.
type Mailer struct {
	client *resty.Client
	from   string
}

// NewMailer builds a Mailer for the given mail API base URL and API key.
func NewMailer(baseURL, apiKey, from string) *Mailer {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Mailer{
		client: client,
		from:   from,
	}
}

// SendCode dispatches exactly one verification email carrying the code.
func (m *Mailer) SendCode(ctx context.Context, email, code string) error {
	body := message{
		From:    m.from,
		To:      email,
		Subject: "Your verification code",
		Text:    fmt.Sprintf("Your one-time verification code is %s. It expires in 5 minutes.", code),
	}

	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/messages")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDispatch, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: mail API responded %d", ErrDispatch, resp.StatusCode())
	}

	return nil
}
