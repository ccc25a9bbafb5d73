package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrDisabled is returned by Send when no API token is configured. Callers
// treat it like any other send failure: log and move on.
var ErrDisabled = errors.New("email_disabled")

// Message is one outbound transactional email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Client talks to a Postmark-style transactional email HTTP API: a single
// JSON POST carrying From/To/Subject/HtmlBody/TextBody with a server token
// header.
type Client struct {
	apiURL string
	token  string
	from   string
	httpc  *http.Client
}

func NewClient(apiURL, token, from string) *Client {
	return &Client{
		apiURL: apiURL,
		token:  token,
		from:   from,
		httpc:  &http.Client{Timeout: 10 * time.Second},
	}
}

// From exposes the configured sender for templates that render it.
func (c *Client) From() string { return c.from }

type apiPayload struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HTMLBody string `json:"HtmlBody,omitempty"`
	TextBody string `json:"TextBody,omitempty"`
}

// Send posts the message to the provider. Network and non-2xx failures are
// returned as errors; callers decide whether they are fatal (they never are
// for quote operations).
func (c *Client) Send(ctx context.Context, m Message) error {
	if c == nil || c.token == "" {
		return ErrDisabled
	}
	body, err := json.Marshal(apiPayload{From: c.from, To: m.To, Subject: m.Subject, HTMLBody: m.HTMLBody, TextBody: m.TextBody})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.token)
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email provider returned %d", resp.StatusCode)
	}
	return nil
}
