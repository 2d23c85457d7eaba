package leads

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

const defaultTimeout = 10 * time.Second

// Forwarder delivers a submission to the form backend.
type Forwarder interface {
	Forward(ctx context.Context, sub Submission) error
}

// FormClient posts submissions as JSON to a hosted form endpoint (Formspree compatible).
type FormClient struct {
	endpoint string
	http     *http.Client
}

// NewFormClient constructs a client. When endpoint is empty every submission is
// accepted locally and nothing leaves the process.
func NewFormClient(endpoint string, timeout time.Duration) *FormClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &FormClient{
		endpoint: strings.TrimSpace(endpoint),
		http:     &http.Client{Timeout: timeout},
	}
}

// Endpoint reports the configured target, empty in local mode.
func (c *FormClient) Endpoint() string {
	if c == nil {
		return ""
	}
	return c.endpoint
}

type formPayload struct {
	Email   string `json:"email"`
	Subject string `json:"_subject"`
	Source  string `json:"source"`
	Plan    string `json:"plan,omitempty"`
	Lang    string `json:"lang,omitempty"`
}

// Forward sends the submission. Non-2xx responses are errors; their bodies are
// kept short and only ever logged.
func (c *FormClient) Forward(ctx context.Context, sub Submission) error {
	if c == nil || c.endpoint == "" {
		return nil
	}

	payload, err := json.Marshal(formPayload{
		Email:   sub.Email,
		Subject: sub.Subject,
		Source:  sub.Source,
		Plan:    sub.Plan,
		Lang:    sub.Lang,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("leads: form endpoint status %d: %s", resp.StatusCode, drainError(resp.Body))
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return nil
}

func drainError(r io.Reader) string {
	if r == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(b))
}
