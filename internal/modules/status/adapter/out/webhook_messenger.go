package out

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"statusrelay/internal/modules/status/domain"
	"statusrelay/internal/modules/status/port/out"
)

const (
	maxAttempts       = 3
	defaultRetryAfter = 2 * time.Second
	requestTimeout    = 10 * time.Second
)

// WebhookMessenger speaks to a chat webhook endpoint: POST with ?wait=true
// returns the created message, PATCH and DELETE address it by id.
type WebhookMessenger struct {
	url    string
	client *http.Client
	logger hclog.Logger
}

func NewWebhookMessenger(url string, logger hclog.Logger) out.Messenger {
	return &WebhookMessenger{
		url:    strings.TrimRight(url, "/"),
		client: &http.Client{Timeout: requestTimeout},
		logger: logger,
	}
}

type embedFooter struct {
	Text string `json:"text"`
}

type embed struct {
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color"`
	Fields      []domain.FrameField `json:"fields,omitempty"`
	Footer      *embedFooter        `json:"footer,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

type webhookMessage struct {
	Embeds []embed `json:"embeds"`
}

type createdMessage struct {
	ID string `json:"id"`
}

func encodeFrame(frame domain.Frame) ([]byte, error) {
	e := embed{
		Title:       frame.Title,
		Description: frame.Description,
		Color:       frame.Color,
		Fields:      frame.Fields,
	}
	if frame.Footer != "" {
		e.Footer = &embedFooter{Text: frame.Footer}
	}
	if !frame.Timestamp.IsZero() {
		e.Timestamp = frame.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(webhookMessage{Embeds: []embed{e}})
}

func (m *WebhookMessenger) Create(ctx context.Context, frame domain.Frame) (string, error) {
	body, err := encodeFrame(frame)
	if err != nil {
		return "", fmt.Errorf("encode frame: %w", err)
	}
	raw, err := m.send(ctx, http.MethodPost, m.url+"?wait=true", body, false)
	if err != nil {
		return "", err
	}
	created := createdMessage{}
	if err := json.Unmarshal(raw, &created); err != nil {
		return "", fmt.Errorf("decode created message: %w", err)
	}
	if created.ID == "" {
		return "", errors.New("created message has no id")
	}
	return created.ID, nil
}

func (m *WebhookMessenger) Edit(ctx context.Context, id string, frame domain.Frame) error {
	body, err := encodeFrame(frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	_, err = m.send(ctx, http.MethodPatch, m.url+"/messages/"+id, body, true)
	return err
}

func (m *WebhookMessenger) Delete(ctx context.Context, id string) error {
	_, err := m.send(ctx, http.MethodDelete, m.url+"/messages/"+id, nil, true)
	return err
}

// send runs one operation through the retry budget: rate limits wait out the
// server's hint, transient failures back off attempt² seconds, and a 404 on
// an id-addressed call surfaces domain.ErrMessageGone immediately so the
// caller can self-heal.
func (m *WebhookMessenger) send(ctx context.Context, method, url string, body []byte, byID bool) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		raw, retryIn, err := m.once(ctx, method, url, body, byID)
		if err == nil {
			return raw, nil
		}
		if err == domain.ErrMessageGone {
			return nil, err
		}
		lastErr = err
		if attempt == maxAttempts {
			break
		}
		wait := retryIn
		if wait <= 0 {
			wait = time.Duration(attempt*attempt) * time.Second
		}
		m.logger.Debug("webhook call failed, retrying", "method", method, "attempt", attempt, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, fmt.Errorf("webhook %s after %d attempts: %w", method, maxAttempts, lastErr)
}

func (m *WebhookMessenger) once(ctx context.Context, method, url string, body []byte, byID bool) ([]byte, time.Duration, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return raw, 0, nil
	case resp.StatusCode == http.StatusNotFound && byID:
		return nil, 0, domain.ErrMessageGone
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, retryAfter(resp, raw), fmt.Errorf("rate limited")
	default:
		return nil, 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}

// retryAfter reads the server's hint from the Retry-After header or the
// retry_after body field, in seconds. Malformed or absent hints fall back to
// a fixed default.
func retryAfter(resp *http.Response, body []byte) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.ParseFloat(header, 64); err == nil && seconds > 0 {
			return time.Duration(seconds * float64(time.Second))
		}
	}
	hint := struct {
		RetryAfter float64 `json:"retry_after"`
	}{}
	if err := json.Unmarshal(body, &hint); err == nil && hint.RetryAfter > 0 {
		return time.Duration(hint.RetryAfter * float64(time.Second))
	}
	return defaultRetryAfter
}

// NoopMessenger stands in when no webhook URL is configured; deliveries
// degrade to log lines.
type NoopMessenger struct {
	logger hclog.Logger
}

func NewNoopMessenger(logger hclog.Logger) out.Messenger {
	return &NoopMessenger{logger: logger}
}

func (m *NoopMessenger) Create(_ context.Context, frame domain.Frame) (string, error) {
	m.logger.Debug("no webhook configured, dropping frame", "project", frame.Project, "state", frame.State)
	return "", nil
}

func (m *NoopMessenger) Edit(_ context.Context, _ string, _ domain.Frame) error { return nil }

func (m *NoopMessenger) Delete(_ context.Context, _ string) error { return nil }
