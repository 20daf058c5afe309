package provider

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

// Client sends composed messages through the external messaging provider.
type Client interface {
	SendText(ctx context.Context, phone, body string) error
	SendDocument(ctx context.Context, phone, document, caption, fileName string) error
}

// httpClient implements Client over the provider's HTTP API
type httpClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient creates a provider client. Every call is bounded by timeout;
// a send that exceeds it is a per-recipient failure, not a stuck invocation.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// SendText posts a plain text message
func (c *httpClient) SendText(ctx context.Context, phone, body string) error {
	return c.post(ctx, TextPayload{Phone: phone, Body: body})
}

// SendDocument posts a document with a caption
func (c *httpClient) SendDocument(ctx context.Context, phone, document, caption, fileName string) error {
	return c.post(ctx, DocumentPayload{
		Phone:    phone,
		Document: document,
		Caption:  caption,
		FileName: fileName,
	})
}

// post serializes the payload and treats any transport error or non-2xx
// response as a send failure.
func (c *httpClient) post(ctx context.Context, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal provider payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+payload.Endpoint(), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Token", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little of the body for the log line, the rest is discarded.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	return nil
}
