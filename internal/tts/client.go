// Package tts is the client for the remote speech-synthesis service.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Voice describes one entry of the synthesis service's voice catalog.
// Value is the provider-side voice identifier sent with each request.
type Voice struct {
	Name   string `json:"name"`
	Accent string `json:"accent,omitempty"`
	Value  string `json:"value"`
}

// Client calls the synthesis service's HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	Stats      *Stats
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
		Stats: NewStats(time.Hour),
	}
}

type synthesizeRequest struct {
	Text  string `json:"text"`
	Voice Voice  `json:"voice"`
}

// Synthesize converts text to audio bytes using the given voice. Non-2xx
// responses surface as *SynthesisError; 429 and 5xx are marked retryable
// so callers can distinguish transient failures. Audio is treated as an
// opaque blob (audio/mpeg from the current provider).
func (c *Client) Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error) {
	body, err := json.Marshal(synthesizeRequest{Text: text, Voice: voice})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/synthesize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &SynthesisError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody),
			retryable:  resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
		}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	c.Stats.Record(time.Since(start).Milliseconds())

	return audio, nil
}

// Voices fetches the voice catalog. The catalog is ordered; the first
// entry is the default selection.
func (c *Client) Voices(ctx context.Context) ([]Voice, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("list voices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &SynthesisError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody),
			retryable:  resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
		}
	}

	var voices []Voice
	if err := json.NewDecoder(resp.Body).Decode(&voices); err != nil {
		return nil, fmt.Errorf("decode voices: %w", err)
	}
	return voices, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// errorMessage pulls the error field from a JSON error body, falling
// back to the raw body.
func errorMessage(body []byte) string {
	var parsed struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != "" {
		return parsed.Error
	}
	return string(body)
}

// SynthesisError is a non-2xx response from the synthesis service.
type SynthesisError struct {
	StatusCode int
	Message    string
	retryable  bool
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
