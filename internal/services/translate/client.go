package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dubber/internal/logging"
)

// Client translates short text with source language auto-detection and a
// fixed target language.
type Client struct {
	endpoint string
	target   string
	client   *http.Client
	logger   *slog.Logger
}

// Config describes client construction parameters.
type Config struct {
	Endpoint       string
	TargetLanguage string
	TimeoutSeconds int
	Logger         *slog.Logger
}

// New constructs a translation client.
func New(cfg Config) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		endpoint: strings.TrimSpace(cfg.Endpoint),
		target:   strings.TrimSpace(cfg.TargetLanguage),
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Translate returns text rendered in the target language, or the input
// unchanged when translation is unavailable for any reason.
func (c *Client) Translate(ctx context.Context, text string) string {
	if text == "" || c.endpoint == "" || c.target == "" {
		return text
	}

	query := url.Values{}
	query.Set("client", "gtx")
	query.Set("sl", "auto")
	query.Set("tl", c.target)
	query.Set("dt", "t")
	query.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return text
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("translation request failed", logging.Error(err))
		return text
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("translation request rejected", logging.Int("status", resp.StatusCode))
		return text
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return text
	}
	translated, err := parseResponse(body)
	if err != nil || translated == "" {
		c.logger.Debug("translation response unusable", logging.Error(err))
		return text
	}
	return translated
}

// parseResponse extracts the translated text from the gtx response shape:
// [[["translated","original",...],...],...]. Long inputs are split into
// multiple segments that must be concatenated.
func parseResponse(body []byte) (string, error) {
	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode translation envelope: %w", err)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("empty translation envelope")
	}

	var segments [][]json.RawMessage
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return "", fmt.Errorf("decode translation segments: %w", err)
	}

	var b strings.Builder
	for _, segment := range segments {
		if len(segment) == 0 {
			continue
		}
		var part string
		if err := json.Unmarshal(segment[0], &part); err != nil {
			continue
		}
		b.WriteString(part)
	}
	return strings.TrimSpace(b.String()), nil
}
