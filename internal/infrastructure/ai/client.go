// Package ai is the HTTP client for the external journal suggestion service.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/comptaflow/backend/internal/application/ingest"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 4 * 1024 * 1024 // 4MB max response

// Config holds AI suggestion service settings
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client calls the suggestion service over HTTP. It implements
// ingest.SuggestionService.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

var _ ingest.SuggestionService = (*Client)(nil)

// NewClient creates a new suggestion service client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Named("ai"),
	}
}

// SuggestJournalEntries posts the raw transaction to the suggestion service
// and returns its proposed journal entries.
func (c *Client) SuggestJournalEntries(ctx context.Context, payload ingest.MobileTransactionPayload) (*ingest.SuggestionResponse, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("ai: failed to marshal request: %w", err)
	}

	url := c.config.BaseURL + "/v1/journal-suggestions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("ai: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ai: suggestion service unavailable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("ai: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("ai: suggestion request failed: HTTP %d", resp.StatusCode)
	}

	var suggestions ingest.SuggestionResponse
	if err := json.Unmarshal(body, &suggestions); err != nil {
		return nil, fmt.Errorf("ai: failed to decode response: %w", err)
	}

	c.logger.Debug("Suggestion service responded",
		zap.String("transaction_id", payload.TransactionID),
		zap.Int("suggestions", len(suggestions.Suggestions)),
		zap.Float64("confidence", suggestions.Confidence),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &suggestions, nil
}
