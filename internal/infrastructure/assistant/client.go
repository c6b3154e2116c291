// Package assistant wraps the external text-categorization collaborator: a
// Gemini-style LLM endpoint that turns free-form shopping text into ordered
// category/item pairs. The model's output is best-effort text, so the client
// digs the first well-formed JSON mapping out of whatever comes back.
package assistant

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/shoproute/backend/internal/domain"
)

const maxAttempts = 3

// Config holds assistant client configuration
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client calls the generateContent endpoint and parses the reply.
type Client struct {
	http       *resty.Client
	apiKey     string
	model      string
	categories []string
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// generateRequest is the Gemini generateContent payload
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// generateResponse is the slice of the reply we care about
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// NewClient creates an assistant client. categories is the canonical category
// vocabulary the model is asked to map items onto.
func NewClient(cfg Config, categories []string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	// Free-tier Gemini allows ~15 requests per minute
	limiter := rate.NewLimiter(rate.Limit(0.25), 5)

	return &Client{
		http:       httpClient,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		categories: categories,
		limiter:    limiter,
		logger:     logger,
	}
}

// ParseItems sends the categorization prompt and extracts the first
// category-to-item mapping from the reply. Transport failures and persistent
// 5xx responses surface as ErrAssistantUnavailable; a reply with no parseable
// mapping surfaces as ErrNoStructuredData. An empty mapping is never
// silently defaulted.
func (c *Client) ParseItems(ctx context.Context, text string) ([]domain.RequestItem, error) {
	body := generateRequest{
		Contents: []content{{Parts: []part{{Text: c.buildPrompt(text)}}}},
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParam("key", c.apiKey).
			SetBody(body).
			SetResult(&generateResponse{}).
			Post(fmt.Sprintf("/v1beta/models/%s:generateContent", c.model))
		if err != nil {
			c.logger.Warn("assistant request failed",
				zap.Int("attempt", attempt), zap.Error(err))
			lastErr = fmt.Errorf("%w: %v", domain.ErrAssistantUnavailable, err)
			sleepBackoff(ctx, attempt)
			continue
		}

		if resp.StatusCode() >= http.StatusInternalServerError {
			c.logger.Warn("assistant server error",
				zap.Int("attempt", attempt), zap.Int("status", resp.StatusCode()))
			lastErr = fmt.Errorf("%w: status %d", domain.ErrAssistantUnavailable, resp.StatusCode())
			sleepBackoff(ctx, attempt)
			continue
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("%w: status %d", domain.ErrAssistantUnavailable, resp.StatusCode())
		}

		reply := resp.Result().(*generateResponse)
		return c.parseReply(reply)
	}

	return nil, lastErr
}

// buildPrompt mirrors the categorization instruction the evaluate flow was
// designed around: one mapping from canonical category to item.
func (c *Client) buildPrompt(text string) string {
	return fmt.Sprintf(
		"You will be provided input which will contain one or more items. "+
			"Convert the input into a dictionary where category is one of the following: %s. "+
			"The input will contain items and they need to be categorized in this format "+
			"{Category1: Item1, Category2: Item2, ...} Input: %s",
		strings.Join(c.categories, ", "), text)
}

func (c *Client) parseReply(reply *generateResponse) ([]domain.RequestItem, error) {
	if len(reply.Candidates) == 0 || len(reply.Candidates[0].Content.Parts) == 0 {
		return nil, domain.ErrNoStructuredData
	}

	raw := reply.Candidates[0].Content.Parts[0].Text
	items, err := ExtractItems(raw)
	if err != nil {
		c.logger.Warn("assistant reply had no structured data",
			zap.String("reply_head", head(raw, 120)))
		return nil, err
	}
	return items, nil
}

func sleepBackoff(ctx context.Context, attempt int) {
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
	}
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
