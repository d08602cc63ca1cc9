// Package gemini calls the Gemini generateContent endpoint with a bounded
// retry policy.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/stockbox/backend/internal/domain"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.5-flash"
	DefaultTimeout = 90 * time.Second
)

// maxErrorBody caps how much of an error response is kept in a CallError.
const maxErrorBody = 2048

// Client handles communication with the Gemini API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	timeout     time.Duration
	retry       RetryPolicy
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new Gemini API client. An empty apiKey is allowed;
// Generate then fails with domain.ErrMissingAPIKey before any network call.
func NewClient(apiKey, baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		httpClient:  &http.Client{},
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		timeout:     DefaultTimeout,
		retry:       DefaultRetryPolicy(),
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

// SetDebug enables logging of raw model output.
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// SetTimeout bounds each individual attempt.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

// SetRetryPolicy replaces the retry policy.
func (c *Client) SetRetryPolicy(p RetryPolicy) {
	c.retry = p
}

// SetRequestsPerMinute limits outbound calls. Zero or less disables the limit.
func (c *Client) SetRequestsPerMinute(n int) {
	if n <= 0 {
		c.rateLimiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	burst := n / 10
	if burst < 1 {
		burst = 1
	}
	c.rateLimiter = rate.NewLimiter(rate.Limit(float64(n)/60), burst)
}

// Generate sends req and returns the concatenated candidate text.
func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	if c.apiKey == "" {
		return "", domain.ErrMissingAPIKey
	}

	model := req.Config.Model
	if model == "" {
		model = c.model
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)

	body, err := json.Marshal(newGenerateRequest(req))
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	attempts := c.retry.attempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			log.Printf("[GEMINI] Rate limiter error: %v", err)
			return "", fmt.Errorf("rate limiter error: %w", err)
		}

		log.Printf("[GEMINI] generateContent model=%s attempt %d/%d", model, attempt, attempts)
		text, err := c.call(ctx, endpoint, body)
		if err == nil {
			if c.debug {
				log.Printf("[GEMINI] Raw response: %s", text)
			}
			return text, nil
		}

		if !errors.Is(err, domain.ErrTransient) {
			log.Printf("[GEMINI] Call failed (attempt %d), not retrying: %v", attempt, err)
			return "", err
		}
		log.Printf("[GEMINI] Transient failure (attempt %d): %v", attempt, err)
		lastErr = err

		if attempt == attempts {
			break
		}
		if err := c.retry.wait(ctx, attempt); err != nil {
			return "", fmt.Errorf("retry wait: %w", err)
		}
	}

	log.Printf("[GEMINI] All %d attempts failed", attempts)
	return "", &domain.ExhaustedRetriesError{Attempts: attempts, Last: lastErr}
}

// call performs exactly one HTTP round trip.
func (c *Client) call(ctx context.Context, endpoint string, body []byte) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("User-Agent", "StockBox/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// A cancelled caller is not something retrying can fix.
		if ctx.Err() != nil {
			return "", fmt.Errorf("generate: %w", ctx.Err())
		}
		return "", &domain.CallError{Err: domain.ErrTransient, Body: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("generate: %w", ctx.Err())
		}
		return "", &domain.CallError{StatusCode: resp.StatusCode, Err: domain.ErrTransient, Body: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		callErr := &domain.CallError{StatusCode: resp.StatusCode, Body: truncate(string(raw), maxErrorBody)}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			callErr.Err = domain.ErrTransient
		} else {
			callErr.Err = domain.ErrFatalCall
		}
		return "", callErr
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", domain.NewMalformed(string(raw), "decode generateContent response: %v", err)
	}
	text, ok := parsed.text()
	if !ok {
		if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
			return "", domain.NewMalformed(string(raw), "prompt blocked: %s", parsed.PromptFeedback.BlockReason)
		}
		return "", domain.NewMalformed(string(raw), "response has no candidate text")
	}
	return text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
