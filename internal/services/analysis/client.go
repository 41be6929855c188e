package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"recipebox/internal/logging"
	"recipebox/internal/services"
)

const (
	defaultBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultHTTPTimeout    = 60 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryAttempts  = 1

	// MinServings and MaxServings bound every servings count sent to the endpoint.
	MinServings = 1
	MaxServings = 100
)

// Config captures the runtime settings required to talk to the analysis endpoint.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
	RetryAttempts  int
	Language       string
}

// ProgressReporter receives monotonic progress fractions in [0, 1) while a
// request is in flight. Completion is signalled by the call returning.
type ProgressReporter func(fraction float64)

// Result is the outcome of an analysis or rescale call.
type Result struct {
	Success  bool   `json:"success"`
	Analysis string `json:"analysis,omitempty"`
	Error    string `json:"error,omitempty"`

	cause error
}

// Cause returns the classified error behind a failed result.
func (r Result) Cause() error {
	return r.cause
}

func failure(err error) Result {
	return Result{Success: false, Error: userMessage(err), cause: err}
}

// Client wraps an OpenRouter-compatible chat completion endpoint that accepts
// image_url content parts.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger attaches a logger; the client logs under the "analysis" component.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "analysis")
	}
}

// WithRetryMaxAttempts overrides the configured attempt count.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs an analysis client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			Referer:        strings.TrimSpace(cfg.Referer),
			Title:          strings.TrimSpace(cfg.Title),
			TimeoutSeconds: cfg.TimeoutSeconds,
			RetryAttempts:  attempts,
			Language:       strings.ToLower(strings.TrimSpace(cfg.Language)),
		},
		httpClient:       &http.Client{Timeout: timeout},
		logger:           logging.NewComponentLogger(nil, "analysis"),
		retryMaxAttempts: attempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	return client
}

// AnalyzeImage sends a recipe photo (data URI or http(s) URL) and asks for
// plain recipe text written for exactly servings servings.
func (c *Client) AnalyzeImage(ctx context.Context, imageDataURI string, servings int, progress ProgressReporter) Result {
	const op = "analyze image"
	imageDataURI = strings.TrimSpace(imageDataURI)
	if imageDataURI == "" {
		return failure(services.Wrap(services.ErrValidation, "analysis", op, "image required", nil))
	}
	if !isImageReference(imageDataURI) {
		return failure(services.Wrap(services.ErrValidation, "analysis", op, "image must be a data:image URI or http(s) URL", nil))
	}
	if err := checkServings(servings); err != nil {
		return failure(services.Wrap(services.ErrValidation, "analysis", op, err.Error(), nil))
	}
	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: analyzePrompt(c.cfg.Language, servings)},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: analyzeUserText(c.cfg.Language)},
				{Type: "image_url", ImageURL: &imageURL{URL: imageDataURI}},
			}},
		},
	}
	return c.run(ctx, op, payload, progress)
}

// Rescale asks the endpoint to recompute quantities in text from one servings
// count to another while preserving steps.
func (c *Client) Rescale(ctx context.Context, text string, from, to int) Result {
	const op = "rescale"
	text = strings.TrimSpace(text)
	if text == "" {
		return failure(services.Wrap(services.ErrValidation, "analysis", op, "recipe text required", nil))
	}
	for _, n := range []int{from, to} {
		if err := checkServings(n); err != nil {
			return failure(services.Wrap(services.ErrValidation, "analysis", op, err.Error(), nil))
		}
	}
	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: rescalePrompt(c.cfg.Language, from, to)},
			{Role: "user", Content: text},
		},
	}
	return c.run(ctx, op, payload, nil)
}

func (c *Client) run(ctx context.Context, op string, payload chatCompletionRequest, progress ProgressReporter) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := services.RequestIDFromContext(ctx); !ok {
		ctx = services.WithRequestID(ctx, uuid.NewString())
	}
	logger := logging.WithContext(ctx, c.logger)
	started := time.Now()

	text, err := c.completionWithRetry(ctx, payload, op, newProgressTracker(progress))
	if err != nil {
		logging.WarnWithContext(logger, "analysis request failed", "analysis_failed",
			logging.Operation(op),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check analysis.base_url and analysis.api_key"),
			logging.String(logging.FieldImpact, "recipe text not updated"),
		)
		return failure(err)
	}
	logger.Info("analysis request completed",
		logging.Operation(op),
		logging.Duration("elapsed", time.Since(started)),
		logging.Int("text_bytes", len(text)),
	)
	return Result{Success: true, Analysis: text}
}

type chatCompletionRequest struct {
	Model    string        `json:"model,omitempty"`
	Messages []chatMessage `json:"messages"`
}

// chatMessage content is either a plain string or a slice of content parts.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type httpStatusError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

func (c *Client) completionWithRetry(ctx context.Context, payload chatCompletionRequest, op string, tracker *progressTracker) (string, error) {
	attempts := c.retryAttempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := c.sendOnce(ctx, payload, tracker)
		if err == nil {
			return text, nil
		}
		lastErr = err
		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			break
		}
		if err := c.sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}
	return "", classify(op, lastErr)
}

func (c *Client) sendOnce(ctx context.Context, payload chatCompletionRequest, tracker *progressTracker) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
		req.Header.Set("Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		req.Header.Set("X-Request-ID", rid)
	}
	tracker.report(progressSent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http error (timeout=%s): %w", c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()
	tracker.report(progressHeaders)

	body, err := io.ReadAll(tracker.wrap(resp.Body, resp.ContentLength))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return "", &httpStatusError{
			StatusCode: resp.StatusCode,
			Message:    extractErrorMessage(body, resp.StatusCode),
			RetryAfter: retryAfter,
		}
	}
	return decodeAnalysis(body)
}

func (c *Client) retryAttempts() int {
	if c == nil || c.retryMaxAttempts <= 0 {
		return 1
	}
	return c.retryMaxAttempts
}

func classify(op string, err error) error {
	if err == nil {
		err = errors.New("unknown failure")
	}
	var statusErr *httpStatusError
	switch {
	case errors.Is(err, context.Canceled):
		return services.Wrap(services.ErrTransient, "analysis", op, "request cancelled", err)
	case errors.Is(err, context.DeadlineExceeded), isTimeout(err):
		return services.Wrap(services.ErrTimeout, "analysis", op, "request timed out", err)
	case errors.As(err, &statusErr):
		return services.Wrap(services.ErrExternal, "analysis", op, statusErr.Message, err)
	default:
		return services.Wrap(services.ErrExternal, "analysis", op, "", err)
	}
}

// userMessage extracts the human-readable part of a classified error for the
// Result.Error field.
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	var statusErr *httpStatusError
	var malformed *malformedResponseError
	switch {
	case errors.As(err, &statusErr) && statusErr.Message != "":
		return statusErr.Message
	case errors.As(err, &malformed):
		return "unexpected response from analysis service"
	case errors.Is(err, services.ErrTimeout):
		return "analysis service timed out"
	case errors.Is(err, services.ErrValidation):
		msg := err.Error()
		if idx := strings.LastIndex(msg, ": "); idx >= 0 {
			msg = msg[idx+2:]
		}
		return msg
	default:
		return "analysis service unavailable"
	}
}

func checkServings(n int) error {
	if n < MinServings || n > MaxServings {
		return fmt.Errorf("servings must be between %d and %d (got %d)", MinServings, MaxServings, n)
	}
	return nil
}

func isImageReference(value string) bool {
	lower := strings.ToLower(value)
	return strings.HasPrefix(lower, "data:image/") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "http://")
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		if delay := time.Until(when); delay > 0 {
			return delay, true
		}
	}
	return 0, false
}
