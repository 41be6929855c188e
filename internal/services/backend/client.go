package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"recipebox/internal/logging"
	"recipebox/internal/recipe"
	"recipebox/internal/services"
)

const defaultHTTPTimeout = 15 * time.Second

// HTTPDoer describes the HTTP client used by the backend client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource returns the bearer token to attach, or "" for none.
type TokenSource func(ctx context.Context) string

// Mirror receives best-effort copies of recipe metadata.
type Mirror interface {
	MirrorRecipes(ctx context.Context, metas []recipe.Meta) error
	UpsertRecipeMeta(ctx context.Context, meta recipe.Meta) error
	RemoveRecipeMeta(ctx context.Context, id string) error
}

// Config captures the backend connection settings.
type Config struct {
	BaseURL        string
	Token          string
	TimeoutSeconds int
}

// Client is the REST pass-through to the recipe backend.
type Client struct {
	baseURL string
	token   string
	tokens  TokenSource
	client  HTTPDoer
	mirror  Mirror
	logger  *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithTokenSource supplies the session token lookup. The configured static
// token is used when the source returns "".
func WithTokenSource(source TokenSource) Option {
	return func(c *Client) {
		c.tokens = source
	}
}

// WithMirror enables metadata mirroring into the local store.
func WithMirror(mirror Mirror) Option {
	return func(c *Client) {
		c.mirror = mirror
	}
}

// WithLogger attaches a logger; the client logs under the "backend" component.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "backend")
	}
}

// NewClient constructs a backend client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:   strings.TrimSpace(cfg.Token),
		client:  &http.Client{Timeout: timeout},
		logger:  logging.NewComponentLogger(nil, "backend"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether a base URL is set.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// RecipePatch carries the fields of a partial recipe update; nil fields are untouched.
type RecipePatch struct {
	Title    *string `json:"title,omitempty"`
	Analysis *string `json:"analysis,omitempty"`
	Favorite *bool   `json:"favorite,omitempty"`
	FolderID *string `json:"folder_id,omitempty"`
	Servings *int    `json:"servings,omitempty"`
}

// CreateRecipe stores a new recipe and returns the backend's copy.
func (c *Client) CreateRecipe(ctx context.Context, r recipe.Record) (recipe.Record, error) {
	var created recipe.Record
	if err := c.do(ctx, http.MethodPost, "create recipe", "/recipes", r, &created); err != nil {
		return recipe.Record{}, err
	}
	c.mirrorOne(ctx, created)
	return created, nil
}

// ListRecipes returns every recipe visible to the session and refreshes the mirror.
func (c *Client) ListRecipes(ctx context.Context) ([]recipe.Record, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "list recipes", "/recipes", nil, &raw); err != nil {
		return nil, err
	}
	var records []recipe.Record
	if err := decodeList(raw, "recipes", &records); err != nil {
		return nil, services.Wrap(services.ErrExternal, "backend", "list recipes", "decode response", err)
	}
	if c.mirror != nil {
		metas := make([]recipe.Meta, 0, len(records))
		for _, r := range records {
			metas = append(metas, recipe.MetaOf(r))
		}
		c.warnOnMirror(c.mirror.MirrorRecipes(ctx, metas), "")
	}
	return records, nil
}

// GetRecipe fetches one recipe.
func (c *Client) GetRecipe(ctx context.Context, id string) (recipe.Record, error) {
	var r recipe.Record
	if err := c.do(ctx, http.MethodGet, "get recipe", "/recipes/"+url.PathEscape(id), nil, &r); err != nil {
		return recipe.Record{}, err
	}
	return r, nil
}

// UpdateRecipe applies a partial update and returns the backend's copy.
func (c *Client) UpdateRecipe(ctx context.Context, id string, patch RecipePatch) (recipe.Record, error) {
	var updated recipe.Record
	if err := c.do(ctx, http.MethodPatch, "update recipe", "/recipes/"+url.PathEscape(id), patch, &updated); err != nil {
		return recipe.Record{}, err
	}
	if updated.ID == "" {
		updated.ID = id
	}
	c.mirrorOne(ctx, updated)
	return updated, nil
}

// DeleteRecipe removes a recipe.
func (c *Client) DeleteRecipe(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "delete recipe", "/recipes/"+url.PathEscape(id), nil, nil); err != nil {
		return err
	}
	if c.mirror != nil {
		c.warnOnMirror(c.mirror.RemoveRecipeMeta(ctx, id), id)
	}
	return nil
}

// SetApproval records an approval decision. Only admins are accepted by the backend.
func (c *Client) SetApproval(ctx context.Context, id string, status recipe.Status) error {
	body := map[string]string{"status": string(status)}
	return c.do(ctx, http.MethodPost, "set approval", "/recipes/"+url.PathEscape(id)+"/approval", body, nil)
}

// ListComments returns the comments on a recipe.
func (c *Client) ListComments(ctx context.Context, recipeID string) ([]recipe.Comment, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "list comments", "/recipes/"+url.PathEscape(recipeID)+"/comments", nil, &raw); err != nil {
		return nil, err
	}
	var comments []recipe.Comment
	if err := decodeList(raw, "comments", &comments); err != nil {
		return nil, services.Wrap(services.ErrExternal, "backend", "list comments", "decode response", err)
	}
	return comments, nil
}

// AddComment posts a comment on a recipe.
func (c *Client) AddComment(ctx context.Context, recipeID, body string) (recipe.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return recipe.Comment{}, services.Wrap(services.ErrValidation, "backend", "add comment", "comment body required", nil)
	}
	var created recipe.Comment
	payload := map[string]string{"body": body}
	if err := c.do(ctx, http.MethodPost, "add comment", "/recipes/"+url.PathEscape(recipeID)+"/comments", payload, &created); err != nil {
		return recipe.Comment{}, err
	}
	return created, nil
}

// ListUsers returns every account; admin only.
func (c *Client) ListUsers(ctx context.Context) ([]recipe.User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "list users", "/users", nil, &raw); err != nil {
		return nil, err
	}
	var users []recipe.User
	if err := decodeList(raw, "users", &users); err != nil {
		return nil, services.Wrap(services.ErrExternal, "backend", "list users", "decode response", err)
	}
	return users, nil
}

// CurrentUser asks the auth endpoint for the session's user.
func (c *Client) CurrentUser(ctx context.Context) (recipe.User, error) {
	var user recipe.User
	if err := c.do(ctx, http.MethodGet, "current user", "/auth/me", nil, &user); err != nil {
		return recipe.User{}, err
	}
	user.Role = recipe.ParseRole(string(user.Role))
	return user, nil
}

func (c *Client) mirrorOne(ctx context.Context, r recipe.Record) {
	if c.mirror == nil || r.ID == "" {
		return
	}
	c.warnOnMirror(c.mirror.UpsertRecipeMeta(ctx, recipe.MetaOf(r)), r.ID)
}

// warnOnMirror logs and swallows mirror failures: the backend stays the source of truth.
func (c *Client) warnOnMirror(err error, recipeID string) {
	if err == nil {
		return
	}
	attrs := []logging.Attr{
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "local cache will refresh on next list"),
		logging.String(logging.FieldImpact, "offline recipe list may be stale"),
	}
	if recipeID != "" {
		attrs = append(attrs, logging.RecipeID(recipeID))
	}
	logging.WarnWithContext(c.logger, "recipe cache mirror failed", "cache_mirror_failed", attrs...)
}

func (c *Client) bearer(ctx context.Context) string {
	if c.tokens != nil {
		if token := strings.TrimSpace(c.tokens(ctx)); token != "" {
			return token
		}
	}
	return c.token
}

func (c *Client) do(ctx context.Context, method, op, path string, body, target any) error {
	if !c.Configured() {
		return services.Wrap(services.ErrConfiguration, "backend", op, "backend.base_url not set", nil)
	}
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return services.Wrap(services.ErrValidation, "backend", op, "encode body", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "backend", op, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimPrefix(token, "Bearer "))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		req.Header.Set("X-Request-ID", rid)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return services.Wrap(services.ErrTimeout, "backend", op, "request timed out", err)
		}
		return services.Wrap(services.ErrTransient, "backend", op, "request failed", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return services.Wrap(services.ErrTransient, "backend", op, "read body", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(op, resp.StatusCode, payload)
	}
	if target == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return services.Wrap(services.ErrExternal, "backend", op, "decode response", err)
	}
	return nil
}

func statusError(op string, status int, body []byte) error {
	message := errorMessage(body)
	if message == "" {
		message = fmt.Sprintf("http %d", status)
	} else {
		message = fmt.Sprintf("http %d: %s", status, message)
	}
	marker := services.ErrExternal
	switch {
	case status == http.StatusNotFound:
		marker = services.ErrNotFound
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity,
		status == http.StatusUnauthorized, status == http.StatusForbidden:
		marker = services.ErrValidation
	case status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		marker = services.ErrTransient
	}
	return services.Wrap(marker, "backend", op, message, nil)
}

func errorMessage(body []byte) string {
	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(body), &envelope); err != nil {
		return ""
	}
	if len(envelope.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(envelope.Error, &nested); err == nil && nested.Message != "" {
			return strings.TrimSpace(nested.Message)
		}
		var flat string
		if err := json.Unmarshal(envelope.Error, &flat); err == nil && flat != "" {
			return strings.TrimSpace(flat)
		}
	}
	return strings.TrimSpace(envelope.Message)
}

// decodeList accepts a bare JSON array or an object wrapping it under key.
func decodeList(raw json.RawMessage, key string, target any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '[' {
		return json.Unmarshal(trimmed, target)
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return err
	}
	for _, k := range []string{key, "data", "items"} {
		if inner, ok := wrapped[k]; ok {
			return json.Unmarshal(inner, target)
		}
	}
	return fmt.Errorf("no %q list in response", key)
}
