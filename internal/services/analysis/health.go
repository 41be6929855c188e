package analysis

import (
	"context"
	"strings"

	"recipebox/internal/services"
)

// HealthCheck sends a minimal text-only completion to confirm the endpoint
// answers and accepts the configured key.
func (c *Client) HealthCheck(ctx context.Context) error {
	const op = "health check"
	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "Reply with the single word OK."},
			{Role: "user", Content: "ping"},
		},
	}
	text, err := c.completionWithRetry(ctx, payload, op, nil)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return services.Wrap(services.ErrExternal, "analysis", op, "empty reply", nil)
	}
	return nil
}
