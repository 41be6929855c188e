package preflight

import (
	"context"

	"recipebox/internal/config"
	"recipebox/internal/recipe"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// HealthChecker is satisfied by the analysis client.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// UserProber is satisfied by the backend client.
type UserProber interface {
	CurrentUser(ctx context.Context) (recipe.User, error)
}

// BucketChecker is satisfied by the image store.
type BucketChecker interface {
	CheckBucket(ctx context.Context) error
	Bucket() string
}

// Targets are the live clients to check. Nil entries are skipped.
type Targets struct {
	Analysis HealthChecker
	Backend  UserProber
	Images   BucketChecker
}

// RunAll executes every applicable check for cfg.
func RunAll(ctx context.Context, cfg *config.Config, targets Targets) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if cfg.Paths.InboxDir != "" {
		results = append(results, CheckDirectoryAccess("Inbox directory", cfg.Paths.InboxDir))
	}

	if targets.Analysis != nil {
		results = append(results, CheckAnalysis(ctx, targets.Analysis, cfg.Analysis.APIKey != ""))
	}
	if cfg.Backend.BaseURL != "" && targets.Backend != nil {
		results = append(results, CheckBackend(ctx, targets.Backend))
	}
	if cfg.Images.S3Enabled && targets.Images != nil {
		results = append(results, CheckImages(ctx, targets.Images))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
