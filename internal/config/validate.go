package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateImages(); err != nil {
		return err
	}
	if err := ensurePositiveMap(map[string]int{
		"analysis.timeout_seconds":      c.Analysis.TimeoutSeconds,
		"analysis.retry_attempts":       c.Analysis.RetryAttempts,
		"backend.timeout_seconds":       c.Backend.TimeoutSeconds,
		"storage.max_cache_entries":     c.Storage.MaxCacheEntries,
		"storage.max_value_bytes":       c.Storage.MaxValueBytes,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
		"notifications.history_size":    c.Notifications.HistorySize,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if c.Analysis.BaseURL != "" {
		if err := validateURL("analysis.base_url", c.Analysis.BaseURL); err != nil {
			return err
		}
	}
	switch c.Analysis.Language {
	case "en", "de":
	default:
		return fmt.Errorf("analysis.language must be one of en, de (got %q)", c.Analysis.Language)
	}
	return nil
}

func (c *Config) validateBackend() error {
	if c.Backend.BaseURL == "" {
		return nil
	}
	return validateURL("backend.base_url", c.Backend.BaseURL)
}

func (c *Config) validateImages() error {
	if !c.Images.S3Enabled {
		return nil
	}
	if c.Images.Bucket == "" {
		return errors.New("images.bucket must be set when images.s3_enabled is true")
	}
	if c.Images.Region == "" {
		return errors.New("images.region must be set when images.s3_enabled is true")
	}
	if c.Images.Endpoint != "" {
		if err := validateURL("images.endpoint", c.Images.Endpoint); err != nil {
			return err
		}
	}
	return nil
}

func validateURL(key, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if (scheme != "http" && scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL (got %q)", key, value)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
