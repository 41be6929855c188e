package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAnalysis()
	c.normalizeBackend()
	c.normalizeStorage()
	c.normalizeImages()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.InboxDir, err = expandPath(strings.TrimSpace(c.Paths.InboxDir)); err != nil {
		return fmt.Errorf("paths.inbox_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		c.Paths.APIToken = envValue("RECIPEBOX_API_TOKEN")
	}
	return nil
}

func (c *Config) normalizeAnalysis() {
	c.Analysis.BaseURL = strings.TrimSpace(c.Analysis.BaseURL)
	if c.Analysis.BaseURL == "" {
		c.Analysis.BaseURL = defaultAnalysisBaseURL
	}
	c.Analysis.Model = strings.TrimSpace(c.Analysis.Model)
	if c.Analysis.Model == "" {
		c.Analysis.Model = defaultAnalysisModel
	}
	c.Analysis.Referer = strings.TrimSpace(c.Analysis.Referer)
	if c.Analysis.Referer == "" {
		c.Analysis.Referer = defaultAnalysisReferer
	}
	c.Analysis.Title = strings.TrimSpace(c.Analysis.Title)
	if c.Analysis.Title == "" {
		c.Analysis.Title = defaultAnalysisTitle
	}
	if c.Analysis.TimeoutSeconds <= 0 {
		c.Analysis.TimeoutSeconds = defaultAnalysisTimeoutSeconds
	}
	if c.Analysis.RetryAttempts <= 0 {
		c.Analysis.RetryAttempts = defaultAnalysisRetryAttempts
	}
	c.Analysis.Language = strings.ToLower(strings.TrimSpace(c.Analysis.Language))
	if c.Analysis.Language == "" {
		c.Analysis.Language = defaultAnalysisLanguage
	}
	c.Analysis.APIKey = strings.TrimSpace(c.Analysis.APIKey)
	if c.Analysis.APIKey == "" {
		c.Analysis.APIKey = envValue("RECIPEBOX_ANALYSIS_API_KEY", "OPENROUTER_API_KEY")
	}
}

func (c *Config) normalizeBackend() {
	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	c.Backend.Token = strings.TrimSpace(c.Backend.Token)
	if c.Backend.Token == "" {
		c.Backend.Token = envValue("RECIPEBOX_BACKEND_TOKEN")
	}
	if c.Backend.TimeoutSeconds <= 0 {
		c.Backend.TimeoutSeconds = defaultBackendTimeoutSeconds
	}
}

func (c *Config) normalizeStorage() {
	if c.Storage.MaxCacheEntries <= 0 {
		c.Storage.MaxCacheEntries = defaultMaxCacheEntries
	}
	if c.Storage.MaxValueBytes <= 0 {
		c.Storage.MaxValueBytes = defaultMaxValueBytes
	}
}

func (c *Config) normalizeImages() {
	c.Images.Bucket = strings.TrimSpace(c.Images.Bucket)
	c.Images.Region = strings.TrimSpace(c.Images.Region)
	if c.Images.Region == "" {
		c.Images.Region = envValue("AWS_REGION")
		if c.Images.Region == "" {
			c.Images.Region = defaultImagesRegion
		}
	}
	c.Images.Endpoint = strings.TrimRight(strings.TrimSpace(c.Images.Endpoint), "/")
	c.Images.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.Images.PublicBaseURL), "/")
	c.Images.Prefix = strings.Trim(strings.TrimSpace(c.Images.Prefix), "/")
	if c.Images.Prefix == "" {
		c.Images.Prefix = defaultImagesPrefix
	}
	c.Images.AccessKey = strings.TrimSpace(c.Images.AccessKey)
	if c.Images.AccessKey == "" {
		c.Images.AccessKey = envValue("AWS_ACCESS_KEY_ID")
	}
	c.Images.SecretKey = strings.TrimSpace(c.Images.SecretKey)
	if c.Images.SecretKey == "" {
		c.Images.SecretKey = envValue("AWS_SECRET_ACCESS_KEY")
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
	if c.Notifications.HistorySize <= 0 {
		c.Notifications.HistorySize = defaultNotifyHistorySize
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// envValue returns the first non-empty environment value among names.
func envValue(names ...string) string {
	for _, name := range names {
		if value, ok := os.LookupEnv(name); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
