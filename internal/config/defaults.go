package config

const (
	defaultConfigPath             = "~/.config/recipebox/config.toml"
	defaultDataDir                = "~/.local/share/recipebox"
	defaultLogDir                 = "~/.local/share/recipebox/logs"
	defaultInboxDir               = "~/.local/share/recipebox/inbox"
	defaultAPIBind                = "127.0.0.1:7488"
	defaultAnalysisBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultAnalysisModel          = "google/gemini-2.5-flash"
	defaultAnalysisReferer        = "https://github.com/recipebox/recipebox"
	defaultAnalysisTitle          = "recipebox"
	defaultAnalysisTimeoutSeconds = 60
	defaultAnalysisRetryAttempts  = 1
	defaultAnalysisLanguage       = "en"
	defaultBackendTimeoutSeconds  = 15
	defaultMaxCacheEntries        = 200
	defaultMaxValueBytes          = 512 * 1024
	defaultImagesRegion           = "us-east-1"
	defaultImagesPrefix           = "recipes"
	defaultNotifyRequestTimeout   = 10
	defaultNotifyHistorySize      = 50
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
			InboxDir: defaultInboxDir,
			APIBind:  defaultAPIBind,
		},
		Analysis: Analysis{
			BaseURL:        defaultAnalysisBaseURL,
			Model:          defaultAnalysisModel,
			Referer:        defaultAnalysisReferer,
			Title:          defaultAnalysisTitle,
			TimeoutSeconds: defaultAnalysisTimeoutSeconds,
			RetryAttempts:  defaultAnalysisRetryAttempts,
			Language:       defaultAnalysisLanguage,
		},
		Backend: Backend{
			TimeoutSeconds: defaultBackendTimeoutSeconds,
		},
		Storage: Storage{
			MaxCacheEntries: defaultMaxCacheEntries,
			MaxValueBytes:   defaultMaxValueBytes,
		},
		Images: Images{
			Region: defaultImagesRegion,
			Prefix: defaultImagesPrefix,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			HistorySize:    defaultNotifyHistorySize,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
