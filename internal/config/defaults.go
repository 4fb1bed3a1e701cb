package config

const (
	defaultDataDir                 = "~/.local/share/orrery"
	defaultLogDir                  = "~/.local/share/orrery/logs"
	defaultAPIBind                 = "127.0.0.1:7412"
	defaultArchiveBaseURL          = "https://exoplanetarchive.ipac.caltech.edu/api/v1"
	defaultArchiveTable            = "cumulative"
	defaultArchiveTimeoutSeconds   = 30
	defaultClassifierTimeoutSecs   = 10
	defaultCatalogPrefix           = "ORR"
	defaultSchedulerPattern        = "0 3 * * *"
	defaultSchedulerTimezone       = "UTC"
	defaultAssistantBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultAssistantModel          = "google/gemini-3-flash-preview"
	defaultAssistantTimeoutSeconds = 30
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Archive: Archive{
			BaseURL:        defaultArchiveBaseURL,
			Table:          defaultArchiveTable,
			TimeoutSeconds: defaultArchiveTimeoutSeconds,
		},
		Classifier: Classifier{
			Enabled:        true,
			TimeoutSeconds: defaultClassifierTimeoutSecs,
		},
		Naming: Naming{
			CatalogPrefix: defaultCatalogPrefix,
		},
		Scheduler: Scheduler{
			Enabled:  true,
			Pattern:  defaultSchedulerPattern,
			Timezone: defaultSchedulerTimezone,
		},
		Assistant: Assistant{
			BaseURL:        defaultAssistantBaseURL,
			Model:          defaultAssistantModel,
			TimeoutSeconds: defaultAssistantTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
