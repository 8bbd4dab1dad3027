package config

const (
	defaultModelDir       = "~/.local/share/taggerd/models"
	defaultLogDir         = "~/.local/share/taggerd/logs"
	defaultAPIBind        = "127.0.0.1:7870"
	defaultModel          = "wd14-vit-v2"
	defaultThreshold      = 0.0
	defaultHistoryEnabled = true
	defaultHistoryPath    = "~/.local/share/taggerd/history.db"
	defaultHistoryKeep    = 1000
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ModelDir: defaultModelDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Tagger: Tagger{
			DefaultModel:     defaultModel,
			DefaultThreshold: defaultThreshold,
		},
		History: History{
			Enabled: defaultHistoryEnabled,
			Path:    defaultHistoryPath,
			Keep:    defaultHistoryKeep,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
