package config

const (
	defaultConfigPath       = "~/.config/wastetwin/config.toml"
	defaultLogDir           = "~/.local/share/wastetwin/logs"
	defaultAPIBind          = "127.0.0.1:7488"
	defaultMaxConcurrent    = 3
	defaultMaxEnqueue       = 50
	defaultTotalSteps       = 20
	defaultMaxStepDelayMS   = 500
	defaultHistoryLimit     = 500
	defaultFailedLimit      = 100
	defaultPollInterval     = 10
	defaultEventBufferSize  = 1024
	defaultSubscriberBuffer = 256
	defaultNotifyTimeout    = 10
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Engine: Engine{
			MaxConcurrent:  defaultMaxConcurrent,
			MaxEnqueue:     defaultMaxEnqueue,
			TotalSteps:     defaultTotalSteps,
			MaxStepDelayMS: defaultMaxStepDelayMS,
			HistoryLimit:   defaultHistoryLimit,
			FailedLimit:    defaultFailedLimit,
		},
		Workflow: Workflow{
			AutoProcess:  true,
			PollInterval: defaultPollInterval,
		},
		Events: Events{
			BufferSize:       defaultEventBufferSize,
			SubscriberBuffer: defaultSubscriberBuffer,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Queue:          true,
			Failures:       true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
