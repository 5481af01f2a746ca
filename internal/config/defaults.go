package config

const (
	defaultConfigPath            = "~/.config/murmur/config.toml"
	defaultStateDir              = "~/.local/share/murmur"
	defaultLogDir                = "~/.local/share/murmur/logs"
	defaultFFmpegBinary          = "ffmpeg"
	defaultFFprobeBinary         = "ffprobe"
	defaultProviderBaseURL       = "https://api.deepgram.com"
	defaultProviderModel         = "nova-2"
	defaultLanguage              = "auto"
	defaultWorkers               = 2
	defaultMaxConcurrent         = 5
	defaultRatePerSecond         = 5.0
	defaultRateBurst             = 1
	defaultMaxAttempts           = 3
	defaultAttemptTimeout        = 600
	defaultInitialBackoff        = 2
	defaultMaxBackoff            = 30
	defaultSegmentLength         = 900
	defaultMaxConsecutiveInvalid = 3
	defaultSegmentMinBytes       = 1024
	defaultNotifyTimeout         = 10
	defaultNotifyBatchMinFiles   = 1
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 30
	defaultWatchPollInterval     = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:      defaultStateDir,
			LogDir:        defaultLogDir,
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Provider: Provider{
			BaseURL:     defaultProviderBaseURL,
			Model:       defaultProviderModel,
			SmartFormat: true,
		},
		Transcription: Transcription{
			Language: defaultLanguage,
			Workers:  defaultWorkers,
		},
		Dispatch: Dispatch{
			MaxConcurrent:  defaultMaxConcurrent,
			RatePerSecond:  defaultRatePerSecond,
			RateBurst:      defaultRateBurst,
			MaxAttempts:    defaultMaxAttempts,
			AttemptTimeout: defaultAttemptTimeout,
			InitialBackoff: defaultInitialBackoff,
			MaxBackoff:     defaultMaxBackoff,
		},
		Segment: Segment{
			LengthSeconds:         defaultSegmentLength,
			MaxConsecutiveInvalid: defaultMaxConsecutiveInvalid,
			MinBytes:              defaultSegmentMinBytes,
		},
		History: History{
			Enabled: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Batch:          true,
			Errors:         true,
			BatchMinFiles:  defaultNotifyBatchMinFiles,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Watch: Watch{
			PollInterval: defaultWatchPollInterval,
		},
	}
}
