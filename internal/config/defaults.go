package config

const (
	defaultUploadDir  = "~/.local/share/vizart/uploads"
	defaultResultsDir = "~/.local/share/vizart/results"
	defaultLogDir     = "~/.local/share/vizart/logs"
	defaultDataDir    = "~/.local/share/vizart"

	defaultMaxConcurrentJobs    = 4
	defaultJobTimeoutSeconds    = 300
	defaultShutdownGraceSeconds = 30
	defaultJPEGQuality          = 95
	defaultMaxUploadBytes       = 10 << 20

	defaultForegroundThreshold    = 240
	defaultSegmentationConfidence = 0.5
	defaultMinForegroundCoverage  = 0.02

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			UploadDir:  defaultUploadDir,
			ResultsDir: defaultResultsDir,
			LogDir:     defaultLogDir,
			DataDir:    defaultDataDir,
		},
		Processing: Processing{
			MaxConcurrentJobs:    defaultMaxConcurrentJobs,
			JobTimeoutSeconds:    defaultJobTimeoutSeconds,
			ShutdownGraceSeconds: defaultShutdownGraceSeconds,
			JPEGQuality:          defaultJPEGQuality,
			MaxUploadBytes:       defaultMaxUploadBytes,
		},
		Vision: Vision{
			ForegroundThreshold:    defaultForegroundThreshold,
			SegmentationConfidence: defaultSegmentationConfidence,
			MinForegroundCoverage:  defaultMinForegroundCoverage,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
