package config

const (
	defaultLogLevel    = "info"
	defaultLogFormat   = "text"
	defaultAppID       = "github.com/yuanying/cbzmeta"
	defaultMaxWidth    = 1200
	defaultJPEGQuality = 85
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Library: Library{
			Workers: 0, // runtime.NumCPU
		},
		Save: Save{
			AppID: defaultAppID,
		},
		Preview: Preview{
			MaxWidth:    defaultMaxWidth,
			JPEGQuality: defaultJPEGQuality,
		},
	}
}
