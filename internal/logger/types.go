package logger

// Log encodings.
const (
	EncodingJSON    = "json"
	EncodingConsole = "console"
)

// DefaultLevel is the default logging level.
const DefaultLevel = "info"

// ValidLevels lists the accepted values for Config.Level.
var ValidLevels = []string{"debug", "info", "warn", "error"}

// Config represents the logger configuration.
type Config struct {
	// Level is the minimum logging level (debug, info, warn, error).
	Level string `env:"LOG_LEVEL" yaml:"level"`
	// Encoding is "json" (default) or "console".
	Encoding string `env:"LOG_ENCODING" yaml:"encoding"`
	// Development switches to a colored, caller-rich output.
	Development bool `env:"LOG_DEVELOPMENT" yaml:"development"`
	// OutputPaths is a list of URLs or file paths to write logging output to.
	OutputPaths []string `yaml:"output_paths"`
}

// SetDefaults applies default values to the config if not set.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = DefaultLevel
	}
	if c.Encoding == "" {
		c.Encoding = EncodingJSON
	}
	if len(c.OutputPaths) == 0 {
		c.OutputPaths = []string{"stdout"}
	}
}
