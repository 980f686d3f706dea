package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultBufferSize   = 100
	defaultPollInterval = 2 * time.Second
	defaultKafkaGroupID = "windower-default-group"
	defaultLogMaxSizeMB = 100
	defaultLogMaxBackup = 3
	defaultLogMaxAge    = 7

	// Environment variable prefix
	envPrefix = "WINDOWER"
)

// Config holds the full runtime configuration of the windower tool.
// Values come from CLI flags, with WINDOWER_* environment overrides.
type Config struct {
	File       string `mapstructure:"file"`
	OutputCSV  string `mapstructure:"output-csv"`
	OutputJSON string `mapstructure:"output-json"`

	Length float64  `mapstructure:"length"` // window length, seconds
	Step   float64  `mapstructure:"step"`   // window step, seconds; 0 means Length
	ECUs   []string `mapstructure:"ecu"`

	ListECUs bool `mapstructure:"list-ecus"`

	Buffered   bool `mapstructure:"buffered"`
	BufferSize int  `mapstructure:"buffer-size"`

	Watch        bool          `mapstructure:"watch"`
	PollInterval time.Duration `mapstructure:"poll-interval"`

	KafkaBrokers []string `mapstructure:"kafka-brokers"`
	KafkaTopic   string   `mapstructure:"kafka-topic"`
	KafkaGroupID string   `mapstructure:"kafka-group-id"`

	Quiet    bool   `mapstructure:"quiet"`
	Debug    bool   `mapstructure:"debug"`
	LogFile  string `mapstructure:"log-file"`
	LogMaxMB int    `mapstructure:"log-max-size"`
	LogKeep  int    `mapstructure:"log-max-backups"`
	LogDays  int    `mapstructure:"log-max-age"`
}

// KafkaMode reports whether live Kafka ingest is configured.
func (c *Config) KafkaMode() bool {
	return c.KafkaTopic != "" || len(c.KafkaBrokers) > 0
}

// RegisterFlags declares every CLI flag on the given flag set. The flag
// names double as viper keys, so Load can bind them directly.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("file", "f", "", "path to the input JSON dump")
	fs.String("output-csv", "", "path to write CSV statistics to")
	fs.String("output-json", "", "path to write JSON statistics to")
	fs.Float64P("length", "l", 0, "window length in seconds")
	fs.Float64P("step", "s", 0, "window step in seconds (defaults to length)")
	fs.StringSlice("ecu", nil, "ECU name to include (repeatable; default all)")
	fs.Bool("list-ecus", false, "list the ECU names found in the input and exit")
	fs.Bool("buffered", false, "buffer output rows and flush in batches")
	fs.Int("buffer-size", defaultBufferSize, "rows per flush when buffering")
	fs.Bool("watch", false, "keep running and re-window when the input grows")
	fs.Duration("poll-interval", defaultPollInterval, "re-read interval in watch mode")
	fs.StringSlice("kafka-brokers", nil, "Kafka broker addresses for live ingest")
	fs.String("kafka-topic", "", "Kafka topic carrying raw record objects")
	fs.String("kafka-group-id", defaultKafkaGroupID, "Kafka consumer group id")
	fs.BoolP("quiet", "q", false, "only log errors")
	fs.BoolP("debug", "d", false, "enable debug logging")
	fs.String("log-file", "", "also log to this file (rotated)")
	fs.Int("log-max-size", defaultLogMaxSizeMB, "log file rotation size in MB")
	fs.Int("log-max-backups", defaultLogMaxBackup, "rotated log files to keep")
	fs.Int("log-max-age", defaultLogMaxAge, "days to retain rotated log files")
}

// Load binds the parsed flag set into viper, applies environment
// overrides, unmarshals and validates the configuration.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBindingFlags, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshallingConfig, err)
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Step == 0 {
		cfg.Step = cfg.Length
	}
	if cfg.KafkaGroupID == "" {
		cfg.KafkaGroupID = defaultKafkaGroupID
	}
}

func validate(cfg *Config) error {
	if cfg.KafkaMode() && (cfg.KafkaTopic == "" || len(cfg.KafkaBrokers) == 0) {
		return ErrIncompleteKafkaConfig
	}
	if cfg.File == "" && !cfg.KafkaMode() {
		return ErrMissingInput
	}

	if cfg.ListECUs {
		// list-ecus is a standalone mode; combining it with windowing
		// or output flags is a usage error.
		if cfg.Length != 0 || cfg.OutputCSV != "" || cfg.OutputJSON != "" {
			return ErrListECUsConflict
		}
		if cfg.File == "" {
			return ErrMissingInput
		}
		return nil
	}

	if cfg.Length <= 0 {
		return ErrInvalidWindowLength
	}
	if cfg.Step <= 0 {
		return ErrInvalidWindowStep
	}
	if cfg.OutputCSV == "" && cfg.OutputJSON == "" {
		return ErrNoOutput
	}
	if cfg.Buffered && cfg.BufferSize <= 0 {
		return ErrInvalidBufferSize
	}
	if (cfg.Watch || cfg.KafkaMode()) && cfg.PollInterval <= 0 {
		return ErrInvalidPollInterval
	}
	return nil
}
