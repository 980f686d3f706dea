package config

import "errors"

var (
	ErrBindingFlags          = errors.New("failed to bind command line flags")
	ErrUnmarshallingConfig   = errors.New("failed to unmarshal config")
	ErrMissingInput          = errors.New("an input file (or Kafka topic) is required")
	ErrInvalidWindowLength   = errors.New("window length must be positive")
	ErrInvalidWindowStep     = errors.New("window step must be positive")
	ErrNoOutput              = errors.New("at least one of --output-csv or --output-json is required")
	ErrInvalidBufferSize     = errors.New("buffer size must be positive when buffering is enabled")
	ErrInvalidPollInterval   = errors.New("poll interval must be positive in watch mode")
	ErrListECUsConflict      = errors.New("--list-ecus cannot be combined with windowing or output flags")
	ErrIncompleteKafkaConfig = errors.New("kafka ingest needs both brokers and a topic")
)
