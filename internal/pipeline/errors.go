package pipeline

import "errors"

var (
	ErrOutputCreateFailed = errors.New("failed to create output file")
	ErrEmitFailed         = errors.New("failed to emit window statistics")
	ErrKafkaSourceFailed  = errors.New("kafka record source failed")
)
