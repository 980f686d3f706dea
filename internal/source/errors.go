package source

import "errors"

var (
	ErrInputNotFound      = errors.New("input file not found")
	ErrInputParse         = errors.New("failed to parse input file")
	ErrInvalidKafkaConfig = errors.New("invalid Kafka configuration provided")
	ErrKafkaFetchFailed   = errors.New("failed to fetch message from Kafka")
)
