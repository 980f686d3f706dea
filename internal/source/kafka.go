package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/saaskilahtij/windower/internal/record"
)

type kafkaZapLogger struct {
	log *zap.Logger
}

func (l kafkaZapLogger) Printf(msg string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(msg, args...))
}

type kafkaZapErrorLogger struct {
	log *zap.Logger
}

func (l kafkaZapErrorLogger) Printf(msg string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(msg, args...))
}

// Kafka streams raw record objects from a topic, as an alternative to a
// dump file for live windowing. Each message value is a single record
// object in the same schema the file source decodes.
type Kafka struct {
	reader *kafka.Reader
	output chan<- record.Raw
	logger *zap.Logger
}

// NewKafka creates and configures a Kafka record source.
func NewKafka(brokers []string, topic, groupID string, output chan<- record.Raw, logger *zap.Logger) (*Kafka, error) {
	if len(brokers) == 0 || topic == "" || groupID == "" {
		return nil, ErrInvalidKafkaConfig
	}

	readerCfg := kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		Logger:      kafkaZapLogger{logger.Named("kafka-reader").WithOptions(zap.AddCallerSkip(1))},
		ErrorLogger: kafkaZapErrorLogger{logger.Named("kafka-reader-error").WithOptions(zap.AddCallerSkip(1))},
	}

	logger.Info("Kafka record source created",
		zap.Strings("brokers", brokers),
		zap.String("topic", topic),
		zap.String("group_id", groupID),
	)

	return &Kafka{
		reader: kafka.NewReader(readerCfg),
		output: output,
		logger: logger,
	}, nil
}

// Run fetches messages until the context is cancelled, decoding each
// into a raw record and sending it downstream. Messages that fail to
// decode are skipped with a warning.
func (k *Kafka) Run(ctx context.Context) error {
	sugar := k.logger.Sugar()
	sugar.Info("Starting Kafka record source loop...")

	defer func() {
		if err := k.reader.Close(); err != nil {
			sugar.Errorw("Failed to close Kafka reader cleanly", zap.Error(err))
		}
		sugar.Info("Kafka record source loop stopped.")
	}()

	for {
		m, err := k.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return context.Canceled
			}
			return fmt.Errorf("%w: %w", ErrKafkaFetchFailed, err)
		}

		var raw record.Raw
		if err := json.Unmarshal(m.Value, &raw); err != nil {
			sugar.Warnw("Skipping undecodable Kafka message",
				zap.Int64("offset", m.Offset),
				zap.Error(err),
			)
			continue
		}

		select {
		case k.output <- raw:

		case <-ctx.Done():
			return context.Canceled
		}
	}
}
