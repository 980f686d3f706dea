package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	fs := pflag.NewFlagSet("windower", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return Load(fs)
}

func TestLoadValid(t *testing.T) {
	cfg, err := load(t, "-f", "dump.json", "-l", "2.5", "--output-csv", "out.csv", "--ecu", "BRAKE", "--ecu", "SPEED")
	require.NoError(t, err)

	assert.Equal(t, "dump.json", cfg.File)
	assert.Equal(t, 2.5, cfg.Length)
	assert.Equal(t, []string{"BRAKE", "SPEED"}, cfg.ECUs)
	assert.Equal(t, 100, cfg.BufferSize)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
}

func TestLoadStepDefaultsToLength(t *testing.T) {
	cfg, err := load(t, "-f", "dump.json", "-l", "3", "--output-csv", "out.csv")
	require.NoError(t, err)
	assert.Equal(t, 3.0, cfg.Step)
}

func TestLoadExplicitStep(t *testing.T) {
	cfg, err := load(t, "-f", "dump.json", "-l", "3", "-s", "1", "--output-json", "out.json")
	require.NoError(t, err)
	assert.Equal(t, 1.0, cfg.Step)
}

func TestLoadValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"missing input", []string{"-l", "1", "--output-csv", "o.csv"}, ErrMissingInput},
		{"missing length", []string{"-f", "d.json", "--output-csv", "o.csv"}, ErrInvalidWindowLength},
		{"negative length", []string{"-f", "d.json", "-l", "-1", "--output-csv", "o.csv"}, ErrInvalidWindowLength},
		{"negative step", []string{"-f", "d.json", "-l", "1", "-s", "-2", "--output-csv", "o.csv"}, ErrInvalidWindowStep},
		{"no output", []string{"-f", "d.json", "-l", "1"}, ErrNoOutput},
		{"bad buffer", []string{"-f", "d.json", "-l", "1", "--output-csv", "o.csv", "--buffered", "--buffer-size", "0"}, ErrInvalidBufferSize},
		{"bad poll", []string{"-f", "d.json", "-l", "1", "--output-csv", "o.csv", "--watch", "--poll-interval", "0s"}, ErrInvalidPollInterval},
		{"list-ecus conflict", []string{"-f", "d.json", "--list-ecus", "-l", "1"}, ErrListECUsConflict},
		{"list-ecus without file", []string{"--list-ecus", "--kafka-brokers", "b:9092", "--kafka-topic", "t"}, ErrMissingInput},
		{"kafka topic only", []string{"--kafka-topic", "t", "-l", "1", "--output-csv", "o.csv"}, ErrIncompleteKafkaConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, tt.args...)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadListECUsMode(t *testing.T) {
	cfg, err := load(t, "-f", "dump.json", "--list-ecus")
	require.NoError(t, err)
	assert.True(t, cfg.ListECUs)
}

func TestLoadKafkaMode(t *testing.T) {
	cfg, err := load(t, "--kafka-brokers", "localhost:9092", "--kafka-topic", "can-records",
		"-l", "1", "--output-json", "o.json")
	require.NoError(t, err)
	assert.True(t, cfg.KafkaMode())
	assert.Equal(t, "windower-default-group", cfg.KafkaGroupID)
}
