package window

import (
	"math/rand"
	"testing"

	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaskilahtij/windower/internal/record"
)

func TestAggregateBrakeWindow(t *testing.T) {
	records := []record.Record{
		{ECU: "BRAKE", Timestamp: 0.0, Fields: map[string]float64{"BRAKE_AMOUNT": 39}},
		{ECU: "BRAKE", Timestamp: 0.5, Fields: map[string]float64{"BRAKE_AMOUNT": 41}},
	}

	result := Aggregate(Window{Index: 0, Start: 0, End: 1}, records)

	fs, ok := result.Fields["BRAKE_AMOUNT"]
	require.True(t, ok)
	assert.Equal(t, 2, fs.Count)
	assert.Equal(t, 39.0, fs.Min)
	assert.Equal(t, 41.0, fs.Max)
	assert.Equal(t, 40.0, fs.Mean)
	assert.Equal(t, 1.0, fs.Std)
}

func TestAggregateSingleObservation(t *testing.T) {
	records := []record.Record{
		{ECU: "SPEED", Timestamp: 0.0, Fields: map[string]float64{"SPEED": 15.48}},
	}

	result := Aggregate(Window{Index: 0, Start: 0, End: 1}, records)

	fs := result.Fields["SPEED"]
	assert.Equal(t, 1, fs.Count)
	assert.Equal(t, fs.Min, fs.Max)
	assert.Equal(t, fs.Min, fs.Mean)
	assert.Equal(t, 0.0, fs.Std)
}

func TestAggregateDynamicFieldDiscovery(t *testing.T) {
	records := []record.Record{
		{ECU: "BRAKE", Timestamp: 0.0, Fields: map[string]float64{"BRAKE_AMOUNT": 39, "BRAKE_PEDAL": 18}},
		{ECU: "SPEED", Timestamp: 0.2, Fields: map[string]float64{"SPEED": 15.48}},
		{ECU: "BRAKE", Timestamp: 0.4, Fields: map[string]float64{"BRAKE_AMOUNT": 40}},
	}

	result := Aggregate(Window{Index: 0, Start: 0, End: 1}, records)

	assert.Equal(t, []string{"BRAKE_AMOUNT", "BRAKE_PEDAL", "SPEED"}, result.FieldNames())
	// A record missing a field contributes nothing to it.
	assert.Equal(t, 2, result.Fields["BRAKE_AMOUNT"].Count)
	assert.Equal(t, 1, result.Fields["BRAKE_PEDAL"].Count)
	assert.Equal(t, 1, result.Fields["SPEED"].Count)
}

func TestAggregateEmptyWindow(t *testing.T) {
	result := Aggregate(Window{Index: 3, Start: 9, End: 10}, nil)
	assert.Empty(t, result.Fields)
	assert.Empty(t, result.FieldNames())
}

// TestAggregateMatchesReference cross-checks the streaming accumulator
// against a straightforward reference implementation on random data.
func TestAggregateMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	values := make([]float64, 200)
	records := make([]record.Record, len(values))
	for i := range values {
		values[i] = 50 + rng.NormFloat64()*12
		records[i] = record.Record{
			ECU:       "SPEED",
			Timestamp: float64(i) * 0.01,
			Fields:    map[string]float64{"SPEED": values[i]},
		}
	}

	result := Aggregate(Window{Index: 0, Start: 0, End: 2}, records)
	fs := result.Fields["SPEED"]

	wantMin, err := stats.Min(values)
	require.NoError(t, err)
	wantMax, err := stats.Max(values)
	require.NoError(t, err)
	wantMean, err := stats.Mean(values)
	require.NoError(t, err)
	wantStd, err := stats.StandardDeviationPopulation(values)
	require.NoError(t, err)

	assert.Equal(t, len(values), fs.Count)
	assert.Equal(t, wantMin, fs.Min)
	assert.Equal(t, wantMax, fs.Max)
	assert.InDelta(t, wantMean, fs.Mean, 1e-9)
	assert.InDelta(t, wantStd, fs.Std, 1e-6)
}

func TestAccumulatorIdenticalValues(t *testing.T) {
	var acc accumulator
	for i := 0; i < 5; i++ {
		acc.add(7.25)
	}

	fs := acc.stats()
	assert.Equal(t, 5, fs.Count)
	assert.Equal(t, 7.25, fs.Mean)
	// sumSq/n - mean^2 can round slightly negative here; the clamp must
	// keep Std at exactly zero.
	assert.Equal(t, 0.0, fs.Std)
}
