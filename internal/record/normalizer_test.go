package record

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func canDump() []Raw {
	return []Raw{
		{
			"name":      "BRAKE",
			"timestamp": 1717678137.6661446,
			"id":        float64(166),
			"data":      `{"BRAKE_AMOUNT": 39, "BRAKE_PEDAL": 18}`,
			"raw":       "0x2700125000000037",
		},
		{
			"name":      "BRAKE",
			"timestamp": 1717678137.6795962,
			"id":        float64(166),
			"data":      `{"BRAKE_AMOUNT": 39, "BRAKE_PEDAL": 19}`,
			"raw":       "0x2700135000000038",
		},
		{
			"name":      "Unknown",
			"timestamp": 1717678137.6916032,
			"id":        float64(303),
			"data":      "ff7fff7fff7fffb1",
			"raw":       "0xff7fff7fff7fffb1",
		},
		{
			"name":      "SPEED",
			"timestamp": 1717678137.6916034,
			"id":        float64(180),
			"data":      `{"ENCODER": 1, "SPEED": 15.48, "CHECKSUM": 207}`,
			"raw":       "0x0000000001060ccf",
		},
	}
}

func TestNormalizeDropsUnknownAndMalformed(t *testing.T) {
	n := NewNormalizer(zap.NewNop())

	records := n.Normalize(canDump())

	// The Unknown record carries a non-JSON payload anyway; both reasons
	// drop it.
	require.Len(t, records, 3)
	assert.Equal(t, "BRAKE", records[0].ECU)
	assert.Equal(t, "BRAKE", records[1].ECU)
	assert.Equal(t, "SPEED", records[2].ECU)
	assert.Equal(t, 1717678137.6661446, records[0].Timestamp)
	assert.Equal(t, map[string]float64{"BRAKE_AMOUNT": 39, "BRAKE_PEDAL": 18}, records[0].Fields)
	assert.Equal(t, map[string]float64{"ENCODER": 1, "SPEED": 15.48, "CHECKSUM": 207}, records[2].Fields)
}

func TestNormalizeDropsInvalidTimestamp(t *testing.T) {
	n := NewNormalizer(zap.NewNop())

	raws := []Raw{
		{"name": "BRAKE", "timestamp": 1717678137.6661446, "data": `{"BRAKE_AMOUNT": 39}`},
		{"name": "BRAKE", "timestamp": "invalid", "data": `{"BRAKE_AMOUNT": 40}`},
		{"name": "BRAKE", "data": `{"BRAKE_AMOUNT": 41}`},
		{"name": "BRAKE", "timestamp": -5.0, "data": `{"BRAKE_AMOUNT": 42}`},
	}

	records := n.Normalize(raws)
	require.Len(t, records, 1)
	assert.Equal(t, 39.0, records[0].Fields["BRAKE_AMOUNT"])
}

func TestNormalizeExcludesNonNumericFields(t *testing.T) {
	n := NewNormalizer(zap.NewNop())

	raws := []Raw{
		{
			"name":      "SPEED",
			"timestamp": 10.0,
			"data":      `{"SPEED": 15.48, "MODE": "eco", "ACTIVE": true, "SPARE": null, "ENCODER": 1}`,
		},
	}

	records := n.Normalize(raws)
	require.Len(t, records, 1)
	assert.Equal(t, map[string]float64{"SPEED": 15.48, "ENCODER": 1}, records[0].Fields)
}

func TestNormalizeUnparseablePayloadIsNotFatal(t *testing.T) {
	n := NewNormalizer(zap.NewNop())

	raws := []Raw{
		{"name": "BRAKE", "timestamp": 1.0, "data": `not json at all`},
		{"name": "BRAKE", "timestamp": 2.0, "data": `{"BRAKE_AMOUNT": 40}`},
	}

	records := n.Normalize(raws)
	require.Len(t, records, 1)
	assert.Equal(t, 2.0, records[0].Timestamp)
}

func TestCleanRemovesUnknownsPreservingOrder(t *testing.T) {
	input := []Raw{
		{"name": "ECU1"},
		{"name": "Unknown"},
		{"name": "ECU2"},
		{"name": nil},
		{"name": ""},
		{"name": "ECU3"},
	}

	cleaned := Clean(input)
	require.Len(t, cleaned, 3)
	for i, want := range []string{"ECU1", "ECU2", "ECU3"} {
		name, ok := cleaned[i].Name()
		require.True(t, ok)
		assert.Equal(t, want, name)
	}
}

func TestECUNames(t *testing.T) {
	input := []Raw{
		{"name": "ECU2"},
		{"name": "ECU1"},
		{"name": "Unknown"},
		{"name": "ECU1"},
		{"name": "ECU3"},
		{"name": "ECU2"},
	}

	assert.Equal(t, []string{"ECU1", "ECU2", "ECU3"}, ECUNames(input))
}

func TestFilterExactMatch(t *testing.T) {
	records := []Record{
		{ECU: "BRAKE", Timestamp: 1},
		{ECU: "SPEED", Timestamp: 2},
		{ECU: "BRAKE", Timestamp: 3},
		{ECU: "brake", Timestamp: 4},
	}

	filtered := Filter(records, []string{"BRAKE"})
	require.Len(t, filtered, 2)
	assert.Equal(t, 1.0, filtered[0].Timestamp)
	assert.Equal(t, 3.0, filtered[1].Timestamp)
}

func TestFilterEmptySetIsNoOp(t *testing.T) {
	records := []Record{
		{ECU: "BRAKE", Timestamp: 1},
		{ECU: "SPEED", Timestamp: 2},
	}

	assert.Equal(t, records, Filter(records, nil))
}

func TestValidTimestamp(t *testing.T) {
	tests := []struct {
		ts    float64
		valid bool
	}{
		{1717678139, true},
		{1717678139.6661446, true},
		{0, true},
		{-1717678139.6661446, false},
		{math.NaN(), false},
		{math.Inf(1), false},
		{math.Inf(-1), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, ValidTimestamp(tt.ts), "timestamp %v", tt.ts)
	}
}

func TestRawTimestampCoercion(t *testing.T) {
	tests := []struct {
		name string
		raw  Raw
		want float64
		ok   bool
	}{
		{"float", Raw{"timestamp": 1.5}, 1.5, true},
		{"int", Raw{"timestamp": 3}, 3, true},
		{"int64", Raw{"timestamp": int64(4)}, 4, true},
		{"string", Raw{"timestamp": "1.5"}, 0, false},
		{"missing", Raw{}, 0, false},
		{"null", Raw{"timestamp": nil}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.raw.Timestamp()
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
