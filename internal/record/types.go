package record

import "math"

// UnknownECU is the sentinel name a CAN preprocessor assigns to frames it
// could not attribute to an ECU. Records carrying it are never windowed.
const UnknownECU = "Unknown"

// Raw is a single decoded object from the input dump, before
// normalization. The dump schema is loose, so every value stays dynamic
// until the normalizer has vetted it.
type Raw map[string]any

// Name returns the record's ECU name, if present and a non-empty string.
func (r Raw) Name() (string, bool) {
	val, exists := r["name"]
	if !exists || val == nil {
		return "", false
	}
	name, ok := val.(string)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// Timestamp returns the record's timestamp coerced to float64 seconds.
// Non-numeric and non-finite values report false.
func (r Raw) Timestamp() (float64, bool) {
	val, exists := r["timestamp"]
	if !exists || val == nil {
		return 0, false
	}

	var ts float64
	switch v := val.(type) {
	case float64:
		ts = v
	case float32:
		ts = float64(v)
	case int:
		ts = float64(v)
	case int64:
		ts = float64(v)
	default:
		return 0, false
	}
	if !ValidTimestamp(ts) {
		return 0, false
	}
	return ts, true
}

// Data returns the JSON-encoded signal payload string.
func (r Raw) Data() (string, bool) {
	val, exists := r["data"]
	if !exists || val == nil {
		return "", false
	}
	data, ok := val.(string)
	return data, ok
}

// ValidTimestamp reports whether ts is a usable record timestamp:
// finite and non-negative.
func ValidTimestamp(ts float64) bool {
	return !math.IsNaN(ts) && !math.IsInf(ts, 0) && ts >= 0
}

// Record is a normalized event: an ECU name, a timestamp in seconds and
// the numeric signal fields extracted from the payload. Immutable once
// built.
type Record struct {
	ECU       string
	Timestamp float64
	Fields    map[string]float64
}
