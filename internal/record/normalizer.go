package record

import (
	"sort"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Normalizer turns raw dump objects into typed records. Malformed
// entries are dropped with a logged warning; they never abort a batch.
type Normalizer struct {
	logger *zap.Logger
}

// NewNormalizer creates a Normalizer logging through the given logger.
func NewNormalizer(logger *zap.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize converts raws into records, preserving input order. A raw
// entry survives only if it carries a usable name (not the Unknown
// sentinel), a finite non-negative timestamp and a decodable data
// payload. Non-numeric payload entries are excluded from Fields.
func (n *Normalizer) Normalize(raws []Raw) []Record {
	sugar := n.logger.Sugar()
	records := make([]Record, 0, len(raws))
	dropped := 0

	for i, raw := range raws {
		name, ok := raw.Name()
		if !ok || name == UnknownECU {
			dropped++
			sugar.Debugw("Dropping record without usable ECU name", "index", i)
			continue
		}

		ts, ok := raw.Timestamp()
		if !ok {
			dropped++
			sugar.Warnw("Dropping record with invalid timestamp",
				"index", i,
				"ecu", name,
				"timestamp", raw["timestamp"],
			)
			continue
		}

		payload, ok := raw.Data()
		if !ok {
			dropped++
			sugar.Warnw("Dropping record without data payload", "index", i, "ecu", name)
			continue
		}

		fields, err := parseFields(payload)
		if err != nil {
			dropped++
			sugar.Warnw("Dropping record with unparseable data payload",
				"index", i,
				"ecu", name,
				"error", err,
			)
			continue
		}

		records = append(records, Record{ECU: name, Timestamp: ts, Fields: fields})
	}

	if dropped > 0 {
		sugar.Infow("Normalization dropped records", "dropped", dropped, "kept", len(records))
	}
	return records
}

// parseFields decodes the nested JSON payload and keeps its numeric
// entries. Strings, booleans, nulls and nested structures are skipped;
// they do not fail the record.
func parseFields(payload string) (map[string]float64, error) {
	var decoded map[string]any
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return nil, err
	}

	fields := make(map[string]float64, len(decoded))
	for key, val := range decoded {
		switch v := val.(type) {
		case float64:
			fields[key] = v
		case int:
			fields[key] = float64(v)
		case int64:
			fields[key] = float64(v)
		}
	}
	return fields, nil
}

// Clean removes raws whose name is missing, empty or the Unknown
// sentinel, preserving the relative order of the rest. It is usable on
// its own, independent of windowing.
func Clean(raws []Raw) []Raw {
	cleaned := make([]Raw, 0, len(raws))
	for _, raw := range raws {
		name, ok := raw.Name()
		if !ok || name == UnknownECU {
			continue
		}
		cleaned = append(cleaned, raw)
	}
	return cleaned
}

// ECUNames returns the distinct ECU names present in raws, excluding the
// Unknown sentinel, sorted for stable output.
func ECUNames(raws []Raw) []string {
	seen := make(map[string]struct{})
	for _, raw := range raws {
		name, ok := raw.Name()
		if !ok || name == UnknownECU {
			continue
		}
		seen[name] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Filter returns the subsequence of records whose ECU is an exact member
// of ecus, preserving relative order. An empty set means no filtering.
func Filter(records []Record, ecus []string) []Record {
	if len(ecus) == 0 {
		return records
	}

	wanted := make(map[string]struct{}, len(ecus))
	for _, name := range ecus {
		wanted[name] = struct{}{}
	}

	filtered := make([]Record, 0, len(records))
	for _, rec := range records {
		if _, ok := wanted[rec.ECU]; ok {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}
