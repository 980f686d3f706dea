package emit

import (
	"io"

	"github.com/goccy/go-json"

	"github.com/saaskilahtij/windower/internal/window"
)

// jsonFieldStats mirrors the statistic columns of a CSV field group.
type jsonFieldStats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
}

// jsonRow is one window in the JSON output. Fields only carries the
// fields actually observed in that window.
type jsonRow struct {
	WindowIndex int                       `json:"window_index"`
	WindowStart float64                   `json:"window_start"`
	WindowEnd   float64                   `json:"window_end"`
	Fields      map[string]jsonFieldStats `json:"fields"`
}

// JSON writes windows as a JSON array, one object per window. Rows are
// framed incrementally so the array can grow across watch cycles without
// holding all windows in memory.
type JSON struct {
	w     io.Writer
	wrote bool
}

// NewJSON creates a JSON emitter over w.
func NewJSON(w io.Writer) *JSON {
	return &JSON{w: w}
}

func (j *JSON) Emit(stats window.Stats) error {
	row := jsonRow{
		WindowIndex: stats.Index,
		WindowStart: stats.Start,
		WindowEnd:   stats.End,
		Fields:      make(map[string]jsonFieldStats, len(stats.Fields)),
	}
	for name, fs := range stats.Fields {
		row.Fields[name] = jsonFieldStats{
			Count: fs.Count,
			Min:   fs.Min,
			Max:   fs.Max,
			Mean:  fs.Mean,
			Std:   fs.Std,
		}
	}

	encoded, err := json.Marshal(row)
	if err != nil {
		return err
	}

	prefix := "[\n  "
	if j.wrote {
		prefix = ",\n  "
	}
	j.wrote = true

	if _, err := io.WriteString(j.w, prefix); err != nil {
		return err
	}
	_, err = j.w.Write(encoded)
	return err
}

// Close terminates the array. An empty result is written as [] so the
// output file is always valid JSON.
func (j *JSON) Close() error {
	terminator := "\n]\n"
	if !j.wrote {
		terminator = "[]\n"
	}
	_, err := io.WriteString(j.w, terminator)
	return err
}
