package emit

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/saaskilahtij/windower/internal/window"
)

// csvDelimiter matches the original tool's semicolon-separated output.
const csvDelimiter = ';'

// CSV writes one row per window with a group of statistic columns per
// field. The field set spans the whole dataset and is fixed up front, so
// rows can stream out as windows close; fields absent from a window
// leave their cells empty.
type CSV struct {
	w           *csv.Writer
	fields      []string
	wroteHeader bool
}

// NewCSV creates a CSV emitter over w. fields is the union of field
// names observed anywhere in the dataset, already sorted.
func NewCSV(w io.Writer, fields []string) *CSV {
	cw := csv.NewWriter(w)
	cw.Comma = csvDelimiter
	return &CSV{w: cw, fields: fields}
}

func (c *CSV) Emit(stats window.Stats) error {
	if !c.wroteHeader {
		if err := c.w.Write(c.header()); err != nil {
			return err
		}
		c.wroteHeader = true
	}

	row := make([]string, 0, 3+5*len(c.fields))
	row = append(row,
		strconv.Itoa(stats.Index),
		formatFloat(stats.Start),
		formatFloat(stats.End),
	)
	for _, field := range c.fields {
		fs, ok := stats.Fields[field]
		if !ok {
			row = append(row, "", "", "", "", "")
			continue
		}
		row = append(row,
			formatFloat(fs.Min),
			formatFloat(fs.Max),
			formatFloat(fs.Mean),
			formatFloat(fs.Std),
			strconv.Itoa(fs.Count),
		)
	}
	return c.w.Write(row)
}

func (c *CSV) header() []string {
	header := make([]string, 0, 3+5*len(c.fields))
	header = append(header, "window_index", "window_start", "window_end")
	for _, field := range c.fields {
		header = append(header,
			"min_"+field,
			"max_"+field,
			"mean_"+field,
			"std_"+field,
			"count_"+field,
		)
	}
	return header
}

func (c *CSV) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

func (c *CSV) Close() error {
	return c.Flush()
}

func formatFloat(v float64) string {
	// 'f' keeps epoch-scale timestamps out of exponent notation.
	return strconv.FormatFloat(v, 'f', -1, 64)
}
