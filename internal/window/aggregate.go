package window

import (
	"math"
	"sort"

	"github.com/saaskilahtij/windower/internal/record"
)

// FieldStats is the summary of one numeric field within one window.
// Std is the population standard deviation; a single observation yields
// Std 0, never NaN.
type FieldStats struct {
	Count int
	Min   float64
	Max   float64
	Mean  float64
	Std   float64
}

// accumulator folds observations without keeping them. One accumulator
// exists per (window, field) pair and is discarded once stats are read.
type accumulator struct {
	count int
	sum   float64
	sumSq float64
	min   float64
	max   float64
}

func (a *accumulator) add(v float64) {
	if a.count == 0 || v < a.min {
		a.min = v
	}
	if a.count == 0 || v > a.max {
		a.max = v
	}
	a.count++
	a.sum += v
	a.sumSq += v * v
}

func (a *accumulator) stats() FieldStats {
	n := float64(a.count)
	mean := a.sum / n

	// Variance = E[X^2] - (E[X])^2. Rounding can push this slightly
	// negative; clamp so Std stays real.
	variance := a.sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}

	return FieldStats{
		Count: a.count,
		Min:   a.min,
		Max:   a.max,
		Mean:  mean,
		Std:   math.Sqrt(variance),
	}
}

// Stats holds the per-field summaries of a single window.
type Stats struct {
	Window
	Fields map[string]FieldStats
}

// FieldNames returns the window's field names in sorted order.
func (s Stats) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Aggregate folds the records assigned to w into per-field statistics.
// Field names are discovered dynamically, so different windows may report
// different field sets; a record missing a field simply contributes
// nothing to it. A window with no records yields an empty Fields map.
func Aggregate(w Window, records []record.Record) Stats {
	accs := make(map[string]*accumulator)
	for _, rec := range records {
		for name, val := range rec.Fields {
			acc, ok := accs[name]
			if !ok {
				acc = &accumulator{}
				accs[name] = acc
			}
			acc.add(val)
		}
	}

	fields := make(map[string]FieldStats, len(accs))
	for name, acc := range accs {
		fields[name] = acc.stats()
	}
	return Stats{Window: w, Fields: fields}
}
