package window

import (
	"github.com/saaskilahtij/windower/internal/record"
)

// Window is a half-open time interval [Start, End). Index is the
// generation order, counted from the first record's timestamp.
type Window struct {
	Index int
	Start float64
	End   float64
}

// Partitioner slices a timestamp-sorted record sequence into fixed-length
// windows. With step < length windows overlap and a record can fall into
// several; with step > length gaps appear and some windows stay empty.
type Partitioner struct {
	length float64
	step   float64
}

// NewPartitioner validates length and step. A zero step defaults to
// length, producing contiguous non-overlapping windows.
func NewPartitioner(length, step float64) (*Partitioner, error) {
	if length <= 0 {
		return nil, ErrInvalidLength
	}
	if step == 0 {
		step = length
	}
	if step < 0 {
		return nil, ErrInvalidStep
	}
	return &Partitioner{length: length, step: step}, nil
}

// Length returns the window length in seconds.
func (p *Partitioner) Length() float64 { return p.length }

// Step returns the window step in seconds.
func (p *Partitioner) Step() float64 { return p.step }

// Partition walks records, which must be sorted ascending by timestamp,
// and invokes fn once per generated window with the subslice of records
// falling inside it. Window k covers [t0 + k*step, t0 + k*step + length)
// where t0 is the first record's timestamp; generation stops once a
// window would start past the newest timestamp, so no trailing empty
// windows are produced. Boundary ties use start <= t < end throughout,
// so with step == length a record on an edge lands in exactly one
// window, the earlier one.
//
// Only one window's member slice is alive at a time, so peak memory
// stays bounded regardless of the window count.
func (p *Partitioner) Partition(records []record.Record, fn func(Window, []record.Record) error) error {
	if len(records) == 0 {
		return nil
	}

	t0 := records[0].Timestamp
	tMax := records[len(records)-1].Timestamp

	left := 0
	for k := 0; ; k++ {
		start := t0 + float64(k)*p.step
		if start > tMax {
			return nil
		}
		end := start + p.length

		// Window starts never decrease, so the left cursor only moves
		// forward. Records in an overlap region are re-scanned from it.
		for left < len(records) && records[left].Timestamp < start {
			left++
		}
		right := left
		for right < len(records) && records[right].Timestamp < end {
			right++
		}

		if err := fn(Window{Index: k, Start: start, End: end}, records[left:right]); err != nil {
			return err
		}
	}
}
