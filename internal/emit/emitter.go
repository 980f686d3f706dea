// Package emit writes window statistics to output sinks. The engine is
// serialization-agnostic: an Emitter receives plain window.Stats values
// and owns how they end up on disk.
package emit

import (
	"errors"

	"github.com/saaskilahtij/windower/internal/window"
)

// Emitter is a sink for per-window statistics. Emit is called once per
// non-empty window, in window order; Close flushes whatever the sink
// still holds.
type Emitter interface {
	Emit(stats window.Stats) error
	Close() error
}

// Flusher is implemented by emitters that can push buffered rows to
// their destination mid-stream.
type Flusher interface {
	Flush() error
}

// Multi fans each row out to several emitters.
type Multi []Emitter

func (m Multi) Emit(stats window.Stats) error {
	for _, e := range m {
		if err := e.Emit(stats); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) Flush() error {
	for _, e := range m {
		if f, ok := e.(Flusher); ok {
			if err := f.Flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m Multi) Close() error {
	var errs []error
	for _, e := range m {
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Buffered wraps an Emitter and flushes it after every size rows.
// Close flushes the remainder and closes the inner emitter.
type Buffered struct {
	inner   Emitter
	size    int
	pending int
}

// NewBuffered returns a Buffered emitter flushing every size rows.
func NewBuffered(inner Emitter, size int) *Buffered {
	return &Buffered{inner: inner, size: size}
}

func (b *Buffered) Emit(stats window.Stats) error {
	if err := b.inner.Emit(stats); err != nil {
		return err
	}
	b.pending++
	if b.pending >= b.size {
		b.pending = 0
		return b.Flush()
	}
	return nil
}

func (b *Buffered) Flush() error {
	if f, ok := b.inner.(Flusher); ok {
		return f.Flush()
	}
	return nil
}

func (b *Buffered) Close() error {
	return b.inner.Close()
}
