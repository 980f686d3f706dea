package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/saaskilahtij/windower/internal/config"
	"github.com/saaskilahtij/windower/internal/emit"
	"github.com/saaskilahtij/windower/internal/record"
	"github.com/saaskilahtij/windower/internal/source"
	"github.com/saaskilahtij/windower/internal/window"
)

// Pipeline executes the batch flow: read, normalize, filter, sort,
// partition, aggregate, emit. In watch mode the same flow runs on every
// poll cycle with a cursor tracking the windows already written out.
type Pipeline struct {
	cfg        *config.Config
	logger     *zap.Logger
	normalizer *record.Normalizer
	part       *window.Partitioner
	file       *source.File

	emitter emit.Emitter
	closers []io.Closer

	// Index of the next window to emit. Watch cycles re-window the whole
	// dataset, so everything below the cursor has already been written.
	nextWindow int

	// Records accumulated from the Kafka source, when configured.
	liveRaws []record.Raw
	liveCh   chan record.Raw
}

// New validates the windowing configuration and wires the pipeline
// components. Output files are not touched until there is something to
// write.
func New(cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	part, err := window.NewPartitioner(cfg.Length, cfg.Step)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:        cfg,
		logger:     logger,
		normalizer: record.NewNormalizer(logger.Named("normalizer")),
		part:       part,
	}
	if cfg.File != "" {
		p.file = source.NewFile(cfg.File, logger.Named("source"))
	}

	logger.Debug("Pipeline created",
		zap.Float64("length", part.Length()),
		zap.Float64("step", part.Step()),
		zap.Strings("ecus", cfg.ECUs),
	)
	return p, nil
}

// Run executes a single batch pass and closes the outputs. An input
// that yields no records or no windows is a warning and a clean return,
// not an error.
func (p *Pipeline) Run(ctx context.Context) error {
	raws, err := p.file.Read()
	if err != nil {
		return err
	}

	results, tMax := p.process(raws)
	if len(results) == 0 {
		return p.closeOutputs()
	}

	if err := p.emitResults(results, tMax, true); err != nil {
		p.closeOutputs()
		return err
	}
	return p.closeOutputs()
}

// process turns raw dump objects into per-window statistics. Empty
// windows are omitted. The second return value is the newest record
// timestamp, used by watch mode to decide which windows have closed.
func (p *Pipeline) process(raws []record.Raw) ([]window.Stats, float64) {
	sugar := p.logger.Sugar()

	records := p.normalizer.Normalize(raws)
	recordsTotal.Add(float64(len(raws)))
	recordsDropped.Add(float64(len(raws) - len(records)))

	records = record.Filter(records, p.cfg.ECUs)
	if len(records) == 0 {
		sugar.Warnw("No records left after normalization and filtering",
			"input_records", len(raws),
			"ecu_filter", p.cfg.ECUs,
		)
		return nil, 0
	}

	// Windowing is keyed off the first timestamp, so order must be
	// deterministic even for unsorted dumps.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp < records[j].Timestamp
	})
	tMax := records[len(records)-1].Timestamp

	var results []window.Stats
	_ = p.part.Partition(records, func(w window.Window, members []record.Record) error {
		if len(members) == 0 {
			return nil
		}
		results = append(results, window.Aggregate(w, members))
		return nil
	})

	if len(results) == 0 {
		sugar.Warnw("No windows produced", "records", len(records))
	}
	return results, tMax
}

// emitResults writes every result at or past the emit cursor. When
// includeOpen is false, windows whose end lies past tMax, the newest
// timestamp seen, are held back for a later cycle.
func (p *Pipeline) emitResults(results []window.Stats, tMax float64, includeOpen bool) error {
	if err := p.ensureEmitter(fieldUnion(results)); err != nil {
		return err
	}

	emitted := 0
	for _, stats := range results {
		if stats.Index < p.nextWindow {
			continue
		}
		if !includeOpen && stats.End > tMax {
			continue
		}
		if err := p.emitter.Emit(stats); err != nil {
			return fmt.Errorf("%w: %w", ErrEmitFailed, err)
		}
		p.nextWindow = stats.Index + 1
		emitted++
		windowsEmitted.Inc()
		lastWindowEnd.Set(stats.End)
	}

	if emitted > 0 {
		p.logger.Sugar().Infow("Emitted window statistics",
			"windows", emitted,
			"next_window", p.nextWindow,
		)
	}
	return nil
}

// ensureEmitter lazily opens the configured outputs. The CSV column set
// is fixed by the field union of the first emitted batch; fields first
// appearing in later watch cycles cannot be added to an already written
// header and are left out of the CSV.
func (p *Pipeline) ensureEmitter(fields []string) error {
	if p.emitter != nil {
		return nil
	}

	var emitters emit.Multi
	if p.cfg.OutputCSV != "" {
		f, err := os.Create(p.cfg.OutputCSV)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOutputCreateFailed, err)
		}
		p.closers = append(p.closers, f)
		emitters = append(emitters, emit.NewCSV(f, fields))
	}
	if p.cfg.OutputJSON != "" {
		f, err := os.Create(p.cfg.OutputJSON)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOutputCreateFailed, err)
		}
		p.closers = append(p.closers, f)
		emitters = append(emitters, emit.NewJSON(f))
	}

	var e emit.Emitter = emitters
	if p.cfg.Buffered {
		e = emit.NewBuffered(emitters, p.cfg.BufferSize)
	}
	p.emitter = e

	p.logger.Debug("Outputs opened",
		zap.String("csv", p.cfg.OutputCSV),
		zap.String("json", p.cfg.OutputJSON),
		zap.Bool("buffered", p.cfg.Buffered),
		zap.Strings("fields", fields),
	)
	return nil
}

func (p *Pipeline) closeOutputs() error {
	var errs []error
	if p.emitter != nil {
		errs = append(errs, p.emitter.Close())
		p.emitter = nil
	}
	for _, c := range p.closers {
		errs = append(errs, c.Close())
	}
	p.closers = nil
	return errors.Join(errs...)
}

// fieldUnion collects the sorted union of field names across results.
func fieldUnion(results []window.Stats) []string {
	seen := make(map[string]struct{})
	for _, stats := range results {
		for name := range stats.Fields {
			seen[name] = struct{}{}
		}
	}
	union := make([]string, 0, len(seen))
	for name := range seen {
		union = append(union, name)
	}
	sort.Strings(union)
	return union
}

// Watch runs the pipeline repeatedly until the context is cancelled,
// re-reading the input on file change events and poll ticks. Already
// emitted windows are never re-emitted; a window is only considered
// closed once data at or past its end has been seen, so the trailing
// window keeps growing until shutdown, when it is flushed.
func (p *Pipeline) Watch(ctx context.Context) error {
	defer func() {
		if err := p.closeOutputs(); err != nil {
			p.logger.Error("Failed to close outputs", zap.Error(err))
		}
	}()

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	kafkaErr := make(chan error, 1)
	if p.cfg.KafkaMode() {
		if err := p.startKafka(ctx, kafkaErr); err != nil {
			return err
		}
	}

	var events chan fsnotify.Event
	if p.file != nil {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			p.logger.Warn("File watcher unavailable, relying on polling", zap.Error(err))
		} else {
			defer watcher.Close()
			if err := watcher.Add(p.cfg.File); err != nil {
				p.logger.Warn("Cannot watch input file, relying on polling", zap.Error(err))
			} else {
				events = make(chan fsnotify.Event)
				go forwardWrites(watcher, events)
			}
		}

		if err := p.cycle(false); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Watch mode stopping, flushing open windows...")
			if err := p.cycle(true); err != nil {
				p.logger.Error("Final flush failed", zap.Error(err))
			}
			return ctx.Err()

		case err := <-kafkaErr:
			return fmt.Errorf("%w: %w", ErrKafkaSourceFailed, err)

		case raw := <-p.liveCh:
			p.liveRaws = append(p.liveRaws, raw)

		case ev := <-events:
			p.logger.Debug("Input file changed", zap.String("op", ev.Op.String()))
			if err := p.cycle(false); err != nil {
				return err
			}

		case <-ticker.C:
			if err := p.cycle(false); err != nil {
				return err
			}
		}
	}
}

// cycle runs one watch pass over the current input snapshot.
func (p *Pipeline) cycle(final bool) error {
	var raws []record.Raw
	if p.file != nil {
		read, err := p.file.Read()
		if err != nil {
			return err
		}
		raws = read
	}
	raws = append(raws, p.liveRaws...)

	results, tMax := p.process(raws)
	if len(results) == 0 {
		return nil
	}
	return p.emitResults(results, tMax, final)
}

// startKafka launches the Kafka record source feeding the watch loop.
func (p *Pipeline) startKafka(ctx context.Context, errCh chan<- error) error {
	p.liveCh = make(chan record.Raw, 100)
	k, err := source.NewKafka(
		p.cfg.KafkaBrokers,
		p.cfg.KafkaTopic,
		p.cfg.KafkaGroupID,
		p.liveCh,
		p.logger.Named("kafka"),
	)
	if err != nil {
		return err
	}

	go func() {
		if err := k.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	return nil
}

// forwardWrites relays write and create events from the watcher,
// dropping everything else.
func forwardWrites(watcher *fsnotify.Watcher, out chan<- fsnotify.Event) {
	for ev := range watcher.Events {
		if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) {
			out <- ev
		}
	}
}
