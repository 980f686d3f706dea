package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/saaskilahtij/windower/internal/config"
	"github.com/saaskilahtij/windower/internal/logging"
	"github.com/saaskilahtij/windower/internal/pipeline"
	"github.com/saaskilahtij/windower/internal/record"
	"github.com/saaskilahtij/windower/internal/source"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Initialize Configuration
	fs := pflag.NewFlagSet("windower", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return 2
	}
	if len(os.Args) == 1 {
		// Running without arguments prints the help text, not an error.
		fmt.Fprintf(os.Stderr, "Usage of windower:\n%s", fs.FlagUsages())
		return 2
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return 2
	}

	// Initialize Logger
	logger, err := logging.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() {
		_ = logger.Sync() // Flush buffered logs on exit
	}()
	sugar := logger.Sugar()

	if cfg.ListECUs {
		return listECUs(cfg, logger)
	}

	sugar.Debugw("Configuration loaded",
		"file", cfg.File,
		"length", cfg.Length,
		"step", cfg.Step,
		"watch", cfg.Watch,
	)

	pipe, err := pipeline.New(cfg, logger)
	if err != nil {
		sugar.Errorw("Failed to initialize pipeline", "error", err)
		return 1
	}

	// Handle Graceful Shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-signals
		sugar.Infow("Received signal, shutting down...", "signal", sig.String())
		cancel()
	}()

	// Run Pipeline
	if cfg.Watch || cfg.KafkaMode() {
		err = pipe.Watch(ctx)
	} else {
		err = pipe.Run(ctx)
	}

	switch {
	case err == nil, errors.Is(err, context.Canceled):
		sugar.Info("Windower finished.")
		return 0
	default:
		sugar.Errorw("Pipeline failed", zap.Error(err))
		return 1
	}
}

// listECUs prints the distinct ECU names found in the input file.
func listECUs(cfg *config.Config, logger *zap.Logger) int {
	raws, err := source.NewFile(cfg.File, logger).Read()
	if err != nil {
		logger.Sugar().Errorw("Failed to read input", "error", err)
		return 1
	}

	names := record.ECUNames(raws)
	if len(names) == 0 {
		logger.Sugar().Warn("No ECU names found in input")
		return 0
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return 0
}
