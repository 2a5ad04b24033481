package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/thruflo/sortvis/internal/config"
	"github.com/thruflo/sortvis/internal/engine"
	"github.com/thruflo/sortvis/internal/history"
	"github.com/thruflo/sortvis/internal/logging"
	"github.com/thruflo/sortvis/internal/stream"
)

var (
	runSequence  sequenceFlags
	runTimeout   time.Duration
	runDelay     time.Duration
	runTrace     bool
	runJSON      bool
	runNoHistory bool
)

var runCmd = &cobra.Command{
	Use:   "run [algorithm]",
	Short: "Sort a data set headless and print the result",
	Long: `Generates a data set, sorts it with the given algorithm (default: bubble)
and prints the final values and elapsed time. The run is recorded in the
history unless --no-history is given.

A run stopped by --timeout or Ctrl+C is reported as cancelled and the
command exits with an error.

Example:
  sortvis run quick
  sortvis run merge --dataset large --seed 42
  sortvis run insertion --values 5,3,1,4,2 --trace
  sortvis run bubble --dataset large --delay 1ms --timeout 2s`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	runSequence.register(runCmd)
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "cancel the run after this long")
	runCmd.Flags().DurationVar(&runDelay, "delay", 0, "pause at every step (default: settings.step_delay)")
	runCmd.Flags().BoolVar(&runTrace, "trace", false, "print every frame")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the result as JSON")
	runCmd.Flags().BoolVar(&runNoHistory, "no-history", false, "do not record the run")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	alg, err := parseAlgorithmArg(args, engine.Bubble)
	if err != nil {
		return err
	}

	cfg, base, err := loadConfig()
	if err != nil {
		return err
	}
	values, label, err := runSequence.generate(cfg.Settings)
	if err != nil {
		return err
	}

	delay := cfg.Settings.StepDelay
	if cmd.Flags().Changed("delay") {
		delay = runDelay
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runTimeout)
		defer cancel()
	}

	log := logging.With("component", "run")
	e := engine.New(engine.Options{StepDelay: delay, Logger: log})
	out := cmd.OutOrStdout()
	if runTrace && !runJSON {
		unsubscribe := e.Subscribe(engine.ObserverFunc(func(f engine.Frame) {
			fmt.Fprintln(out, formatFrame(f))
		}))
		defer unsubscribe()
	}

	if err := e.Reset(values); err != nil {
		return err
	}
	startedAt := time.Now()
	h, err := e.Run(ctx, alg)
	if err != nil {
		return err
	}
	result := h.Wait()
	finishedAt := time.Now()

	if !runNoHistory {
		if err := recordRun(cfg, base, history.RecordFromResult(result, label, startedAt, finishedAt)); err != nil {
			log.Warn("failed to record run", "run", result.RunID, "error", err)
		}
	}

	if runJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(stream.NewResultEvent(result)); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
	} else {
		printResult(cmd, result, label)
	}

	if result.Status == engine.StatusCancelled {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("run cancelled after %s: %w", runTimeout, ctx.Err())
		}
		return fmt.Errorf("run cancelled: %w", context.Canceled)
	}
	return nil
}

func recordRun(cfg *config.Config, base string, rec history.RunRecord) error {
	store, err := openHistory(cfg, base)
	if err != nil || store == nil {
		return err
	}
	defer store.Close()
	return store.Record(rec)
}

func printResult(cmd *cobra.Command, result engine.Result, label string) {
	out := cmd.OutOrStdout()
	printField(out, "Run", result.RunID)
	printField(out, "Algorithm", result.Algorithm)
	printField(out, "Data set", fmt.Sprintf("%s (%d values)", label, len(result.Values)))
	printField(out, "Status", result.Status)
	printField(out, "Steps", result.Steps)
	printField(out, "Time", formatElapsed(result.Elapsed, result.HasElapsed))
	printField(out, "Values", fmt.Sprint(result.Values))
}
