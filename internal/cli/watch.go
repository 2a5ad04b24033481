package cli

import (
	"context"
	"errors"
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
	"github.com/thruflo/sortvis/internal/tui"
)

// DefaultStepDelay paces interactive runs when settings.step_delay is zero,
// so a sort can be followed on screen.
const DefaultStepDelay = 10 * time.Millisecond

var (
	watchSequence  sequenceFlags
	watchURL       string
	watchDelay     time.Duration
	watchNoHistory bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Visualize sorts in the terminal",
	Long: `Opens the terminal visualizer. Pick an algorithm with 1-5 or tab, press s
to sort, r to load a new data set, c to cancel and q to quit.

With --url the visualizer drives the engine of a "sortvis serve" instance
instead of a local one, so several terminals and browsers can follow the
same runs.

Example:
  sortvis watch
  sortvis watch --dataset reversed --size 40
  sortvis watch --url http://localhost:8374`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchSequence.register(watchCmd)
	watchCmd.Flags().StringVar(&watchURL, "url", "", "drive a sortvis serve instance at this address")
	watchCmd.Flags().DurationVar(&watchDelay, "delay", 0, "pause at every step (default: settings.step_delay)")
	watchCmd.Flags().BoolVar(&watchNoHistory, "no-history", false, "do not record runs")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, base, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	t := tui.NewTerminal(os.Stdin, cmd.OutOrStdout())
	if !t.IsTerminal() {
		return errors.New("watch requires an interactive terminal")
	}

	if watchURL != "" {
		if len(watchSequence.values) > 0 {
			return errors.New("--values cannot be used with --url")
		}
		return watchRemote(ctx, t, cfg)
	}

	delay := stepDelay(cmd, cfg.Settings.StepDelay, watchDelay)
	ctrl, closeFn, err := newLocalController(ctx, cfg, base, delay)
	if err != nil {
		return err
	}
	defer closeFn()

	return tui.NewApp(ctrl, cfg.Settings).Run(ctx, t)
}

// stepDelay resolves the engine step delay from the --delay flag and the
// configured value.
func stepDelay(cmd *cobra.Command, configured, flag time.Duration) time.Duration {
	if cmd.Flags().Changed("delay") {
		return flag
	}
	if configured > 0 {
		return configured
	}
	return DefaultStepDelay
}

// newLocalController creates an engine loaded with the first data set and
// a controller that records finished runs unless --no-history is set.
func newLocalController(ctx context.Context, cfg *config.Config, base string, delay time.Duration) (*tui.LocalController, func(), error) {
	label := customDataSet
	if len(watchSequence.values) == 0 {
		preset, _, err := watchSequence.resolve(cfg.Settings)
		if err != nil {
			return nil, nil, err
		}
		label = string(preset)
	}

	log := logging.With("component", "watch")
	e := engine.New(engine.Options{StepDelay: delay, Logger: log})
	opts := []tui.LocalOption{tui.WithControllerLogger(log)}

	var store *history.Store
	if !watchNoHistory {
		var err error
		if store, err = openHistory(cfg, base); err != nil {
			return nil, nil, err
		}
	}
	if store != nil {
		opts = append(opts, tui.WithFinishHook(func(result engine.Result, startedAt, finishedAt time.Time) {
			if err := store.Record(history.RecordFromResult(result, label, startedAt, finishedAt)); err != nil {
				log.Warn("failed to record run", "run", result.RunID, "error", err)
			}
		}))
	}

	data := func() ([]int, error) {
		values, _, err := watchSequence.generate(cfg.Settings)
		return values, err
	}
	ctrl := tui.NewLocalController(e, data, opts...)
	closeFn := func() {
		ctrl.Close()
		if store != nil {
			store.Close()
		}
	}

	if err := ctrl.Reset(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}
	return ctrl, closeFn, nil
}

func watchRemote(ctx context.Context, t *tui.Terminal, cfg *config.Config) error {
	client, err := stream.Dial(ctx, watchURL)
	if err != nil {
		return err
	}
	defer client.Close()

	ctrl := tui.NewRemoteController(client, tui.RemoteOptions{
		DataSet: watchSequence.dataSet,
		Size:    watchSequence.size,
		Seed:    watchSequence.seed,
	})
	return tui.NewApp(ctrl, cfg.Settings).Run(ctx, t)
}
