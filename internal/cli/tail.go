package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/thruflo/sortvis/internal/stream"
)

var (
	tailURL       string
	tailRedisAddr string
	tailChannel   string
	tailUntilDone bool
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print the events of a running server",
	Long: `Follows the frames and results of a "sortvis serve" instance, either
over its websocket (--url) or from the Redis channel it publishes to
(--redis-addr). Each frame is printed as one line.

Example:
  sortvis tail --url http://localhost:8374
  sortvis tail --redis-addr localhost:6379 --until-done`,
	Args: cobra.NoArgs,
	RunE: runTail,
}

func init() {
	tailCmd.Flags().StringVar(&tailURL, "url", "", "server address to follow")
	tailCmd.Flags().StringVar(&tailRedisAddr, "redis-addr", "", "Redis address to follow")
	tailCmd.Flags().StringVar(&tailChannel, "channel", "", "Redis channel (default: server.redis_channel)")
	tailCmd.Flags().BoolVar(&tailUntilDone, "until-done", false, "exit after the next run finishes")
	tailCmd.MarkFlagsMutuallyExclusive("url", "redis-addr")
	tailCmd.MarkFlagsOneRequired("url", "redis-addr")
	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var events <-chan *stream.Event
	if tailURL != "" {
		client, err := stream.Dial(ctx, tailURL)
		if err != nil {
			return err
		}
		defer client.Close()
		events = client.Events()
	} else {
		channel := tailChannel
		if channel == "" {
			channel = cfg.Server.RedisChannel
		}
		sub, err := stream.DialRedis(ctx, tailRedisAddr, channel)
		if err != nil {
			return err
		}
		defer sub.Close()
		if events, err = sub.Subscribe(ctx); err != nil {
			return err
		}
	}

	return followEvents(ctx, cmd, events, tailUntilDone)
}

// followEvents prints events until ctx is done or, with untilDone, the
// next result arrives.
func followEvents(ctx context.Context, cmd *cobra.Command, events <-chan *stream.Event, untilDone bool) error {
	out := cmd.OutOrStdout()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return errors.New("event stream closed")
			}
			if line := formatEvent(event); line != "" {
				fmt.Fprintln(out, line)
			}
			if untilDone && event.Type == stream.MessageTypeResult {
				return nil
			}
		}
	}
}

// formatEvent renders an event as one line. Acks and commands are
// skipped.
func formatEvent(event *stream.Event) string {
	switch event.Type {
	case stream.MessageTypeFrame:
		f, err := event.FrameData()
		if err != nil {
			return ""
		}
		return formatFrame(f.Frame())
	case stream.MessageTypeResult:
		r, err := event.ResultData()
		if err != nil {
			return ""
		}
		return fmt.Sprintf("%s %s: %s in %d steps, %s",
			r.RunID, r.Algorithm, r.Status, r.Steps, formatElapsed(r.Result().Elapsed, r.HasElapsed))
	case stream.MessageTypeSnapshot:
		s, err := event.SnapshotData()
		if err != nil {
			return ""
		}
		return fmt.Sprintf("%s, %d values: %v", s.Status, len(s.Values), s.Values)
	default:
		return ""
	}
}
