package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/thruflo/sortvis/internal/engine"
	"github.com/thruflo/sortvis/internal/logging"
	"github.com/thruflo/sortvis/internal/server"
	"github.com/thruflo/sortvis/internal/stream"
	"github.com/thruflo/sortvis/web"
)

var (
	servePort      int
	serveRedisAddr string
	serveDelay     time.Duration
	serveNoHistory bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web viewer and control API",
	Long: `Starts an HTTP server with the browser viewer at /, a JSON control API
under /api and a websocket stream of frames at /ws.

With --redis-addr every event is also published on the configured Redis
channel, where "sortvis tail --redis-addr" can follow it.

Example:
  sortvis serve
  sortvis serve --port 9000
  sortvis serve --redis-addr localhost:6379`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (default: server.port)")
	serveCmd.Flags().StringVar(&serveRedisAddr, "redis-addr", "", "publish events to Redis at this address (default: server.redis_addr)")
	serveCmd.Flags().DurationVar(&serveDelay, "delay", 0, "pause at every step (default: settings.step_delay)")
	serveCmd.Flags().BoolVar(&serveNoHistory, "no-history", false, "do not record runs")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, base, err := loadConfig()
	if err != nil {
		return err
	}

	port := cfg.Server.Port
	if cmd.Flags().Changed("port") {
		port = servePort
	}
	redisAddr := cfg.Server.RedisAddr
	if cmd.Flags().Changed("redis-addr") {
		redisAddr = serveRedisAddr
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logging.With("component", "serve")
	srvCfg := &server.Config{
		Port:      port,
		Engine:    engine.New(engine.Options{StepDelay: stepDelay(cmd, cfg.Settings.StepDelay, serveDelay), Logger: log}),
		Assets:    web.AssetsWithBase(base),
		DataSet:   cfg.Settings.DataSet,
		DataSize:  cfg.Settings.DataSize,
		RateLimit: server.DefaultRateLimitConfig(),
		Logger:    log,
	}

	if redisAddr != "" {
		publisher, err := stream.DialRedis(ctx, redisAddr, cfg.Server.RedisChannel)
		if err != nil {
			return err
		}
		defer publisher.Close()
		srvCfg.Publishers = append(srvCfg.Publishers, publisher)
		log.Info("publishing events", "redis", redisAddr, "channel", publisher.Channel())
	}

	if !serveNoHistory {
		store, err := openHistory(cfg, base)
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
			srvCfg.History = store
		}
	}

	srv, err := server.NewServer(srvCfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer srv.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving sortvis on http://localhost:%d (Ctrl+C to stop)\n", port)
	return srv.Start(ctx)
}
