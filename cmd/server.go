package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"resume-screener/internal/api"
	"resume-screener/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the inbox scheduler",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address, overrides server.addr")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve() {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	cfg, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	logger.Info("starting the resume-screener", zap.String("version", version))
	logger.Debug("config", zap.Any("config", cfg.redacted()))

	deps, cleanup, err := buildApp(cfg, logger)
	if err != nil {
		logger.Fatal("building app", zap.Error(err))
	}
	defer cleanup()

	apiDeps := api.Deps{
		Screener:       deps.screener,
		Criteria:       deps.criteria,
		Logger:         logger,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	}
	if deps.store != nil {
		apiDeps.Store = deps.store
	}
	if deps.sched != nil {
		apiDeps.Scheduler = deps.sched
	}

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: api.NewHandler(apiDeps)}

	var sched schedulerRunner
	if cfg.Scheduler.Enabled {
		if deps.sched == nil {
			logger.Warn("scheduler enabled but inbox is not configured")
		}
		sched = deps.sched
	}

	timeout, err := time.ParseDuration(cfg.Server.ShutdownTimeout)
	if err != nil || timeout <= 0 {
		timeout = 10 * time.Second
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("listening", zap.String("addr", cfg.Server.Addr), zap.Bool("scheduler", sched != nil))
	if err := runServer(ctx, srv, sched, timeout); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
}

// runServer 同时运行 HTTP 服务与调度器，ctx 取消后在 timeout 内优雅关闭。
func runServer(ctx context.Context, srv httpServer, sched schedulerRunner, timeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if sched != nil {
		g.Go(func() error {
			if err := sched.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
