package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"servercv/dashboard/internal/api"
	"servercv/dashboard/internal/bot"
	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/config"
	"servercv/dashboard/internal/db"
	"servercv/dashboard/internal/logging"
	"servercv/dashboard/internal/metrics"
	"servercv/dashboard/internal/routes"
	"servercv/dashboard/internal/workers"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	if err := logging.Init(cfg.AppEnv); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("ServerCV dashboard starting up",
		"environment", cfg.AppEnv,
		"addr", cfg.HTTPAddr,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error("Server exited with error", "error", err)
		logging.Close()
		log.Fatalf("❌ %v", err)
	}
	logging.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	pg, err := db.InitPostgres(ctx, cfg.PostgresDSN())
	if err != nil {
		return err
	}
	defer pg.Close()
	logging.Info("Connected to Postgres (sqlx)")

	orm, err := db.InitPostgresORM(cfg.PostgresDSN())
	if err != nil {
		return err
	}

	redisClient := common.NewRedisClient(cfg.RedisAddr(), cfg.RedisPassword)
	defer redisClient.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsReg := metrics.NewMetricsRegistry(registry)

	// The bot token only reads guild details here; the gateway runs in cmd/bot.
	var botSession *discordgo.Session
	if cfg.DiscordBotToken != "" {
		if botSession, err = bot.NewSession(cfg.DiscordBotToken); err != nil {
			return err
		}
	}

	deps, err := api.InitDependencies(cfg, pg, orm, redisClient, metricsReg, botSession)
	if err != nil {
		return err
	}
	if err := deps.Repo.NotificationConfigs.EnsureSchema(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           routes.RegisterRoutes(deps, registry),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	relay := workers.NewEventRelay(deps.Repo.Outbox, deps.Services.Queue, metricsReg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return relay.Start(gctx, cfg.RelayInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
