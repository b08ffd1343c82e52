package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"servercv/dashboard/internal/bot"
	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/config"
	"servercv/dashboard/internal/constants"
	"servercv/dashboard/internal/db"
	"servercv/dashboard/internal/db/repositories"
	"servercv/dashboard/internal/logging"
	"servercv/dashboard/internal/metrics"
	"servercv/dashboard/internal/workers"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const (
	notifierWorkers      = 2
	backlogCheckInterval = time.Minute
	backlogWarnThreshold = 100
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	if cfg.DiscordBotToken == "" {
		log.Fatal("❌ DISCORD_BOT_TOKEN is required")
	}

	if err := logging.Init(cfg.AppEnv); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error("Bot exited with error", "error", err)
		logging.Close()
		log.Fatalf("❌ %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	pg, err := db.InitPostgres(ctx, cfg.PostgresDSN())
	if err != nil {
		return err
	}
	defer pg.Close()

	orm, err := db.InitPostgresORM(cfg.PostgresDSN())
	if err != nil {
		return err
	}

	redisClient := common.NewRedisClient(cfg.RedisAddr(), cfg.RedisPassword)
	defer redisClient.Close()

	configs := repositories.NewNotificationConfigRepo(pg)
	if err := configs.EnsureSchema(ctx); err != nil {
		return err
	}

	session, err := bot.NewSession(cfg.DiscordBotToken)
	if err != nil {
		return err
	}

	metricsReg := metrics.NewMetricsRegistry(prometheus.DefaultRegisterer)
	queue := common.NewRedisQueueService(redisClient, constants.EventStreamName)

	notifier := bot.NewNotifier(
		configs,
		repositories.NewExperienceRepositoryGORM(orm),
		session,
		common.NewCacheService(time.Hour, 10*time.Minute),
		metricsReg,
		cfg.PublicBaseURL,
		cfg.ExternalCallTimeout,
	)

	hostname, _ := os.Hostname()
	worker := workers.NewNotificationWorker("notifier-"+hostname, constants.EventConsumerGroup, queue, notifier)
	monitor := workers.NewStreamMonitor(queue, constants.EventConsumerGroup, backlogWarnThreshold)
	discordBot := bot.New(session, bot.NewSetupHandler(configs))

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: cfg.BotMetricsAddr, Handler: metricsMux, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return discordBot.Run(gctx) })
	g.Go(func() error {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return metricsSrv.Close()
	})
	g.Go(func() error { return worker.Start(gctx, notifierWorkers) })
	g.Go(func() error {
		monitor.Start(gctx, backlogCheckInterval)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info("Bot stopped")
	return nil
}
