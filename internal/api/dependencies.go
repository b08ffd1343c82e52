package api

import (
	"errors"
	"time"

	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/config"
	"servercv/dashboard/internal/constants"
	"servercv/dashboard/internal/db/repositories"
	"servercv/dashboard/internal/logging"
	"servercv/dashboard/internal/metrics"
	"servercv/dashboard/internal/providers"
	"servercv/dashboard/internal/services"

	"github.com/bwmarrin/discordgo"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Repositories struct {
	Experiences         *repositories.ExperienceRepositoryGORM
	Users               *repositories.UserRepositoryGORM
	Servers             *repositories.ServerRepositoryGORM
	Outbox              *repositories.EventOutboxRepository
	NotificationConfigs *repositories.NotificationConfigRepo
}

type Services struct {
	Cache       common.CacheInterface
	Limiter     common.CooldownLimiter
	Session     *common.SessionService
	Payments    *common.PaymentTokenService
	Queue       *common.RedisQueueService
	Experiences *services.ExperienceService
	Guilds      *services.GuildService
	Servers     *services.ServerService
	Profiles    *services.ProfileService
}

type Dependencies struct {
	Config   *config.Config
	Repo     *Repositories
	Services *Services
	Metrics  *metrics.MetricsRegistry
	PG       *sqlx.DB
	Redis    *redis.Client
	UpSince  time.Time
}

// InitDependencies wires repositories and services. bot may be nil, in which
// case public server pages fall back to stored guild names.
func InitDependencies(
	cfg *config.Config,
	pg *sqlx.DB,
	orm *gorm.DB,
	redisClient *redis.Client,
	metricsReg *metrics.MetricsRegistry,
	bot *discordgo.Session,
) (*Dependencies, error) {
	if cfg.PaymentSigningSecret == "" && cfg.IsProduction() {
		return nil, errors.New("PAYMENT_SIGNING_SECRET is required in production")
	}

	repos := &Repositories{
		Experiences:         repositories.NewExperienceRepositoryGORM(orm),
		Users:               repositories.NewUserRepositoryGORM(orm),
		Servers:             repositories.NewServerRepositoryGORM(orm),
		Outbox:              repositories.NewEventOutboxRepository(orm),
		NotificationConfigs: repositories.NewNotificationConfigRepo(pg),
	}

	var (
		cache   common.CacheInterface
		limiter common.CooldownLimiter
	)
	switch cfg.RateLimitBackend {
	case config.RateLimitRedis:
		redisCache := common.NewRedisCacheService(redisClient)
		cache, limiter = redisCache, redisCache
	default:
		memCache := common.NewCacheService(10*time.Minute, time.Minute)
		cache, limiter = memCache, memCache
	}
	logging.Info("Cooldown limiter initialized", "backend", string(cfg.RateLimitBackend))

	discord := providers.NewDiscordProvider(cfg.ExternalCallTimeout)

	svcs := &Services{
		Cache:    cache,
		Limiter:  limiter,
		Session:  common.NewSessionService(redisClient, cfg.SessionTTL),
		Payments: common.NewPaymentTokenService([]byte(cfg.PaymentSigningSecret), redisClient),
		Queue:    common.NewRedisQueueService(redisClient, constants.EventStreamName),
	}
	svcs.Experiences = services.NewExperienceService(repos.Experiences, repos.Users, discord, metricsReg, cfg.ExternalCallTimeout)
	svcs.Guilds = services.NewGuildService(discord, limiter, cfg.GuildListCooldown, cfg.ExternalCallTimeout, metricsReg)
	svcs.Servers = services.NewServerService(svcs.Experiences, repos.Servers, repos.NotificationConfigs, cache)

	profileDeps := services.ProfileServiceDeps{
		Users:       repos.Users,
		Experiences: repos.Experiences,
		Servers:     repos.Servers,
		Identity:    discord,
		Sessions:    svcs.Session,
		Payments:    svcs.Payments,
		Cache:       cache,
		Metrics:     metricsReg,
		Timeout:     cfg.ExternalCallTimeout,
	}
	if bot != nil {
		profileDeps.Guilds = providers.NewDiscordBotProvider(bot, cfg.ExternalCallTimeout)
	}
	svcs.Profiles = services.NewProfileService(profileDeps)

	return &Dependencies{
		Config:   cfg,
		Repo:     repos,
		Services: svcs,
		Metrics:  metricsReg,
		PG:       pg,
		Redis:    redisClient,
		UpSince:  time.Now(),
	}, nil
}
