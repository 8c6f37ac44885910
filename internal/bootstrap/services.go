package bootstrap

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/tickerwatch/tickerwatch/config"
	"github.com/tickerwatch/tickerwatch/internal/data"
	"github.com/tickerwatch/tickerwatch/internal/fetch"
	httpx "github.com/tickerwatch/tickerwatch/internal/http"
	"github.com/tickerwatch/tickerwatch/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Scheduler *service.SchedulerService
	Ingest    *service.IngestService
	Scrape    *service.ScrapeService
	Registry  *service.TriggerRegistry
	Cache     *data.RedisCacheRepo
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing the service layer.
type serviceRepositories struct {
	Schedules *data.RetryingScheduleStore
	Stocks    *data.StockRepo
	Scrapes   *data.ScrapeRepo
	Keys      *data.CachedKeyProvider
	Cache     *data.RedisCacheRepo
}

func buildRepositories(deps ServiceDeps) *serviceRepositories {
	cache := data.NewRedisCacheRepo(deps.RedisClient)

	schedules := data.NewRetryingScheduleStore(data.RetryingScheduleStoreOptions{
		Inner:  data.NewScheduleRepo(deps.DB),
		Logger: deps.Logger,
	})

	keys := data.NewCachedKeyProvider(data.CachedKeyProviderOptions{
		Source: data.NewAPIKeyRepo(deps.DB),
		Cache:  cache,
		TTL:    deps.Config.Redis.KeyTTL,
		Logger: deps.Logger,
	})

	return &serviceRepositories{
		Schedules: schedules,
		Stocks:    data.NewStockRepo(deps.DB),
		Scrapes:   data.NewScrapeRepo(deps.DB),
		Keys:      keys,
		Cache:     cache,
	}
}

// BuildServices constructs the full service graph from configuration and
// connections.
func BuildServices(deps ServiceDeps) *ServiceContainer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	repos := buildRepositories(deps)

	polygon := fetch.NewPolygonClient(fetch.PolygonClientOptions{
		BaseURL:    deps.Config.Fetcher.BaseURL,
		KeyService: deps.Config.Fetcher.KeyService,
		Keys:       repos.Keys,
		Logger:     logger,
	})
	pipeline := fetch.NewPipeline(fetch.PipelineOptions{
		Source: polygon,
		Store:  repos.Stocks,
		Config: deps.Config.Fetcher,
		Logger: logger,
	})
	screener := fetch.NewScreenerClient(fetch.ScreenerClientOptions{
		URL:       deps.Config.Screener.URL,
		UserAgent: deps.Config.Screener.UserAgent,
		Timeout:   deps.Config.Screener.RequestTimeout,
		Logger:    logger,
	})

	ingest := service.NewIngestService(service.IngestServiceOptions{
		Pipeline: pipeline,
		Config:   deps.Config.Fetcher,
		Logger:   logger,
	})
	scrape := service.NewScrapeService(service.ScrapeServiceOptions{
		Screener: screener,
		Store:    repos.Scrapes,
		Cache:    repos.Cache,
		Logger:   logger,
	})

	registry := service.NewTriggerRegistry(service.TriggerRegistryOptions{Logger: logger})
	scheduler := service.NewSchedulerService(service.SchedulerServiceOptions{
		Schedules: repos.Schedules,
		Registry:  registry,
		Ingest:    ingest,
		Scrape:    scrape,
		Config:    deps.Config.Scheduler,
		Logger:    logger,
	})

	return &ServiceContainer{
		Scheduler: scheduler,
		Ingest:    ingest,
		Scrape:    scrape,
		Registry:  registry,
		Cache:     repos.Cache,
	}
}

// Run starts the enabled services and blocks until a shutdown signal
// arrives. The scheduler and HTTP server stop gracefully before Run
// returns.
func Run(ctx context.Context, cfg *config.AppConfig, services *ServiceContainer, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.IsSchedulerEnabled() {
		if err := services.Scheduler.Start(ctx); err != nil {
			return err
		}
		defer services.Scheduler.Stop()
	}

	var server *http.Server
	if cfg.IsHTTPServerEnabled() {
		handler := httpx.NewRouter(httpx.RouterServices{
			Scheduler: services.Scheduler,
			Ingest:    services.Ingest,
			Health: map[string]httpx.HealthChecker{
				"redis": services.Cache,
			},
			Logger: logger,
		})
		server = startServer(logger, handler, cfg.HTTP)
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")

	return shutdownServer(server, cfg.HTTP, logger)
}
