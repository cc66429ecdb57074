package main

import (
	"context"
	"flag"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/y4gg/portfolio-api/internal/config"
	"github.com/y4gg/portfolio-api/internal/infra/database"
	"github.com/y4gg/portfolio-api/internal/infra/repository"
	"github.com/y4gg/portfolio-api/internal/infra/telemetry"
	"github.com/y4gg/portfolio-api/internal/present/rest"
	"github.com/y4gg/portfolio-api/internal/service"
	"github.com/y4gg/portfolio-api/internal/usecase"
)

const cacheTTL = 5 * time.Minute

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if conf.Site.APIKey == "" {
		slog.Warn(
			"No admin API key configured; all mutating requests will be rejected",
			slog.String("module", "main"),
		)
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		panic("failed to connect database")
	}

	err = database.MigratePostgres(db)
	if err != nil {
		panic("failed to migrate database")
	}

	if conf.Server.EnableTrace {
		shutdown, err := telemetry.SetupTraceProvider(context.Background(), conf.Server.TraceEndpoint, "portfolio-api")
		if err != nil {
			panic("failed to setup trace provider: " + err.Error())
		}
		defer shutdown(context.Background())
	}

	var signal *service.SignalService
	if conf.Server.RedisAddr != "" {
		rdb := database.NewRedis(conf.Server.RedisAddr, "", conf.Server.RedisDB)
		signal = service.NewSignalService(rdb)
	}

	var blogRepo usecase.BlogRepository = repository.NewBlogRepository(db)
	if conf.Server.MemcachedAddr != "" {
		mc := database.NewMemcached(conf.Server.MemcachedAddr)
		blogRepo = repository.NewCachedBlogRepository(blogRepo, repository.NewMemcachedCache(mc, cacheTTL))
	} else {
		blogRepo = repository.NewCachedBlogRepository(blogRepo, repository.NewMemoryCache(cacheTTL))
	}

	auth := service.NewAuthService(conf.Site.APIKey)

	var events usecase.EventSink
	if signal != nil {
		events = signal
	}
	blog := usecase.NewBlogUsecase(blogRepo, auth, events)

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware(conf.Site.FQDN))
	}

	handler := rest.NewHandler(blog, auth, signal)
	handler.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(conf.Server.Listen))
}
