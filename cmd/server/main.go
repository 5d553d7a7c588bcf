package main

import (
	"database/sql"
	"net/http"
	"os"

	"github.com/haatos/gitbridge/internal"
	"github.com/haatos/gitbridge/internal/handler"
	"github.com/haatos/gitbridge/internal/logging"
	"github.com/haatos/gitbridge/internal/metrics"
	"github.com/haatos/gitbridge/internal/security"
	"github.com/haatos/gitbridge/internal/service"
	"github.com/haatos/gitbridge/internal/settings"
	"github.com/haatos/gitbridge/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	if err := settings.ReadDotenv(internal.DotEnvPath); err != nil && !os.IsNotExist(err) {
		bootLogger := logging.NewLogger("gitbridge", "info")
		bootLogger.Fatal().Err(err).Msg("err reading dotenv")
	}
	appSettings := settings.NewSettings()
	logger := logging.NewLogger("gitbridge", appSettings.LogLevel)

	config, err := internal.LoadConfiguration(internal.ConfigPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("err loading configuration")
	}
	keys, err := security.NewKeys(internal.DotEnvPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("err initializing keys")
	}

	rdb := openDatabase(appSettings, true, logger)
	defer rdb.Close()
	rwdb := openDatabase(appSettings, false, logger)
	defer rwdb.Close()
	if err := store.RunMigrations(rwdb, appSettings.DBDriver); err != nil {
		logger.Fatal().Err(err).Msg("err running migrations")
	}

	metrics.Register(prometheus.DefaultRegisterer)
	metrics.RegisterDBStatsMetrics(prometheus.DefaultRegisterer, "read", rdb)
	metrics.RegisterDBStatsMetrics(prometheus.DefaultRegisterer, "write", rwdb)

	scheduler, err := service.NewScheduler()
	if err != nil {
		logger.Fatal().Err(err).Msg("err creating scheduler")
	}
	defer scheduler.Shutdown()

	uuidGen := service.NewUUIDGen()
	cookieSvc := service.NewCookieService(keys.HashKey, keys.BlockKey, appSettings)
	sshKeySvc := service.NewSSHKeyService(
		store.NewSSHKeySQLStore(rdb, rwdb),
		security.NewAESEncrypter(keys.EncryptionKey),
		logger,
	)
	oauthSvc := service.NewOAuthService(
		logger,
		service.NewGitHubProvider(appSettings.GitHub, "", appSettings.OAuthRedirectURI),
		service.NewBitbucketProvider(appSettings.Bitbucket, ""),
	)
	pipelineSvc := service.NewPipelineService(
		service.NewCLIRunner(appSettings.Airflow, config.DagID, logger),
		sshKeySvc,
		config,
		appSettings.KeysDir,
		appSettings.BaseURL()+"/api/repository/success",
		uuidGen,
		logger,
	)
	broadcaster := service.NewBroadcaster(service.NewClientSet(), logger)

	sweeper := service.NewKeySweeper(appSettings.KeysDir, config.KeyRetention(), logger)
	if err := sweeper.Schedule(scheduler, config.SweepInterval()); err != nil {
		logger.Fatal().Err(err).Msg("err scheduling key sweeper")
	}
	scheduler.Start()

	e := setupEcho(appSettings, config, logger)
	api := e.Group("/api", handler.UserIdentity(appSettings.DefaultUserID))
	handler.SetupHealthRoutes(api)
	handler.SetupSSHKeyRoutes(api, sshKeySvc)
	handler.SetupPipelineRoutes(api, pipelineSvc)
	handler.SetupRepositoryRoutes(api, broadcaster)
	handler.SetupOAuthRoutes(e, api, oauthSvc, cookieSvc, uuidGen)
	handler.SetupLiveUpdateRoutes(e, broadcaster, appSettings.AllowedOrigins)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	internal.GracefulShutdown(e, appSettings.Port, logger, broadcaster.Shutdown)
}

func openDatabase(s *settings.AppSettings, readonly bool, logger zerolog.Logger) *sql.DB {
	db, err := store.InitDatabase(s, readonly)
	if err != nil {
		logger.Fatal().Err(err).Bool("readonly", readonly).Msg("err opening database")
	}
	return db
}

func setupEcho(
	appSettings *settings.AppSettings,
	config *internal.Configuration,
	logger zerolog.Logger,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Validator = handler.NewRequestValidator()
	e.Use(
		middleware.Recover(),
		handler.RequestLogger(logger),
		middleware.CORSWithConfig(internal.GetCORSConfig(appSettings.AllowedOrigins)),
		middleware.RateLimiterWithConfig(internal.GetRateLimiterConfig(config.RateLimitPerSecond)),
	)
	e.GET("/favicon.ico", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	return e
}
