package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio_rebalancer/internal/app/service"
	"portfolio_rebalancer/internal/infrastructure/allowance"
	"portfolio_rebalancer/internal/infrastructure/configloader"
	"portfolio_rebalancer/internal/infrastructure/portfolioapi"
	"portfolio_rebalancer/internal/infrastructure/quoteapi"
	"portfolio_rebalancer/internal/infrastructure/restapi"
	"portfolio_rebalancer/internal/infrastructure/txclient"
	"portfolio_rebalancer/internal/pkg/logger"
	"portfolio_rebalancer/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogzap "github.com/samber/slog-zap/v2"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gin-gonic/gin"
)

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func zapLevelFor(levelStr string) zapcore.Level {
	switch levelStr {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func main() {
	// Bootstrap logger for the window before the config and zap are ready.
	bootLog := logrus.New()
	bootLog.SetFormatter(&logrus.JSONFormatter{})
	bootLog.SetOutput(os.Stdout)
	bootLog.SetLevel(logrus.InfoLevel)

	cfgPath := getEnv("CONFIG_PATH", "config/config.yml")
	cfg, err := configloader.Load(cfgPath)
	if err != nil {
		bootLog.Fatalf("Failed to load configuration from %s: %v", cfgPath, err)
	}
	bootLog.Infof("Configuration loaded from %s", cfgPath)

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(zapLevelFor(cfg.Logging.Level))
	zapLogger, err := zapCfg.Build()
	if err != nil {
		bootLog.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer zapLogger.Sync()

	// Route the global slog through zap so both logging styles share one sink.
	slogHandler := slogzap.Option{
		Level:  slog.LevelDebug,
		Logger: zapLogger,
	}.NewZapHandler()
	logger.SetGlobal(slog.New(slogHandler))
	appLogger := logger.NewSlogAdapter()

	logger.Info("Portfolio rebalancer starting", "configPath", cfgPath, "logLevel", cfg.Logging.Level)

	metrics.MustRegisterMetrics()

	portfolioProvider := portfolioapi.NewClient(
		cfg.PortfolioAPI.BaseURL,
		time.Duration(cfg.PortfolioAPI.RequestTimeoutMillis)*time.Millisecond,
		time.Duration(cfg.PortfolioAPI.CacheTTLSeconds)*time.Second,
		cfg.PortfolioAPI.PriceBatchSize,
		cfg.PortfolioAPI.MaxConcurrentRequests,
		zapLogger,
	)
	logger.Info("Portfolio API client initialized", "baseURL", cfg.PortfolioAPI.BaseURL)

	quoteProvider := quoteapi.NewClient(
		cfg.QuoteAPI.BaseURL,
		time.Duration(cfg.QuoteAPI.RequestTimeoutMillis)*time.Millisecond,
		cfg.QuoteAPI.RequestsPerSecond,
		zapLogger,
	)
	logger.Info("Swap quote client initialized", "baseURL", cfg.QuoteAPI.BaseURL)

	approvalProvider, err := allowance.NewERC20Provider(
		cfg.Chain.RPCURL,
		cfg.Chain.RouterAddress,
		time.Duration(cfg.Chain.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
	)
	if err != nil {
		logger.Fatal("Failed to initialize allowance provider", "error", err)
	}
	logger.Info("Allowance provider initialized",
		"chainId", cfg.Chain.ChainID, "router", cfg.Chain.RouterAddress)

	clientFactory := txclient.NewFactory(cfg, zapLogger)

	deltaCalculator := service.NewDeltaCalculator(appLogger)
	swapMatcher := service.NewSwapMatcher(appLogger)
	txGenerator := service.NewTransactionGenerator(
		approvalProvider,
		quoteProvider,
		cfg.QuoteAPI.SlippagePercent,
		appLogger,
	)
	rebalanceService := service.NewRebalanceService(deltaCalculator, swapMatcher, txGenerator, appLogger)
	logger.Info("Rebalance service initialized", "slippagePercent", cfg.QuoteAPI.SlippagePercent)

	rebalanceHandler := restapi.NewRebalanceHandler(
		portfolioProvider,
		deltaCalculator,
		rebalanceService,
		clientFactory,
		cfg,
		appLogger,
	)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := restapi.SetupRouter(rebalanceHandler, zapLogger)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger UI is served from the static document, no swag init step involved.
	router.StaticFile("/docs/swagger.yaml", "./docs/swagger.yaml")
	swaggerURL := ginSwagger.URL("/docs/swagger.yaml")
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, swaggerURL))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecond) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	go func() {
		logger.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutdown signal received, stopping HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server forced to shut down", "error", err)
	} else {
		logger.Info("HTTP server stopped cleanly")
	}
}
