package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloud-wave-best-zizon/cart-service/internal/events"
	"github.com/cloud-wave-best-zizon/cart-service/internal/handler"
	"github.com/cloud-wave-best-zizon/cart-service/internal/repository"
	"github.com/cloud-wave-best-zizon/cart-service/internal/service"
	"github.com/cloud-wave-best-zizon/cart-service/pkg/config"
	"github.com/cloud-wave-best-zizon/cart-service/pkg/metrics"
	"github.com/cloud-wave-best-zizon/cart-service/pkg/middleware"
	"github.com/cloud-wave-best-zizon/cart-service/pkg/money"
	spiffetls "github.com/cloud-wave-best-zizon/cart-service/pkg/tls"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Config 로드
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to create logger: ", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalog, closeCatalog, err := newCatalog(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create catalog", zap.Error(err))
	}
	defer closeCatalog()

	m := metrics.New(prometheus.DefaultRegisterer)
	formatter := money.NewFormatter(cfg.Locale, cfg.Currency)

	// Service, Handler 초기화
	cartService := service.NewCartService(catalog, formatter, service.CartSettings{
		TaxRate:      cfg.TaxRate,
		ShippingFlat: cfg.ShippingFlat,
		PageSize:     cfg.CatalogPageSize,
	}, logger)
	cartService.SetMetrics(m)

	if cfg.KafkaEnabled() {
		producer := events.NewKafkaProducer(cfg.KafkaBrokers, cfg.CartEventsTopic, logger)
		defer producer.Close()
		cartService.SetPublisher(producer)
		logger.Info("Cart events enabled",
			zap.String("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.CartEventsTopic))
	}

	productService := service.NewProductService(catalog, cartService, service.PriceRange{
		Min: cfg.RandomPriceMin,
		Max: cfg.RandomPriceMax,
	}, cfg.IDStrategy == config.IDStrategyTimestamp, logger)
	cartHandler := handler.NewCartHandler(cartService, productService, logger)

	// Gin Router 설정
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics(m))

	// Routes
	v1 := router.Group("/api/v1")
	{
		cartHandler.RegisterRoutes(v1)
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		})
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	tlsProvider, err := spiffetls.NewProvider(ctx, cfg.TLSConfig, logger)
	if err != nil {
		logger.Fatal("Failed to load TLS config", zap.Error(err))
	}
	if tlsProvider != nil {
		defer tlsProvider.Close()
		srv.TLSConfig = tlsProvider.ServerConfig()
		go tlsProvider.Watch(ctx, 30*time.Second)
	}

	go func() {
		logger.Info("Starting server",
			zap.String("port", cfg.Port),
			zap.Bool("tls", srv.TLSConfig != nil))

		var err error
		if srv.TLSConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	<-ctx.Done()

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

// newCatalog selects the catalog backend and wraps it in the Redis cache
// when one is configured. The returned func releases the cache client.
func newCatalog(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Catalog, func(), error) {
	var catalog repository.Catalog

	switch cfg.CatalogSource {
	case config.CatalogSourceDynamoDB:
		client, err := repository.NewDynamoDBClient(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, nil, err
		}
		catalog = repository.NewDynamoCatalogRepository(client, cfg.CatalogTableName)
	default:
		catalog = repository.NewHTTPCatalogRepository(cfg.CatalogBaseURL, cfg.CatalogTimeout)
	}

	logger.Info("Catalog configured",
		zap.String("source", cfg.CatalogSource),
		zap.Int("page_size", cfg.CatalogPageSize))

	if !cfg.CacheEnabled() {
		return catalog, func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		// the cache is optional; fetches fall through when Redis is down
		logger.Warn("Redis unreachable at startup", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	closeFn := func() {
		if err := rdb.Close(); err != nil {
			logger.Error("Failed to close redis client", zap.Error(err))
		}
	}
	return repository.NewCachedCatalog(catalog, rdb, cfg.CatalogCacheTTL, logger), closeFn, nil
}
