package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pbirs-tools/admin-api/audit"
	"github.com/pbirs-tools/admin-api/client"
	"github.com/pbirs-tools/admin-api/config"
	"github.com/pbirs-tools/admin-api/controller"
	"github.com/pbirs-tools/admin-api/db"
	logger "github.com/pbirs-tools/admin-api/logging"
	"github.com/pbirs-tools/admin-api/model"
	"github.com/pbirs-tools/admin-api/repository"
	"github.com/pbirs-tools/admin-api/router"
	"github.com/pbirs-tools/admin-api/service"
	"github.com/pbirs-tools/admin-api/util"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	// Initialize logger
	logger.InitLogger(config.GetString("log.dir"))
	defer logger.Sync()

	// Initialize Redis when configured; caching and rate limiting fall back
	// to in-process implementations without it
	redisEnabled := config.GetBool("redis.enabled")
	if redisEnabled {
		if err := db.InitRedis(); err != nil {
			logger.Fatal("Failed to initialize Redis", zap.Error(err))
		}
		defer db.CloseRedis()
	}

	var catalogCache, policyCache util.Cache
	if redisEnabled {
		catalogCache = db.NewRedisCache(db.RedisClient)
		policyCache = db.NewRedisCache(db.RedisClient)
	} else {
		catalogCache = util.NewMemoryCache()
		policyCache = util.NewMemoryCache()
	}

	// Initialize the audit sink
	var auditRepository audit.Repository
	if config.GetBool("elasticsearch.enabled") {
		repo, err := audit.NewElasticsearchRepository(config.GetString("elasticsearch.url"))
		if err != nil {
			logger.Fatal("Failed to initialize Elasticsearch", zap.Error(err))
		}
		auditRepository = repo
	} else {
		auditRepository = audit.NewNoopRepository()
	}
	auditService := audit.NewService(auditRepository)

	// Initialize EventBus
	eventBus := util.NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventBus.Start(ctx)

	// Initialize the report server gateway
	ntlmClient := client.NewNTLMClient(
		config.GetString("powerbi.domain"),
		config.GetString("powerbi.username"),
		config.GetString("powerbi.password"),
		config.GetDuration("http.upstreamTimeout"),
	)
	powerBIRepo := repository.NewPowerBIRepository(ntlmClient)
	directoryRepo := repository.NewDirectoryRepository()

	// Initialize services
	services := service.InitializeServices(service.ServiceParams{
		PowerBIRepo:     powerBIRepo,
		DirectoryRepo:   directoryRepo,
		AuditSvc:        auditService,
		NotificationSvc: util.NewNotificationService(),
		EventBus:        eventBus,
		CatalogCache:    catalogCache,
		PolicyCache:     policyCache,
		CacheTTL:        config.GetDuration("cache.ttl"),
		BatchSize:       config.GetInt("batch.size"),
		Domain:          config.GetString("powerbi.domain"),
		Servers:         config.GetStringSlice("powerbi.servers"),
		DirectoryConfig: model.DirectoryConfig{
			URL:          config.GetString("ldap.url"),
			BindDN:       config.GetString("ldap.bindDN"),
			BindPassword: config.GetString("ldap.bindPassword"),
			SearchBase:   config.GetString("ldap.searchBase"),
		},
		DirectoryReady: config.DirectoryConfigured(),
	})

	// Initialize controllers
	controllers := controller.InitializeControllers(services, auditService)

	// Set up Gin
	gin.SetMode(gin.ReleaseMode)
	engine := router.SetupRouter(
		controllers,
		config.GetInt("ratelimit.requests"),
		config.GetDuration("ratelimit.window"),
		config.GetDuration("http.timeout"),
		redisEnabled,
	)

	// Set up the server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.GetString("server.port")),
		Handler: engine,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", config.GetString("server.port")))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
