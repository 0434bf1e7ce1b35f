package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/wipefix/wipefix/backend/go-services/handlers"
	"github.com/wipefix/wipefix/backend/go-services/internal/auth"
	"github.com/wipefix/wipefix/backend/go-services/internal/brokerpack/handler"
	"github.com/wipefix/wipefix/backend/go-services/internal/brokerpack/repository"
	"github.com/wipefix/wipefix/backend/go-services/internal/brokerpack/service"
	"github.com/wipefix/wipefix/backend/go-services/internal/config"
	"github.com/wipefix/wipefix/backend/go-services/internal/database"
	"github.com/wipefix/wipefix/backend/go-services/internal/storage"
	"github.com/wipefix/wipefix/backend/go-services/pkg/logger"
	"github.com/wipefix/wipefix/backend/go-services/pkg/metrics"
	"github.com/wipefix/wipefix/backend/go-services/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	logger.Infow("config loaded", map[string]interface{}{
		"mongo":           cfg.MongoDB.URI != "",
		"redis":           cfg.Redis.Addr() != "",
		"mirror":          cfg.MinIO.Enabled(),
		"rate_limit":      cfg.RateLimit.Enabled,
		"admin_token_set": cfg.Admin.Token != "",
	})
	if cfg.Admin.Token == "" {
		logger.Warn("ADMIN_TOKEN is not set; every pack creation will be rejected")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo := openRepository(ctx, cfg)
	defer closeRepo()

	var opts []service.Option
	if cfg.MinIO.Enabled() {
		mirror, err := storage.NewPackMirror(&cfg.MinIO)
		if err != nil {
			logger.Warnf("static mirror disabled: %v", err)
		} else {
			opts = append(opts, service.WithMirror(mirror))
			logger.Infof("publishing packs to bucket %s", cfg.MinIO.Bucket)
		}
	}
	svc := service.New(repo, auth.NewAdminAuthorizer(cfg.Admin.Token), opts...)

	var rdb *redis.Client
	if cfg.RateLimit.Enabled && cfg.RateLimit.UseRedis && cfg.Redis.Addr() != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("redis ping failed (%s), using in-memory rate limiter: %v", cfg.Redis.Addr(), err)
			_ = rdb.Close()
			rdb = nil
		} else {
			defer func() { _ = rdb.Close() }()
		}
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(cfg, svc, rdb),
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("broker pack service listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}

// openRepository connects to MongoDB when configured, otherwise keeps packs in memory.
func openRepository(ctx context.Context, cfg *config.Config) (repository.Repository, func()) {
	if cfg.MongoDB.URI == "" {
		logger.Warn("MONGODB_URI not set; using in-memory pack store (data is lost on restart)")
		return repository.NewMemoryRepo(), func() {}
	}
	client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, database.DefaultRetryPolicy)
	if err != nil {
		logger.Fatalf("failed to connect to MongoDB: %v", err)
	}
	db := client.Database(cfg.MongoDB.Database)
	logger.Infof("using MongoDB database %s", cfg.MongoDB.Database)
	repo := repository.NewMongoRepo(db.Collection(cfg.MongoDB.PacksCollection), db.Collection(cfg.MongoDB.MetaCollection))
	return repo, func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(dctx)
	}
}

func newRouter(cfg *config.Config, svc service.Service, rdb *redis.Client) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.CORS(cfg.Server.CORSOrigins), middleware.RequestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// 200 only when the pack store answers
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		deps := map[string]bool{"storage": svc.Ready(ctx) == nil}
		if rdb != nil {
			deps["redis"] = rdb.Ping(ctx).Err() == nil
		}
		ready := true
		for _, ok := range deps {
			ready = ready && ok
		}
		uptime := time.Since(startTime).String()
		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": uptime})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": uptime})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterSwagger(r)

	api := r.Group("/")
	if cfg.RateLimit.Enabled {
		if rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			api.Use(middleware.RedisRateLimitMiddleware(rdb, "packs", cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			api.Use(middleware.RateLimitMiddleware("packs", cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}
	handler.RegisterPackRoutes(api, svc)
	return r
}
