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

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/ghanahealth/patient-portal/config"
	"github.com/ghanahealth/patient-portal/internal/application"
	"github.com/ghanahealth/patient-portal/internal/container"
	"github.com/ghanahealth/patient-portal/internal/directory"
	"github.com/ghanahealth/patient-portal/internal/infrastructure/auditlog"
	"github.com/ghanahealth/patient-portal/internal/infrastructure/localstore"
	"github.com/ghanahealth/patient-portal/internal/infrastructure/supabase"
	"github.com/ghanahealth/patient-portal/internal/interface/middleware"
	"github.com/ghanahealth/patient-portal/internal/router"
	"github.com/ghanahealth/patient-portal/pkg/helpers"
	"github.com/ghanahealth/patient-portal/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	// Local credential store; the portal must come up with no backend at all
	store, err := localstore.New(cfg.LocalStoreDir)
	if err != nil {
		log.Fatalf("failed to open local store: %v", err)
	}

	// Hosted provider; unconfigured is fine, calls fail fast
	remote := supabase.New(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.RemoteTimeout, logger)
	if !cfg.RemoteConfigured() {
		logger.Warn("remote provider not configured; running local-only")
	}

	// Redis
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()

	// GCS (avatar storage)
	gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
	if err != nil {
		logger.WithError(err).Warn("GCS unavailable, avatar upload disabled")
		gcsClient = nil
	} else {
		defer func() { _ = gcsClient.Close() }()
	}

	// Elasticsearch (doctor directory and profile index)
	var esClient *elasticsearch.Client
	if cfg.ElasticsearchAddrs != "" {
		esClient, err = helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.WithError(err).Warn("elasticsearch unavailable, search falls back to in-memory")
			esClient = nil
		}
	}

	// Audit trail (embedded sqlite)
	audit, err := auditlog.Open(cfg.AuditDBPath)
	if err != nil {
		log.Fatalf("failed to open audit db: %v", err)
	}
	defer func() { _ = audit.Close() }()

	// RabbitMQ publisher for outgoing email jobs
	var pub *helpers.RabbitPublisher
	if cfg.RabbitMQURL != "" {
		pub, err = helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable, email sending disabled")
			pub = nil
		} else {
			defer pub.Close()
		}
	}

	jwtManager := helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	cookies := helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure)
	sessions := application.NewSessionManager(store, remote, rdb, logger, esClient, cfg.ESProfilesIndex)
	doctors := directory.NewService(esClient, cfg.ESDoctorsIndex, logger)

	// Provide singletons to container for registry auto-wiring
	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetLocalStore(store)
	container.SetRemote(remote)
	container.SetRedis(rdb)
	container.SetGCS(gcsClient)
	container.SetJWT(jwtManager)
	container.SetCookies(cookies)
	container.SetRabbitPub(pub)
	container.SetES(esClient)
	container.SetAudit(audit)
	container.SetSessions(sessions)
	container.SetDoctors(doctors)

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(corsCfg))
	if cfg.Env == "development" || cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}

	// Registry: auto-register modules using container
	reg := router.NewRegistry(r)
	router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}
