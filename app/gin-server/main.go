package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/cinedesk/config"
	"github.com/yoockh/cinedesk/internal/api/handlers"
	"github.com/yoockh/cinedesk/internal/api/middleware"
	"github.com/yoockh/cinedesk/internal/api/routes"
	"github.com/yoockh/cinedesk/internal/logger"
	"github.com/yoockh/cinedesk/internal/ratelimit"
	"github.com/yoockh/cinedesk/internal/repositories"
	mongorepo "github.com/yoockh/cinedesk/internal/repositories/mongo"
	pgrepo "github.com/yoockh/cinedesk/internal/repositories/postgres"
	"github.com/yoockh/cinedesk/internal/repositories/rpc"
	"github.com/yoockh/cinedesk/internal/services"
	"github.com/yoockh/cinedesk/internal/storage"
	"github.com/yoockh/cinedesk/internal/supabase"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.New("info").WithError(err).Fatal("config load error")
	}
	log := logger.New(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage signer: built once, a missing credential stops the process.
	gw := storage.NewGatewayFromConfig(storage.GatewayConfig{
		Provider: cfg.Storage.Provider,
		S3: storage.S3Config{
			Bucket:         cfg.Storage.Bucket,
			Region:         cfg.Storage.Region,
			Endpoint:       cfg.Storage.Endpoint,
			AccessKey:      cfg.Storage.AccessKey,
			SecretKey:      cfg.Storage.SecretKey,
			ForcePathStyle: cfg.Storage.ForcePathStyle,
		},
		GCS: storage.GCSConfig{
			Bucket:          cfg.Storage.Bucket,
			CredentialsJSON: cfg.Storage.GCSCredentialsJSON,
			CredentialsFile: cfg.Storage.GCSCredentialsFile,
		},
	})
	if _, err := gw.Client(ctx); err != nil {
		log.WithError(err).Fatal("storage init error")
	}
	log.WithField("provider", cfg.Storage.Provider).Info("storage signer ready")

	repos := mustRepos(cfg, log)
	defer repos.close()

	shareOpts := services.ShareServiceOptions{AuditTTL: cfg.Share.AuditTTL, Logger: log}
	var shareLimit gin.HandlerFunc

	// Redis (optional)
	if cfg.RedisAddr != "" && cfg.Share.RateLimitPerMin > 0 {
		rdb, err := config.OpenRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.WithError(err).Fatal("Redis init error")
		}
		defer rdb.Close()
		limiter := ratelimit.NewRedisLimiter(rdb, "ratelimit:share", cfg.Share.RateLimitPerMin, time.Minute)
		shareLimit = middleware.RateLimit(limiter, log)
		log.Info("Redis connected")
	}

	// MongoDB (optional)
	if cfg.MongoURI != "" {
		mc, err := config.OpenMongo(ctx, cfg.MongoURI)
		if err != nil {
			log.WithError(err).Fatal("MongoDB init error")
		}
		defer func() { _ = mc.Disconnect(context.Background()) }()

		db := mc.Database(cfg.MongoDB)
		if err := config.EnsureMongoIndexes(ctx, db); err != nil {
			log.WithError(err).Fatal("MongoDB index error")
		}
		shareOpts.Audit = mongorepo.NewShareAccessRepo(db)
		log.Info("MongoDB connected")
	}

	shareSvc := services.NewShareService(repos.shares, shareOpts)

	deps := routes.Deps{
		File:       handlers.NewFileHandler(services.NewFileService(gw)),
		Share:      handlers.NewShareHandler(shareSvc),
		Project:    handlers.NewProjectHandler(shareSvc, services.NewProjectService(repos.members)),
		ShareLimit: shareLimit,

		TrustedProxies: cfg.TrustedProxies,
	}
	if cfg.Supabase.JWTSecret != "" {
		deps.Auth = middleware.JWTAuth(middleware.JWTConfig{
			Secret:   cfg.Supabase.JWTSecret,
			Issuer:   cfg.Supabase.JWTIssuer,
			Audience: cfg.Supabase.JWTAudience,
		})
	} else {
		log.Warn("SUPABASE_JWT_SECRET is not set, console routes are unauthenticated")
	}

	if cfg.LogLevel != "debug" && cfg.LogLevel != "trace" {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := routes.NewRouter(log, deps)
	if err != nil {
		log.WithError(err).Fatal("router init error")
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server error")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http server shutdown error")
	}
}

type backendRepos struct {
	shares  repositories.ShareRepository
	members repositories.MembershipRepository
	close   func()
}

// mustRepos prefers a direct Postgres connection and falls back to the
// Supabase REST gateway.
func mustRepos(cfg *config.App, log *logrus.Logger) backendRepos {
	names := repositories.ProcedureNames{
		Resolve:    cfg.Share.ResolveRPC,
		Files:      cfg.Share.FilesRPC,
		TokenParam: cfg.Share.TokenParam,
		Member:     cfg.Share.MemberRPC,
	}

	if cfg.PostgresURI != "" {
		db, err := config.OpenPostgres(cfg.PostgresURI)
		if err != nil {
			log.WithError(err).Fatal("PostgreSQL init error")
		}
		shares, err := pgrepo.NewShareRepo(db, names)
		if err != nil {
			log.WithError(err).Fatal("share repository error")
		}
		members, err := pgrepo.NewMembershipRepo(db, names)
		if err != nil {
			log.WithError(err).Fatal("membership repository error")
		}
		log.Info("PostgreSQL connected")

		return backendRepos{shares: shares, members: members, close: func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}}
	}

	sb, err := supabase.New(supabase.Config{
		URL:            cfg.Supabase.URL,
		ServiceRoleKey: cfg.Supabase.ServiceRoleKey,
		Timeout:        cfg.Supabase.Timeout,
	})
	if err != nil {
		log.WithError(err).Fatal("supabase client error")
	}
	log.WithField("url", cfg.Supabase.URL).Info("using Supabase REST for share lookups")
	return backendRepos{
		shares:  rpc.NewShareRepo(sb, names),
		members: rpc.NewMembershipRepo(sb, names),
		close:   func() {},
	}
}
