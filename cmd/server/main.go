package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lims-qc/identity-service/internal/api"
	"github.com/lims-qc/identity-service/internal/core/ports"
	"github.com/lims-qc/identity-service/internal/core/service"
	"github.com/lims-qc/identity-service/internal/infrastructure/config"
	"github.com/lims-qc/identity-service/internal/infrastructure/crypto"
	mongodb "github.com/lims-qc/identity-service/internal/infrastructure/db/mongo"
	"github.com/lims-qc/identity-service/internal/infrastructure/db/postgres"
	redisdb "github.com/lims-qc/identity-service/internal/infrastructure/db/redis"
	"github.com/lims-qc/identity-service/internal/infrastructure/http/handlers"
	"github.com/lims-qc/identity-service/internal/infrastructure/token"
	"github.com/lims-qc/identity-service/pkg/logger"
)

// @title                      Identity Service API
// @version                    1.0
// @description                User management and authentication backend.
// @BasePath                   /api/v1
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	hasher := crypto.NewBcryptHasher(cfg.BcryptCost, cfg.HashWorkers, log)
	codec := token.NewJWTCodec(cfg.JWTSecret)

	// Exactly one storage backend is active per process; both expose the
	// same repository contract so nothing downstream cares which.
	pings := make(map[string]handlers.PingFunc, 2)
	var repo ports.UserRepository

	switch cfg.DBEngine {
	case config.EngineMongo:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("mongodb connection failed")
		}
		defer func() {
			_ = client.Disconnect(context.Background())
		}()

		userRepo := mongodb.NewUserRepository(db)
		if err := userRepo.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("mongodb index creation failed")
		}
		repo = userRepo
		pings["mongodb"] = func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		}

	case config.EnginePostgres:
		db, err := postgres.Connect(ctx, postgres.Config{URI: cfg.Postgres.URI})
		if err != nil {
			log.Fatal().Err(err).Msg("postgres connection failed")
		}
		defer db.Close()

		repo = postgres.NewUserRepository(db)
		pings["postgres"] = db.PingContext
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	repo = redisdb.NewCachedUserRepository(repo, rdb, log)
	pings["redis"] = func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}

	userService := service.NewUserService(
		repo, hasher, codec,
		time.Duration(cfg.JWTTTLMinutes)*time.Minute,
		log,
	)

	readiness := handlers.NewReadinessHandler(pings)
	e := api.NewRouter(userService, codec, readiness, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil {
			log.Info().Err(err).Msg("http server stopped")
		}
	}()
	log.Info().
		Str("port", cfg.Port).
		Str("db_engine", cfg.DBEngine).
		Msg("identity service started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	hasher.Close()
	log.Info().Msg("identity service stopped")
}
