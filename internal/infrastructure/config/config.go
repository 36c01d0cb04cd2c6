package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// Storage backend selectors. Exactly one backend is active per process,
// chosen once at startup.
const (
	EngineMongo    = "mongodb"
	EnginePostgres = "postgres"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWTSecret     string `env:"JWT_SECRET, required"`
	JWTTTLMinutes int    `env:"JWT_TTL_MINUTES, default=30"`

	// DBEngine selects the active user store: "mongodb" or "postgres".
	DBEngine string `env:"DB_ENGINE, default=mongodb"`

	BcryptCost  int `env:"BCRYPT_COST,  default=12"`
	HashWorkers int `env:"HASH_WORKERS, default=4"`

	Mongo    MongoConfig
	Postgres PostgresConfig
	Redis    RedisConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=identity"`
}

type PostgresConfig struct {
	URI string `env:"POSTGRES_URI, default=postgres://localhost:5432/identity?sslmode=disable"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	switch strings.ToLower(cfg.DBEngine) {
	case EngineMongo, "mongo":
		cfg.DBEngine = EngineMongo
	case EnginePostgres, "postgresql":
		cfg.DBEngine = EnginePostgres
	default:
		return nil, fmt.Errorf("config: unknown DB_ENGINE %q", cfg.DBEngine)
	}

	return &cfg, nil
}
