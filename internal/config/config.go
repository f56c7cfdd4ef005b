package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/arena.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// RedisURL switches the snapshot store from sqlite to redis when set.
	RedisURL string `env:"REDIS_URL"`

	// SnapshotTTL bounds how long a persisted room snapshot outlives its
	// last mutation.
	SnapshotTTL time.Duration `env:"SNAPSHOT_TTL" envDefault:"24h"`

	// RoomIdleTTL is how long an inactive room with no connections survives
	// before eviction.
	RoomIdleTTL time.Duration `env:"ROOM_IDLE_TTL" envDefault:"1h"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
