// /internal/config/config.go
package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

func init() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}
}

type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,required"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"soundkeeper.db"`
	LogPath      string `env:"LOG_PATH"`

	// ClusterNodes lists rendering node addresses. Empty means the
	// in-process node is used instead of a remote cluster.
	ClusterNodes []string `env:"CLUSTER_NODES" envSeparator:","`

	StatusQuietInterval time.Duration `env:"STATUS_QUIET_INTERVAL" envDefault:"10s"`
	HistoryThreshold    time.Duration `env:"HISTORY_THRESHOLD" envDefault:"30s"`
	SettingsCacheTTL    time.Duration `env:"SETTINGS_CACHE_TTL" envDefault:"6h"`
	IdleTimeout         time.Duration `env:"IDLE_TIMEOUT" envDefault:"5m"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("[ERR] Failed to parse environment config: %v", err)
	}
	return cfg
}
