package config

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds everything the server needs to start. Values come from a
// YAML file when one is given, with environment variables taking over field
// by field.
type Config struct {
	LogLevel       string        `yaml:"log_level" env:"TASKBOARD_LOG_LEVEL" env-default:"INFO"`
	Address        string        `yaml:"address" env:"TASKBOARD_ADDR" env-default:":8080"`
	DBPath         string        `yaml:"db_path" env:"TASKBOARD_DB_PATH" env-default:"data/taskboard.db"`
	StaticDir      string        `yaml:"static_dir" env:"TASKBOARD_STATIC_DIR" env-default:""`
	OutboxInterval time.Duration `yaml:"outbox_interval" env:"TASKBOARD_OUTBOX_INTERVAL" env-default:"2s"`
	OutboxAttempts int           `yaml:"outbox_attempts" env:"TASKBOARD_OUTBOX_ATTEMPTS" env-default:"5"`
}

// MustLoad reads the configuration and exits on failure. An empty path or a
// missing file falls back to environment variables alone.
func MustLoad(configPath string) Config {
	var cfg Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("cannot read env: %s", err)
		}
		return cfg
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		var pe *os.PathError
		if errors.As(err, &pe) {
			if err := cleanenv.ReadEnv(&cfg); err != nil {
				log.Fatalf("cannot read env: %s", err)
			}
			return cfg
		}
		log.Fatalf("cannot read config %q: %s", configPath, err)
	}

	return cfg
}
