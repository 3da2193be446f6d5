package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load,
// e.g. ADAPTIQ_SERVER_PORT overrides server.port.
const EnvPrefix = "ADAPTIQ"

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("model.min_training_learners", 10)
	v.SetDefault("model.train_timeout", 30*time.Second)
	v.SetDefault("model.retrain_on_grade", true)
	v.SetDefault("model.ridge_lambda", 1.0)
	v.SetDefault("model.neighbors", 5)
	v.SetDefault("model.boosting_rounds", 100)
	v.SetDefault("model.learning_rate", 0.1)

	v.SetDefault("quiz.default_question_count", 15)
	v.SetDefault("quiz.session_ttl", 2*time.Hour)

	v.SetDefault("dataset.path", "")
	v.SetDefault("dataset.append_on_grade", false)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("task.queue_size", 1)
	v.SetDefault("task.worker_count", 1)
}
