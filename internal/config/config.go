package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Model    ModelConfig    `mapstructure:"model"    validate:"required"`
	Quiz     QuizConfig     `mapstructure:"quiz"     validate:"required"`
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Task     TaskConfig     `mapstructure:"task"     validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url"            validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// ModelConfig controls training of the score regressors.
type ModelConfig struct {
	// MinTrainingLearners is the population size below which training is refused.
	MinTrainingLearners int `mapstructure:"min_training_learners" validate:"gte=1"`
	// TrainTimeout bounds a single training run.
	TrainTimeout time.Duration `mapstructure:"train_timeout" validate:"gt=0"`
	// RetrainOnGrade queues a background retrain after every graded quiz.
	RetrainOnGrade bool    `mapstructure:"retrain_on_grade"`
	RidgeLambda    float64 `mapstructure:"ridge_lambda"    validate:"gt=0"`
	Neighbors      int     `mapstructure:"neighbors"       validate:"gte=1"`
	BoostingRounds int     `mapstructure:"boosting_rounds" validate:"gte=1"`
	LearningRate   float64 `mapstructure:"learning_rate"   validate:"gt=0,lte=1"`
}

// QuizConfig contains quiz session settings.
type QuizConfig struct {
	DefaultQuestionCount int           `mapstructure:"default_question_count" validate:"gte=1"`
	SessionTTL           time.Duration `mapstructure:"session_ttl"            validate:"gt=0"`
}

// DatasetConfig points at the flat tabular dataset used for bulk training.
type DatasetConfig struct {
	Path          string `mapstructure:"path"`
	AppendOnGrade bool   `mapstructure:"append_on_grade"`
}

// RedisConfig enables the Redis-backed quiz session cache.
// When disabled, sessions are kept in process memory.
type RedisConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"    validate:"required_if=Enabled true"`
	DB      int    `mapstructure:"db"      validate:"gte=0"`
}

// TaskConfig contains background task processing settings.
type TaskConfig struct {
	QueueSize   int `mapstructure:"queue_size"   validate:"gte=1"`
	WorkerCount int `mapstructure:"worker_count" validate:"gte=1"`
}
