// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const envPrefix = "AWARD"

// Load reads configs/config.yaml, merges config.<env>.yaml on top and
// applies environment overrides (AWARD_ENGINE_MIN_BIDS, ...).
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName("config." + env)
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindEngineEnv(v)
	return v
}

// bindEngineEnv registers keys that may be absent from the YAML so
// AutomaticEnv can still override them.
func bindEngineEnv(v *viper.Viper) {
	for _, key := range []string{
		"engine.min_bids",
		"engine.evaluation_window_hours",
		"engine.min_winning_score",
		"engine.weights.capability",
		"engine.weights.reputation",
		"engine.weights.track_record",
		"engine.weights.location",
		"database.postgres.password",
		"database.redis.password",
		"messaging.rabbitmq.url",
		"ops.jwt_secret",
	} {
		_ = v.BindEnv(key)
	}
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() string {
	paths := []string{".env", "../.env", "../../.env"}
	if root := findProjectRoot(); root != "" {
		paths = append(paths, filepath.Join(root, ".env"))
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err == nil {
			return path
		}
	}
	return ""
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars replaces ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok || !strings.Contains(strVal, "$") {
			continue
		}
		if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
			v.Set(key, expanded)
		}
	}
}

// overrideEmptyConfig fills credentials from the conventional variables
// when the YAML leaves them blank.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Database.Postgres.User == "" {
		cfg.Database.Postgres.User = os.Getenv("DB_USER")
	}
	if cfg.Database.Postgres.Password == "" {
		cfg.Database.Postgres.Password = os.Getenv("DB_PASSWORD")
	}
	if cfg.Messaging.RabbitMQ.URL == "" {
		cfg.Messaging.RabbitMQ.URL = os.Getenv("RABBITMQ_URL")
	}
	if cfg.Notifications.AWS.Region == "" {
		cfg.Notifications.AWS.Region = os.Getenv("AWS_REGION")
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "award-engine"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	pg := &cfg.Database.Postgres
	if pg.Port == 0 {
		pg.Port = 5432
	}
	if pg.MaxConnections == 0 {
		pg.MaxConnections = 25
	}
	if pg.MaxIdle == 0 {
		pg.MaxIdle = 5
	}
	if pg.SSLMode == "" {
		pg.SSLMode = "disable"
	}
	if pg.OpTimeout == 0 {
		pg.OpTimeout = 5 * time.Second
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	e := &cfg.Engine
	if e.MinBids == 0 {
		e.MinBids = 5
	}
	if e.EvaluationWindowHours == 0 {
		e.EvaluationWindowHours = 24
	}
	if e.MinWinningScore == 0 {
		e.MinWinningScore = 60
	}
	if e.Weights == (WeightsConfig{}) {
		e.Weights = WeightsConfig{Capability: 40, Reputation: 25, TrackRecord: 15, Location: 20}
	}
	if e.PollInterval == 0 {
		e.PollInterval = 15 * time.Second
	}
	if e.ClaimTTL == 0 {
		e.ClaimTTL = 5 * time.Minute
	}
	if e.BatchSize == 0 {
		e.BatchSize = 50
	}
	if e.DispatchWorkers == 0 {
		e.DispatchWorkers = 4
	}
	if e.DispatchBuffer == 0 {
		e.DispatchBuffer = 256
	}
	if e.EvaluationTimeout == 0 {
		e.EvaluationTimeout = time.Minute
	}
	if e.ReconcileSchedule == "" {
		e.ReconcileSchedule = "@every 5m"
	}
	if e.LockTTL == 0 {
		e.LockTTL = 2 * time.Minute
	}
	if e.LockRetry == 0 {
		e.LockRetry = 100 * time.Millisecond
	}
	if e.ProfileCacheTTL == 0 {
		e.ProfileCacheTTL = 10 * time.Minute
	}

	mq := &cfg.Messaging.RabbitMQ
	if mq.Queue == "" {
		mq.Queue = "bid.submitted"
	}
	if mq.Prefetch == 0 {
		mq.Prefetch = 16
	}
	if mq.Consumer == "" {
		mq.Consumer = "award-engine"
	}

	n := &cfg.Notifications
	if n.AWS.Region == "" {
		n.AWS.Region = "us-east-1"
	}
	if len(n.SMS.Kinds) == 0 {
		n.SMS.Kinds = []string{"bid_accepted", "manual_review", "manual_assignment"}
	}
	if n.BreakerThreshold == 0 {
		n.BreakerThreshold = 5
	}
	if n.BreakerCooldown == 0 {
		n.BreakerCooldown = 30 * time.Second
	}

	if cfg.Audit.Index == "" {
		cfg.Audit.Index = "bid-evaluations"
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = 0.1
	}
	if cfg.Ops.Address == "" {
		cfg.Ops.Address = ":8080"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

func validateConfig(cfg *Config) error {
	if err := cfg.Engine.Validate(); err != nil {
		return err
	}

	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}
	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}
	if cfg.Messaging.RabbitMQ.Enabled && cfg.Messaging.RabbitMQ.URL == "" {
		return fmt.Errorf("messaging.rabbitmq.url is required when rabbitmq is enabled")
	}
	if cfg.Tracing.Enabled && cfg.Tracing.JaegerEndpoint == "" {
		return fmt.Errorf("tracing.jaeger_endpoint is required when tracing is enabled")
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be between 0 and 1")
	}
	if cfg.Audit.Enabled && cfg.Database.Elasticsearch.GetURL() == "" {
		return fmt.Errorf("database.elasticsearch.addresses or url is required when audit is enabled")
	}
	return nil
}

// Validate checks the evaluation policy constants.
func (e EngineConfig) Validate() error {
	if e.MinBids <= 0 {
		return fmt.Errorf("engine.min_bids must be positive, got %d", e.MinBids)
	}
	if e.EvaluationWindowHours <= 0 {
		return fmt.Errorf("engine.evaluation_window_hours must be positive, got %v", e.EvaluationWindowHours)
	}
	if e.MinWinningScore < 0 || e.MinWinningScore > 100 {
		return fmt.Errorf("engine.min_winning_score must be within [0,100], got %v", e.MinWinningScore)
	}
	w := e.Weights
	if w.Capability < 0 || w.Reputation < 0 || w.TrackRecord < 0 || w.Location < 0 {
		return fmt.Errorf("engine.weights must not be negative")
	}
	if e.DispatchWorkers <= 0 || e.DispatchBuffer <= 0 {
		return fmt.Errorf("engine.dispatch_workers and engine.dispatch_buffer must be positive")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves a worker's settings with fallback to defaults.
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, ok := cfg.Workers[workerName]; ok {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled reports whether a worker is enabled; unknown workers are enabled.
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, ok := cfg.Workers[workerName]; ok {
		return worker.Enabled
	}
	return true
}
