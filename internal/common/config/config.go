// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration of the award engine.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Engine        EngineConfig            `mapstructure:"engine"`
	Messaging     MessagingConfig         `mapstructure:"messaging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Audit         AuditConfig             `mapstructure:"audit"`
	Tracing       TracingConfig           `mapstructure:"tracing"`
	Ops           OpsConfig               `mapstructure:"ops"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	Plaintext      bool   `mapstructure:"plaintext"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Database       string        `mapstructure:"database"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	MaxConnections int           `mapstructure:"max_connections"`
	MaxIdle        int           `mapstructure:"max_idle"`
	SSLMode        string        `mapstructure:"sslmode"`
	OpTimeout      time.Duration `mapstructure:"op_timeout"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
}

// GetURL returns the single URL or the first configured address.
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// EngineConfig holds the evaluation policy constants and the scheduler tuning.
type EngineConfig struct {
	MinBids               int           `mapstructure:"min_bids"`
	EvaluationWindowHours float64       `mapstructure:"evaluation_window_hours"`
	MinWinningScore       float64       `mapstructure:"min_winning_score"`
	Weights               WeightsConfig `mapstructure:"weights"`

	PollInterval      time.Duration `mapstructure:"poll_interval"`
	ClaimTTL          time.Duration `mapstructure:"claim_ttl"`
	BatchSize         int           `mapstructure:"batch_size"`
	DispatchWorkers   int           `mapstructure:"dispatch_workers"`
	DispatchBuffer    int           `mapstructure:"dispatch_buffer"`
	EvaluationTimeout time.Duration `mapstructure:"evaluation_timeout"`
	ReconcileSchedule string        `mapstructure:"reconcile_schedule"`

	LockTTL         time.Duration `mapstructure:"lock_ttl"`
	LockRetry       time.Duration `mapstructure:"lock_retry"`
	ProfileCacheTTL time.Duration `mapstructure:"profile_cache_ttl"`
}

// EvaluationWindow returns the configured window as a duration.
func (e EngineConfig) EvaluationWindow() time.Duration {
	return time.Duration(e.EvaluationWindowHours * float64(time.Hour))
}

type WeightsConfig struct {
	Capability  float64 `mapstructure:"capability"`
	Reputation  float64 `mapstructure:"reputation"`
	TrackRecord float64 `mapstructure:"track_record"`
	Location    float64 `mapstructure:"location"`
}

type MessagingConfig struct {
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
}

type RabbitMQConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Queue    string `mapstructure:"queue"`
	Prefetch int    `mapstructure:"prefetch"`
	Consumer string `mapstructure:"consumer"`
}

// NotificationConfig holds the email/SMS delivery settings.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled bool     `mapstructure:"enabled"`
		Kinds   []string `mapstructure:"kinds"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	BreakerThreshold int           `mapstructure:"breaker_threshold"`
	BreakerCooldown  time.Duration `mapstructure:"breaker_cooldown"`
}

type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Index   string `mapstructure:"index"`
}

// TracingConfig selects where sampled spans are exported. Without an
// endpoint spans are sampled for context propagation only.
type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}

// OpsConfig configures the operator HTTP surface.
type OpsConfig struct {
	Address   string `mapstructure:"address"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// WorkerConfig holds the settings applicable to every Zeebe worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
