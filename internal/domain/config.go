package domain

import "time"

// Config holds the complete LexGuard configuration.
type Config struct {
	// Server settings
	Server ServerConfig `mapstructure:"server"`

	// Tier determines feature availability
	Tier Tier `mapstructure:"tier"`

	// Pipeline behavior and rule table source
	Evaluation EvaluationConfig `mapstructure:"evaluation"`

	// Component configurations
	Repository RepositoryConfig `mapstructure:"repository"`
	Cache      CacheConfig      `mapstructure:"cache"`
	EventBus   EventBusConfig   `mapstructure:"eventBus"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Narration  NarrationConfig  `mapstructure:"narration"`
	Worker     WorkerConfig     `mapstructure:"worker"`

	// Observability
	Logging LoggingConfig `mapstructure:"logging"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"readTimeout"`  // seconds
	WriteTimeout int    `mapstructure:"writeTimeout"` // seconds

	// RateLimitPerMinute caps evaluation requests per tenant; 0 disables.
	RateLimitPerMinute int `mapstructure:"rateLimitPerMinute"`
}

// EvaluationConfig controls the compliance pipeline.
type EvaluationConfig struct {
	// RulesFile is an optional YAML rule table. When empty the repository is
	// consulted, then the built-in knowledge base.
	RulesFile string `mapstructure:"rulesFile"`

	// CheckSingleThreshold additionally triggers rules whose per-transaction
	// threshold is exceeded. Off by default.
	CheckSingleThreshold bool `mapstructure:"checkSingleThreshold"`

	// Remote delegates checks to workers over the event bus request/reply
	// topic instead of running them in the API process.
	Remote        bool          `mapstructure:"remote"`
	RemoteTimeout time.Duration `mapstructure:"remoteTimeout"`

	Explain ExplainConfig `mapstructure:"explain"`
}

// ExplainConfig localizes the explanation synthesizer.
type ExplainConfig struct {
	CurrencySymbol   string `mapstructure:"currencySymbol"`
	LargeUnitName    string `mapstructure:"largeUnitName"`
	LargeUnitValue   int64  `mapstructure:"largeUnitValue"`
	DepositDeadline  string `mapstructure:"depositDeadline"`
	CertificateName  string `mapstructure:"certificateName"`
	WithholdingLabel string `mapstructure:"withholdingLabel"`
}

// AuthConfig holds session settings.
type AuthConfig struct {
	SessionTTL   time.Duration `mapstructure:"sessionTtl"`
	DefaultToken string        `mapstructure:"defaultToken"`
}

// NarrationConfig holds the optional LLM narrator settings.
type NarrationConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	APIKey  string        `mapstructure:"apiKey"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// WorkerConfig holds async worker settings.
type WorkerConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	TenantIDs []string `mapstructure:"tenantIds"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"serviceName"`
}

// Tier represents the product tier.
type Tier string

const (
	// TierCommunity runs on SQLite + channels + in-process cache
	TierCommunity Tier = "community"

	// TierPro runs on PostgreSQL + NATS + Redis
	TierPro Tier = "pro"
)

// DefaultExplainConfig phrases explanations for Indian TDS.
func DefaultExplainConfig() ExplainConfig {
	return ExplainConfig{
		CurrencySymbol:   "₹",
		LargeUnitName:    "Lakhs",
		LargeUnitValue:   100000,
		DepositDeadline:  "by the 7th of next month",
		CertificateName:  "Form 16A",
		WithholdingLabel: "TDS",
	}
}

// DefaultConfig returns a default configuration for Community tier.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Tier: TierCommunity,
		Evaluation: EvaluationConfig{
			RemoteTimeout: 10 * time.Second,
			Explain:       DefaultExplainConfig(),
		},
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./lexguard.db",
		},
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 10000,
			LocalTTL:     5 * time.Minute,
			ResultTTL:    10 * time.Minute,
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		Auth: AuthConfig{
			SessionTTL:   24 * time.Hour,
			DefaultToken: "demo-token",
		},
		Narration: NarrationConfig{
			Model:   "gemini-1.5-flash",
			Timeout: 20 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "lexguard",
		},
	}
}

// ProConfig returns a configuration for Pro tier.
func ProConfig() *Config {
	cfg := DefaultConfig()
	cfg.Tier = TierPro
	cfg.Repository = RepositoryConfig{
		Driver:       "postgres",
		PostgresHost: "localhost",
		PostgresPort: 5432,
		PostgresDB:   "lexguard",
	}
	cfg.Cache = CacheConfig{
		Type:           "redis",
		RedisAddr:      "localhost:6379",
		EnableTwoPhase: true,
		LocalMaxSize:   1000,
		LocalTTL:       time.Minute,
		ResultTTL:      10 * time.Minute,
	}
	cfg.EventBus = EventBusConfig{
		Type:              "nats",
		NATSUrl:           "nats://localhost:4222",
		NATSMaxReconnects: 10,
		NATSReconnectWait: 5,
	}
	cfg.Worker.Enabled = true
	cfg.Tracing.Enabled = true
	return cfg
}
