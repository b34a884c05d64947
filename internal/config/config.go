package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Directory  DirectoryConfig  `yaml:"directory" mapstructure:"directory"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Impact     ImpactConfig     `yaml:"impact" mapstructure:"impact"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the signal and customer store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	FixturePath string `yaml:"fixture_path" mapstructure:"fixture_path"`
}

// DirectoryConfig selects where customers and competitors are read from.
// "store" means the configured StoreConfig backend.
type DirectoryConfig struct {
	Customers   string `yaml:"customers" mapstructure:"customers"`
	Competitors string `yaml:"competitors" mapstructure:"competitors"`
}

// SalesforceConfig holds Salesforce JWT auth settings.
type SalesforceConfig struct {
	ClientID  string  `yaml:"client_id" mapstructure:"client_id"`
	Username  string  `yaml:"username" mapstructure:"username"`
	KeyPath   string  `yaml:"key_path" mapstructure:"key_path"`
	LoginURL  string  `yaml:"login_url" mapstructure:"login_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// NotionConfig holds Notion API credentials for the competitor registry
// and the alert database digests are published to.
type NotionConfig struct {
	Token        string  `yaml:"token" mapstructure:"token"`
	CompetitorDB string  `yaml:"competitor_db" mapstructure:"competitor_db"`
	AlertDB      string  `yaml:"alert_db" mapstructure:"alert_db"`
	RateLimit    float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ImpactConfig tunes the impact scoring thresholds. Defaults reproduce the
// reference scoring ladder.
type ImpactConfig struct {
	MaxScore float64 `yaml:"max_score" mapstructure:"max_score"`

	// Account value tiers.
	HighValueThreshold float64 `yaml:"high_value_threshold" mapstructure:"high_value_threshold"`
	MidValueThreshold  float64 `yaml:"mid_value_threshold" mapstructure:"mid_value_threshold"`

	// Engagement penalties.
	LowEngagement float64 `yaml:"low_engagement" mapstructure:"low_engagement"`
	MidEngagement float64 `yaml:"mid_engagement" mapstructure:"mid_engagement"`

	// Renewal proximity ladder, in days.
	RenewalUrgentDays int `yaml:"renewal_urgent_days" mapstructure:"renewal_urgent_days"`
	RenewalNearDays   int `yaml:"renewal_near_days" mapstructure:"renewal_near_days"`
	RenewalWatchDays  int `yaml:"renewal_watch_days" mapstructure:"renewal_watch_days"`

	// Urgency cascade.
	ImmediateScore        float64 `yaml:"immediate_score" mapstructure:"immediate_score"`
	ImmediateAccountValue float64 `yaml:"immediate_account_value" mapstructure:"immediate_account_value"`
	HighUrgencyScore      float64 `yaml:"high_urgency_score" mapstructure:"high_urgency_score"`
	HighUrgencyValue      float64 `yaml:"high_urgency_value" mapstructure:"high_urgency_value"`
	MediumUrgencyScore    float64 `yaml:"medium_urgency_score" mapstructure:"medium_urgency_score"`
	MediumUrgencyValue    float64 `yaml:"medium_urgency_value" mapstructure:"medium_urgency_value"`

	// Risk labels and escalation.
	CriticalScore   float64 `yaml:"critical_score" mapstructure:"critical_score"`
	HighRiskScore   float64 `yaml:"high_risk_score" mapstructure:"high_risk_score"`
	EscalationScore float64 `yaml:"escalation_score" mapstructure:"escalation_score"`

	// Workers bounds concurrent per-customer scoring. 1 scores sequentially.
	Workers int `yaml:"workers" mapstructure:"workers"`

	// DigestWindowHours is the default lookback for the signal digest.
	DigestWindowHours int `yaml:"digest_window_hours" mapstructure:"digest_window_hours"`
}

// RetryConfig configures retries for external directory calls.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`

	// Circuit breaker per directory backend.
	CircuitThreshold int `yaml:"circuit_threshold" mapstructure:"circuit_threshold"`
	CircuitResetSecs int `yaml:"circuit_reset_secs" mapstructure:"circuit_reset_secs"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// MonitoringConfig configures the background signal watcher and its alert
// thresholds.
type MonitoringConfig struct {
	Enabled              bool    `yaml:"enabled" mapstructure:"enabled"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours  int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CriticalThreshold    int     `yaml:"critical_threshold" mapstructure:"critical_threshold"`
	ValueAtRiskThreshold float64 `yaml:"value_at_risk_threshold" mapstructure:"value_at_risk_threshold"`
	PublishToNotion      bool    `yaml:"publish_to_notion" mapstructure:"publish_to_notion"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CINTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("directory.customers", "store")
	v.SetDefault("directory.competitors", "store")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.rate_limit", 10)
	v.SetDefault("notion.rate_limit", 3)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 10000)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.circuit_threshold", 5)
	v.SetDefault("retry.circuit_reset_secs", 30)
	v.SetDefault("impact.max_score", 10)
	v.SetDefault("impact.high_value_threshold", 100_000)
	v.SetDefault("impact.mid_value_threshold", 50_000)
	v.SetDefault("impact.low_engagement", 50)
	v.SetDefault("impact.mid_engagement", 70)
	v.SetDefault("impact.renewal_urgent_days", 30)
	v.SetDefault("impact.renewal_near_days", 90)
	v.SetDefault("impact.renewal_watch_days", 180)
	v.SetDefault("impact.immediate_score", 8)
	v.SetDefault("impact.immediate_account_value", 100_000)
	v.SetDefault("impact.high_urgency_score", 6)
	v.SetDefault("impact.high_urgency_value", 75_000)
	v.SetDefault("impact.medium_urgency_score", 4)
	v.SetDefault("impact.medium_urgency_value", 25_000)
	v.SetDefault("impact.critical_score", 7)
	v.SetDefault("impact.high_risk_score", 4)
	v.SetDefault("impact.escalation_score", 7)
	v.SetDefault("impact.workers", 4)
	v.SetDefault("impact.digest_window_hours", 168)
	v.SetDefault("monitoring.check_interval_secs", 900)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.critical_threshold", 1)
	v.SetDefault("monitoring.value_at_risk_threshold", 250_000)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the settings needed by the given command scope are
// present. Scopes: "store", "salesforce", "notion", "alerts", "directory",
// "serve".
func (c *Config) Validate(scope string) error {
	var missing []string

	switch scope {
	case "store":
		switch c.Store.Driver {
		case "postgres":
			if c.Store.DatabaseURL == "" {
				missing = append(missing, "store.database_url")
			}
		case "sqlite":
		case "fixture":
			if c.Store.FixturePath == "" {
				missing = append(missing, "store.fixture_path")
			}
		default:
			return eris.Errorf("config: unsupported store driver %q", c.Store.Driver)
		}
	case "salesforce":
		if c.Salesforce.ClientID == "" {
			missing = append(missing, "salesforce.client_id")
		}
		if c.Salesforce.Username == "" {
			missing = append(missing, "salesforce.username")
		}
		if c.Salesforce.KeyPath == "" {
			missing = append(missing, "salesforce.key_path")
		}
	case "notion":
		if c.Notion.Token == "" {
			missing = append(missing, "notion.token")
		}
		if c.Notion.CompetitorDB == "" {
			missing = append(missing, "notion.competitor_db")
		}
	case "alerts":
		if c.Notion.Token == "" {
			missing = append(missing, "notion.token")
		}
		if c.Notion.AlertDB == "" {
			missing = append(missing, "notion.alert_db")
		}
	case "directory":
		if err := c.Validate("store"); err != nil {
			return err
		}
		switch c.Directory.Customers {
		case "store":
		case "salesforce":
			if err := c.Validate("salesforce"); err != nil {
				return err
			}
		default:
			return eris.Errorf("config: unsupported customer directory %q", c.Directory.Customers)
		}
		switch c.Directory.Competitors {
		case "store":
		case "notion":
			if err := c.Validate("notion"); err != nil {
				return err
			}
		default:
			return eris.Errorf("config: unsupported competitor directory %q", c.Directory.Competitors)
		}
	case "serve":
		if c.Server.Port <= 0 {
			return eris.New("config: server.port must be > 0")
		}
		return c.Validate("directory")
	default:
		return eris.Errorf("config: unknown validation scope %q", scope)
	}

	if len(missing) > 0 {
		return eris.Errorf("config: missing required settings for %s: %s", scope, strings.Join(missing, ", "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
