// Package config loads the indexer's viper-backed configuration: RPC
// endpoints, the database pool, the control-plane connection, and the
// broadcast/metrics settings, following the teacher's LoadConfig/
// ValidateConfig split and UHO_-prefixed environment override
// convention (replacing the teacher's BRIDGE_ prefix).
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is the indexer's top-level configuration.
type Config struct {
	Environment  string             `mapstructure:"environment"`
	RPC          RPCConfig          `mapstructure:"rpc"`
	Database     DatabaseConfig     `mapstructure:"database"`
	ControlPlane ControlPlaneConfig `mapstructure:"control_plane"`
	Broadcast    BroadcastConfig    `mapstructure:"broadcast"`
	Poller       PollerConfig       `mapstructure:"poller"`
	Monitoring   MonitoringConfig   `mapstructure:"monitoring"`
}

// RPCConfig is the set of RPC endpoints a chain.Client falls back
// across, plus the commitment level used for every request.
type RPCConfig struct {
	Endpoints  []string `mapstructure:"endpoints"`
	Commitment string   `mapstructure:"commitment"`
}

// DatabaseConfig mirrors the teacher's connection-pool configuration
// shape; field names and defaults kept as-is since the pool-tuning
// concern is identical regardless of domain.
type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Database     string `mapstructure:"database"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	SSLMode      string `mapstructure:"ssl_mode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxLifetime  string `mapstructure:"max_lifetime"`
}

// ControlPlaneConfig configures the NATS connection the orchestrator
// listens on for subscription-change notifications (spec.md §6).
type ControlPlaneConfig struct {
	URLs    []string `mapstructure:"urls"`
	Subject string   `mapstructure:"subject"`
}

// BroadcastConfig configures the Postgres NOTIFY channel used to fan
// out newly indexed events (spec.md §4.6).
type BroadcastConfig struct {
	Channel string `mapstructure:"channel"`
}

// PollerConfig tunes the orchestrator's round-robin polling cadence
// (spec.md §4.7): CycleInterval is the rest between full passes over
// every active program, InterProgramDelay the rest between programs
// within one pass.
type PollerConfig struct {
	CycleInterval     string `mapstructure:"cycle_interval"`
	InterProgramDelay string `mapstructure:"inter_program_delay"`
}

// MonitoringConfig configures the Prometheus exposition endpoint and
// log verbosity.
type MonitoringConfig struct {
	PrometheusPort int    `mapstructure:"prometheus_port"`
	LogLevel       string `mapstructure:"log_level"`
}

// LoadConfig loads configuration from file and environment variables,
// falling back to an environment-named default path when configPath is
// empty, per the teacher's convention.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		env := os.Getenv("UHO_ENVIRONMENT")
		if env == "" {
			env = "development"
		}
		configPath = getConfigPathForEnv(env)
	}

	viper.SetConfigFile(configPath)

	viper.AutomaticEnv()
	viper.SetEnvPrefix("UHO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func getConfigPathForEnv(env string) string {
	switch env {
	case "mainnet":
		return "config/config.mainnet.yaml"
	case "testnet":
		return "config/config.testnet.yaml"
	default:
		return "config/config.dev.yaml"
	}
}

// ValidateConfig checks the fields every component depends on at
// startup, failing fast rather than at first use.
func ValidateConfig(cfg *Config) error {
	if cfg.Environment == "" {
		return fmt.Errorf("environment must be specified")
	}

	if len(cfg.RPC.Endpoints) == 0 {
		return fmt.Errorf("at least one rpc endpoint must be configured")
	}
	if cfg.RPC.Commitment == "" {
		cfg.RPC.Commitment = "confirmed"
	}

	if cfg.Database.Host == "" {
		return fmt.Errorf("database host must be specified")
	}
	if cfg.Database.Database == "" {
		return fmt.Errorf("database name must be specified")
	}

	if len(cfg.ControlPlane.URLs) == 0 {
		return fmt.Errorf("at least one control plane url must be configured")
	}
	if cfg.ControlPlane.Subject == "" {
		return fmt.Errorf("control plane subject must be specified")
	}

	if cfg.Broadcast.Channel == "" {
		return fmt.Errorf("broadcast channel must be specified")
	}

	if cfg.Poller.CycleInterval == "" {
		cfg.Poller.CycleInterval = "2s"
	}
	if cfg.Poller.InterProgramDelay == "" {
		cfg.Poller.InterProgramDelay = "100ms"
	}

	return nil
}
