package internal

import (
	"fmt"
	"time"

	"github.com/jinzhu/configor"
	log "github.com/sirupsen/logrus"
)

type Configuration struct {
	Wallet    WalletConfiguration    `yaml:"wallet"`
	Polling   PollingConfiguration   `yaml:"polling"`
	Network   NetworkConfiguration   `yaml:"network"`
	RateLimit RateLimitConfiguration `yaml:"rate_limit"`
	Metrics   MetricsConfiguration   `yaml:"metrics"`
	LogLevel  string                 `yaml:"log_level" default:"info"`
}

type WalletConfiguration struct {
	Network   string `yaml:"network" default:"testnet"`
	ServerUrl string `yaml:"server_url"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	Register  bool   `yaml:"register"`
	AuthMode  string `yaml:"auth_mode" default:"token"`
}

type PollingConfiguration struct {
	MaxAttempts int           `yaml:"max_attempts" default:"1000"`
	Interval    time.Duration `yaml:"interval" default:"1s"`
}

type SocksConfiguration struct {
	Host     string `yaml:"host"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type NetworkConfiguration struct {
	Timeout    time.Duration       `yaml:"timeout" default:"30s"`
	SocksProxy *SocksConfiguration `yaml:"socks_proxy,omitempty"`
}

type RateLimitConfiguration struct {
	// RequestsPerSecond of 0 disables the limiter.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst" default:"1"`
}

type MetricsConfiguration struct {
	Namespace string `yaml:"namespace" default:"tiramisu"`
	Listen    string `yaml:"listen"`
}

// Load reads the configuration from files. Environment variables prefixed
// with TIRAMISU override file values.
func Load(files ...string) (*Configuration, error) {
	cfg := &Configuration{}
	loader := configor.New(&configor.Config{ENVPrefix: "TIRAMISU", Silent: true})
	if err := loader.Load(cfg, files...); err != nil {
		return nil, err
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Configuration) check() error {
	if cfg.Wallet.Username == "" {
		return fmt.Errorf("please configure a wallet username")
	}
	if cfg.Wallet.Password == "" {
		return fmt.Errorf("please configure a wallet password")
	}
	if cfg.Polling.MaxAttempts < 1 {
		return fmt.Errorf("polling max_attempts must be positive")
	}
	if cfg.Polling.Interval <= 0 {
		return fmt.Errorf("polling interval must be positive")
	}
	if cfg.Wallet.ServerUrl != "" && cfg.Wallet.Network != "" {
		log.Warnf("[Config] server_url %s overrides network %s", cfg.Wallet.ServerUrl, cfg.Wallet.Network)
	}
	return nil
}
