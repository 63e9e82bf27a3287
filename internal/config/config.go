// Package config resolves the bot's full configuration: the shared core
// settings plus database, keep-alive, and the payment/package catalogues.
package config

import (
	"fmt"
	"os"
	"strings"

	coreconfig "regbot/core/config"
	coredatabase "regbot/core/database"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// PackageOption is one purchasable package and its price in naira.
type PackageOption struct {
	Name     string `yaml:"name"`
	PriceNGN int    `yaml:"price_ngn"`
}

// PaymentAccount is one payment destination shown to users after they pick a
// package. Details is the display text with the account number and holder.
type PaymentAccount struct {
	Name    string `yaml:"name"`
	Details string `yaml:"details"`
}

// KeepaliveConfig controls the hosting keep-alive HTTP endpoint.
type KeepaliveConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"KEEPALIVE_ENABLED"`
	Listen  string `yaml:"listen" envconfig:"KEEPALIVE_LISTEN"`
}

// Config aggregates everything the bot needs at startup.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database  coredatabase.Config `yaml:"database"`
	Keepalive KeepaliveConfig     `yaml:"keepalive"`
	Packages  []PackageOption     `yaml:"packages"`
	Accounts  []PaymentAccount    `yaml:"payment_accounts"`
}

// CoreConfig exposes the embedded core configuration for the shared runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// Load reads the YAML file, applies environment overrides, and validates.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalize(cfg *Config) error {
	if cfg.Telegram.AdminID == 0 {
		return fmt.Errorf("telegram.admin_id is required")
	}
	if len(cfg.Packages) == 0 {
		cfg.Packages = defaultPackages()
	}
	if len(cfg.Accounts) == 0 {
		cfg.Accounts = defaultAccounts()
	}

	seen := make(map[string]struct{}, len(cfg.Packages))
	for _, p := range cfg.Packages {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return fmt.Errorf("packages entries require a name")
		}
		if p.PriceNGN <= 0 {
			return fmt.Errorf("package %q requires a positive price", name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate package %q", name)
		}
		seen[name] = struct{}{}
	}

	seen = make(map[string]struct{}, len(cfg.Accounts))
	for _, a := range cfg.Accounts {
		name := strings.TrimSpace(a.Name)
		if name == "" || strings.TrimSpace(a.Details) == "" {
			return fmt.Errorf("payment_accounts entries require name and details")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate payment account %q", name)
		}
		seen[name] = struct{}{}
	}

	if cfg.Keepalive.Enabled && strings.TrimSpace(cfg.Keepalive.Listen) == "" {
		cfg.Keepalive.Listen = ":8080"
	}
	return nil
}

// AccountDetails resolves the display text for a payment account by name.
func (c *Config) AccountDetails(name string) (string, bool) {
	for _, a := range c.Accounts {
		if a.Name == name {
			return a.Details, true
		}
	}
	return "", false
}

// PackagePrice resolves the price for a package by name.
func (c *Config) PackagePrice(name string) (int, bool) {
	for _, p := range c.Packages {
		if p.Name == name {
			return p.PriceNGN, true
		}
	}
	return 0, false
}

func defaultPackages() []PackageOption {
	return []PackageOption{
		{Name: "Standard", PriceNGN: 9000},
		{Name: "X", PriceNGN: 14000},
	}
}

func defaultAccounts() []PaymentAccount {
	return []PaymentAccount{
		{Name: "Bank A", Details: "Account: 1234567890\nBank: Example Bank A\nName: Your Name"},
		{Name: "Bank B", Details: "Account: 0987654321\nBank: Example Bank B\nName: Your Name"},
	}
}
