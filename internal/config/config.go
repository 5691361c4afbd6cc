package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// FileName is the config file at the workspace root.
const FileName = "tellerbook.yaml"

// Config represents the top-level tellerbook.yaml configuration.
type Config struct {
	Bank   BankConfig     `yaml:"bank"`
	Loans  LoansConfig    `yaml:"loans"`
	Access map[string]int `yaml:"access,omitempty"` // action -> minimum level overrides
	Git    GitConfig      `yaml:"git"`
	Log    LogConfig      `yaml:"log"`
}

// BankConfig identifies the bank and the agency new clients are opened at.
type BankConfig struct {
	Name         string `yaml:"name"`
	AgencyNumber string `yaml:"agency_number"`
}

// LoansConfig holds loan defaults.
type LoansConfig struct {
	DefaultRate float64 `yaml:"default_rate"` // annual, e.g. 0.12
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

// DefaultRate returns the default annual loan rate as a decimal.
func (c *Config) DefaultRate() decimal.Decimal {
	return decimal.NewFromFloat(c.Loans.DefaultRate)
}

// Load reads a tellerbook.yaml file from disk. Missing sections keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("", "")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Loans.DefaultRate < 0 {
		return nil, fmt.Errorf("loans.default_rate must not be negative, got %v", cfg.Loans.DefaultRate)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new workspace.
func Default(bankName, agencyNumber string) *Config {
	return &Config{
		Bank: BankConfig{
			Name:         bankName,
			AgencyNumber: agencyNumber,
		},
		Loans: LoansConfig{
			DefaultRate: 0.12,
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Tellerbook",
			AuthorEmail: "ledger@tellerbook.local",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
