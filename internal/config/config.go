package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/cfonb120/internal/normalize"
)

// FileName is the project configuration file written by init.
const FileName = "cfonb.yaml"

// Config represents the top-level cfonb.yaml configuration.
type Config struct {
	Account   AccountConfig     `yaml:"account"`
	Statement StatementConfig   `yaml:"statement"`
	Input     InputConfig       `yaml:"input"`
	Columns   normalize.Columns `yaml:"columns"`
	Batch     BatchConfig       `yaml:"batch"`
	Server    ServerConfig      `yaml:"server"`
	Log       LogConfig         `yaml:"log"`
}

// AccountConfig identifies the account written in every record. When IBAN is set the
// bank, branch and account number are taken from it.
type AccountConfig struct {
	IBAN          string `yaml:"iban,omitempty"`
	BankCode      string `yaml:"bank_code,omitempty"`
	BranchCode    string `yaml:"branch_code,omitempty"`
	AccountNumber string `yaml:"account_number,omitempty"`
	Currency      string `yaml:"currency"`
	DecimalPlaces int    `yaml:"decimal_places"`
}

// StatementConfig controls the generated file.
type StatementConfig struct {
	BalanceMode    string `yaml:"balance_mode"`    // opening | closing
	AmountEncoding string `yaml:"amount_encoding"` // overpunch | plain
	LineEnding     string `yaml:"line_ending"`     // lf | crlf
}

// InputConfig controls how exports are read.
type InputConfig struct {
	Delimiter string `yaml:"delimiter"`
}

// BatchConfig controls the batch command.
type BatchConfig struct {
	Inbox   string `yaml:"inbox"`
	Outbox  string `yaml:"outbox"`
	Workers int    `yaml:"workers"`
}

// ServerConfig controls the HTTP service.
type ServerConfig struct {
	Port              string        `yaml:"port"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	CacheTTL          time.Duration `yaml:"cache_ttl"`
	MaxUploadBytes    int           `yaml:"max_upload_bytes"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | text
}

// Load reads a cfonb.yaml file from disk. Sections missing from the file keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault reads path, falling back to Default when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
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

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Currency:      "EUR",
			DecimalPlaces: 2,
		},
		Statement: StatementConfig{
			BalanceMode:    "opening",
			AmountEncoding: "overpunch",
			LineEnding:     "lf",
		},
		Input: InputConfig{
			Delimiter: ";",
		},
		Columns: normalize.DefaultColumns(),
		Batch: BatchConfig{
			Inbox:   "inbox",
			Outbox:  "outbox",
			Workers: 4,
		},
		Server: ServerConfig{
			Port:              "8080",
			RequestsPerSecond: 5,
			Burst:             10,
			CacheTTL:          10 * time.Minute,
			MaxUploadBytes:    10 << 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DelimiterRune returns the configured CSV delimiter.
func (c *Config) DelimiterRune() (rune, error) {
	r := []rune(c.Input.Delimiter)
	switch {
	case len(r) == 0:
		return ';', nil
	case len(r) == 1 && r[0] != '"' && r[0] != '\r' && r[0] != '\n':
		return r[0], nil
	case c.Input.Delimiter == `\t`:
		return '\t', nil
	default:
		return 0, fmt.Errorf("invalid delimiter %q", c.Input.Delimiter)
	}
}
