package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads variables from a .env file without overriding variables already
// set. An empty path tries ./.env and ignores its absence.
func LoadEnvFile(path string) error {
	if path == "" {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays CFONB_* environment variables on cfg.
func ApplyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	str("CFONB_IBAN", &cfg.Account.IBAN)
	str("CFONB_BANK_CODE", &cfg.Account.BankCode)
	str("CFONB_BRANCH_CODE", &cfg.Account.BranchCode)
	str("CFONB_ACCOUNT_NUMBER", &cfg.Account.AccountNumber)
	str("CFONB_CURRENCY", &cfg.Account.Currency)
	str("CFONB_BALANCE_MODE", &cfg.Statement.BalanceMode)
	str("CFONB_AMOUNT_ENCODING", &cfg.Statement.AmountEncoding)
	str("CFONB_LINE_ENDING", &cfg.Statement.LineEnding)
	str("CFONB_DELIMITER", &cfg.Input.Delimiter)
	str("CFONB_INBOX", &cfg.Batch.Inbox)
	str("CFONB_OUTBOX", &cfg.Batch.Outbox)
	str("CFONB_PORT", &cfg.Server.Port)
	str("CFONB_LOG_LEVEL", &cfg.Log.Level)
	str("CFONB_LOG_FORMAT", &cfg.Log.Format)

	if err := envInt("CFONB_DECIMAL_PLACES", &cfg.Account.DecimalPlaces); err != nil {
		return err
	}
	if err := envInt("CFONB_WORKERS", &cfg.Batch.Workers); err != nil {
		return err
	}
	if err := envInt("CFONB_RATE_BURST", &cfg.Server.Burst); err != nil {
		return err
	}
	if err := envInt("CFONB_MAX_UPLOAD_BYTES", &cfg.Server.MaxUploadBytes); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("CFONB_RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("CFONB_RATE_LIMIT: %w", err)
		}
		cfg.Server.RequestsPerSecond = f
	}
	if v, ok := os.LookupEnv("CFONB_CACHE_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CFONB_CACHE_TTL: %w", err)
		}
		cfg.Server.CacheTTL = d
	}
	return nil
}

func envInt(key string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}
