package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/solascan/cttracker/decoder"
	"github.com/solascan/cttracker/models"
)

// Config is the full configuration surface of the indexer daemon
type Config struct {
	RPCURL string

	MySQLHost     string
	MySQLPort     string
	MySQLUser     string
	MySQLPassword string
	MySQLDatabase string

	ProgramAddress string
	BatchSize      int
	PollInterval   time.Duration
	BackfillLimit  int
}

// Load reads configuration from the environment with defaults. The caller is
// expected to have loaded .env first (godotenv).
func Load() (*Config, error) {
	cfg := &Config{
		RPCURL:         getEnv("RPC_URL", "https://api.mainnet-beta.solana.com"),
		MySQLHost:      getEnv("MYSQL_HOST", "127.0.0.1"),
		MySQLPort:      getEnv("MYSQL_PORT", "3306"),
		MySQLUser:      os.Getenv("MYSQL_USER"),
		MySQLPassword:  os.Getenv("MYSQL_PASSWORD"),
		MySQLDatabase:  getEnv("MYSQL_DATABASE", "cttracker"),
		ProgramAddress: getEnv("PROGRAM_ADDRESS", decoder.TokenExtensionProgramID),
		BatchSize:      getEnvInt("BATCH_SIZE", 25),
		BackfillLimit:  getEnvInt("BACKFILL_LIMIT", 1000),
	}
	cfg.PollInterval = time.Duration(getEnvInt("POLL_INTERVAL_MS", 15000)) * time.Millisecond

	if cfg.MySQLUser == "" {
		return nil, fmt.Errorf("MYSQL_USER is required")
	}
	if !models.IsAddress(cfg.ProgramAddress) {
		return nil, fmt.Errorf("PROGRAM_ADDRESS %q is not a valid base58 address", cfg.ProgramAddress)
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("BATCH_SIZE must be positive")
	}
	if cfg.BackfillLimit <= 0 {
		return nil, fmt.Errorf("BACKFILL_LIMIT must be positive")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
