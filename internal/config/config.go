package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend names accepted by LEDGER_BACKEND.
const (
	BackendMemory   = "memory"
	BackendSheets   = "sheets"
	BackendBigQuery = "bigquery"
)

// Config holds all runtime configuration, loaded from the environment.
type Config struct {
	// Gemini
	GeminiAPIKey string
	GeminiModel  string

	// Ledger backend selection
	LedgerBackend string

	// Google Sheets backend
	SpreadsheetID string
	SheetName     string

	// BigQuery backend
	BQProjectID string
	BQDataset   string
	BQTable     string

	// Receipt archival (optional)
	ReceiptsBucket string

	// Household participants for the owner column (optional)
	Participants []string

	// Bound on each outbound model call
	ModelTimeout time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is honored when present (development convenience).
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		GeminiAPIKey: firstEnv("GOOGLE_API_KEY", "GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash-exp"),

		LedgerBackend: getEnv("LEDGER_BACKEND", BackendMemory),

		SpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		SheetName:     getEnv("LEDGER_SHEET_NAME", "Vibes"),

		BQProjectID: getEnv("BQ_PROJECT_ID", ""),
		BQDataset:   getEnv("BQ_DATASET", "vibeledger"),
		BQTable:     getEnv("BQ_TABLE", "transactions"),

		ReceiptsBucket: getEnv("RECEIPTS_BUCKET", ""),

		Participants: splitList(getEnv("PARTICIPANTS", "")),

		ModelTimeout: getEnvDuration("MODEL_TIMEOUT", 60*time.Second),
	}

	return cfg
}

// Validate checks the configuration and returns an error listing every
// problem found. A missing API key is a startup-fatal condition.
func (c *Config) Validate() error {
	var problems []string

	if c.GeminiAPIKey == "" {
		problems = append(problems, "missing API key: set GOOGLE_API_KEY or GEMINI_API_KEY")
	}

	switch c.LedgerBackend {
	case BackendMemory:
	case BackendSheets:
		if c.SpreadsheetID == "" {
			problems = append(problems, "sheets backend requires GOOGLE_SPREADSHEET_ID")
		}
	case BackendBigQuery:
		if c.BQProjectID == "" {
			problems = append(problems, "bigquery backend requires BQ_PROJECT_ID")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid ledger backend %q: must be one of %s, %s, %s",
			c.LedgerBackend, BackendMemory, BackendSheets, BackendBigQuery))
	}

	if c.ModelTimeout <= 0 {
		problems = append(problems, "MODEL_TIMEOUT must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ValidOwner reports whether owner is acceptable for this household. An
// empty participant list accepts any owner, including none.
func (c *Config) ValidOwner(owner string) bool {
	if len(c.Participants) == 0 || owner == "" {
		return true
	}
	for _, p := range c.Participants {
		if strings.EqualFold(p, owner) {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
