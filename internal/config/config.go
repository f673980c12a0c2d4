package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// TableEnvPrefix prefixes every environment variable that maps a logical
// table name to an Airtable table id, e.g. AIRTABLE_TABLE_PRICES.
const TableEnvPrefix = "AIRTABLE_TABLE_"

type Config struct {
	AirtableBaseID string
	AirtableToken  string
	Tables         map[string]string
	PriceTable     string

	Port               int
	UpdateIntervalMS   int
	RefreshCron        string
	RefreshTimeoutSecs int
	DataDir            string
	RedisURL           string
	SyncAPIKey         string

	TelegramBotToken string

	SSHPort                   int
	SSHHostKeyPath            string
	SSHAuthorizedFingerprints []string
	DashboardServerURL        string
}

func Load() *Config {
	cfg := &Config{
		AirtableBaseID:   strings.TrimSpace(os.Getenv("AIRTABLE_BASE_ID")),
		AirtableToken:    strings.TrimSpace(os.Getenv("AIRTABLE_TOKEN")),
		RefreshCron:      strings.TrimSpace(os.Getenv("REFRESH_CRON")),
		RedisURL:         strings.TrimSpace(os.Getenv("REDIS_URL")),
		SyncAPIKey:       os.Getenv("SYNC_API_KEY"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	if cfg.AirtableBaseID == "" {
		log.Println("Warning: AIRTABLE_BASE_ID not set")
	}
	if cfg.AirtableToken == "" {
		cfg.AirtableToken = strings.TrimSpace(os.Getenv("AIRTABLE_API_KEY"))
	}
	if cfg.AirtableToken == "" {
		log.Println("Warning: AIRTABLE_TOKEN not set")
	}

	cfg.Tables = LoadTables(os.Environ())

	cfg.PriceTable = strings.TrimSpace(os.Getenv("PRICE_TABLE"))
	if cfg.PriceTable == "" {
		cfg.PriceTable = "prices"
	}
	if _, ok := cfg.TableID(cfg.PriceTable); !ok {
		log.Printf("Warning: %s%s not set, price refresh will fail", TableEnvPrefix, strings.ToUpper(cfg.PriceTable))
	}

	cfg.Port = 3000
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Port = n
		}
	}

	cfg.UpdateIntervalMS = 300000
	if v := strings.TrimSpace(os.Getenv("UPDATE_INTERVAL")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.UpdateIntervalMS = n
		}
	}

	cfg.RefreshTimeoutSecs = 30
	if v := strings.TrimSpace(os.Getenv("REFRESH_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RefreshTimeoutSecs = n
		}
	}

	cfg.DataDir = strings.TrimSpace(os.Getenv("DATA_DIR"))
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}

	if cfg.RedisURL == "" {
		log.Println("REDIS_URL not set, snapshot mirror disabled")
	}

	cfg.SSHPort = 2222
	if v := strings.TrimSpace(os.Getenv("SSH_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SSHPort = n
		}
	}

	cfg.SSHHostKeyPath = strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH"))
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/id_ed25519"
	}

	for _, fp := range strings.Split(os.Getenv("SSH_AUTHORIZED_FINGERPRINTS"), ",") {
		if fp = strings.TrimSpace(fp); fp != "" {
			cfg.SSHAuthorizedFingerprints = append(cfg.SSHAuthorizedFingerprints, fp)
		}
	}

	cfg.DashboardServerURL = strings.TrimRight(strings.TrimSpace(os.Getenv("DASHBOARD_SERVER_URL")), "/")
	if cfg.DashboardServerURL == "" {
		cfg.DashboardServerURL = "http://localhost:" + strconv.Itoa(cfg.Port)
	}

	return cfg
}

// LoadTables collects AIRTABLE_TABLE_<NAME>=<id> pairs from an environment
// listing. Keys are the upper-cased logical names.
func LoadTables(environ []string) map[string]string {
	tables := make(map[string]string)
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, TableEnvPrefix) {
			continue
		}
		name := strings.TrimPrefix(key, TableEnvPrefix)
		value = strings.TrimSpace(value)
		if name == "" || value == "" {
			continue
		}
		tables[name] = value
	}
	return tables
}

// TableID resolves a logical table name to its Airtable id.
func (c *Config) TableID(name string) (string, bool) {
	id, ok := c.Tables[strings.ToUpper(name)]
	return id, ok
}
