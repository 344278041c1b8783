package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

type Config struct {
	ListenAddr string

	Telegram struct {
		Token string
		Mode  string
		Debug bool
	}

	Webhook struct {
		BaseURL string
		Secret  string
	}

	DB struct {
		DSN string
	}

	Journal struct {
		Key string
	}

	Callbacks struct {
		Rate  float64
		Burst int
	}

	Log struct {
		Level  string
		Format string
	}

	PrometheusEnabled bool
	TrustedProxies    []string
}

// JournalEnabled reports whether a database was configured for the interaction journal.
func (c *Config) JournalEnabled() bool {
	return c.DB.DSN != ""
}

// WebhookPath is the router path that receives Telegram updates.
func (c *Config) WebhookPath() string {
	return "/telegram/" + c.Webhook.Secret
}

// WebhookURL is the public URL registered with Telegram.
func (c *Config) WebhookURL() string {
	return strings.TrimRight(c.Webhook.BaseURL, "/") + c.WebhookPath()
}

func Load() (*Config, error) {
	cfg := &Config{}

	cfg.ListenAddr = getenvDefault("APP_LISTEN_ADDR", ":8080")
	cfg.Telegram.Token = os.Getenv("APP_TELEGRAM_TOKEN")
	cfg.Telegram.Mode = strings.ToLower(getenvDefault("APP_BOT_MODE", ModePolling))
	cfg.Telegram.Debug = getenvBool("APP_BOT_DEBUG", false)
	cfg.Webhook.BaseURL = os.Getenv("APP_WEBHOOK_BASE_URL")
	cfg.Webhook.Secret = os.Getenv("APP_WEBHOOK_SECRET")
	cfg.DB.DSN = os.Getenv("APP_DB_DSN")

	if cfg.DB.DSN == "" {
		host := os.Getenv("APP_DB_HOST")
		name := os.Getenv("APP_DB_NAME")
		user := os.Getenv("APP_DB_USER")
		password := os.Getenv("APP_DB_PASSWORD")
		port := getenvDefault("APP_DB_PORT", "5432")
		sslmode := getenvDefault("APP_DB_SSLMODE", "disable")

		var missing []string
		if host == "" {
			missing = append(missing, "APP_DB_HOST")
		}
		if name == "" {
			missing = append(missing, "APP_DB_NAME")
		}
		if user == "" {
			missing = append(missing, "APP_DB_USER")
		}
		if password == "" {
			missing = append(missing, "APP_DB_PASSWORD")
		}

		// The journal is optional: no DB settings at all means it is off,
		// but a partial set is a mistake worth reporting.
		switch {
		case len(missing) == 0:
			cfg.DB.DSN = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
				url.QueryEscape(user), url.QueryEscape(password), host, port, name, sslmode)
		case len(missing) < 4:
			return nil, fmt.Errorf("incomplete database configuration, missing %s", strings.Join(missing, ", "))
		}
	}

	cfg.Journal.Key = os.Getenv("APP_JOURNAL_KEY")
	cfg.Log.Level = strings.ToLower(getenvDefault("APP_LOG_LEVEL", "info"))
	cfg.Log.Format = strings.ToLower(getenvDefault("APP_LOG_FORMAT", "text"))
	cfg.PrometheusEnabled = getenvBool("APP_PROMETHEUS_ENDPOINT_ENABLED", false)
	cfg.TrustedProxies = getenvList("APP_TRUSTED_PROXIES")

	var err error
	if cfg.Callbacks.Rate, err = getenvFloat("APP_CALLBACK_RATE", 2); err != nil {
		return nil, err
	}
	if cfg.Callbacks.Burst, err = getenvInt("APP_CALLBACK_BURST", 5); err != nil {
		return nil, err
	}

	if cfg.Telegram.Token == "" {
		return nil, errors.New("APP_TELEGRAM_TOKEN is required")
	}
	switch cfg.Telegram.Mode {
	case ModePolling:
	case ModeWebhook:
		if cfg.Webhook.BaseURL == "" {
			return nil, errors.New("APP_WEBHOOK_BASE_URL is required in webhook mode")
		}
		u, err := url.Parse(cfg.Webhook.BaseURL)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			return nil, fmt.Errorf("APP_WEBHOOK_BASE_URL must be an absolute https URL (got %q)", cfg.Webhook.BaseURL)
		}
		if len(cfg.Webhook.Secret) < 16 {
			return nil, fmt.Errorf("APP_WEBHOOK_SECRET must be at least 16 characters long (got %d)", len(cfg.Webhook.Secret))
		}
		if strings.ContainsAny(cfg.Webhook.Secret, "/?#") {
			return nil, errors.New("APP_WEBHOOK_SECRET must not contain '/', '?' or '#'")
		}
	default:
		return nil, fmt.Errorf("APP_BOT_MODE must be %q or %q (got %q)", ModePolling, ModeWebhook, cfg.Telegram.Mode)
	}
	if cfg.JournalEnabled() && len(cfg.Journal.Key) < 32 {
		return nil, fmt.Errorf("APP_JOURNAL_KEY must be at least 32 characters long when a database is configured (got %d)", len(cfg.Journal.Key))
	}
	if cfg.Callbacks.Rate <= 0 || cfg.Callbacks.Burst < 1 {
		return nil, errors.New("APP_CALLBACK_RATE must be positive and APP_CALLBACK_BURST at least 1")
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return nil, fmt.Errorf("APP_LOG_FORMAT must be text or json (got %q)", cfg.Log.Format)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getenvList(key string) []string {
	if v := os.Getenv(key); v != "" {
		var result []string
		for _, item := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return nil
}
