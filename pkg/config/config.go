package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/garagehq/garage-engine/pkg/numbering"
)

// Config holds all configuration for garage-engine.
// Configuration can come from a YAML file (config.yaml) or environment
// variables; environment variables override YAML values. Secrets (database
// password, API keys) must only come from environment variables.
type Config struct {
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	Database       DatabaseConfig       `yaml:"database"`
	Numbering      NumberingConfig      `yaml:"numbering"`
	Reconciliation ReconciliationConfig `yaml:"reconciliation"`
	DVLA           DVLAConfig           `yaml:"dvla"`
	MOT            MOTConfig            `yaml:"mot"`
	Messaging      MessagingConfig      `yaml:"messaging"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"garage"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"garage_engine"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

// URL builds a postgres connection URL from the parts.
func (d *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode)
}

// NumberingConfig defines the document numbering schemes. All document types
// share one namespace, so the next number for any scheme is computed over
// the numbers of every type.
type NumberingConfig struct {
	JobSheetPrefix string `yaml:"job_sheet_prefix" env:"NUMBERING_JOB_SHEET_PREFIX" env-default:"JS"`
	EstimatePrefix string `yaml:"estimate_prefix" env:"NUMBERING_ESTIMATE_PREFIX" env-default:"ES"`
	InvoicePrefix  string `yaml:"invoice_prefix" env:"NUMBERING_INVOICE_PREFIX" env-default:"SI"`
	Width          int    `yaml:"width" env:"NUMBERING_WIDTH" env-default:"5"`
}

// SchemeFor returns the numbering scheme for a document type prefix.
func (n *NumberingConfig) SchemeFor(prefix string) numbering.Scheme {
	return numbering.Scheme{Prefix: prefix, Width: n.Width}
}

// ReconciliationConfig holds operator policy for ownership reconciliation
// and reminders. The MOT window and the auto-apply decision were unsettled
// business policy in the legacy system, so both are configuration rather
// than constants.
type ReconciliationConfig struct {
	// AutoApply applies the top ownership candidate without operator
	// confirmation. Ties are never auto-applied regardless of this flag.
	AutoApply bool `yaml:"auto_apply" env:"RECONCILIATION_AUTO_APPLY" env-default:"false"`

	// SuspiciousOwnerThreshold is the assigned-vehicle count above which a
	// customer is flagged by the ownership audit.
	SuspiciousOwnerThreshold int `yaml:"suspicious_owner_threshold" env:"RECONCILIATION_SUSPICIOUS_THRESHOLD" env-default:"10"`

	// MOTCriticalWindowDays is how far ahead of MOT expiry reminders fire.
	MOTCriticalWindowDays int `yaml:"mot_critical_window_days" env:"MOT_CRITICAL_WINDOW_DAYS" env-default:"30"`
}

// MOTCriticalWindow returns the reminder window as a duration.
func (r *ReconciliationConfig) MOTCriticalWindow() time.Duration {
	return time.Duration(r.MOTCriticalWindowDays) * 24 * time.Hour
}

// DVLAConfig holds vehicle enquiry service settings.
type DVLAConfig struct {
	BaseURL string        `yaml:"base_url" env:"DVLA_BASE_URL" env-default:"https://driver-vehicle-licensing.api.gov.uk"`
	APIKey  string        `yaml:"-" env:"DVLA_API_KEY"` // Secret - not in YAML
	Timeout time.Duration `yaml:"timeout" env:"DVLA_TIMEOUT" env-default:"10s"`
}

// MOTConfig holds MOT history service settings.
type MOTConfig struct {
	BaseURL string        `yaml:"base_url" env:"MOT_BASE_URL" env-default:"https://history.mot.api.gov.uk"`
	APIKey  string        `yaml:"-" env:"MOT_API_KEY"` // Secret - not in YAML
	Timeout time.Duration `yaml:"timeout" env:"MOT_TIMEOUT" env-default:"10s"`
}

// MessagingConfig holds outbound SMS/WhatsApp provider settings.
type MessagingConfig struct {
	BaseURL    string        `yaml:"base_url" env:"MESSAGING_BASE_URL" env-default:"https://api.twilio.com"`
	AccountSID string        `yaml:"account_sid" env:"MESSAGING_ACCOUNT_SID" env-default:""`
	AuthToken  string        `yaml:"-" env:"MESSAGING_AUTH_TOKEN"` // Secret - not in YAML
	FromNumber string        `yaml:"from_number" env:"MESSAGING_FROM_NUMBER" env-default:""`
	Timeout    time.Duration `yaml:"timeout" env:"MESSAGING_TIMEOUT" env-default:"15s"`
}

// Enabled reports whether outbound messaging is configured. Reminder runs
// are skipped, not failed, when the provider is not set up.
func (m *MessagingConfig) Enabled() bool {
	return m.AccountSID != "" && m.AuthToken != "" && m.FromNumber != ""
}

// Load reads configuration from config.yaml with environment variable
// overrides. A missing config.yaml is not an error; everything then comes
// from the environment and defaults.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment config: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Numbering.Width < 1 {
		return fmt.Errorf("numbering width must be at least 1, got %d", c.Numbering.Width)
	}
	prefixes := map[string]string{
		"job sheet": c.Numbering.JobSheetPrefix,
		"estimate":  c.Numbering.EstimatePrefix,
		"invoice":   c.Numbering.InvoicePrefix,
	}
	seen := make(map[string]string, len(prefixes))
	for name, p := range prefixes {
		if p == "" {
			return fmt.Errorf("%s numbering prefix must not be empty", name)
		}
		if other, dup := seen[p]; dup {
			return fmt.Errorf("%s and %s share numbering prefix %q", name, other, p)
		}
		seen[p] = name
	}
	if c.Reconciliation.MOTCriticalWindowDays < 1 {
		return fmt.Errorf("mot_critical_window_days must be at least 1, got %d", c.Reconciliation.MOTCriticalWindowDays)
	}
	return nil
}
