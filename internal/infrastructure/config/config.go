package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Commerce CommerceConfig
	ERP      ERPConfig
	Pull     PullConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings. The bridge defaults to
// a local sqlite file; postgres is available for shared deployments.
type DatabaseConfig struct {
	Driver          string // sqlite or postgres
	Path            string // sqlite database file
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string
}

// CommerceConfig holds commerce platform API and webhook settings
type CommerceConfig struct {
	APIBaseURL     string
	AccessToken    string
	WebhookSecret  string
	LocationID     string // inventory location for absolute stock sets
	TimeoutSeconds int
}

// ERPTokenConfig holds credential cache tuning
type ERPTokenConfig struct {
	// SafetyMargin is subtracted from the hinted expiry so the token is
	// refreshed before the remote side rejects it
	SafetyMargin time.Duration
	// MinValidity is the floor applied after the margin, preventing a
	// zero or negative validity window
	MinValidity time.Duration
	// DefaultValidity is assumed when the auth response carries no expiry hint
	DefaultValidity time.Duration
}

// ERPConfig holds ERP API connection and document settings
type ERPConfig struct {
	BaseURL           string
	CompanyCode       int
	VoucherType       string
	User              string
	Secret            string
	RevenueAccount    string
	ReceivableAccount string
	TimeoutSeconds    int
	Token             ERPTokenConfig
}

// PullConfig holds ERP→commerce polling sync settings
type PullConfig struct {
	Enabled    bool
	Interval   time.Duration
	Lookback   time.Duration // window for the very first run
	RunTimeout time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with BRIDGE_ prefix (e.g. BRIDGE_ERP_SECRET)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("BRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Path:            v.GetString("database.path"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Commerce: CommerceConfig{
			APIBaseURL:     v.GetString("commerce.api_base_url"),
			AccessToken:    v.GetString("commerce.access_token"),
			WebhookSecret:  v.GetString("commerce.webhook_secret"),
			LocationID:     v.GetString("commerce.location_id"),
			TimeoutSeconds: v.GetInt("commerce.timeout_seconds"),
		},
		ERP: ERPConfig{
			BaseURL:           v.GetString("erp.base_url"),
			CompanyCode:       v.GetInt("erp.company_code"),
			VoucherType:       v.GetString("erp.voucher_type"),
			User:              v.GetString("erp.user"),
			Secret:            v.GetString("erp.secret"),
			RevenueAccount:    v.GetString("erp.revenue_account"),
			ReceivableAccount: v.GetString("erp.receivable_account"),
			TimeoutSeconds:    v.GetInt("erp.timeout_seconds"),
			Token: ERPTokenConfig{
				SafetyMargin:    v.GetDuration("erp.token_safety_margin"),
				MinValidity:     v.GetDuration("erp.token_min_validity"),
				DefaultValidity: v.GetDuration("erp.token_default_validity"),
			},
		},
		Pull: PullConfig{
			Enabled:    v.GetBool("pull.enabled"),
			Interval:   v.GetDuration("pull.interval"),
			Lookback:   v.GetDuration("pull.lookback"),
			RunTimeout: v.GetDuration("pull.run_timeout"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "erp-bridge"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "bridge.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "bridge"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB, webhook payloads are small
	}
	if cfg.Commerce.TimeoutSeconds == 0 {
		cfg.Commerce.TimeoutSeconds = 30
	}
	if cfg.ERP.CompanyCode == 0 {
		cfg.ERP.CompanyCode = 1
	}
	if cfg.ERP.VoucherType == "" {
		cfg.ERP.VoucherType = "SI" // sales invoice series
	}
	if cfg.ERP.RevenueAccount == "" {
		cfg.ERP.RevenueAccount = "4000"
	}
	if cfg.ERP.ReceivableAccount == "" {
		cfg.ERP.ReceivableAccount = "1200"
	}
	if cfg.ERP.TimeoutSeconds == 0 {
		cfg.ERP.TimeoutSeconds = 30
	}
	if cfg.ERP.Token.SafetyMargin == 0 {
		cfg.ERP.Token.SafetyMargin = 30 * time.Second
	}
	if cfg.ERP.Token.MinValidity == 0 {
		cfg.ERP.Token.MinValidity = 10 * time.Second
	}
	if cfg.ERP.Token.DefaultValidity == 0 {
		cfg.ERP.Token.DefaultValidity = 10 * time.Minute
	}
	if cfg.Pull.Interval == 0 {
		cfg.Pull.Interval = 5 * time.Minute
	}
	if cfg.Pull.Lookback == 0 {
		cfg.Pull.Lookback = 24 * time.Hour
	}
	if cfg.Pull.RunTimeout == 0 {
		cfg.Pull.RunTimeout = 2 * time.Minute
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.ERP.Token.MinValidity <= 0 {
		return fmt.Errorf("erp.token_min_validity must be positive")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Commerce.WebhookSecret == "" {
			return fmt.Errorf("commerce.webhook_secret is required in production")
		}
		if c.Commerce.AccessToken == "" {
			return fmt.Errorf("commerce.access_token is required in production")
		}
		if c.ERP.User == "" || c.ERP.Secret == "" {
			return fmt.Errorf("erp.user and erp.secret are required in production")
		}
		if c.Database.Driver == "postgres" {
			if c.Database.Password == "" {
				return fmt.Errorf("database.password is required in production")
			}
			if c.Database.SSLMode == "disable" {
				return fmt.Errorf("database.sslmode cannot be 'disable' in production")
			}
		}
	}

	return nil
}

// DSN returns the postgres connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
