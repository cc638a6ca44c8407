package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port        int    `yaml:"port"`
	AdminAPIKey string `yaml:"admin_api_key"`
}

type MetricsConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type PaystackConfig struct {
	SecretKey   string `yaml:"secret_key"`
	BaseURL     string `yaml:"base_url"`
	CallbackURL string `yaml:"callback_url"`
}

type PaymentConfig struct {
	Provider string         `yaml:"provider"` // paystack | noop
	Paystack PaystackConfig `yaml:"paystack"`
}

type BillingConfig struct {
	Currency              string        `yaml:"currency"`                // default invoice currency
	InvoiceDueDays        int           `yaml:"invoice_due_days"`        // grace before an invoice is due
	RenewalGraceDays      int           `yaml:"renewal_grace_days"`      // past-due window before a renewal fails
	PendingPaymentTimeout time.Duration `yaml:"pending_payment_timeout"` // reap pending payments older than this
}

type SchedulerConfig struct {
	ExpiryCheckCron  string `yaml:"expiry_check_cron"`
	PaymentReapCron  string `yaml:"payment_reap_cron"`
	ExpiryNotifyCron string `yaml:"expiry_notify_cron"`
	NotifyWindowDays int    `yaml:"notify_window_days"`
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	HTTP      HTTPConfig      `yaml:"http"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Payment   PaymentConfig   `yaml:"payment"`
	Billing   BillingConfig   `yaml:"billing"`
	Scheduler SchedulerConfig `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port <= 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Metrics.Port <= 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Payment.Provider == "" {
		cfg.Payment.Provider = "paystack"
	}
	if cfg.Billing.Currency == "" {
		cfg.Billing.Currency = "NGN"
	}
	if cfg.Billing.InvoiceDueDays <= 0 {
		cfg.Billing.InvoiceDueDays = 7
	}
	if cfg.Billing.RenewalGraceDays <= 0 {
		cfg.Billing.RenewalGraceDays = 3
	}
	if cfg.Billing.PendingPaymentTimeout <= 0 {
		cfg.Billing.PendingPaymentTimeout = 30 * time.Minute
	}
	if cfg.Scheduler.ExpiryCheckCron == "" {
		cfg.Scheduler.ExpiryCheckCron = "*/5 * * * *"
	}
	if cfg.Scheduler.PaymentReapCron == "" {
		cfg.Scheduler.PaymentReapCron = "*/10 * * * *"
	}
	if cfg.Scheduler.ExpiryNotifyCron == "" {
		cfg.Scheduler.ExpiryNotifyCron = "0 8 * * *"
	}
	if cfg.Scheduler.NotifyWindowDays <= 0 {
		cfg.Scheduler.NotifyWindowDays = 3
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Payment.Provider == "paystack" && cfg.Payment.Paystack.SecretKey == "" && !dev {
		return nil, errors.New("payment.paystack.secret_key is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
