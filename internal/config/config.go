package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/projectledger/projectledger/internal/types"
	"github.com/projectledger/projectledger/internal/validator"
	"github.com/spf13/viper"
)

type DeploymentMode string

const (
	ModeLocal      DeploymentMode = "local"
	ModeRiskScan   DeploymentMode = "risk_scan"
	ModeProduction DeploymentMode = "production"
)

type Configuration struct {
	Deployment DeploymentConfig `mapstructure:"deployment" validate:"required"`
	Logging    LoggingConfig    `mapstructure:"logging" validate:"required"`
	Postgres   PostgresConfig   `mapstructure:"postgres" validate:"required"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Accounting AccountingConfig `mapstructure:"accounting" validate:"required"`
	Schedule   ScheduleConfig   `mapstructure:"schedule" validate:"required"`
}

type DeploymentConfig struct {
	Mode DeploymentMode `mapstructure:"mode" validate:"required"`
}

type LoggingConfig struct {
	Level          types.LogLevel `mapstructure:"level" validate:"required"`
	FluentdEnabled bool           `mapstructure:"fluentd_enabled"`
	FluentdHost    string         `mapstructure:"fluentd_host"`
	FluentdPort    int            `mapstructure:"fluentd_port"`
}

type PostgresConfig struct {
	Host                   string `mapstructure:"host" validate:"required"`
	Port                   int    `mapstructure:"port" validate:"required"`
	User                   string `mapstructure:"user" validate:"required"`
	Password               string `mapstructure:"password"`
	DBName                 string `mapstructure:"dbname" validate:"required"`
	SSLMode                string `mapstructure:"sslmode" validate:"required"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" default:"10"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" default:"5"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" default:"60"`
	// MaxTxRetries bounds how often a transaction is replayed after a serialization failure.
	MaxTxRetries uint64 `mapstructure:"max_tx_retries"`
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	UseTLS   bool          `mapstructure:"use_tls"`
	PoolSize int           `mapstructure:"pool_size"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Type    string `mapstructure:"type" validate:"omitempty,oneof=inmemory redis"`
}

// AccountingConfig carries the chart-of-accounts codes the recognition engine posts to.
type AccountingConfig struct {
	Currency string         `mapstructure:"currency" validate:"required"`
	Accounts AccountsConfig `mapstructure:"accounts" validate:"required"`
}

type AccountsConfig struct {
	Cash            string `mapstructure:"cash" validate:"required"`
	DeferredRevenue string `mapstructure:"deferred_revenue" validate:"required"`
	Revenue         string `mapstructure:"revenue" validate:"required"`
	UnbilledRevenue string `mapstructure:"unbilled_revenue" validate:"required"`
	WorkInProgress  string `mapstructure:"work_in_progress" validate:"required"`
	MaterialPayable string `mapstructure:"material_payable" validate:"required"`
	AccruedLabor    string `mapstructure:"accrued_labor" validate:"required"`
	AccruedExpenses string `mapstructure:"accrued_expenses" validate:"required"`
	AppliedOverhead string `mapstructure:"applied_overhead" validate:"required"`
}

type ScheduleConfig struct {
	AnalysisCacheTTL time.Duration `mapstructure:"analysis_cache_ttl"`
	ScanInterval     time.Duration `mapstructure:"scan_interval" validate:"required,gt=0"`
	ScanConcurrency  int           `mapstructure:"scan_concurrency" validate:"gte=1"`

	// TenantIDs lists the tenants whose projects the risk scanner sweeps
	TenantIDs []string `mapstructure:"tenant_ids"`
}

// NewConfig loads .env (if present), then config.yaml from the working directory or ./config,
// then PROJECTLEDGER_* environment overrides, and validates the result.
func NewConfig() (*Configuration, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./internal/config")

	v.SetEnvPrefix("PROJECTLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c Configuration) Validate() error {
	return validator.ValidateRequest(c)
}

// GetDefaultConfig returns the built-in defaults without reading files or the environment.
// Used by tests, scripts and the package-level logger.
func GetDefaultConfig() *Configuration {
	v := viper.New()
	setDefaults(v)

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("invalid default config: %v", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", string(ModeLocal))

	v.SetDefault("logging.level", string(types.LogLevelInfo))
	v.SetDefault("logging.fluentd_enabled", false)
	v.SetDefault("logging.fluentd_port", 24224)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "projectledger")
	v.SetDefault("postgres.dbname", "projectledger")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime_minutes", 60)
	v.SetDefault("postgres.max_tx_retries", 3)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.timeout", 5*time.Second)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.type", "inmemory")

	// Indonesian SME chart of accounts (PSAK layout)
	v.SetDefault("accounting.currency", types.DefaultCurrency)
	v.SetDefault("accounting.accounts.cash", "1-1100")
	v.SetDefault("accounting.accounts.unbilled_revenue", "1-1310")
	v.SetDefault("accounting.accounts.work_in_progress", "1-1400")
	v.SetDefault("accounting.accounts.material_payable", "2-1100")
	v.SetDefault("accounting.accounts.accrued_labor", "2-1210")
	v.SetDefault("accounting.accounts.accrued_expenses", "2-1220")
	v.SetDefault("accounting.accounts.deferred_revenue", "2-1400")
	v.SetDefault("accounting.accounts.revenue", "4-1000")
	v.SetDefault("accounting.accounts.applied_overhead", "5-9000")

	v.SetDefault("schedule.analysis_cache_ttl", 10*time.Minute)
	v.SetDefault("schedule.scan_interval", time.Hour)
	v.SetDefault("schedule.scan_concurrency", 4)
}
