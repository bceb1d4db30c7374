package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Yahoo    YahooConfig    `mapstructure:"yahoo"`
	NSE      NSEConfig      `mapstructure:"nse"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Report   ReportConfig   `mapstructure:"report"`
	Log      LogConfig      `mapstructure:"log"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// YahooConfig configures the Yahoo Finance REST client (prices + metadata).
type YahooConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// NSEConfig configures the NSE client (bhavcopy archives, equity list, indices).
type NSEConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	ArchivesURL  string        `mapstructure:"archives_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RequestPause time.Duration `mapstructure:"request_pause"`
}

// IngestConfig configures the price ingestion pipeline.
type IngestConfig struct {
	UniverseFile string        `mapstructure:"universe_file"`
	Exchange     string        `mapstructure:"exchange"`
	Years        int           `mapstructure:"years"`
	BatchSize    int           `mapstructure:"batch_size"`
	Workers      int           `mapstructure:"workers"`
	BatchPause   time.Duration `mapstructure:"batch_pause"`
	SymbolPause  time.Duration `mapstructure:"symbol_pause"`
}

// RetryConfig bounds the exponential backoff applied to network calls.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseWait    time.Duration `mapstructure:"base_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait"`
}

type SnapshotConfig struct {
	Dir string `mapstructure:"dir"`
}

type ReportConfig struct {
	Dir string `mapstructure:"dir"`
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// Load loads application configuration using Viper.
// It reads from config.yaml and overrides with environment variables.
func Load() *Config {
	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	ex, _ := os.Executable()
	if strings.Contains(ex, "go-build") {
		pwd, _ := os.Getwd()
		v.AddConfigPath(filepath.Join(pwd, "../../config"))
	} else {
		v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
	}

	setDefaults(v)

	// Support environment variables with dot notation (e.g., POSTGRES_HOST)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("failed to read config: %v", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("yahoo.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("yahoo.timeout", 15*time.Second)

	v.SetDefault("nse.base_url", "https://www.nseindia.com")
	v.SetDefault("nse.archives_url", "https://archives.nseindia.com")
	v.SetDefault("nse.timeout", 20*time.Second)
	v.SetDefault("nse.request_pause", 800*time.Millisecond)

	v.SetDefault("ingest.universe_file", "data/universe/nifty500.txt")
	v.SetDefault("ingest.exchange", "NSE")
	v.SetDefault("ingest.years", 5)
	v.SetDefault("ingest.batch_size", 25)
	v.SetDefault("ingest.workers", 25)
	v.SetDefault("ingest.batch_pause", 2*time.Second)
	v.SetDefault("ingest.symbol_pause", 500*time.Millisecond)

	v.SetDefault("retry.max_attempts", 5)
	v.SetDefault("retry.base_wait", 2*time.Second)
	v.SetDefault("retry.max_wait", 30*time.Second)

	v.SetDefault("snapshot.dir", "data")
	v.SetDefault("report.dir", "data/etl_reports")

	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.environment", "dev")
}
