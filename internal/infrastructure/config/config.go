package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Source   SourceConfig
	Sync     SyncConfig
	Media    MediaConfig
	HTTP     HTTPConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
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

// DSN builds the postgres connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// SourceConfig holds the upstream business-data API settings
type SourceConfig struct {
	BaseURL        string
	AppID          string
	Token          string
	ItemQuery      string
	QueryParams    map[string]string
	PageSize       int
	TimeoutSeconds int
}

// SyncConfig holds import engine tuning
type SyncConfig struct {
	BatchSize      int
	ForceRefresh   bool
	StaleBatchSize int
	CronEnabled    bool
	CronInterval   time.Duration
}

// MediaConfig holds the S3-compatible media storage settings
type MediaConfig struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	UsePathStyle bool
	GalleryRoot  string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with CATBRIDGE_ prefix (e.g., CATBRIDGE_DATABASE_PASSWORD)
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

	v.SetEnvPrefix("CATBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Database: DatabaseConfig{
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
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Source: SourceConfig{
			BaseURL:        v.GetString("source.base_url"),
			AppID:          v.GetString("source.app_id"),
			Token:          v.GetString("source.token"),
			ItemQuery:      v.GetString("source.item_query"),
			QueryParams:    v.GetStringMapString("source.query_params"),
			PageSize:       v.GetInt("source.page_size"),
			TimeoutSeconds: v.GetInt("source.timeout_seconds"),
		},
		Sync: SyncConfig{
			BatchSize:      v.GetInt("sync.batch_size"),
			ForceRefresh:   v.GetBool("sync.force_refresh"),
			StaleBatchSize: v.GetInt("sync.stale_batch_size"),
			CronEnabled:    v.GetBool("sync.cron_enabled"),
			CronInterval:   v.GetDuration("sync.cron_interval"),
		},
		Media: MediaConfig{
			Endpoint:     v.GetString("media.endpoint"),
			Region:       v.GetString("media.region"),
			Bucket:       v.GetString("media.bucket"),
			AccessKey:    v.GetString("media.access_key"),
			SecretKey:    v.GetString("media.secret_key"),
			UseSSL:       v.GetBool("media.use_ssl"),
			UsePathStyle: v.GetBool("media.use_path_style"),
			GalleryRoot:  v.GetString("media.gallery_root"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
			IdleTimeout:  v.GetDuration("http.idle_timeout"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers built-in defaults
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "catalog-bridge")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "catbridge")
	v.SetDefault("database.dbname", "catbridge")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30)
	v.SetDefault("database.conn_max_idle_time", 10)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("source.item_query", "getItems")
	v.SetDefault("source.page_size", 250)
	v.SetDefault("source.timeout_seconds", 30)

	v.SetDefault("sync.batch_size", 25)
	v.SetDefault("sync.stale_batch_size", 50)
	v.SetDefault("sync.cron_enabled", false)
	v.SetDefault("sync.cron_interval", time.Hour)

	v.SetDefault("media.region", "us-east-1")
	v.SetDefault("media.gallery_root", "gallery")

	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.idle_timeout", time.Minute)
}

// Validate checks invariants the rest of the system depends on
func (c *Config) Validate() error {
	if c.Sync.BatchSize < 0 {
		return fmt.Errorf("sync.batch_size cannot be negative")
	}
	if c.Source.PageSize < 0 {
		return fmt.Errorf("source.page_size cannot be negative")
	}
	if c.Source.BaseURL != "" && !strings.HasPrefix(c.Source.BaseURL, "http") {
		return fmt.Errorf("source.base_url must be an http(s) URL")
	}
	return nil
}

// IsProduction returns true when running in the production environment
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
