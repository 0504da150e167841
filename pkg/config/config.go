package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config groups everything read from the environment (and an optional .env file).
type Config struct {
	App    AppConfig
	HTTP   HTTPConfig
	DB     DBConfig
	Stock  StockConfig
	Client ClientConfig
}

type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
	SeedDemo bool
}

type HTTPConfig struct {
	Port string
}

// Addr is the listen address for fiber.
func (c HTTPConfig) Addr() string {
	return ":" + c.Port
}

// DBConfig selects the gorm dialector. DatabaseURL wins over the discrete fields.
type DBConfig struct {
	Driver      string // postgres, sqlite
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	Name        string
	SSLMode     string
	TimeZone    string
	SQLitePath  string
}

// DSN returns DATABASE_URL when set, otherwise a postgres URL built from the parts.
func (c DBConfig) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Name,
	}
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	q.Set("TimeZone", c.TimeZone)
	u.RawQuery = q.Encode()
	return u.String()
}

type StockConfig struct {
	LowStockThreshold int
}

// ClientConfig is used by stockctl to reach the stock API.
type ClientConfig struct {
	BaseURL       string
	Timeout       time.Duration
	CommitTimeout time.Duration
}

// Load reads .env (if present) into the process environment, then resolves every
// key through viper so real env vars take precedence over defaults.
func Load() (*Config, error) {
	// .env boleh tidak ada, env sistem tetap dipakai
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Env:      v.GetString("APP_ENV"),
			Name:     v.GetString("APP_NAME"),
			LogLevel: v.GetString("LOG_LEVEL"),
			SeedDemo: v.GetBool("SEED_DEMO"),
		},
		HTTP: HTTPConfig{
			Port: v.GetString("PORT"),
		},
		DB: DBConfig{
			Driver:      strings.ToLower(v.GetString("DB_DRIVER")),
			DatabaseURL: v.GetString("DATABASE_URL"),
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetInt("DB_PORT"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			Name:        v.GetString("DB_NAME"),
			SSLMode:     v.GetString("DB_SSLMODE"),
			TimeZone:    v.GetString("DB_TIMEZONE"),
			SQLitePath:  v.GetString("SQLITE_PATH"),
		},
		Stock: StockConfig{
			LowStockThreshold: v.GetInt("LOW_STOCK_THRESHOLD"),
		},
		Client: ClientConfig{
			BaseURL:       strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
			Timeout:       time.Duration(v.GetInt("API_TIMEOUT_SECONDS")) * time.Second,
			CommitTimeout: time.Duration(v.GetInt("COMMIT_TIMEOUT_SECONDS")) * time.Second,
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "GoChicken Back Office")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SEED_DEMO", false)
	v.SetDefault("PORT", "3000")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "gochicken")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_TIMEZONE", "Asia/Jakarta")
	v.SetDefault("SQLITE_PATH", "gochicken.db")
	v.SetDefault("LOW_STOCK_THRESHOLD", 10)
	v.SetDefault("API_BASE_URL", "http://localhost:3000")
	v.SetDefault("API_TIMEOUT_SECONDS", 10)
	v.SetDefault("COMMIT_TIMEOUT_SECONDS", 15)
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.Stock.LowStockThreshold < 0 {
		return fmt.Errorf("LOW_STOCK_THRESHOLD must not be negative")
	}
	return nil
}
