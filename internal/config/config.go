package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Timeouts holds the budgets for the different classes of backend
// operations. These are policy knobs, not physical constraints.
type Timeouts struct {
	Probe time.Duration `yaml:"probe"` // connectivity probe reads
	Ping  time.Duration `yaml:"ping"`  // existence ping before a write
	Query time.Duration `yaml:"query"` // bulk listing queries
	Write time.Duration `yaml:"write"` // inserts and updates
}

type Config struct {
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBName     string `yaml:"db_name"`

	JWTSecret string `yaml:"jwt_secret"`
	RedisAddr string `yaml:"redis_addr"`
	AppURL    string `yaml:"app_url"`
	Port      string `yaml:"port"`

	// OfflinePath is the single local slot holding offline-created
	// service listings as a serialized array.
	OfflinePath string `yaml:"offline_path"`

	CacheTTL           time.Duration `yaml:"cache_ttl"`
	Timeouts           Timeouts      `yaml:"timeouts"`
	InitialCreditGrant int64         `yaml:"initial_credit_grant"`
	ListingPageMax     int           `yaml:"listing_page_max"`
}

// Defaults returns a config preloaded with the stock policy numbers:
// 5 minute cache TTL, 2s/3s/25s/20s timeout budgets, 10 credit grant.
func Defaults() Config {
	return Config{
		DBHost:      "localhost",
		DBPort:      "5432",
		DBName:      "hourbank",
		RedisAddr:   "redis:6379",
		AppURL:      "http://localhost:3000",
		Port:        "8080",
		OfflinePath: "data/offline_services.json",
		CacheTTL:    5 * time.Minute,
		Timeouts: Timeouts{
			Probe: 2 * time.Second,
			Ping:  3 * time.Second,
			Query: 25 * time.Second,
			Write: 20 * time.Second,
		},
		InitialCreditGrant: 10,
		ListingPageMax:     50,
	}
}

// Load reads the optional YAML file at path, then applies environment
// overrides on top. A missing file is not an error; defaults apply.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		b, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, err
		}
	}

	cfg.applyEnv()

	if cfg.InitialCreditGrant <= 0 {
		cfg.InitialCreditGrant = 10
	}
	if cfg.ListingPageMax <= 0 || cfg.ListingPageMax > 100 {
		cfg.ListingPageMax = 50
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setStr(&c.DBUser, "DB_USER")
	setStr(&c.DBPassword, "DB_PASSWORD")
	setStr(&c.DBHost, "DB_HOST")
	setStr(&c.DBPort, "DB_PORT")
	setStr(&c.DBName, "DB_NAME")
	setStr(&c.JWTSecret, "JWT_SECRET")
	c.applyRedisEnv()
	setStr(&c.AppURL, "APP_URL")
	setStr(&c.Port, "PORT")
	setStr(&c.OfflinePath, "OFFLINE_PATH")

	setDur(&c.CacheTTL, "CACHE_TTL")
	setDur(&c.Timeouts.Probe, "TIMEOUT_PROBE")
	setDur(&c.Timeouts.Ping, "TIMEOUT_PING")
	setDur(&c.Timeouts.Query, "TIMEOUT_QUERY")
	setDur(&c.Timeouts.Write, "TIMEOUT_WRITE")

	if v := os.Getenv("INITIAL_CREDIT_GRANT"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			c.InitialCreditGrant = n
		}
	}
}

// applyRedisEnv resolves the broker address. REDIS_ADDR wins outright;
// REDIS_HOST/REDIS_PORT come next; RUN_LOCAL=true swaps the
// docker-compose hostname default for loopback.
func (c *Config) applyRedisEnv() {
	if os.Getenv("RUN_LOCAL") == "true" && c.RedisAddr == "redis:6379" {
		c.RedisAddr = "127.0.0.1:6379"
	}
	if host := os.Getenv("REDIS_HOST"); host != "" {
		port := os.Getenv("REDIS_PORT")
		if port == "" {
			port = "6379"
		}
		c.RedisAddr = host + ":" + port
	}
	setStr(&c.RedisAddr, "REDIS_ADDR")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDur(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*dst = d
		}
	}
}

// DSN builds the Postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}
