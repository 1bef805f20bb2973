package server

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"taskboard/internal/domain/errors"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Duration reads "15m"-style strings from JSON config files.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

type Config struct {
	Addr        string   `json:"addr"`
	Port        int      `json:"port"`
	Store       string   `json:"store"`
	DBStr       string   `json:"db_dsn"`
	SQLitePath  string   `json:"sqlite_path"`
	MigratePath string   `json:"migrate_path"`
	JWTSecret   string   `json:"jwt_secret"`
	TokenTTL    Duration `json:"token_ttl"`
	RedisURL    string   `json:"redis_url"`
	CacheTTL    Duration `json:"cache_ttl"`
	LogLevel    string   `json:"log_level"`
}

const (
	defaultAddr        = "0.0.0.0"
	defaultPort        = 8080
	defaultStore       = StorePostgres
	defaultDBStr       = "postgresql://shouldbeinVaultuser:shouldbeinVaultpassword@db:5432/tasks?sslmode=disable"
	defaultSQLitePath  = "data/taskboard.db"
	defaultMigratePath = "migrations"
	defaultJWTSecret   = "shouldbeinVaultsecret"
	defaultTokenTTL    = 30 * 24 * time.Hour
	defaultCacheTTL    = 5 * time.Minute
	defaultLogLevel    = "info"
)

func DefaultConfig() *Config {
	return &Config{
		Addr:        defaultAddr,
		Port:        defaultPort,
		Store:       defaultStore,
		DBStr:       defaultDBStr,
		SQLitePath:  defaultSQLitePath,
		MigratePath: defaultMigratePath,
		JWTSecret:   defaultJWTSecret,
		TokenTTL:    Duration{defaultTokenTTL},
		CacheTTL:    Duration{defaultCacheTTL},
		LogLevel:    defaultLogLevel,
	}
}

// UsesDefaultSecret reports whether tokens would be signed with the built-in
// development secret.
func (c *Config) UsesDefaultSecret() bool {
	return c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret
}

// ListenAddr joins Addr and Port.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Addr, c.Port)
}

// ReadConfig layers defaults, an optional JSON file, the environment and
// finally the command line flags that were set explicitly.
func ReadConfig(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("taskboard", pflag.ContinueOnError)
	addr := fs.String("addr", defaultAddr, "listen address")
	port := fs.IntP("port", "p", defaultPort, "listen port")
	store := fs.String("store", defaultStore, "task store: postgres, sqlite or memory")
	dbstr := fs.String("dbstr", defaultDBStr, "postgres connection string")
	dbDsn := fs.String("dbdsn", "", "postgres DSN, takes precedence over --dbstr")
	sqlitePath := fs.String("sqlite", defaultSQLitePath, "sqlite database file")
	migratePath := fs.String("migratepath", defaultMigratePath, "directory with SQL migrations")
	redisURL := fs.String("redis", "", "redis URL for the task list cache, empty disables it")
	cacheTTL := fs.Duration("cache-ttl", defaultCacheTTL, "task list cache TTL")
	tokenTTL := fs.Duration("token-ttl", defaultTokenTTL, "lifetime of issued tokens")
	logLevel := fs.String("log-level", defaultLogLevel, "log level")
	configFile := fs.StringP("config", "c", "", "path to a JSON config file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if jsonConfig := loadJSONConfig(*configFile); jsonConfig != nil {
		cfg = jsonConfig
	}
	cfg = applyEnvOverrides(cfg)

	if fs.Changed("addr") {
		cfg.Addr = *addr
	}
	if fs.Changed("port") {
		cfg.Port = *port
	}
	if fs.Changed("store") {
		cfg.Store = *store
	}
	if fs.Changed("dbdsn") {
		cfg.DBStr = *dbDsn
	} else if fs.Changed("dbstr") {
		cfg.DBStr = *dbstr
	}
	if fs.Changed("sqlite") {
		cfg.SQLitePath = *sqlitePath
	}
	if fs.Changed("migratepath") {
		cfg.MigratePath = *migratePath
	}
	if fs.Changed("redis") {
		cfg.RedisURL = *redisURL
	}
	if fs.Changed("cache-ttl") {
		cfg.CacheTTL = Duration{*cacheTTL}
	}
	if fs.Changed("token-ttl") {
		cfg.TokenTTL = Duration{*tokenTTL}
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.Store {
	case StoreMemory, StorePostgres, StoreSQLite:
	default:
		return fmt.Errorf("%w: unknown store %q", errors.ErrConfigInvalidFormat, c.Store)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port must be between 1 and 65535: %d", errors.ErrConfigInvalidFormat, c.Port)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrConfigInvalidFormat, err)
	}
	return nil
}

// loadJSONConfig reads path (or $CONFIG). Keys missing from the file keep
// their defaults.
func loadJSONConfig(path string) *Config {
	if path == "" {
		path = os.Getenv("CONFIG")
	}
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.WithError(err).WithField("path", path).Warn(errors.ErrConfigFileReadFailed.Error())
		return nil
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		log.WithError(err).WithField("path", path).Warn(errors.ErrConfigParseFailed.Error())
		return nil
	}
	log.WithField("path", path).Info("JSON config loaded")
	return cfg
}

func applyEnvOverrides(cfg *Config) *Config {
	if addr := os.Getenv("ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err != nil || p < 1 || p > 65535 {
			log.WithField("PORT", port).Warn(errors.ErrConfigInvalidFormat.Error())
		} else {
			cfg.Port = p
		}
	}
	if store := os.Getenv("STORE"); store != "" {
		cfg.Store = strings.ToLower(store)
	}
	if dbStr := os.Getenv("DB_STR"); dbStr != "" {
		cfg.DBStr = dbStr
	}
	if path := os.Getenv("SQLITE_PATH"); path != "" {
		cfg.SQLitePath = path
	}
	if migratePath := os.Getenv("MIGRATE_PATH"); migratePath != "" {
		cfg.MigratePath = migratePath
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWTSecret = secret
	}
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cfg.RedisURL = redisURL
	}
	if ttl := os.Getenv("CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err != nil || d < 0 {
			log.WithField("CACHE_TTL", ttl).Warn(errors.ErrConfigInvalidFormat.Error())
		} else {
			cfg.CacheTTL = Duration{d}
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	if cfg.DBStr == defaultDBStr {
		dbUser := os.Getenv("DB_USER")
		dbPassword := os.Getenv("DB_PASSWORD")
		dbName := os.Getenv("DB_NAME")
		dbHost := os.Getenv("DB_HOST")
		dbPort := os.Getenv("DB_PORT")
		if dbUser != "" && dbPassword != "" && dbName != "" && dbHost != "" && dbPort != "" {
			cfg.DBStr = fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable", dbUser, dbPassword, dbHost, dbPort, dbName)
		}
	}

	return cfg
}
