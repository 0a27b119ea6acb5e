package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Store backends.
const (
	BackendDocument   = "document"
	BackendRelational = "relational"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverPGX      = "pgx"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Admin    AdminConfig
	CORS     CORSConfig
	Log      LogConfig
	Calendar CalendarConfig
	Exports  ExportsConfig
}

// StoreConfig selects and tunes the roster persistence backend.
type StoreConfig struct {
	Backend         string
	DataDir         string
	UniqueNames     bool
	Autosave        bool
	AutosaveWorkers int
	AutosaveRetries int
}

type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

// AdminConfig describes the single administrative user of the roster.
type AdminConfig struct {
	Username     string
	PasswordHash string
	Name         string
	LastName     string
	DateOfBirth  string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CalendarConfig toggles caching of rendered calendar exports.
type CalendarConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ExportsConfig sets where generated documents are written.
type ExportsConfig struct {
	Dir string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Store = StoreConfig{
		Backend:         strings.ToLower(v.GetString("STORE_BACKEND")),
		DataDir:         v.GetString("STORE_DATA_DIR"),
		UniqueNames:     v.GetBool("STORE_UNIQUE_NAMES"),
		Autosave:        v.GetBool("STORE_AUTOSAVE"),
		AutosaveWorkers: v.GetInt("STORE_AUTOSAVE_WORKERS"),
		AutosaveRetries: v.GetInt("STORE_AUTOSAVE_RETRIES"),
	}

	cfg.Database = DatabaseConfig{
		Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.Admin = AdminConfig{
		Username:     v.GetString("ADMIN_USERNAME"),
		PasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
		Name:         v.GetString("ADMIN_NAME"),
		LastName:     v.GetString("ADMIN_LAST_NAME"),
		DateOfBirth:  v.GetString("ADMIN_DATE_OF_BIRTH"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Calendar = CalendarConfig{
		CacheEnabled: v.GetBool("ENABLE_CALENDAR_CACHE"),
		CacheTTL:     parseDuration(v.GetString("CALENDAR_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Exports = ExportsConfig{Dir: v.GetString("EXPORTS_DIR")}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("STORE_BACKEND", BackendDocument)
	v.SetDefault("STORE_DATA_DIR", "./data")
	v.SetDefault("STORE_UNIQUE_NAMES", false)
	v.SetDefault("STORE_AUTOSAVE", false)
	v.SetDefault("STORE_AUTOSAVE_WORKERS", 1)
	v.SetDefault("STORE_AUTOSAVE_RETRIES", 0)

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "school_roster")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 4)
	v.SetDefault("DB_MAX_IDLE_CONNS", 1)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ADMIN_USERNAME", "segreteria")
	v.SetDefault("ADMIN_PASSWORD_HASH", "")
	v.SetDefault("ADMIN_NAME", "Ivan")
	v.SetDefault("ADMIN_LAST_NAME", "Rossi")
	v.SetDefault("ADMIN_DATE_OF_BIRTH", "1980-05-15")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CALENDAR_CACHE", false)
	v.SetDefault("CALENDAR_CACHE_TTL", "10m")
	v.SetDefault("EXPORTS_DIR", "./exports")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
