package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Ledger   LedgerConfig
	JWT      JWTConfig
	Admin    AdminConfig
	Bot      BotConfig
	Verify   VerifyConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Driver          string // postgres | mysql | sqlite
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// LedgerConfig bounds every unit of work the redemption, referral and
// verification services run against the store.
type LedgerConfig struct {
	Location      *time.Location
	LockTimeout   time.Duration
	TxTimeout     time.Duration
	ClaimAttempts int
}

type JWTConfig struct {
	AccessSecret string
	AccessExpiry time.Duration
	Issuer       string
}

type AdminConfig struct {
	IDs        map[int64]bool
	APIKeyHash string // bcrypt hash of the admin login key
	DialogTTL  time.Duration
}

type BotConfig struct {
	APIKey   string
	Username string
}

type VerifyConfig struct {
	Secret  string
	BaseURL string
}

type RedisConfig struct {
	URL         string
	SettingsTTL time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment, loading a .env file first when one exists.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8099"),
			Env:          getEnv("APP_ENV", "development"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			DSN:             getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=pointshop port=5432 sslmode=disable"),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		Ledger: LedgerConfig{
			Location:      getLocation("LEDGER_TZ", time.UTC),
			LockTimeout:   getDuration("LEDGER_LOCK_TIMEOUT", 3*time.Second),
			TxTimeout:     getDuration("LEDGER_TX_TIMEOUT", 5*time.Second),
			ClaimAttempts: getInt("LEDGER_CLAIM_ATTEMPTS", 3),
		},
		JWT: JWTConfig{
			AccessSecret: getEnv("JWT_ACCESS_SECRET", ""),
			AccessExpiry: getDuration("JWT_ACCESS_EXPIRY", 12*time.Hour),
			Issuer:       getEnv("JWT_ISSUER", "pointshop"),
		},
		Admin: AdminConfig{
			IDs:        ParseAdminIDs(os.Getenv("ADMIN_IDS")),
			APIKeyHash: getEnv("ADMIN_API_KEY_HASH", ""),
			DialogTTL:  getDuration("ADMIN_DIALOG_TTL", 10*time.Minute),
		},
		Bot: BotConfig{
			APIKey:   getEnv("BOT_API_KEY", ""),
			Username: strings.TrimPrefix(getEnv("BOT_USERNAME", ""), "@"),
		},
		Verify: VerifyConfig{
			Secret:  getEnv("VERIFY_SECRET", ""),
			BaseURL: strings.TrimRight(getEnv("BASE_URL", "http://localhost:8099"), "/"),
		},
		Redis: RedisConfig{
			URL:         getEnv("REDIS_URL", ""),
			SettingsTTL: getDuration("SETTINGS_CACHE_TTL", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", "pointshop.events"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}
}

// Validate reports the secrets the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Verify.Secret == "" {
		errs = append(errs, errors.New("VERIFY_SECRET is required"))
	}
	if c.Bot.APIKey == "" {
		errs = append(errs, errors.New("BOT_API_KEY is required"))
	}
	if c.JWT.AccessSecret == "" {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET is required"))
	}
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		errs = append(errs, errors.New("DB_DRIVER must be one of postgres, mysql, sqlite"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool { return c.Server.Env == "production" }

// ParseAdminIDs parses a comma-separated id list, ignoring anything that is not all digits.
func ParseAdminIDs(raw string) map[int64]bool {
	ids := make(map[int64]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || strings.Trim(part, "0123456789") != "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids[id] = true
	}
	return ids
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return d
}

func getLocation(key string, fallback *time.Location) *time.Location {
	name := os.Getenv(key)
	if name == "" {
		return fallback
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fallback
	}
	return loc
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
