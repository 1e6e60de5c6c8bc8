package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseAdminIDs(t *testing.T) {
	ids := ParseAdminIDs(" 101, abc,202,,-5, 3x ,303 ")
	require.Equal(t, map[int64]bool{101: true, 202: true, 303: true}, ids)
	require.Empty(t, ParseAdminIDs(""))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("BASE_URL", "https://shop.example.com/")
	t.Setenv("BOT_USERNAME", "@couponbot")
	t.Setenv("LEDGER_LOCK_TIMEOUT", "750ms")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg := Load()
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "https://shop.example.com", cfg.Verify.BaseURL)
	require.Equal(t, "couponbot", cfg.Bot.Username)
	require.Equal(t, 750*time.Millisecond, cfg.Ledger.LockTimeout)
	require.Equal(t, 5*time.Second, cfg.Ledger.TxTimeout)
	require.Equal(t, 3, cfg.Ledger.ClaimAttempts)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	require.Equal(t, time.UTC, cfg.Ledger.Location)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Driver: "oracle"}}
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "VERIFY_SECRET")
	require.Contains(t, err.Error(), "BOT_API_KEY")
	require.Contains(t, err.Error(), "JWT_ACCESS_SECRET")
	require.Contains(t, err.Error(), "DB_DRIVER")

	cfg = &Config{
		Database: DatabaseConfig{Driver: "postgres"},
		Verify:   VerifyConfig{Secret: "s"},
		Bot:      BotConfig{APIKey: "k"},
		JWT:      JWTConfig{AccessSecret: "j"},
	}
	require.NoError(t, cfg.Validate())
}
