package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.Set("JWT_SECRET", "test-secret")
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 9, cfg.Reminder.MorningHour)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessExpiry)
	assert.Equal(t, 5*time.Second, cfg.Reminder.DispatchTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Store.IdleTTL)
	assert.True(t, cfg.App.SeedCatalog)
	assert.Equal(t, []string{"*"}, cfg.App.CORSOrigins)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, splitList(" https://a.example, ,https://b.example "))
	assert.Nil(t, splitList(""))
}

func TestFromViper_Overrides(t *testing.T) {
	v := newTestViper()
	v.Set("APP_TIMEZONE", "Asia/Jakarta")
	v.Set("JWT_ACCESS_EXPIRY", "1h")
	v.Set("STORE_IDLE_TTL", "not-a-duration")
	v.Set("REMINDER_WORKERS", 4)

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.JWT.AccessExpiry)
	assert.Equal(t, 30*time.Minute, cfg.Store.IdleTTL)
	assert.Equal(t, 4, cfg.Reminder.Workers)

	loc, err := cfg.App.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", loc.String())
}

func TestFromViper_Invalid(t *testing.T) {
	v := newTestViper()
	v.Set("JWT_SECRET", "")
	_, err := fromViper(v)
	assert.Error(t, err)

	v = newTestViper()
	v.Set("REMINDER_MORNING_HOUR", 24)
	_, err = fromViper(v)
	assert.Error(t, err)

	v = newTestViper()
	v.Set("APP_TIMEZONE", "Mars/Olympus")
	_, err = fromViper(v)
	assert.Error(t, err)
}
