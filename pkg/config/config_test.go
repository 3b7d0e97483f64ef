package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.True(t, cfg.Substitution.LoadBalancing)
	assert.Equal(t, "all", cfg.Substitution.AbsencePolicy)
	assert.False(t, cfg.Substitution.SupportBusyIsConflict)
	assert.Equal(t, 2*time.Hour, cfg.Substitution.DraftTTL)
	assert.Equal(t, 10*time.Minute, cfg.Statistics.CacheTTL)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "sostituzioni:", cfg.Redis.KeyPrefix)
	assert.Equal(t, "./backups", cfg.Backups.StorageDir)
	assert.Equal(t, 168*time.Hour, cfg.Backups.Retention)
	assert.Zero(t, cfg.Backups.Interval)
	assert.Equal(t, 3, cfg.Backups.MaxRetries)
	assert.False(t, cfg.Telegram.Enabled())
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("SUBSTITUTION_ABSENCE_POLICY", " Filled ")
	v.Set("SUBSTITUTION_DRAFT_TTL", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg := fromViper(v)

	assert.Equal(t, "filled", cfg.Substitution.AbsencePolicy)
	assert.Equal(t, 2*time.Hour, cfg.Substitution.DraftTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestTelegramEnabledNeedsTokenAndChat(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("TELEGRAM_BOT_TOKEN", "123:abc")

	cfg := fromViper(v)
	assert.False(t, cfg.Telegram.Enabled())

	v.Set("TELEGRAM_CHAT_ID", "-1001234")
	cfg = fromViper(v)
	assert.Equal(t, int64(-1001234), cfg.Telegram.ChatID)
	assert.True(t, cfg.Telegram.Enabled())
	assert.False(t, cfg.Telegram.PublishOnCommit)
}

func TestValidateRejectsDevSecretsInProduction(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)
	assert.NoError(t, cfg.Validate())

	cfg.Env = EnvProduction
	err := cfg.Validate()
	assert.ErrorContains(t, err, "JWT_SECRET")
	assert.ErrorContains(t, err, "BACKUP_SIGNED_URL_SECRET")

	cfg.JWT.Secret = "s3cret-for-jwt"
	cfg.Backups.SignedURLSecret = "s3cret-for-links"
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsUnknownAbsencePolicy(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("SUBSTITUTION_ABSENCE_POLICY", "Some")
	assert.ErrorContains(t, fromViper(v).Validate(), "SUBSTITUTION_ABSENCE_POLICY")
}
