package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	devJWTSecret    = "dev_secret"
	devBackupSecret = "dev_backup_secret"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Substitution SubstitutionConfig
	Statistics   StatisticsConfig
	Backups      BackupsConfig
	Telegram     TelegramConfig
}

type DatabaseConfig struct {
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
	Enabled   bool
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SubstitutionConfig tunes the substitute proposal and commit workflow.
type SubstitutionConfig struct {
	DraftTTL              time.Duration
	LoadBalancing         bool
	AbsencePolicy         string
	SupportBusyIsConflict bool
	SkipExcludedSlots     bool
	RequireDayPresence    bool
}

// StatisticsConfig governs caching of history aggregates.
type StatisticsConfig struct {
	CacheTTL time.Duration
}

// BackupsConfig controls spreadsheet backup storage and download links.
type BackupsConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	Interval        time.Duration
	Retention       time.Duration
	MaxRetries      int
}

// TelegramConfig enables posting committed substitutions to a staff chat.
type TelegramConfig struct {
	BotToken        string
	ChatID          int64
	PublishOnCommit bool
}

// Enabled reports whether a bot and chat are configured. PublishOnCommit
// additionally posts on every commit; without it only the manual publish
// endpoint sends messages.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != 0
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

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with. Production refuses
// the development signing secrets.
func (c *Config) Validate() error {
	var problems []string
	switch c.Substitution.AbsencePolicy {
	case "all", "filled":
	default:
		problems = append(problems, fmt.Sprintf("SUBSTITUTION_ABSENCE_POLICY must be all or filled, got %q", c.Substitution.AbsencePolicy))
	}
	if c.Backups.Interval < 0 {
		problems = append(problems, "BACKUP_INTERVAL must not be negative")
	}
	if c.Env == EnvProduction {
		if c.JWT.Secret == "" || c.JWT.Secret == devJWTSecret {
			problems = append(problems, "JWT_SECRET must be set in production")
		}
		if c.Backups.SignedURLSecret == "" || c.Backups.SignedURLSecret == devBackupSecret {
			problems = append(problems, "BACKUP_SIGNED_URL_SECRET must be set in production")
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
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
		Enabled:   v.GetBool("ENABLE_REDIS"),
		Host:      v.GetString("REDIS_HOST"),
		Port:      v.GetInt("REDIS_PORT"),
		Password:  v.GetString("REDIS_PASSWORD"),
		DB:        v.GetInt("REDIS_DB"),
		KeyPrefix: v.GetString("REDIS_KEY_PREFIX"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Substitution = SubstitutionConfig{
		DraftTTL:              parseDuration(v.GetString("SUBSTITUTION_DRAFT_TTL"), 2*time.Hour),
		LoadBalancing:         v.GetBool("SUBSTITUTION_LOAD_BALANCING"),
		AbsencePolicy:         strings.ToLower(strings.TrimSpace(v.GetString("SUBSTITUTION_ABSENCE_POLICY"))),
		SupportBusyIsConflict: v.GetBool("SUBSTITUTION_SUPPORT_BUSY_CONFLICT"),
		SkipExcludedSlots:     v.GetBool("SUBSTITUTION_SKIP_EXCLUDED_SLOTS"),
		RequireDayPresence:    v.GetBool("SUBSTITUTION_REQUIRE_DAY_PRESENCE"),
	}

	cfg.Statistics = StatisticsConfig{
		CacheTTL: parseDuration(v.GetString("STATS_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Backups = BackupsConfig{
		StorageDir:      v.GetString("BACKUP_STORAGE_DIR"),
		SignedURLSecret: v.GetString("BACKUP_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("BACKUP_SIGNED_URL_TTL"), time.Hour),
		Interval:        parseDuration(v.GetString("BACKUP_INTERVAL"), 0),
		Retention:       parseDuration(v.GetString("BACKUP_RETENTION"), 7*24*time.Hour),
		MaxRetries:      v.GetInt("BACKUP_MAX_RETRIES"),
	}

	cfg.Telegram = TelegramConfig{
		BotToken:        v.GetString("TELEGRAM_BOT_TOKEN"),
		ChatID:          v.GetInt64("TELEGRAM_CHAT_ID"),
		PublishOnCommit: v.GetBool("TELEGRAM_PUBLISH_ON_COMMIT"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "orario_sostituzioni")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY_PREFIX", "sostituzioni:")

	v.SetDefault("JWT_SECRET", devJWTSecret)
	v.SetDefault("JWT_EXPIRATION", "12h")
	v.SetDefault("JWT_ISSUER", "sma-substitute-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SUBSTITUTION_DRAFT_TTL", "2h")
	v.SetDefault("SUBSTITUTION_LOAD_BALANCING", true)
	v.SetDefault("SUBSTITUTION_ABSENCE_POLICY", "all")
	v.SetDefault("SUBSTITUTION_SUPPORT_BUSY_CONFLICT", false)
	v.SetDefault("SUBSTITUTION_SKIP_EXCLUDED_SLOTS", false)
	v.SetDefault("SUBSTITUTION_REQUIRE_DAY_PRESENCE", false)

	v.SetDefault("STATS_CACHE_TTL", "10m")

	v.SetDefault("BACKUP_STORAGE_DIR", "./backups")
	v.SetDefault("BACKUP_SIGNED_URL_SECRET", devBackupSecret)
	v.SetDefault("BACKUP_SIGNED_URL_TTL", "1h")
	v.SetDefault("BACKUP_INTERVAL", "")
	v.SetDefault("BACKUP_RETENTION", "168h")
	v.SetDefault("BACKUP_MAX_RETRIES", 3)

	v.SetDefault("TELEGRAM_BOT_TOKEN", "")
	v.SetDefault("TELEGRAM_CHAT_ID", 0)
	v.SetDefault("TELEGRAM_PUBLISH_ON_COMMIT", false)
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
