package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
)

type DiscordConfig struct {
	Key         string
	Secret      string
	CallbackURL string
}

func (c DiscordConfig) Enabled() bool {
	return c.Key != "" && c.Secret != ""
}

// BracketConfig spaces the generated schedule.
type BracketConfig struct {
	MatchSpacing time.Duration
	RoundSpacing time.Duration
}

type Config struct {
	HTTPAddr        string
	DatabasePath    string
	MigrationsPath  string
	SessionLifetime time.Duration
	SecureCookies   bool

	Discord DiscordConfig
	// Discord user IDs promoted at login.
	StaffDiscordIDs []string
	AdminDiscordIDs []string

	Logger  LoggerConfig
	Bracket BracketConfig

	SchedulerInterval     time.Duration
	OverlayAllowedOrigins []string
}

// Load reads .env when present, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LoadFromEnv() Config {
	origins := GetEnvList("OVERLAY_ALLOWED_ORIGINS")
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return Config{
		HTTPAddr:        GetEnv("HTTP_ADDR", ":8080"),
		DatabasePath:    GetEnv("DATABASE_PATH", "esport_cup.db"),
		MigrationsPath:  GetEnv("MIGRATIONS_PATH", "migrations"),
		SessionLifetime: GetEnvDuration("SESSION_LIFETIME", 24*time.Hour),
		SecureCookies:   GetEnvBool("SECURE_COOKIES", false),
		Discord: DiscordConfig{
			Key:         GetEnv("DISCORD_KEY", ""),
			Secret:      GetEnv("DISCORD_SECRET", ""),
			CallbackURL: GetEnv("DISCORD_CALLBACK_URL", "http://localhost:8080/auth/discord/callback"),
		},
		StaffDiscordIDs: GetEnvList("STAFF_DISCORD_IDS"),
		AdminDiscordIDs: GetEnvList("ADMIN_DISCORD_IDS"),
		Logger:          LoadLoggerConfigFromEnv(),
		Bracket: BracketConfig{
			MatchSpacing: GetEnvDuration("MATCH_SPACING", time.Hour),
			RoundSpacing: GetEnvDuration("ROUND_SPACING", 24*time.Hour),
		},
		SchedulerInterval:     GetEnvDuration("SCHEDULER_INTERVAL", time.Minute),
		OverlayAllowedOrigins: origins,
	}
}

func (c Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH must not be empty")
	}
	if c.SessionLifetime <= 0 {
		return fmt.Errorf("SESSION_LIFETIME must be greater than 0")
	}
	if c.Bracket.MatchSpacing < 0 || c.Bracket.RoundSpacing < 0 {
		return fmt.Errorf("MATCH_SPACING and ROUND_SPACING must not be negative")
	}
	if c.SchedulerInterval <= 0 {
		return fmt.Errorf("SCHEDULER_INTERVAL must be greater than 0")
	}
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("logger config validation failed: %w", err)
	}
	return nil
}
