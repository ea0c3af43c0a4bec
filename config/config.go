package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"youth-sports-gamification/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "GAMIFY"

type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Gateway      GatewayConfig      `mapstructure:"gateway"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Audit        AuditConfig        `mapstructure:"audit"`
	HTTP         HTTPConfig         `mapstructure:"http"`
	Gamification GamificationConfig `mapstructure:"gamification"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	Port     int    `mapstructure:"port"`
	Timezone string `mapstructure:"timezone"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"` // postgres | sqlite
	DSN    string `mapstructure:"dsn"`
}

type GatewayConfig struct {
	ServiceToken   string `mapstructure:"service_token"`
	AllowedOrigins string `mapstructure:"allowed_origins"`
}

// RedisConfig: empty Addr keeps cooldowns in process memory.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuditConfig points the daily suspicious-activity export at an R2 bucket.
type AuditConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	AccountID       string `mapstructure:"account_id"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	PublicURL       string `mapstructure:"public_url"`
}

type HTTPConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type GamificationConfig struct {
	HourlyMax          int                     `mapstructure:"hourly_max"`
	SuspiciousHourly   int                     `mapstructure:"suspicious_hourly"`
	DailyMax           int                     `mapstructure:"daily_max"`
	BadgeLookbackGames int                     `mapstructure:"badge_lookback_games"`
	StreakLookbackDays int                     `mapstructure:"streak_lookback_days"`
	Actions            map[string]ActionConfig `mapstructure:"actions"`
	Multipliers        MultiplierConfig        `mapstructure:"multipliers"`
}

type ActionConfig struct {
	BaseXP   int64         `mapstructure:"base_xp"`
	Cooldown time.Duration `mapstructure:"cooldown"`
	DailyCap int64         `mapstructure:"daily_cap"`
}

type MultiplierConfig struct {
	GameBase   float64            `mapstructure:"game_base"`
	GameMax    float64            `mapstructure:"game_max"`
	StreakBase float64            `mapstructure:"streak_base"`
	StreakMax  float64            `mapstructure:"streak_max"`
	Rarity     map[string]float64 `mapstructure:"rarity"`
}

// Load reads .env, defaults, an optional YAML file and GAMIFY_* variables,
// in increasing order of precedence.
func Load(configPath string) (*Config, error) {
	v, err := newViper(configPath)
	if err != nil {
		return nil, err
	}
	return decode(v)
}

// Watch re-reads the config file on every write and hands the result to
// onChange. It reports false when there is no file to watch.
func Watch(configPath string, onChange func(*Config)) bool {
	v, err := newViper(configPath)
	if err != nil || v.ConfigFileUsed() == "" {
		return false
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			logger.Error().Err(err).Str("path", e.Name).Msg("config reload rejected")
			return
		}
		logger.Info().Str("path", e.Name).Msg("🔄 Config reloaded")
		onChange(cfg)
	})
	v.WatchConfig()
	return true
}

func newViper(configPath string) (*viper.Viper, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("gamification")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		logger.Debug().Msg("no config file, using defaults and environment")
	}
	return v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	g := c.Gamification
	if g.HourlyMax < 0 || g.DailyMax < 0 || g.SuspiciousHourly < 0 {
		return errors.New("gamification limits must not be negative")
	}
	if g.BadgeLookbackGames <= 0 || g.StreakLookbackDays <= 0 {
		return errors.New("lookback windows must be positive")
	}
	if g.Multipliers.GameMax < g.Multipliers.GameBase || g.Multipliers.StreakMax <= 0 {
		return errors.New("multiplier caps are inconsistent")
	}
	for name, a := range g.Actions {
		if a.BaseXP < 0 || a.Cooldown < 0 || a.DailyCap < 0 {
			return fmt.Errorf("action %q has negative settings", name)
		}
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("app.timezone: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.port", 5200)
	v.SetDefault("app.timezone", "Local")

	// Storage
	v.SetDefault("storage.driver", "postgres")
	v.SetDefault("storage.dsn", "")

	// Gateway
	v.SetDefault("gateway.service_token", "")
	v.SetDefault("gateway.allowed_origins", "*")

	// Redis
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Audit export
	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.account_id", "")
	v.SetDefault("audit.access_key_id", "")
	v.SetDefault("audit.access_key_secret", "")
	v.SetDefault("audit.bucket", "")
	v.SetDefault("audit.prefix", "suspicious-activity")
	v.SetDefault("audit.public_url", "")

	// HTTP
	v.SetDefault("http.requests_per_second", 10)
	v.SetDefault("http.burst", 20)

	// Gamification
	v.SetDefault("gamification.hourly_max", 50)
	v.SetDefault("gamification.suspicious_hourly", 100)
	v.SetDefault("gamification.daily_max", 200)
	v.SetDefault("gamification.badge_lookback_games", 50)
	v.SetDefault("gamification.streak_lookback_days", 365)

	actions := map[string]ActionConfig{
		"game_logged":          {BaseXP: 50, Cooldown: 30 * time.Minute, DailyCap: 300},
		"skill_activity":       {BaseXP: 15, Cooldown: 5 * time.Minute, DailyCap: 90},
		"daily_login":          {BaseXP: 10, Cooldown: 24 * time.Hour, DailyCap: 10},
		"streak_milestone":     {BaseXP: 100, DailyCap: 500},
		"achievement_unlocked": {BaseXP: 100},
		"goal_completed":       {BaseXP: 75, DailyCap: 375},
	}
	for name, a := range actions {
		prefix := "gamification.actions." + name + "."
		v.SetDefault(prefix+"base_xp", a.BaseXP)
		v.SetDefault(prefix+"cooldown", a.Cooldown)
		v.SetDefault(prefix+"daily_cap", a.DailyCap)
	}

	v.SetDefault("gamification.multipliers.game_base", 1.0)
	v.SetDefault("gamification.multipliers.game_max", 3.0)
	v.SetDefault("gamification.multipliers.streak_base", 1.0)
	v.SetDefault("gamification.multipliers.streak_max", 5.0)
	v.SetDefault("gamification.multipliers.rarity.common", 1.0)
	v.SetDefault("gamification.multipliers.rarity.rare", 1.5)
	v.SetDefault("gamification.multipliers.rarity.epic", 2.0)
	v.SetDefault("gamification.multipliers.rarity.legendary", 3.0)
}
