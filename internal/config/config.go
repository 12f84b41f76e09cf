package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

type Config struct {
	App   AppConfig   `toml:"app"`
	Auth  AuthConfig  `toml:"auth"`
	MySQL MySQLConfig `toml:"mysql"`
}

type AppConfig struct {
	Name          string `toml:"name"`
	Env           string `toml:"env"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	GinMode       string `toml:"gin_mode"`
	TemplatesGlob string `toml:"templates_glob"`
}

type AuthConfig struct {
	SessionSecret    string `toml:"session_secret"`
	SessionTTLMinute int    `toml:"session_ttl_minute"`
	RememberTTLHour  int    `toml:"remember_ttl_hour"`
}

type MySQLConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	DB       string `toml:"db"`
	Params   string `toml:"params"`
}

func Load() (*Config, error) {
	cfg := defaultConfig()

	configPath := getEnv("CONFIG_FILE", "configs/config.toml")
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("decode config file failed: %w", err)
		}
	}

	overrideByEnv(cfg)
	return cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		c.MySQL.User,
		c.MySQL.Password,
		c.MySQL.Host,
		c.MySQL.Port,
		c.MySQL.DB,
		c.MySQL.Params,
	)
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:          "gopherblog",
			Env:           "dev",
			Host:          "0.0.0.0",
			Port:          8080,
			GinMode:       "debug",
			TemplatesGlob: "web/templates/*.html",
		},
		Auth: AuthConfig{
			SessionSecret:    "change-me-in-production",
			SessionTTLMinute: 120,
			RememberTTLHour:  24 * 30,
		},
		MySQL: MySQLConfig{
			Host:     "127.0.0.1",
			Port:     3306,
			User:     "root",
			Password: "",
			DB:       "gopherblog",
			Params:   "parseTime=true&loc=UTC&charset=utf8mb4",
		},
	}
}

func overrideByEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnvAsInt("APP_PORT", cfg.App.Port)
	cfg.App.GinMode = getEnv("GIN_MODE", cfg.App.GinMode)
	cfg.App.TemplatesGlob = getEnv("APP_TEMPLATES_GLOB", cfg.App.TemplatesGlob)

	cfg.Auth.SessionSecret = getEnv("SESSION_SECRET", cfg.Auth.SessionSecret)
	cfg.Auth.SessionTTLMinute = getEnvAsInt("SESSION_TTL_MINUTE", cfg.Auth.SessionTTLMinute)
	cfg.Auth.RememberTTLHour = getEnvAsInt("REMEMBER_TTL_HOUR", cfg.Auth.RememberTTLHour)

	cfg.MySQL.Host = getEnv("MYSQL_HOST", cfg.MySQL.Host)
	cfg.MySQL.Port = getEnvAsInt("MYSQL_PORT", cfg.MySQL.Port)
	cfg.MySQL.User = getEnv("MYSQL_USER", cfg.MySQL.User)
	cfg.MySQL.Password = getEnv("MYSQL_PASSWORD", cfg.MySQL.Password)
	cfg.MySQL.DB = getEnv("MYSQL_DB", cfg.MySQL.DB)
	cfg.MySQL.Params = getEnv("MYSQL_PARAMS", cfg.MySQL.Params)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
