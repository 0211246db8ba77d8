package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	AppName    string `toml:"app_service"`
	AppVersion string `toml:"app_version"`
	AppEnv     string `toml:"app_env"`
	Timezone   string `toml:"app_timezone"`
	Port       string `toml:"port"`
	GinMode    string `toml:"gin_mode"`
	DBDriver   string `toml:"db_driver"`
	DBHost     string `toml:"db_host"`
	DBPort     string `toml:"db_port"`
	DBUser     string `toml:"db_user"`
	DBPassword string `toml:"db_password"`
	DBName     string `toml:"db_name"`
	DBPath     string `toml:"db_path"`
	LogDir     string `toml:"log_dir"`
	ExportDir  string `toml:"export_dir"`
}

// Load builds the configuration from defaults and environment variables.
func Load() *Config {
	cfg := defaults()
	applyEnv(cfg)
	return cfg
}

// LoadFile layers a TOML file between the defaults and the environment.
// An empty path behaves like Load.
func LoadFile(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

// IsProduction reports whether stack traces and error details must be hidden.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func defaults() *Config {
	return &Config{
		AppName:    "todos-api",
		AppVersion: "1.0.0",
		AppEnv:     "local",
		Timezone:   "Asia/Jakarta",
		Port:       "8080",
		GinMode:    "debug",
		DBDriver:   "sqlite",
		DBHost:     "localhost",
		DBPort:     "3306",
		DBUser:     "todos",
		DBPassword: "todos",
		DBName:     "todos",
		DBPath:     "storage/todos.db",
		LogDir:     "storage/logs",
		ExportDir:  "storage/exports",
	}
}

func applyEnv(cfg *Config) {
	cfg.AppName = getEnv("APP_SERVICE", cfg.AppName)
	cfg.AppVersion = getEnv("APP_VERSION", cfg.AppVersion)
	cfg.AppEnv = getEnv("APP_ENV", cfg.AppEnv)
	cfg.Timezone = getEnv("APP_TIMEZONE", cfg.Timezone)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.GinMode = getEnv("GIN_MODE", cfg.GinMode)
	cfg.DBDriver = getEnv("DB_DRIVER", cfg.DBDriver)
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnv("DB_PORT", cfg.DBPort)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.LogDir = getEnv("LOG_DIR", cfg.LogDir)
	cfg.ExportDir = getEnv("EXPORT_DIR", cfg.ExportDir)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
