package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config del servicio. Env gana sobre el archivo YAML, y el archivo es
// opcional (CONFIG_FILE): en dev alcanza con exportar un par de vars.
type Config struct {
	Addr string `yaml:"addr"`

	DBDSN string `yaml:"db_dsn"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	AppName   string `yaml:"app_name"`

	// Vacío = modo dev (headers X-Debug-*), sin verificación de tokens.
	JWTSecret string `yaml:"jwt_secret"`

	// Directorio de usuarios para metadata de display (opcional).
	DirectoryURL    string `yaml:"directory_url"`
	DirectoryAPIKey string `yaml:"directory_api_key"`
}

func defaults() Config {
	return Config{
		Addr:      ":8080",
		LogLevel:  "info",
		LogFormat: "json",
		AppName:   "care-access",
	}
}

// Load arma la config: defaults -> YAML (si CONFIG_FILE apunta a uno) -> env.
func Load() (Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	overrideFromEnv(&cfg.Addr, "ADDR")
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		cfg.Addr = ":" + v
	}
	overrideFromEnv(&cfg.DBDSN, "DB_DSN")
	overrideFromEnv(&cfg.LogLevel, "LOG_LEVEL")
	overrideFromEnv(&cfg.LogFormat, "LOG_FORMAT")
	overrideFromEnv(&cfg.AppName, "APP_NAME")
	overrideFromEnv(&cfg.JWTSecret, "JWT_SECRET")
	overrideFromEnv(&cfg.DirectoryURL, "DIRECTORY_URL")
	overrideFromEnv(&cfg.DirectoryAPIKey, "DIRECTORY_API_KEY")

	return cfg, nil
}

func overrideFromEnv(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}
