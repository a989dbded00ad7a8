// config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"-"` // from env DB_PASSWORD, never from yaml
	DBName   string `yaml:"dbname"`
}

// SourceURLConfig lets deployments override the NOAA query endpoints, e.g.
// when one of the map services starts returning 500s and a mirror has to be
// used instead.
type SourceURLConfig struct {
	MBES string `yaml:"mbes"`
	CSB  string `yaml:"csb"`
	NOS  string `yaml:"nos"`
}

type PointStoreConfig struct {
	OrderURL         string `yaml:"order_url"`
	PickupURL        string `yaml:"pickup_url"`
	GridResolution   int    `yaml:"grid_resolution"`
	StaleOrderTTLStr string `yaml:"stale_order_ttl"`
	StaleOrderTTL    time.Duration
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	From     string `yaml:"from"`
	Username string `yaml:"username"`
	Password string `yaml:"-"` // from env SMTP_PASSWORD
}

type WorkerConfig struct {
	FetchTimeoutStr string `yaml:"fetch_timeout"`
	FetchTimeout    time.Duration
}

type AuthConfig struct {
	SecretKey          string `yaml:"-"` // from env SECRET_KEY
	TokenExpiryMinutes int    `yaml:"token_expiry_minutes"`
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	SourceURLs SourceURLConfig  `yaml:"source_urls"`
	PointStore PointStoreConfig `yaml:"point_store"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	Worker     WorkerConfig     `yaml:"worker"`
	Auth       AuthConfig       `yaml:"auth"`
}

var AppConfig Config

// LoadConfig reads the yaml config file and overlays secrets from the
// environment (a .env file is loaded first if present).
func LoadConfig(configPath string) error {
	// .env is optional; real deployments set the variables directly.
	_ = godotenv.Load()

	file, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(file, &AppConfig); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	AppConfig.Database.Password = os.Getenv("DB_PASSWORD")
	AppConfig.SMTP.Password = os.Getenv("SMTP_PASSWORD")
	AppConfig.Auth.SecretKey = os.Getenv("SECRET_KEY")
	if AppConfig.Auth.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY must be set in the environment")
	}
	if AppConfig.Auth.TokenExpiryMinutes <= 0 {
		AppConfig.Auth.TokenExpiryMinutes = 30
	}

	// Parse durations
	var err2 error
	if AppConfig.Worker.FetchTimeoutStr != "" {
		AppConfig.Worker.FetchTimeout, err2 = time.ParseDuration(AppConfig.Worker.FetchTimeoutStr)
		if err2 != nil {
			return fmt.Errorf("failed to parse worker fetch_timeout: %w", err2)
		}
	} else {
		AppConfig.Worker.FetchTimeout = 30 * time.Second // Default
	}
	if AppConfig.PointStore.StaleOrderTTLStr != "" {
		AppConfig.PointStore.StaleOrderTTL, err2 = time.ParseDuration(AppConfig.PointStore.StaleOrderTTLStr)
		if err2 != nil {
			return fmt.Errorf("failed to parse point_store stale_order_ttl: %w", err2)
		}
	} else {
		AppConfig.PointStore.StaleOrderTTL = 24 * time.Hour // Default
	}
	if AppConfig.PointStore.GridResolution <= 0 {
		AppConfig.PointStore.GridResolution = 100 // 100m resolution default
	}

	return nil
}

// FindConfigFile checks the standard locations for config.yaml and returns
// the first one that exists.
func FindConfigFile() (string, error) {
	potentialPaths := []string{
		"config/config.yaml", // running from the repo root
		"config.yaml",        // running next to the file
		"../config/config.yaml",
	}
	for _, p := range potentialPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("config.yaml not found in standard locations")
}
