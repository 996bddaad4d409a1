// Package config reads service configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Catalog repository settings
	CatalogRepoURL string
	CatalogBranch  string
	DocsGlob       string

	// GitHub App authentication (optional; needed only for private catalogs)
	GitHubAppID          int64
	GitHubAppPrivateKey  []byte
	GitHubInstallationID int64

	// Webhook settings
	WebhookSecret string

	// Sync settings
	PollInterval time.Duration
	CloneTimeout time.Duration

	// Storage settings
	DataPath  string
	CacheSize int
	Workers   int

	// Server settings
	Port int

	// Observability
	OTLPEndpoint string
}

// UseGitHubApp reports whether GitHub App authentication is configured.
func (c *Config) UseGitHubApp() bool {
	return c.GitHubAppID != 0
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		// Defaults
		CatalogBranch: "main",
		DocsGlob:      "catalog/**/*.md",
		PollInterval:  5 * time.Minute,
		CloneTimeout:  2 * time.Minute,
		DataPath:      "/data",
		CacheSize:     1000,
	}

	// Required: catalog repo URL
	cfg.CatalogRepoURL = os.Getenv("CATALOG_REPO_URL")
	if cfg.CatalogRepoURL == "" {
		return nil, fmt.Errorf("CATALOG_REPO_URL is required")
	}

	// Optional: branch and docs glob
	if v := os.Getenv("CATALOG_BRANCH"); v != "" {
		cfg.CatalogBranch = v
	}
	if v := os.Getenv("CATALOG_DOCS_GLOB"); v != "" {
		cfg.DocsGlob = v
	}

	// Optional: GitHub App credentials, all-or-nothing
	if err := loadGitHubApp(cfg); err != nil {
		return nil, err
	}

	// Required: webhook secret
	cfg.WebhookSecret = os.Getenv("WEBHOOK_SECRET")
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("WEBHOOK_SECRET is required")
	}

	// Optional: poll interval
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid POLL_INTERVAL: %w", err)
		}
		cfg.PollInterval = d
	}

	// Optional: clone timeout
	if v := os.Getenv("CLONE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CLONE_TIMEOUT: %w", err)
		}
		cfg.CloneTimeout = d
	}

	// Optional: data path
	if v := os.Getenv("DATA_PATH"); v != "" {
		cfg.DataPath = v
	}

	// Optional: cache size
	if v := os.Getenv("CACHE_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CACHE_SIZE: %w", err)
		}
		cfg.CacheSize = size
	}

	// Optional: validation worker count (0 means GOMAXPROCS)
	if v := os.Getenv("CATALOG_WORKERS"); v != "" {
		workers, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CATALOG_WORKERS: %w", err)
		}
		cfg.Workers = workers
	}

	// Optional: port
	cfg.Port = 8080
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		cfg.Port = port
	}

	// Optional: OTLP endpoint for tracing
	cfg.OTLPEndpoint = os.Getenv("OTLP_ENDPOINT")

	return cfg, nil
}

func loadGitHubApp(cfg *Config) error {
	appIDStr := os.Getenv("GITHUB_APP_ID")
	privateKeyPath := os.Getenv("GITHUB_APP_PRIVATE_KEY_PATH")
	privateKeyValue := os.Getenv("GITHUB_APP_PRIVATE_KEY")
	installIDStr := os.Getenv("GITHUB_INSTALLATION_ID")

	if appIDStr == "" && privateKeyPath == "" && privateKeyValue == "" && installIDStr == "" {
		return nil // anonymous clone
	}

	if appIDStr == "" {
		return fmt.Errorf("GITHUB_APP_ID is required when GitHub App auth is configured")
	}
	appID, err := strconv.ParseInt(appIDStr, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid GITHUB_APP_ID: %w", err)
	}
	cfg.GitHubAppID = appID

	// Private key can be provided as file path or direct value
	if privateKeyPath != "" {
		key, err := os.ReadFile(privateKeyPath)
		if err != nil {
			return fmt.Errorf("failed to read private key file: %w", err)
		}
		cfg.GitHubAppPrivateKey = key
	} else if privateKeyValue != "" {
		cfg.GitHubAppPrivateKey = []byte(privateKeyValue)
	} else {
		return fmt.Errorf("GITHUB_APP_PRIVATE_KEY or GITHUB_APP_PRIVATE_KEY_PATH is required when GitHub App auth is configured")
	}

	if installIDStr == "" {
		return fmt.Errorf("GITHUB_INSTALLATION_ID is required when GitHub App auth is configured")
	}
	installID, err := strconv.ParseInt(installIDStr, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid GITHUB_INSTALLATION_ID: %w", err)
	}
	cfg.GitHubInstallationID = installID

	return nil
}
