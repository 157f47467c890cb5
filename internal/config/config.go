package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
type Config struct {
	// APIBaseURL is the library service root, e.g. https://library.example.com/api
	APIBaseURL string

	// RequestTimeout bounds every remote call.
	RequestTimeout time.Duration

	// ScanBridgeAddr is the listen address for the scanner bridge,
	// empty disables the bridge.
	ScanBridgeAddr string

	// CachePath is the SQLite file holding the session and offline
	// snapshots.
	CachePath string

	// UseStubService runs against the in-memory fake instead of a real
	// server.
	UseStubService bool

	Debug bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	config := &Config{}

	config.UseStubService = os.Getenv("BOOKDESK_USE_STUB") == "true"

	// API base URL (required unless running against the stub)
	config.APIBaseURL = os.Getenv("BOOKDESK_API_URL")
	if config.APIBaseURL == "" && !config.UseStubService {
		return nil, fmt.Errorf("BOOKDESK_API_URL is required")
	}

	// Request timeout (default: 15s)
	config.RequestTimeout = 15 * time.Second
	if timeoutStr := os.Getenv("BOOKDESK_REQUEST_TIMEOUT"); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, fmt.Errorf("invalid BOOKDESK_REQUEST_TIMEOUT: %w", err)
		}
		config.RequestTimeout = timeout
	}

	// Scanner bridge listen address (default: off)
	config.ScanBridgeAddr = os.Getenv("BOOKDESK_SCAN_ADDR")
	if portStr := os.Getenv("BOOKDESK_SCAN_PORT"); portStr != "" && config.ScanBridgeAddr == "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid BOOKDESK_SCAN_PORT: %w", err)
		}
		config.ScanBridgeAddr = fmt.Sprintf("127.0.0.1:%d", port)
	}

	// Local cache file (default: bookdesk.db in the user cache dir)
	config.CachePath = os.Getenv("BOOKDESK_CACHE_PATH")
	if config.CachePath == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("cannot resolve cache dir, set BOOKDESK_CACHE_PATH: %w", err)
		}
		config.CachePath = dir + "/bookdesk/bookdesk.db"
	}

	config.Debug = os.Getenv("BOOKDESK_DEBUG") == "true"

	return config, nil
}
