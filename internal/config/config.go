package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	ServerBaseURL string
	ServerWSURL   string

	PlayerName string
	AuthToken  string

	SnapshotDir string
	WordlistDir string

	// 0 disables automatic reconnection; the default posture is to stay
	// down and let the caller re-establish with fresh snapshots.
	ReconnectAttempts int
	GuessInterval     time.Duration
	StrokeSize        int
}

// Load reads configuration from the environment, preloading a .env file when
// one is present. Existing environment variables win over the file.
func Load() (*AppConfig, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := &AppConfig{
		PlayerName:    "scribl-bot",
		SnapshotDir:   "snapshots",
		GuessInterval: 5 * time.Second,
		StrokeSize:    5,
	}

	cfg.ServerBaseURL = strings.TrimSpace(os.Getenv("SCRIBL_BASE_URL"))
	cfg.ServerWSURL = strings.TrimSpace(os.Getenv("SCRIBL_WS_URL"))
	cfg.AuthToken = strings.TrimSpace(os.Getenv("SCRIBL_AUTH_TOKEN"))

	if v := strings.TrimSpace(os.Getenv("SCRIBL_PLAYER_NAME")); v != "" {
		cfg.PlayerName = v
	}
	if v := strings.TrimSpace(os.Getenv("SCRIBL_SNAPSHOT_DIR")); v != "" {
		cfg.SnapshotDir = v
	}
	cfg.WordlistDir = strings.TrimSpace(os.Getenv("SCRIBL_WORDLIST_DIR"))

	if v := strings.TrimSpace(os.Getenv("SCRIBL_RECONNECT_ATTEMPTS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.ReconnectAttempts = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("SCRIBL_GUESS_INTERVAL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.GuessInterval = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("SCRIBL_STROKE_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.StrokeSize = n
		}
	}

	if cfg.ServerBaseURL == "" {
		return nil, errors.New("SCRIBL_BASE_URL is required")
	}
	if cfg.ServerWSURL == "" {
		return nil, errors.New("SCRIBL_WS_URL is required")
	}

	return cfg, nil
}

// loadDotEnv loads path if it exists; already-set variables are preserved.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}
