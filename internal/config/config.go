package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	DatabaseURL string // MC_DATABASE_URL (required)
	HTTPAddr    string // MC_HTTP_ADDR (default ":8080")
	NATSURL     string // MC_NATS_URL (optional, empty = no events)
	AuthToken   string // MC_AUTH_TOKEN (optional, empty = auth disabled)

	// Externally reachable base URL advertised to provisioned agents.
	BaseURL string // MC_BASE_URL

	// Gateway workspace settings
	WorkspaceRoot string // MC_WORKSPACE_ROOT (default "~/.openclaw/workspaces")

	// Snapshot export settings
	SnapshotInterval   time.Duration // MC_SNAPSHOT_INTERVAL (default 3m; 0 = disabled)
	SnapshotS3Bucket   string        // MC_SNAPSHOT_S3_BUCKET (enables S3 when set)
	SnapshotS3Endpoint string        // MC_SNAPSHOT_S3_ENDPOINT (custom endpoint for MinIO)
	SnapshotS3Region   string        // MC_SNAPSHOT_S3_REGION (default "us-east-1")
	SnapshotS3Key      string        // MC_SNAPSHOT_S3_KEY (default "missionctl/backup.jsonl")
	SnapshotGitRepo    string        // MC_SNAPSHOT_GIT_REPO (enables git when set; path to clone)
	SnapshotGitFile    string        // MC_SNAPSHOT_GIT_FILE (default "missionctl.jsonl")
	SnapshotGitBranch  string        // MC_SNAPSHOT_GIT_BRANCH (default "main")
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:        os.Getenv("MC_DATABASE_URL"),
		HTTPAddr:           envOrDefault("MC_HTTP_ADDR", ":8080"),
		NATSURL:            os.Getenv("MC_NATS_URL"),
		AuthToken:          os.Getenv("MC_AUTH_TOKEN"),
		BaseURL:            os.Getenv("MC_BASE_URL"),
		WorkspaceRoot:      envOrDefault("MC_WORKSPACE_ROOT", "~/.openclaw/workspaces"),
		SnapshotS3Bucket:   os.Getenv("MC_SNAPSHOT_S3_BUCKET"),
		SnapshotS3Endpoint: os.Getenv("MC_SNAPSHOT_S3_ENDPOINT"),
		SnapshotS3Region:   envOrDefault("MC_SNAPSHOT_S3_REGION", "us-east-1"),
		SnapshotS3Key:      envOrDefault("MC_SNAPSHOT_S3_KEY", "missionctl/backup.jsonl"),
		SnapshotGitRepo:    os.Getenv("MC_SNAPSHOT_GIT_REPO"),
		SnapshotGitFile:    envOrDefault("MC_SNAPSHOT_GIT_FILE", "missionctl.jsonl"),
		SnapshotGitBranch:  envOrDefault("MC_SNAPSHOT_GIT_BRANCH", "main"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("MC_DATABASE_URL is required")
	}

	intervalStr := envOrDefault("MC_SNAPSHOT_INTERVAL", "3m")
	if intervalStr != "" {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("MC_SNAPSHOT_INTERVAL: %w", err)
		}
		c.SnapshotInterval = d
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
