package config

import "testing"

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("MC_DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail without MC_DATABASE_URL")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MC_DATABASE_URL", "postgres://localhost/mc")
	t.Setenv("MC_HTTP_ADDR", "")
	t.Setenv("MC_SNAPSHOT_INTERVAL", "")
	t.Setenv("MC_WORKSPACE_ROOT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.WorkspaceRoot != "~/.openclaw/workspaces" {
		t.Errorf("WorkspaceRoot = %q", cfg.WorkspaceRoot)
	}
	if cfg.SnapshotInterval.Minutes() != 3 {
		t.Errorf("SnapshotInterval = %v, want 3m", cfg.SnapshotInterval)
	}
	if cfg.SnapshotS3Key != "missionctl/backup.jsonl" {
		t.Errorf("SnapshotS3Key = %q", cfg.SnapshotS3Key)
	}
}

func TestLoad_BadInterval(t *testing.T) {
	t.Setenv("MC_DATABASE_URL", "postgres://localhost/mc")
	t.Setenv("MC_SNAPSHOT_INTERVAL", "banana")
	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject an unparseable interval")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MC_DATABASE_URL", "postgres://localhost/mc")
	t.Setenv("MC_HTTP_ADDR", ":9999")
	t.Setenv("MC_BASE_URL", "https://mc.example.com")
	t.Setenv("MC_SNAPSHOT_INTERVAL", "90s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.BaseURL != "https://mc.example.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.SnapshotInterval.Seconds() != 90 {
		t.Errorf("SnapshotInterval = %v", cfg.SnapshotInterval)
	}
}
