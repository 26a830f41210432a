package model

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Sync.PollIntervalSec != 15 {
		t.Errorf("PollIntervalSec = %d, want 15", cfg.Sync.PollIntervalSec)
	}
	if cfg.Sync.SettleDelaySec != 2 {
		t.Errorf("SettleDelaySec = %d, want 2", cfg.Sync.SettleDelaySec)
	}
	if cfg.Sync.FreshnessSec != 30 {
		t.Errorf("FreshnessSec = %d, want 30", cfg.Sync.FreshnessSec)
	}
	if cfg.Sync.PageSize != 20 {
		t.Errorf("PageSize = %d, want 20", cfg.Sync.PageSize)
	}
	if cfg.ClientID == "" {
		t.Error("ClientID not generated for a fresh install")
	}

	// The generated client ID must have been persisted.
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config not written back: %v", err)
	}
}

func TestClientIDStableAcrossLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	first, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("first LoadConfig: %v", err)
	}
	second, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("second LoadConfig: %v", err)
	}

	if first.ClientID != second.ClientID {
		t.Errorf("ClientID changed across loads: %q != %q",
			first.ClientID, second.ClientID)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	want := defaultAppConfig()
	want.ClientID = "fixed-id"
	want.Server.BaseURL = "https://api.example.com"
	want.Sync.PollIntervalSec = 60
	want.Archive.Enabled = false

	if err := SaveConfig(path, want); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if got.ClientID != "fixed-id" {
		t.Errorf("ClientID = %q", got.ClientID)
	}
	if got.Server.BaseURL != want.Server.BaseURL {
		t.Errorf("BaseURL = %q, want %q", got.Server.BaseURL, want.Server.BaseURL)
	}
	if got.Sync.PollIntervalSec != 60 {
		t.Errorf("PollIntervalSec = %d, want 60", got.Sync.PollIntervalSec)
	}
	if got.Archive.Enabled {
		t.Error("Archive.Enabled = true, want false")
	}
}
