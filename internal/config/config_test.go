package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.Currency != "$" {
		t.Fatalf("currency = %q, want $", cfg.General.Currency)
	}
	if cfg.Quiescence() != 2*time.Second {
		t.Fatalf("quiescence = %v, want 2s", cfg.Quiescence())
	}
	if cfg.SavingFlash() != 500*time.Millisecond {
		t.Fatalf("saving flash = %v, want 500ms", cfg.SavingFlash())
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.General.DBPath = "/tmp/elsewhere.db"
	cfg.Editing.QuiescenceMS = 750

	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Fatal("config file not written")
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.General.DBPath != "/tmp/elsewhere.db" {
		t.Fatalf("db path = %q", got.General.DBPath)
	}
	if got.Quiescence() != 750*time.Millisecond {
		t.Fatalf("quiescence = %v, want 750ms", got.Quiescence())
	}
}

func TestDBPathDefault(t *testing.T) {
	data := t.TempDir()
	t.Setenv("XDG_DATA_HOME", data)

	cfg := DefaultConfig()
	want := filepath.Join(data, "perdiem", "perdiem.db")
	if got := cfg.DBPath(); got != want {
		t.Fatalf("DBPath = %q, want %q", got, want)
	}

	cfg.General.DBPath = "/custom/path.db"
	if got := cfg.DBPath(); got != "/custom/path.db" {
		t.Fatalf("DBPath override = %q", got)
	}
}
