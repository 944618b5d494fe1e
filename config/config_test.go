package config

import (
	"path/filepath"
	"testing"
)

func TestLoadDefaultConfig(t *testing.T) {
	opts := GetDefaultOptions()
	opts.Data = t.TempDir()

	if opts.Port != defaultPort {
		t.Errorf("Port not set")
	}
	if opts.PageCap != defaultPageCap {
		t.Errorf("PageCap not set")
	}
	if opts.MaxUploadSize != defaultMaxUploadSize {
		t.Errorf("MaxUploadSize not set")
	}
}

func TestLoadConfigFile(t *testing.T) {
	GetDefaultOptions()
	opts, err := ParseFile("config_test.toml")
	if err != nil {
		t.Errorf("Error loading config: %s", err)
	}
	if opts.Host != "127.0.0.1" {
		t.Errorf("Host not set")
	}
	if opts.Port != 2333 {
		t.Errorf("Port not set")
	}
	if opts.LogFile != "test.log" {
		t.Errorf("LogFile not set")
	}
	if opts.PageCap != 50 {
		t.Errorf("PageCap not set")
	}
}

func TestEffectivePageCap(t *testing.T) {
	opts := GetDefaultOptions()

	opts.PageCap = 0
	if got := opts.EffectivePageCap(); got != defaultPageCap {
		t.Errorf("zero cap: got %d, want %d", got, defaultPageCap)
	}

	opts.PageCap = 500
	if got := opts.EffectivePageCap(); got != 500 {
		t.Errorf("valid cap: got %d, want 500", got)
	}

	opts.PageCap = MaxPageCap * 3
	if got := opts.EffectivePageCap(); got != MaxPageCap {
		t.Errorf("over ceiling: got %d, want %d", got, MaxPageCap)
	}
}

func TestStoragePaths(t *testing.T) {
	opts := GetDefaultOptions()
	opts.Data = t.TempDir()

	if err := opts.EnsureStorage(); err != nil {
		t.Fatalf("EnsureStorage: %v", err)
	}

	want := filepath.Join(opts.Data, "pages", "42")
	if got := opts.PagesDir(42); got != want {
		t.Errorf("PagesDir: got %s, want %s", got, want)
	}
}
