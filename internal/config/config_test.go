package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestLoad_DefaultWhenMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SaveThrottleMS != 500 {
		t.Fatalf("SaveThrottleMS = %d, want 500", cfg.SaveThrottleMS)
	}
	if cfg.MaxSearchResults != 100 {
		t.Fatalf("MaxSearchResults = %d, want 100", cfg.MaxSearchResults)
	}
	if cfg.SaveThrottle() != 500*time.Millisecond {
		t.Fatalf("SaveThrottle() = %v, want 500ms", cfg.SaveThrottle())
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"save_throttle_ms": 50, "log_level": "debug"}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SaveThrottleMS != 50 {
		t.Fatalf("SaveThrottleMS = %d, want 50", cfg.SaveThrottleMS)
	}
	if cfg.MaxSearchResults != 100 {
		t.Fatalf("MaxSearchResults = %d, want default 100", cfg.MaxSearchResults)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("SlogLevel() = %v, want debug", cfg.SlogLevel())
	}
}

func TestLoad_AcceptsCommentsAndTrailingCommas(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{
		// throttle writes harder on slow disks
		"save_throttle_ms": 900,
		"disabled_tools": ["prompt_import",],
	}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SaveThrottleMS != 900 {
		t.Errorf("SaveThrottleMS = %d, want 900", cfg.SaveThrottleMS)
	}
	if len(cfg.DisabledTools) != 1 || cfg.DisabledTools[0] != "prompt_import" {
		t.Errorf("DisabledTools = %v, want [prompt_import]", cfg.DisabledTools)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{not json}`)

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoadWithRepo_BothPresent(t *testing.T) {
	globalDir := t.TempDir()
	repoRoot := t.TempDir()

	writeConfig(t, globalDir, `{"max_search_results": 40, "disabled_tools": ["prompt_delete"]}`)
	writeConfig(t, filepath.Join(repoRoot, ".promptlib"), `{"max_search_results": 10, "disabled_tools": ["prompt_import"]}`)

	nested := filepath.Join(repoRoot, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	cfg, err := LoadWithRepo(globalDir, nested)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.MaxSearchResults != 10 {
		t.Errorf("MaxSearchResults = %d, want 10 (repo override)", cfg.MaxSearchResults)
	}
	if cfg.SaveThrottleMS != 500 {
		t.Errorf("SaveThrottleMS = %d, want default 500", cfg.SaveThrottleMS)
	}
	if len(cfg.DisabledTools) != 2 {
		t.Errorf("DisabledTools = %v, want merged [prompt_delete prompt_import]", cfg.DisabledTools)
	}
}

func TestLoadWithRepo_NoRepoConfig(t *testing.T) {
	globalDir := t.TempDir()
	writeConfig(t, globalDir, `{"save_throttle_ms": 250}`)

	cfg, err := LoadWithRepo(globalDir, t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.SaveThrottleMS != 250 {
		t.Errorf("SaveThrottleMS = %d, want 250", cfg.SaveThrottleMS)
	}
}

func TestMerge_DedupesArrays(t *testing.T) {
	base := &Config{AllowedPaths: []string{"/a", " /b "}}
	overlay := &Config{AllowedPaths: []string{"/b", "/c"}, AllowUnsafePaths: true}

	got := Merge(base, overlay)

	want := []string{"/a", "/b", "/c"}
	if len(got.AllowedPaths) != len(want) {
		t.Fatalf("AllowedPaths = %v, want %v", got.AllowedPaths, want)
	}
	for i := range want {
		if got.AllowedPaths[i] != want[i] {
			t.Errorf("AllowedPaths[%d] = %q, want %q", i, got.AllowedPaths[i], want[i])
		}
	}
	if !got.AllowUnsafePaths {
		t.Error("AllowUnsafePaths = false, want true")
	}
}

func TestSlogLevel_Unknown(t *testing.T) {
	cfg := &Config{LogLevel: "chatty"}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Errorf("SlogLevel() = %v, want info", cfg.SlogLevel())
	}
}
