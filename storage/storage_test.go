package storage

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Version != 1 {
		t.Errorf("expected version 1, got %d", config.Version)
	}
	if config.Core.Path != "pattern" {
		t.Errorf("expected core path 'pattern', got '%s'", config.Core.Path)
	}
	if config.Audio.Volume != 1.0 {
		t.Errorf("expected volume 1.0, got %f", config.Audio.Volume)
	}
	if config.Timing.FPS != 0 {
		t.Errorf("expected fps 0 (core rate), got %d", config.Timing.FPS)
	}
	if !config.Timing.LockThread {
		t.Error("expected lockThread on by default")
	}
	if errs := ValidateConfig(config); len(errs) != 0 {
		t.Errorf("default config does not validate: %v", errs)
	}
}

func TestGetBaseDirXDG(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("XDG_DATA_HOME is only consulted on Unix-like systems")
	}
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	Init("mednes-test")

	base, err := GetBaseDir()
	if err != nil {
		t.Fatalf("GetBaseDir failed: %v", err)
	}
	if want := filepath.Join(dir, "mednes-test"); base != want {
		t.Errorf("GetBaseDir() = %q, want %q", base, want)
	}

	if err := EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, get := range []func() (string, error){GetSystemDir, GetSaveDir, GetScreenshotDir} {
		p, err := get()
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(p, base) {
			t.Errorf("%q is outside the base directory", p)
		}
		if info, err := os.Stat(p); err != nil || !info.IsDir() {
			t.Errorf("%q was not created: %v", p, err)
		}
	}

	cfg, err := GetConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(cfg) != "config.json" {
		t.Errorf("GetConfigPath() = %q", cfg)
	}
}

func TestAtomicWriteJSON(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "nested", "test.json")

	data := struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}{
		Name:  "test",
		Value: 42,
	}

	if err := AtomicWriteJSON(path, data); err != nil {
		t.Fatalf("AtomicWriteJSON failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("file not created: %v", err)
	}
	if !strings.Contains(string(raw), `"value": 42`) {
		t.Errorf("unexpected content: %s", raw)
	}

	// Verify temp file is cleaned up
	tmpPath := path + ".tmp"
	if _, err := os.Stat(tmpPath); !os.IsNotExist(err) {
		t.Error("temp file was not cleaned up")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Video.Scale != DefaultConfig().Video.Scale {
		t.Errorf("expected defaults, got %+v", config.Video)
	}
}

func TestLoadConfigCorrupted(t *testing.T) {
	for _, name := range []string{"bad.json", "bad.yaml"} {
		path := filepath.Join(t.TempDir(), name)
		if err := os.WriteFile(path, []byte("{not: [valid"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Errorf("%s: expected a parse error", name)
		}
	}
}

func TestLoadConfigAbsentKeysKeepDefaults(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"json", "config.json", `{"audio": {"volume": 0}, "timing": {"fps": 50}}`},
		{"yaml", "config.yaml", "audio:\n  volume: 0\ntiming:\n  fps: 50\n"},
		{"yml", "config.yml", "audio:\n  volume: 0\ntiming:\n  fps: 50\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tc.file)
			if err := os.WriteFile(path, []byte(tc.content), 0644); err != nil {
				t.Fatal(err)
			}
			config, err := LoadConfig(path)
			if err != nil {
				t.Fatalf("LoadConfig failed: %v", err)
			}
			defaults := DefaultConfig()

			// Present keys win, even when zero.
			if config.Audio.Volume != 0 {
				t.Errorf("audio.volume should remain 0, got %f", config.Audio.Volume)
			}
			if config.Timing.FPS != 50 {
				t.Errorf("timing.fps: got %d, want 50", config.Timing.FPS)
			}

			// Absent keys, including siblings in a present section.
			if config.Audio.SampleRate != defaults.Audio.SampleRate {
				t.Errorf("audio.sampleRate: got %d, want %d", config.Audio.SampleRate, defaults.Audio.SampleRate)
			}
			if config.Timing.AudioWindow != defaults.Timing.AudioWindow {
				t.Errorf("timing.audioWindow: got %d, want %d", config.Timing.AudioWindow, defaults.Timing.AudioWindow)
			}
			if config.Timing.LockThread != defaults.Timing.LockThread {
				t.Errorf("timing.lockThread: got %v, want %v", config.Timing.LockThread, defaults.Timing.LockThread)
			}
			if config.Core.Path != defaults.Core.Path {
				t.Errorf("core.path: got %q, want %q", config.Core.Path, defaults.Core.Path)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, name := range []string{"config.json", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			config := DefaultConfig()
			config.Core.Path = "/usr/lib/libretro/fceumm_libretro.so"
			config.Video.Fullscreen = true
			config.Input.P1Keyboard = map[string]string{"A": "Z"}
			config.Observability.WebSocketAddr = "127.0.0.1:8090"

			if err := SaveConfig(path, config); err != nil {
				t.Fatalf("SaveConfig failed: %v", err)
			}
			loaded, err := LoadConfig(path)
			if err != nil {
				t.Fatalf("LoadConfig failed: %v", err)
			}
			if loaded.Core.Path != config.Core.Path {
				t.Errorf("core.path: got %q", loaded.Core.Path)
			}
			if !loaded.Video.Fullscreen {
				t.Error("video.fullscreen lost")
			}
			if loaded.Input.P1Keyboard["A"] != "Z" {
				t.Errorf("input.p1Keyboard: got %v", loaded.Input.P1Keyboard)
			}
			if loaded.Observability.WebSocketAddr != "127.0.0.1:8090" {
				t.Errorf("observability.webSocketAddr: got %q", loaded.Observability.WebSocketAddr)
			}
		})
	}
}

func TestSaveConfigYAMLIsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := SaveConfig(path, DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.HasPrefix(strings.TrimSpace(string(raw)), "{") {
		t.Errorf("expected YAML, got JSON:\n%s", raw)
	}
	if !strings.Contains(string(raw), "spinThresholdUs: 1000") {
		t.Errorf("expected camelCase keys:\n%s", raw)
	}
}

func TestCreateConfigIfMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := CreateConfigIfMissing(path); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not created: %v", err)
	}

	// An existing file is left alone.
	if err := os.WriteFile(path, []byte(`{"version": 1, "video": {"scale": 5}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := CreateConfigIfMissing(path); err != nil {
		t.Fatal(err)
	}
	config, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if config.Video.Scale != 5 {
		t.Errorf("existing config overwritten: scale %d", config.Video.Scale)
	}
}
