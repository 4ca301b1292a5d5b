package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	emucore "github.com/Zash60/MedNES/api"
	"github.com/Zash60/MedNES/audio"
	"github.com/Zash60/MedNES/pattern"
	"github.com/Zash60/MedNES/romloader"
	"github.com/Zash60/MedNES/storage"
)

func TestParseExtensions(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"nes|fds", []string{".nes", ".fds"}},
		{"NES| unf |", []string{".nes", ".unf"}},
		{".nes", []string{".nes"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := parseExtensions(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseExtensions(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExtensionsOr(t *testing.T) {
	if got := extensionsOr([]string{"NES", ".fds"}, nil); !reflect.DeepEqual(got, []string{".nes", ".fds"}) {
		t.Errorf("configured extensions = %v", got)
	}
	if got := extensionsOr(nil, []string{".unf"}); !reflect.DeepEqual(got, []string{".unf"}) {
		t.Errorf("fallback = %v", got)
	}
	if got := extensionsOr(nil, nil); !reflect.DeepEqual(got, romloader.DefaultExtensions) {
		t.Errorf("default = %v", got)
	}
}

func TestOpenCoreBuiltin(t *testing.T) {
	for _, path := range []string{"", "pattern"} {
		cfg := storage.DefaultConfig()
		cfg.Core.Path = path
		core, exts, err := openCore(cfg)
		if err != nil {
			t.Fatalf("openCore(%q) = %v", path, err)
		}
		if _, ok := core.(*pattern.Core); !ok {
			t.Errorf("openCore(%q) = %T, want the pattern core", path, core)
		}
		if !reflect.DeepEqual(exts, romloader.DefaultExtensions) {
			t.Errorf("extensions = %v", exts)
		}
	}
}

func TestOpenCoreMissingLibrary(t *testing.T) {
	cfg := storage.DefaultConfig()
	cfg.Core.Path = filepath.Join(t.TempDir(), "missing_libretro.so")
	if _, _, err := openCore(cfg); err == nil {
		t.Error("openCore succeeded for a missing library")
	}
}

func TestOpenSink(t *testing.T) {
	format := emucore.DefaultAudioFormat

	cfg := storage.DefaultConfig()
	wav := filepath.Join(t.TempDir(), "out.wav")
	s, err := openSink(cfg, wav, false, format)
	if err != nil {
		t.Fatalf("openSink(wav) = %v", err)
	}
	if _, ok := s.(*audio.WAVSink); !ok {
		t.Errorf("openSink(wav) = %T, want *audio.WAVSink", s)
	}
	s.Close()

	cfg.Audio.Muted = true
	s, err = openSink(cfg, "", false, format)
	if err != nil {
		t.Fatalf("openSink(muted) = %v", err)
	}
	if _, ok := s.(*audio.Pacer); !ok {
		t.Errorf("openSink(muted) = %T, want *audio.Pacer", s)
	}
	s.Close()
}

func TestDriverConfig(t *testing.T) {
	cfg := storage.DefaultConfig()
	cfg.Timing.FPS = 50
	dc := driverConfig(cfg, []string{".nes"})
	if dc.FPS != 50 {
		t.Errorf("FPS = %d", dc.FPS)
	}
	if dc.SpinThreshold != time.Millisecond {
		t.Errorf("SpinThreshold = %v", dc.SpinThreshold)
	}
	if dc.AudioIdle != 2*time.Millisecond {
		t.Errorf("AudioIdle = %v", dc.AudioIdle)
	}
	if dc.JoinTimeout != time.Second {
		t.Errorf("JoinTimeout = %v", dc.JoinTimeout)
	}
	if dc.AudioWindow != 1024 || len(dc.Extensions) != 1 {
		t.Errorf("config = %+v", dc)
	}
}

func TestRunHeadless(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	storage.Init("mednes-test")

	rom := filepath.Join(dir, "test.nes")
	data := append([]byte("NES\x1a\x01\x00"), make([]byte, 10+16384)...)
	if err := os.WriteFile(rom, data, 0644); err != nil {
		t.Fatal(err)
	}
	wav := filepath.Join(dir, "out.wav")

	err := run(options{
		configPath: filepath.Join(dir, "absent.yaml"),
		corePath:   "pattern",
		headless:   true,
		frames:     30,
		duration:   5 * time.Second,
		wavPath:    wav,
		romPath:    rom,
	})
	if err != nil {
		t.Fatalf("run() = %v", err)
	}
	info, err := os.Stat(wav)
	if err != nil {
		t.Fatalf("no recording: %v", err)
	}
	// 30 frames of 735 samples, 2 bytes each, plus the header.
	if info.Size() < 44+2*735*20 {
		t.Errorf("recording is %d bytes", info.Size())
	}
}

func TestLoadConfigCreatesDefault(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	storage.Init("mednes-test")

	cfg := loadConfig(options{mute: true})
	if !cfg.Audio.Muted {
		t.Error("-mute not applied")
	}
	path, err := storage.GetConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	saved, err := storage.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() = %v", err)
	}
	if saved.Audio.Muted {
		t.Error("flag override was written to the config file")
	}
	if saved.Video.Scale != storage.DefaultConfig().Video.Scale {
		t.Errorf("saved scale = %d", saved.Video.Scale)
	}
}

func TestRunHeadlessRequiresROM(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	storage.Init("mednes-test")
	if err := run(options{headless: true, corePath: "pattern"}); err == nil {
		t.Error("run() without a ROM succeeded")
	}
}
