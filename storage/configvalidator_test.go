package storage

import (
	"testing"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"invalid version", func(c *Config) { c.Version = 99 }},
		{"scale zero", func(c *Config) { c.Video.Scale = 0 }},
		{"scale too large", func(c *Config) { c.Video.Scale = 9 }},
		{"screenshot scale negative", func(c *Config) { c.Video.ScreenshotScale = -1 }},
		{"volume negative", func(c *Config) { c.Audio.Volume = -0.1 }},
		{"volume too loud", func(c *Config) { c.Audio.Volume = 2.5 }},
		{"sample rate too low", func(c *Config) { c.Audio.SampleRate = 100 }},
		{"fps too low", func(c *Config) { c.Timing.FPS = 10 }},
		{"fps too high", func(c *Config) { c.Timing.FPS = 1000 }},
		{"spin negative", func(c *Config) { c.Timing.SpinThresholdUS = -1 }},
		{"audio window tiny", func(c *Config) { c.Timing.AudioWindow = 1 }},
		{"audio idle zero", func(c *Config) { c.Timing.AudioIdleUS = 0 }},
		{"join timeout zero", func(c *Config) { c.Timing.JoinTimeoutMS = 0 }},
		{"report interval zero", func(c *Config) { c.Observability.ReportInterval = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultConfig()
			tc.mutate(config)
			if errs := ValidateConfig(config); len(errs) != 1 {
				t.Errorf("expected exactly one error, got %v", errs)
			}
		})
	}

	t.Run("boundaries are valid", func(t *testing.T) {
		config := DefaultConfig()
		config.Video.Scale = 8
		config.Audio.Volume = 0
		config.Timing.FPS = 50
		config.Timing.SpinThresholdUS = 0
		if errs := ValidateConfig(config); len(errs) != 0 {
			t.Errorf("expected no errors, got %v", errs)
		}
	})
}

func TestCorrectConfig(t *testing.T) {
	t.Run("invalid fields reset to defaults", func(t *testing.T) {
		config := DefaultConfig()
		config.Video.Scale = 42
		config.Audio.Volume = 9
		config.Timing.FPS = 5
		config.Timing.AudioWindow = 0
		config.Timing.JoinTimeoutMS = -1

		CorrectConfig(config)

		defaults := DefaultConfig()
		if config.Video.Scale != defaults.Video.Scale {
			t.Errorf("video.scale: got %d, want %d", config.Video.Scale, defaults.Video.Scale)
		}
		if config.Audio.Volume != defaults.Audio.Volume {
			t.Errorf("audio.volume: got %f, want %f", config.Audio.Volume, defaults.Audio.Volume)
		}
		if config.Timing.FPS != defaults.Timing.FPS {
			t.Errorf("timing.fps: got %d, want %d", config.Timing.FPS, defaults.Timing.FPS)
		}
		if config.Timing.AudioWindow != defaults.Timing.AudioWindow {
			t.Errorf("timing.audioWindow: got %d, want %d", config.Timing.AudioWindow, defaults.Timing.AudioWindow)
		}
		if config.Timing.JoinTimeoutMS != defaults.Timing.JoinTimeoutMS {
			t.Errorf("timing.joinTimeoutMs: got %d, want %d", config.Timing.JoinTimeoutMS, defaults.Timing.JoinTimeoutMS)
		}
		if errs := ValidateConfig(config); len(errs) != 0 {
			t.Errorf("corrected config still invalid: %v", errs)
		}
	})

	t.Run("valid fields preserved", func(t *testing.T) {
		config := DefaultConfig()
		config.Video.Scale = 5
		config.Audio.Volume = 0
		config.Timing.FPS = 75
		config.Core.Path = "/opt/cores/nestopia_libretro.so"

		CorrectConfig(config)

		if config.Video.Scale != 5 {
			t.Errorf("video.scale should remain 5, got %d", config.Video.Scale)
		}
		if config.Audio.Volume != 0 {
			t.Errorf("audio.volume should remain 0, got %f", config.Audio.Volume)
		}
		if config.Timing.FPS != 75 {
			t.Errorf("timing.fps should remain 75, got %d", config.Timing.FPS)
		}
		if config.Core.Path != "/opt/cores/nestopia_libretro.so" {
			t.Errorf("core.path changed to %q", config.Core.Path)
		}
	})
}
