package storage

import (
	"fmt"
)

const (
	minScale         = 1
	maxScale         = 8
	minSampleRate    = 8000
	maxSampleRate    = 192000
	minFPS           = 24
	maxFPS           = 240
	maxSpinUS        = 10000
	minAudioWindow   = 64
	maxAudioWindow   = 16384
	minAudioIdleUS   = 100
	maxAudioIdleUS   = 100000
	minJoinTimeoutMS = 50
	maxJoinTimeoutMS = 30000
)

// ValidateConfig checks all config fields against valid ranges and returns
// human-readable error descriptions. An empty slice means the config is valid.
func ValidateConfig(config *Config) []string {
	var errors []string

	if config.Version != 1 {
		errors = append(errors, fmt.Sprintf("version: %d (valid: 1)", config.Version))
	}

	if config.Video.Scale < minScale || config.Video.Scale > maxScale {
		errors = append(errors, fmt.Sprintf("video.scale: %d (valid: %d-%d)", config.Video.Scale, minScale, maxScale))
	}
	if config.Video.ScreenshotScale < minScale || config.Video.ScreenshotScale > maxScale {
		errors = append(errors, fmt.Sprintf("video.screenshotScale: %d (valid: %d-%d)", config.Video.ScreenshotScale, minScale, maxScale))
	}

	if config.Audio.Volume < 0 || config.Audio.Volume > 2.0 {
		errors = append(errors, fmt.Sprintf("audio.volume: %.2f (valid: 0.0-2.0)", config.Audio.Volume))
	}
	if config.Audio.SampleRate < minSampleRate || config.Audio.SampleRate > maxSampleRate {
		errors = append(errors, fmt.Sprintf("audio.sampleRate: %d (valid: %d-%d)", config.Audio.SampleRate, minSampleRate, maxSampleRate))
	}

	// timing.fps: 0 defers to the core
	if config.Timing.FPS != 0 && (config.Timing.FPS < minFPS || config.Timing.FPS > maxFPS) {
		errors = append(errors, fmt.Sprintf("timing.fps: %d (valid: 0 or %d-%d)", config.Timing.FPS, minFPS, maxFPS))
	}
	if config.Timing.SpinThresholdUS < 0 || config.Timing.SpinThresholdUS > maxSpinUS {
		errors = append(errors, fmt.Sprintf("timing.spinThresholdUs: %d (valid: 0-%d)", config.Timing.SpinThresholdUS, maxSpinUS))
	}
	if config.Timing.AudioWindow < minAudioWindow || config.Timing.AudioWindow > maxAudioWindow {
		errors = append(errors, fmt.Sprintf("timing.audioWindow: %d (valid: %d-%d)", config.Timing.AudioWindow, minAudioWindow, maxAudioWindow))
	}
	if config.Timing.AudioIdleUS < minAudioIdleUS || config.Timing.AudioIdleUS > maxAudioIdleUS {
		errors = append(errors, fmt.Sprintf("timing.audioIdleUs: %d (valid: %d-%d)", config.Timing.AudioIdleUS, minAudioIdleUS, maxAudioIdleUS))
	}
	if config.Timing.JoinTimeoutMS < minJoinTimeoutMS || config.Timing.JoinTimeoutMS > maxJoinTimeoutMS {
		errors = append(errors, fmt.Sprintf("timing.joinTimeoutMs: %d (valid: %d-%d)", config.Timing.JoinTimeoutMS, minJoinTimeoutMS, maxJoinTimeoutMS))
	}

	if config.Observability.ReportInterval < 1 {
		errors = append(errors, fmt.Sprintf("observability.reportIntervalSec: %d (valid: >= 1)", config.Observability.ReportInterval))
	}

	return errors
}

// CorrectConfig resets any invalid fields to their defaults from DefaultConfig().
// Valid fields are preserved.
func CorrectConfig(config *Config) *Config {
	defaults := DefaultConfig()

	if config.Version != 1 {
		config.Version = defaults.Version
	}

	if config.Video.Scale < minScale || config.Video.Scale > maxScale {
		config.Video.Scale = defaults.Video.Scale
	}
	if config.Video.ScreenshotScale < minScale || config.Video.ScreenshotScale > maxScale {
		config.Video.ScreenshotScale = defaults.Video.ScreenshotScale
	}

	if config.Audio.Volume < 0 || config.Audio.Volume > 2.0 {
		config.Audio.Volume = defaults.Audio.Volume
	}
	if config.Audio.SampleRate < minSampleRate || config.Audio.SampleRate > maxSampleRate {
		config.Audio.SampleRate = defaults.Audio.SampleRate
	}

	if config.Timing.FPS != 0 && (config.Timing.FPS < minFPS || config.Timing.FPS > maxFPS) {
		config.Timing.FPS = defaults.Timing.FPS
	}
	if config.Timing.SpinThresholdUS < 0 || config.Timing.SpinThresholdUS > maxSpinUS {
		config.Timing.SpinThresholdUS = defaults.Timing.SpinThresholdUS
	}
	if config.Timing.AudioWindow < minAudioWindow || config.Timing.AudioWindow > maxAudioWindow {
		config.Timing.AudioWindow = defaults.Timing.AudioWindow
	}
	if config.Timing.AudioIdleUS < minAudioIdleUS || config.Timing.AudioIdleUS > maxAudioIdleUS {
		config.Timing.AudioIdleUS = defaults.Timing.AudioIdleUS
	}
	if config.Timing.JoinTimeoutMS < minJoinTimeoutMS || config.Timing.JoinTimeoutMS > maxJoinTimeoutMS {
		config.Timing.JoinTimeoutMS = defaults.Timing.JoinTimeoutMS
	}

	if config.Observability.ReportInterval < 1 {
		config.Observability.ReportInterval = defaults.Observability.ReportInterval
	}

	return config
}
