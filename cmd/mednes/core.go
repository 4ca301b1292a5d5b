package main

import (
	"fmt"
	"log"
	"strings"
	"time"

	emucore "github.com/Zash60/MedNES/api"
	"github.com/Zash60/MedNES/audio"
	"github.com/Zash60/MedNES/driver"
	"github.com/Zash60/MedNES/libretro"
	"github.com/Zash60/MedNES/pattern"
	"github.com/Zash60/MedNES/romloader"
	"github.com/Zash60/MedNES/storage"
)

// builtinCore is the core path that selects the pattern core.
const builtinCore = "pattern"

// openCore opens the configured core and returns the image extensions it
// accepts inside archives.
func openCore(cfg *storage.Config) (emucore.Core, []string, error) {
	path := cfg.Core.Path
	if path == "" || path == builtinCore {
		log.Printf("Using the built-in pattern core")
		return pattern.New(), extensionsOr(cfg.Core.Extensions, romloader.DefaultExtensions), nil
	}

	systemDir, saveDir := cfg.Core.SystemDir, cfg.Core.SaveDir
	if systemDir == "" {
		systemDir, _ = storage.GetSystemDir()
	}
	if saveDir == "" {
		saveDir, _ = storage.GetSaveDir()
	}
	core, err := libretro.Open(path, libretro.Options{
		SystemDir:  systemDir,
		SaveDir:    saveDir,
		SampleRate: cfg.Audio.SampleRate,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open core %s: %w", path, err)
	}
	log.Printf("Loaded core %s", core.Name())
	return core, extensionsOr(cfg.Core.Extensions, parseExtensions(core.Extensions())), nil
}

// parseExtensions turns a libretro "nes|fds" list into dotted extensions.
func parseExtensions(list string) []string {
	var exts []string
	for _, e := range strings.Split(list, "|") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return exts
}

func extensionsOr(exts, fallback []string) []string {
	if len(exts) > 0 {
		return parseExtensions(strings.Join(exts, "|"))
	}
	if len(fallback) > 0 {
		return fallback
	}
	return romloader.DefaultExtensions
}

type sink interface {
	driver.AudioSink
	Close() error
}

// openSink picks the audio output: a WAV recording when wavPath is set,
// paced to real time when realtime is set, otherwise the audio device. Muted sessions, and sessions whose device
// fails to open, get a Pacer that consumes samples in real time.
func openSink(cfg *storage.Config, wavPath string, realtime bool, format emucore.AudioFormat) (sink, error) {
	if wavPath != "" {
		s, err := audio.NewWAVSink(wavPath, format, realtime)
		if err != nil {
			return nil, err
		}
		log.Printf("Recording audio to %s", wavPath)
		return s, nil
	}
	if cfg.Audio.Muted {
		return audio.NewPacer(format), nil
	}
	p, err := audio.NewPlayer(format, cfg.Audio.Volume)
	if err != nil {
		log.Printf("Warning: audio initialization failed: %v", err)
		return audio.NewPacer(format), nil
	}
	return p, nil
}

func driverConfig(cfg *storage.Config, extensions []string) driver.Config {
	t := cfg.Timing
	return driver.Config{
		FPS:           t.FPS,
		SpinThreshold: time.Duration(t.SpinThresholdUS) * time.Microsecond,
		AudioWindow:   t.AudioWindow,
		AudioIdle:     time.Duration(t.AudioIdleUS) * time.Microsecond,
		JoinTimeout:   time.Duration(t.JoinTimeoutMS) * time.Millisecond,
		Extensions:    extensions,
	}
}
