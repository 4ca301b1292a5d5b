// Command mednes runs a NES image through the session driver, with a
// window or headless.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/sqweek/dialog"

	emucore "github.com/Zash60/MedNES/api"
	"github.com/Zash60/MedNES/driver"
	"github.com/Zash60/MedNES/metrics"
	"github.com/Zash60/MedNES/storage"
	"github.com/Zash60/MedNES/video"
)

type options struct {
	configPath string
	corePath   string
	headless   bool
	frames     uint64
	duration   time.Duration
	wavPath    string
	wsAddr     string
	statsAddr  string
	mute       bool
	romPath    string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "config file (.json, .yaml or .yml); default is config.json in the data directory")
	flag.StringVar(&opts.corePath, "core", "", `libretro core library, or "pattern" for the built-in core`)
	flag.BoolVar(&opts.headless, "headless", false, "run without a window")
	flag.Uint64Var(&opts.frames, "frames", 0, "stop after this many frames")
	flag.DurationVar(&opts.duration, "duration", 0, "stop after this long")
	flag.StringVar(&opts.wavPath, "wav", "", "record audio to a WAV file instead of playing it")
	flag.StringVar(&opts.wsAddr, "ws", "", "serve frame rate and state over websocket on this address")
	flag.StringVar(&opts.statsAddr, "statsview", "", "serve runtime stats on this address")
	flag.BoolVar(&opts.mute, "mute", false, "discard audio")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [rom]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	opts.romPath = flag.Arg(0)

	storage.Init("mednes")
	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(opts options) *storage.Config {
	if err := storage.EnsureDirectories(); err != nil {
		log.Printf("Warning: %v", err)
	}
	if opts.configPath == "" {
		if err := storage.CreateConfigIfMissing(""); err != nil {
			log.Printf("Warning: failed to create config: %v", err)
		}
	}
	cfg, err := storage.LoadConfig(opts.configPath)
	if err != nil {
		log.Printf("Warning: using default config: %v", err)
		cfg = storage.DefaultConfig()
	}
	if errs := storage.ValidateConfig(cfg); len(errs) > 0 {
		for _, e := range errs {
			log.Printf("Warning: config %s, using default", e)
		}
		storage.CorrectConfig(cfg)
	}

	if opts.corePath != "" {
		cfg.Core.Path = opts.corePath
	}
	if opts.mute {
		cfg.Audio.Muted = true
	}
	if opts.wsAddr != "" {
		cfg.Observability.WebSocketAddr = opts.wsAddr
	}
	if opts.statsAddr != "" {
		cfg.Observability.StatsViewAddr = opts.statsAddr
	}
	return cfg
}

func pickROM() (string, error) {
	path, err := dialog.File().
		Title("Select ROM").
		Filter("NES images", "nes", "zip", "7z", "rar", "gz", "tgz").
		Load()
	if err != nil {
		if errors.Is(err, dialog.ErrCancelled) {
			return "", errors.New("no ROM selected")
		}
		return "", err
	}
	return path, nil
}

func run(opts options) error {
	cfg := loadConfig(opts)

	if opts.romPath == "" {
		if opts.headless {
			return errors.New("a ROM path is required with -headless")
		}
		path, err := pickROM()
		if err != nil {
			return err
		}
		opts.romPath = path
	}

	core, extensions, err := openCore(cfg)
	if err != nil {
		return err
	}

	sink, err := openSink(cfg, opts.wavPath, opts.headless, core.AudioFormat())
	if err != nil {
		core.Close()
		return err
	}
	defer sink.Close()

	var (
		ctrl     *driver.Controller
		window   *video.Window
		reporter *metrics.Reporter
		hub      *metrics.Hub
	)

	var presenter driver.Presenter
	if opts.headless {
		presenter = video.NewLastFrame()
	} else {
		screenshots, err := storage.GetScreenshotDir()
		if err != nil {
			log.Printf("Warning: screenshots disabled: %v", err)
		}
		window = video.NewWindow(video.WindowOptions{
			Title:           "MedNES",
			Scale:           cfg.Video.Scale,
			Fullscreen:      cfg.Video.Fullscreen,
			Bindings:        video.BindingsFromConfig(cfg.Input.P1Keyboard, cfg.Input.P1Controller),
			Input:           func(b emucore.Button, pressed bool) { ctrl.SendInput(b, pressed) },
			ScreenshotDir:   screenshots,
			ScreenshotScale: cfg.Video.ScreenshotScale,
			CopyScreenshots: cfg.Video.CopyScreenshots,
			ShowOverlay:     cfg.Video.ShowOverlay,
			Status:          func() string { return statusLine(ctrl) },
		})
		presenter = window
	}

	if cfg.Observability.LogFPS {
		reporter = metrics.NewReporter(time.Duration(cfg.Observability.ReportInterval) * time.Second)
	}
	if addr := cfg.Observability.WebSocketAddr; addr != "" {
		hub = metrics.NewHub()
		if _, err := hub.Listen(addr); err != nil {
			log.Printf("Warning: websocket stats disabled: %v", err)
			hub = nil
		} else {
			defer hub.Close()
		}
	}
	if addr := cfg.Observability.StatsViewAddr; addr != "" {
		stop := metrics.LaunchStatsView(addr)
		defer stop()
	}

	dcfg := driverConfig(cfg, extensions)
	dcfg.Hooks = driver.Hooks{
		OnState: func(from, to driver.State) {
			if hub == nil || ctrl == nil {
				return
			}
			id := ""
			if s := ctrl.Session(); s != nil {
				id = s.ID()
			}
			hub.PublishState(id, from.String(), to.String())
		},
		OnFPS: func(fps float64) {
			if window != nil {
				window.SetFPS(fps)
			}
			if reporter != nil {
				reporter.Report(fps)
			}
			if hub != nil {
				hub.PublishFPS(fps)
			}
		},
		OnFault: func(err error) {
			log.Printf("%s: %v", driver.UserMessage(err), err)
		},
	}
	if cfg.Timing.LockThread {
		dcfg.Hooks.SchedulingHint = func(kind driver.PumpKind) {
			if kind == driver.PumpFrame {
				// Released when the pump goroutine exits.
				runtime.LockOSThread()
			}
		}
	}

	ctrl = driver.NewController(core, presenter, sink, dcfg)
	defer func() {
		if err := ctrl.Close(); err != nil {
			log.Printf("Warning: %v", err)
		}
	}()

	sess, err := ctrl.Load(opts.romPath)
	if err != nil {
		return fmt.Errorf("%s: %w", driver.UserMessage(err), err)
	}
	log.Printf("Running %s at %d fps", sess.Name(), ctrl.FPS())

	if window != nil {
		go func() {
			waitSession(sess, opts.frames, opts.duration, nil)
			window.Close()
		}()
		if err := window.Run(); err != nil {
			log.Printf("Warning: window: %v", err)
		}
	} else {
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt)
		defer signal.Stop(interrupt)
		waitSession(sess, opts.frames, opts.duration, interrupt)
	}

	stats := sess.Stats()
	if err := ctrl.Stop(); err != nil {
		log.Printf("Warning: %v", err)
	}
	log.Printf("Session %s ended after %d frames (%d late, %d forfeited), %d audio samples",
		sess.ID(), stats.Frame.Frames, stats.Frame.Late, stats.Frame.Forfeited, stats.Audio.Samples)

	if err := sess.Err(); err != nil {
		return fmt.Errorf("%s: %w", driver.UserMessage(err), err)
	}
	return nil
}

// waitSession returns when the session ends, when frames have been
// produced, when d has passed, or when interrupt fires. Zero limits are
// ignored.
func waitSession(sess *driver.Session, frames uint64, d time.Duration, interrupt <-chan os.Signal) {
	var timeout <-chan time.Time
	if d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		timeout = t.C
	}
	var poll <-chan time.Time
	if frames > 0 {
		t := time.NewTicker(10 * time.Millisecond)
		defer t.Stop()
		poll = t.C
	}
	for {
		select {
		case <-sess.Done():
			return
		case <-timeout:
			return
		case <-interrupt:
			return
		case <-poll:
			if sess.Stats().Frame.Frames >= frames {
				return
			}
		}
	}
}

func statusLine(ctrl *driver.Controller) string {
	if ctrl == nil {
		return ""
	}
	s := ctrl.Session()
	if s == nil {
		return ctrl.State().String()
	}
	st := s.Stats()
	return fmt.Sprintf("%s  late %d  audio %d", ctrl.State(), st.Frame.Late, st.Audio.Samples)
}
