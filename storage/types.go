package storage

// Config represents the application configuration stored in config.json
// (or a YAML file of the same shape).
type Config struct {
	Version       int                 `json:"version" yaml:"version"`
	Core          CoreConfig          `json:"core" yaml:"core"`
	Video         VideoConfig         `json:"video" yaml:"video"`
	Audio         AudioConfig         `json:"audio" yaml:"audio"`
	Timing        TimingConfig        `json:"timing" yaml:"timing"`
	Input         InputConfig         `json:"input" yaml:"input"`
	Observability ObservabilityConfig `json:"observability" yaml:"observability"`
}

// CoreConfig selects the emulation core. An empty Path or "pattern"
// selects the built-in core.
type CoreConfig struct {
	Path       string   `json:"path" yaml:"path"`
	SystemDir  string   `json:"systemDir,omitempty" yaml:"systemDir,omitempty"` // "" = storage default
	SaveDir    string   `json:"saveDir,omitempty" yaml:"saveDir,omitempty"`
	Extensions []string `json:"extensions,omitempty" yaml:"extensions,omitempty"` // accepted image extensions inside archives
}

// VideoConfig contains window and screenshot settings
type VideoConfig struct {
	Scale           int  `json:"scale" yaml:"scale"` // 1-8, default 3
	Fullscreen      bool `json:"fullscreen" yaml:"fullscreen"`
	ShowOverlay     bool `json:"showOverlay" yaml:"showOverlay"`
	ScreenshotScale int  `json:"screenshotScale" yaml:"screenshotScale"` // 1-8, default 2
	CopyScreenshots bool `json:"copyScreenshots" yaml:"copyScreenshots"` // also copy to the clipboard
}

// AudioConfig contains audio-related settings
type AudioConfig struct {
	Volume     float64 `json:"volume" yaml:"volume"` // 0.0-2.0
	Muted      bool    `json:"muted" yaml:"muted"`
	SampleRate int     `json:"sampleRate" yaml:"sampleRate"` // output rate for native cores
}

// TimingConfig tunes the pumps. Durations are in microseconds.
type TimingConfig struct {
	FPS             int  `json:"fps" yaml:"fps"` // 0 = the core's own rate
	SpinThresholdUS int  `json:"spinThresholdUs" yaml:"spinThresholdUs"`
	AudioWindow     int  `json:"audioWindow" yaml:"audioWindow"` // samples per pull
	AudioIdleUS     int  `json:"audioIdleUs" yaml:"audioIdleUs"`
	JoinTimeoutMS   int  `json:"joinTimeoutMs" yaml:"joinTimeoutMs"`
	LockThread      bool `json:"lockThread" yaml:"lockThread"` // pin the frame pump to an OS thread
}

// InputConfig contains input binding overrides for P1 keyboard and controller.
// Empty/nil maps mean "use defaults." Only user overrides are stored.
type InputConfig struct {
	P1Keyboard   map[string]string `json:"p1Keyboard,omitempty" yaml:"p1Keyboard,omitempty"`     // button name -> key name override
	P1Controller map[string]string `json:"p1Controller,omitempty" yaml:"p1Controller,omitempty"` // button name -> pad button name override
}

// ObservabilityConfig controls FPS logging and the debug servers. Empty
// addresses disable the corresponding server.
type ObservabilityConfig struct {
	LogFPS         bool   `json:"logFps" yaml:"logFps"`
	ReportInterval int    `json:"reportIntervalSec" yaml:"reportIntervalSec"` // seconds between log lines
	WebSocketAddr  string `json:"webSocketAddr,omitempty" yaml:"webSocketAddr,omitempty"`
	StatsViewAddr  string `json:"statsViewAddr,omitempty" yaml:"statsViewAddr,omitempty"`
}

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Core: CoreConfig{
			Path: "pattern",
		},
		Video: VideoConfig{
			Scale:           3,
			ScreenshotScale: 2,
		},
		Audio: AudioConfig{
			Volume:     1.0,
			SampleRate: 44100,
		},
		Timing: TimingConfig{
			SpinThresholdUS: 1000,
			AudioWindow:     1024,
			AudioIdleUS:     2000,
			JoinTimeoutMS:   1000,
			LockThread:      true,
		},
		Input: InputConfig{},
		Observability: ObservabilityConfig{
			LogFPS:         true,
			ReportInterval: 5,
		},
	}
}
