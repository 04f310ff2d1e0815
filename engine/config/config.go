package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/ultraviolet/engine/core"
	"github.com/spaghettifunk/ultraviolet/engine/math"
)

// Duration is a time.Duration read from strings such as "16.667ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX uint32 `toml:"start_pos_x"`
	// Window starting position y axis, if applicable.
	StartPosY uint32 `toml:"start_pos_y"`
	// Window starting width, if applicable.
	StartWidth uint32 `toml:"start_width"`
	// Window starting height, if applicable.
	StartHeight uint32 `toml:"start_height"`
	// The application name used in windowing, if applicable.
	Name     string `toml:"name"`
	LogLevel string `toml:"log_level"`
	// Run without a window.
	Headless bool `toml:"headless"`
}

type TimingConfig struct {
	TargetElapsedTime   Duration `toml:"target_elapsed_time"`
	InactiveSleepTime   Duration `toml:"inactive_sleep_time"`
	FixedTimeStep       bool     `toml:"fixed_time_step"`
	SlowFrameThreshold  float64  `toml:"slow_frame_threshold"`
	MaxCatchUpUpdates   int      `toml:"max_catch_up_updates"`
	RunningSlowlyFrames int      `toml:"running_slowly_frames"`
}

type Config struct {
	Application ApplicationConfig `toml:"application"`
	Timing      TimingConfig      `toml:"timing"`
}

const (
	minTargetElapsedTime = time.Millisecond
	maxTargetElapsedTime = time.Second
	maxInactiveSleepTime = time.Second
	maxCatchUpUpdates    = 100
	maxSlowlyFrames      = 600
)

func Default() *Config {
	return &Config{
		Application: ApplicationConfig{
			StartPosX:   100,
			StartPosY:   100,
			StartWidth:  1280,
			StartHeight: 720,
			Name:        "Ultraviolet",
			LogLevel:    "info",
		},
		Timing: TimingConfig{
			TargetElapsedTime:   Duration{time.Second / 60},
			InactiveSleepTime:   Duration{20 * time.Millisecond},
			FixedTimeStep:       true,
			SlowFrameThreshold:  1.05,
			MaxCatchUpUpdates:   10,
			RunningSlowlyFrames: 5,
		},
	}
}

// Parse decodes TOML over the defaults, so missing keys keep their
// default values, then normalises the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses the TOML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Normalize validates the log level and clamps timing values into ranges the
// host loop can work with.
func (c *Config) Normalize() error {
	if _, err := core.ParseLogLevel(c.Application.LogLevel); err != nil {
		return err
	}

	t := &c.Timing
	t.TargetElapsedTime.Duration = math.Clamp(t.TargetElapsedTime.Duration, minTargetElapsedTime, maxTargetElapsedTime)
	t.InactiveSleepTime.Duration = math.Clamp(t.InactiveSleepTime.Duration, 0, maxInactiveSleepTime)
	if t.SlowFrameThreshold < 1 {
		t.SlowFrameThreshold = 1
	}
	t.MaxCatchUpUpdates = math.Clamp(t.MaxCatchUpUpdates, 1, maxCatchUpUpdates)
	t.RunningSlowlyFrames = math.Clamp(t.RunningSlowlyFrames, 1, maxSlowlyFrames)
	return nil
}

// Level returns the parsed application log level.
func (c *Config) Level() core.LogLevel {
	l, _ := core.ParseLogLevel(c.Application.LogLevel)
	return l
}

// Marshal encodes the config back to TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
