// Package config holds the daemon configuration: compiled defaults, an
// optional YAML file and command-line flags, applied in that order.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/motion-sensor/internal/dht"
	"github.com/sweeney/motion-sensor/internal/gpio"
	"github.com/sweeney/motion-sensor/internal/logic"
	"github.com/sweeney/motion-sensor/internal/motion"
	"github.com/sweeney/motion-sensor/internal/task"
)

// Variants.
const (
	VariantInterrupt = motion.SourceInterrupt
	VariantAwait     = motion.SourceAwait
)

// MinAwaitQuiescent is the shortest quiescent interval the await variant
// accepts. It matches the DHT22 measurement cycle.
const MinAwaitQuiescent = 2 * time.Second

// Debounce is the await variant's trigger policy.
type Debounce struct {
	Mode    string        `yaml:"mode"`
	Holdoff time.Duration `yaml:"holdoff"`
}

// Config is the complete daemon configuration.
type Config struct {
	Variant     string `yaml:"variant"`
	Chip        string `yaml:"chip"`
	PinMotion   int    `yaml:"pin_motion"`
	PinSensor   int    `yaml:"pin_sensor"`
	SensorModel string `yaml:"sensor_model"`

	// PinsShared are extra lines requested on the motion line's interrupt
	// bank. Their edges reach the handler but never count as motion.
	PinsShared []int `yaml:"pins_shared"`

	// Quiescent is the delay between motion and the sensor read. Zero
	// selects the variant default.
	Quiescent time.Duration `yaml:"quiescent"`
	Poll      time.Duration `yaml:"poll"`
	Heartbeat time.Duration `yaml:"heartbeat"`

	Debounce Debounce `yaml:"debounce"`
	LogLevel string   `yaml:"log_level"`
}

// Default returns the compiled defaults.
func Default() Config {
	return Config{
		Variant:     VariantInterrupt,
		Chip:        gpio.DefaultChip,
		PinMotion:   gpio.DefaultPinMotion,
		PinSensor:   gpio.DefaultPinSensor,
		SensorModel: string(dht.DHT22),
		Poll:        motion.DefaultPoll,
		Heartbeat:   task.DefaultHeartbeat,
		Debounce:    Debounce{Mode: string(logic.DebounceLevel)},
		LogLevel:    "info",
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Durations are strings such as "2s".
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg, nil
}

// QuiescentInterval returns the effective delay before each read.
func (c Config) QuiescentInterval() time.Duration {
	if c.Quiescent > 0 {
		return c.Quiescent
	}
	if c.Variant == VariantAwait {
		return MinAwaitQuiescent
	}
	return 0
}

// Model returns the parsed sensor model. Call Validate first.
func (c Config) Model() dht.Model {
	return dht.Model(c.SensorModel)
}

// DebouncePolicy returns the parsed debounce policy. Call Validate first.
func (c Config) DebouncePolicy() logic.Debounce {
	return logic.Debounce{Mode: logic.DebounceMode(c.Debounce.Mode), Holdoff: c.Debounce.Holdoff}
}

// Level returns the parsed log level, or info if it does not parse.
func (c Config) Level() slog.Level {
	lvl, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// BankOffsets returns every line requested on the interrupt bank, motion
// line first.
func (c Config) BankOffsets() []int {
	offsets := []int{c.PinMotion}
	for _, o := range c.PinsShared {
		if !slices.Contains(offsets, o) {
			offsets = append(offsets, o)
		}
	}
	return offsets
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	switch s {
	case "debug", "info", "warn", "error":
		if err := lvl.UnmarshalText([]byte(s)); err != nil {
			return 0, err
		}
		return lvl, nil
	default:
		return 0, fmt.Errorf("unknown log level %q (want debug, info, warn or error)", s)
	}
}

// Validate reports every problem with c at once.
func (c Config) Validate() error {
	var errs []error

	switch c.Variant {
	case VariantInterrupt, VariantAwait:
	default:
		errs = append(errs, fmt.Errorf("unknown variant %q (want interrupt or await)", c.Variant))
	}
	if c.Chip == "" {
		errs = append(errs, errors.New("chip must not be empty"))
	}
	if c.PinMotion < 0 || c.PinSensor < 0 {
		errs = append(errs, errors.New("pin numbers must not be negative"))
	}
	if c.PinMotion == c.PinSensor {
		errs = append(errs, fmt.Errorf("motion and sensor pins are both %d", c.PinMotion))
	}
	for _, o := range c.PinsShared {
		if o < 0 {
			errs = append(errs, fmt.Errorf("shared pin %d is negative", o))
		}
		if o == c.PinSensor {
			errs = append(errs, fmt.Errorf("shared pin %d is the sensor pin", o))
		}
	}
	if _, err := dht.ParseModel(c.SensorModel); err != nil {
		errs = append(errs, err)
	}
	if c.Quiescent < 0 {
		errs = append(errs, errors.New("quiescent must not be negative"))
	}
	if c.Variant == VariantAwait && c.Quiescent > 0 && c.Quiescent < MinAwaitQuiescent {
		errs = append(errs, fmt.Errorf("quiescent %v is below the sensor minimum %v", c.Quiescent, MinAwaitQuiescent))
	}
	if c.Poll <= 0 {
		errs = append(errs, errors.New("poll must be positive"))
	}
	if c.Heartbeat < 0 {
		errs = append(errs, errors.New("heartbeat must not be negative"))
	}
	if _, err := logic.ParseDebounceMode(c.Debounce.Mode); err != nil {
		errs = append(errs, err)
	}
	if c.Debounce.Holdoff < 0 {
		errs = append(errs, errors.New("debounce holdoff must not be negative"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
