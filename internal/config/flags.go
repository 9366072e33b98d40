package config

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

// Flags binds command-line flags for a Config. Flags the user set
// explicitly override the config file; the rest keep the file's values.
type Flags struct {
	fs         *flag.FlagSet
	vals       Config
	shared     string
	path       string
	printState bool
}

// NewFlags registers the daemon's flags on fs.
func NewFlags(fs *flag.FlagSet) *Flags {
	d := Default()
	f := &Flags{fs: fs}

	fs.StringVar(&f.path, "config", "", "YAML configuration file (optional)")
	fs.BoolVar(&f.printState, "print-state", false, "Print motion level and one reading as JSON and exit")
	fs.StringVar(&f.vals.Variant, "variant", d.Variant, "Motion source: interrupt or await")
	fs.StringVar(&f.vals.Chip, "chip", d.Chip, "GPIO chip name")
	fs.IntVar(&f.vals.PinMotion, "pin-motion", d.PinMotion, "BCM pin number of the PIR output")
	fs.IntVar(&f.vals.PinSensor, "pin-sensor", d.PinSensor, "BCM pin number of the DHT data line")
	fs.StringVar(&f.shared, "pins-shared", "", "Comma-separated BCM pins sharing the motion interrupt")
	fs.StringVar(&f.vals.SensorModel, "sensor-model", d.SensorModel, "Sensor model: dht11 or dht22")
	fs.DurationVar(&f.vals.Quiescent, "quiescent", d.Quiescent, "Delay between motion and read (0 for the variant default)")
	fs.DurationVar(&f.vals.Poll, "poll", d.Poll, "Interrupt flag polling interval")
	fs.DurationVar(&f.vals.Heartbeat, "heartbeat", d.Heartbeat, "Heartbeat interval (0 to disable)")
	fs.StringVar(&f.vals.Debounce.Mode, "debounce-mode", d.Debounce.Mode, "Await debounce: level or edge")
	fs.DurationVar(&f.vals.Debounce.Holdoff, "debounce-holdoff", d.Debounce.Holdoff, "Minimum time between await triggers")
	fs.StringVar(&f.vals.LogLevel, "log-level", d.LogLevel, "Log level: debug, info, warn, error")

	return f
}

// ConfigPath returns the -config value.
func (f *Flags) ConfigPath() string {
	return f.path
}

// PrintState reports whether -print-state was given.
func (f *Flags) PrintState() bool {
	return f.printState
}

// Resolve loads the config file, if any, applies explicitly set flags and
// validates the result. Call it after parsing fs.
func (f *Flags) Resolve() (Config, error) {
	cfg := Default()
	if f.path != "" {
		var err error
		if cfg, err = Load(f.path); err != nil {
			return Config{}, err
		}
	}

	var errs []error
	f.fs.Visit(func(fl *flag.Flag) {
		if err := f.apply(&cfg, fl.Name); err != nil {
			errs = append(errs, err)
		}
	})
	if len(errs) > 0 {
		return Config{}, errs[0]
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (f *Flags) apply(cfg *Config, name string) error {
	switch name {
	case "variant":
		cfg.Variant = f.vals.Variant
	case "chip":
		cfg.Chip = f.vals.Chip
	case "pin-motion":
		cfg.PinMotion = f.vals.PinMotion
	case "pin-sensor":
		cfg.PinSensor = f.vals.PinSensor
	case "pins-shared":
		pins, err := ParsePins(f.shared)
		if err != nil {
			return fmt.Errorf("-pins-shared: %w", err)
		}
		cfg.PinsShared = pins
	case "sensor-model":
		cfg.SensorModel = f.vals.SensorModel
	case "quiescent":
		cfg.Quiescent = f.vals.Quiescent
	case "poll":
		cfg.Poll = f.vals.Poll
	case "heartbeat":
		cfg.Heartbeat = f.vals.Heartbeat
	case "debounce-mode":
		cfg.Debounce.Mode = f.vals.Debounce.Mode
	case "debounce-holdoff":
		cfg.Debounce.Holdoff = f.vals.Debounce.Holdoff
	case "log-level":
		cfg.LogLevel = f.vals.LogLevel
	}
	return nil
}

// ParsePins parses a comma-separated pin list such as "22,27". An empty
// string is an empty list.
func ParsePins(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var pins []int
	for _, p := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("bad pin %q", p)
		}
		pins = append(pins, n)
	}
	return pins, nil
}
