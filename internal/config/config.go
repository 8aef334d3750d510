package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/snowdon/internal/hardware"
	"github.com/danmuck/snowdon/internal/server"
)

const (
	BackendSerial    = "serial"
	BackendSimulator = "simulator"

	DefaultID        = "snowdon"
	DefaultAdminAddr = "127.0.0.1:7080"
	DefaultVID       = "2E8A"
	DefaultPID       = "000A"
)

var ErrInvalidConfig = errors.New("config: invalid")

// Config is the resolved process configuration for the bridge.
type Config struct {
	ID          string
	AdminAddr   string
	CorsOrigins []string
	Server      server.Config
	Hardware    HardwareConfig
}

// HardwareConfig selects the device backend and its polling behaviour.
type HardwareConfig struct {
	Backend   string
	Serial    hardware.SerialConfig
	Sampler   hardware.SamplerConfig
	Simulator hardware.SimulatorConfig
}

func DefaultConfig() Config {
	return Config{
		ID:          DefaultID,
		AdminAddr:   DefaultAdminAddr,
		CorsOrigins: []string{"http://localhost:3000"},
		Server:      server.DefaultConfig(),
		Hardware: HardwareConfig{
			Backend: BackendSerial,
			Serial: hardware.SerialConfig{
				VID: DefaultVID,
				PID: DefaultPID,
			}.WithDefaults(),
			Sampler: hardware.DefaultSamplerConfig(),
			Simulator: hardware.SimulatorConfig{
				SettleReads: 2,
				Input:       hardware.SignalOptical,
			},
		},
	}
}

// fileConfig mirrors the on-disk layout. Durations are strings.
type fileConfig struct {
	ID          string       `toml:"id"`
	ListenAddr  string       `toml:"listen_addr"`
	AdminAddr   string       `toml:"admin_addr"`
	CorsOrigins []string     `toml:"cors_origins"`
	BufferSize  int          `toml:"buffer_size"`
	IdleTimeout string       `toml:"idle_timeout"`
	Hardware    fileHardware `toml:"hardware"`
}

type fileHardware struct {
	Backend         string `toml:"backend"`
	Port            string `toml:"port"`
	Baud            int    `toml:"baud"`
	VID             string `toml:"vid"`
	PID             string `toml:"pid"`
	IOTimeout       string `toml:"io_timeout"`
	SampleInterval  string `toml:"sample_interval"`
	ConfirmAttempts int    `toml:"confirm_attempts"`
	SettleReads     int    `toml:"settle_reads"`
}

// Load decodes path on top of DefaultConfig. Only keys present in the file
// override defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown key %q", ErrInvalidConfig, undecoded[0].String())
	}

	if meta.IsDefined("id") {
		cfg.ID = strings.TrimSpace(raw.ID)
	}
	if meta.IsDefined("listen_addr") {
		cfg.Server.Addr = strings.TrimSpace(raw.ListenAddr)
	}
	if meta.IsDefined("admin_addr") {
		cfg.AdminAddr = strings.TrimSpace(raw.AdminAddr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeList(raw.CorsOrigins)
	}
	if meta.IsDefined("buffer_size") {
		cfg.Server.BufferSize = raw.BufferSize
	}
	if meta.IsDefined("idle_timeout") {
		if cfg.Server.IdleTimeout, err = parseDuration("idle_timeout", raw.IdleTimeout); err != nil {
			return Config{}, err
		}
	}

	hw := &cfg.Hardware
	if meta.IsDefined("hardware", "backend") {
		hw.Backend = strings.ToLower(strings.TrimSpace(raw.Hardware.Backend))
	}
	if meta.IsDefined("hardware", "port") {
		hw.Serial.Port = strings.TrimSpace(raw.Hardware.Port)
	}
	if meta.IsDefined("hardware", "baud") {
		hw.Serial.BaudRate = raw.Hardware.Baud
	}
	if meta.IsDefined("hardware", "vid") {
		hw.Serial.VID = strings.TrimSpace(raw.Hardware.VID)
	}
	if meta.IsDefined("hardware", "pid") {
		hw.Serial.PID = strings.TrimSpace(raw.Hardware.PID)
	}
	if meta.IsDefined("hardware", "io_timeout") {
		if hw.Serial.IOTimeout, err = parseDuration("hardware.io_timeout", raw.Hardware.IOTimeout); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("hardware", "sample_interval") {
		if hw.Sampler.Interval, err = parseDuration("hardware.sample_interval", raw.Hardware.SampleInterval); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("hardware", "confirm_attempts") {
		hw.Sampler.ConfirmAttempts = raw.Hardware.ConfirmAttempts
	}
	if meta.IsDefined("hardware", "settle_reads") {
		hw.Simulator.SettleReads = raw.Hardware.SettleReads
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that defaults cannot repair.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return fmt.Errorf("%w: listen_addr is required", ErrInvalidConfig)
	}
	if cfg.Server.BufferSize < 64 {
		return fmt.Errorf("%w: buffer_size must be at least 64", ErrInvalidConfig)
	}
	if cfg.Server.IdleTimeout <= 0 {
		return fmt.Errorf("%w: idle_timeout must be positive", ErrInvalidConfig)
	}
	if cfg.AdminAddr != "" && cfg.AdminAddr == cfg.Server.Addr {
		return fmt.Errorf("%w: admin_addr must differ from listen_addr", ErrInvalidConfig)
	}

	hw := cfg.Hardware
	switch hw.Backend {
	case BackendSerial:
		if hw.Serial.Port == "" && (hw.Serial.VID == "" || hw.Serial.PID == "") {
			return fmt.Errorf("%w: hardware.port or hardware.vid and hardware.pid required", ErrInvalidConfig)
		}
		if hw.Serial.BaudRate <= 0 {
			return fmt.Errorf("%w: hardware.baud must be positive", ErrInvalidConfig)
		}
	case BackendSimulator:
		if hw.Simulator.SettleReads < 0 {
			return fmt.Errorf("%w: hardware.settle_reads must not be negative", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown hardware.backend %q", ErrInvalidConfig, hw.Backend)
	}
	if hw.Sampler.Interval < 0 {
		return fmt.Errorf("%w: hardware.sample_interval must not be negative", ErrInvalidConfig)
	}
	if hw.Sampler.ConfirmAttempts <= 0 {
		return fmt.Errorf("%w: hardware.confirm_attempts must be positive", ErrInvalidConfig)
	}
	return nil
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, key, err)
	}
	return d, nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
