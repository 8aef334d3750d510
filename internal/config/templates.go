package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Template renders cfg in the on-disk layout accepted by Load.
func Template(cfg Config) (string, error) {
	out, err := toml.Marshal(toFile(cfg))
	if err != nil {
		return "", fmt.Errorf("render config template: %w", err)
	}
	return string(out), nil
}

// DefaultTemplate renders DefaultConfig, optionally switched to backend.
func DefaultTemplate(backend string) (string, error) {
	cfg := DefaultConfig()
	if b := strings.ToLower(strings.TrimSpace(backend)); b != "" {
		cfg.Hardware.Backend = b
	}
	if err := Validate(cfg); err != nil {
		return "", err
	}
	return Template(cfg)
}

func WriteTemplate(path, backend string, overwrite bool) error {
	template, err := DefaultTemplate(backend)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

func toFile(cfg Config) fileConfig {
	hw := cfg.Hardware
	return fileConfig{
		ID:          cfg.ID,
		ListenAddr:  cfg.Server.Addr,
		AdminAddr:   cfg.AdminAddr,
		CorsOrigins: cfg.CorsOrigins,
		BufferSize:  cfg.Server.BufferSize,
		IdleTimeout: cfg.Server.IdleTimeout.String(),
		Hardware: fileHardware{
			Backend:         hw.Backend,
			Port:            hw.Serial.Port,
			Baud:            hw.Serial.BaudRate,
			VID:             hw.Serial.VID,
			PID:             hw.Serial.PID,
			IOTimeout:       hw.Serial.IOTimeout.String(),
			SampleInterval:  hw.Sampler.Interval.String(),
			ConfirmAttempts: hw.Sampler.ConfirmAttempts,
			SettleReads:     hw.Simulator.SettleReads,
		},
	}
}
