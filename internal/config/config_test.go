package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/snowdon/internal/testutil/testlog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadOverridesOnlyDefinedKeys(t *testing.T) {
	testlog.Start(t)

	path := writeConfig(t, `
id = "living-room"
listen_addr = ":8080"
idle_timeout = "750ms"

[hardware]
backend = "simulator"
sample_interval = "10ms"
settle_reads = 0
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := DefaultConfig()
	if cfg.ID != "living-room" || cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected identity: %+v", cfg)
	}
	if cfg.Server.IdleTimeout != 750*time.Millisecond {
		t.Fatalf("unexpected idle timeout: %v", cfg.Server.IdleTimeout)
	}
	if cfg.Server.BufferSize != def.Server.BufferSize || cfg.AdminAddr != def.AdminAddr {
		t.Fatalf("undefined keys must keep defaults: %+v", cfg)
	}
	if cfg.Hardware.Backend != BackendSimulator || cfg.Hardware.Simulator.SettleReads != 0 {
		t.Fatalf("unexpected hardware: %+v", cfg.Hardware)
	}
	if cfg.Hardware.Sampler.Interval != 10*time.Millisecond {
		t.Fatalf("unexpected sample interval: %v", cfg.Hardware.Sampler.Interval)
	}
	if cfg.Hardware.Sampler.ConfirmAttempts != def.Hardware.Sampler.ConfirmAttempts {
		t.Fatalf("unexpected confirm attempts: %d", cfg.Hardware.Sampler.ConfirmAttempts)
	}
}

func TestLoadSerialOverrides(t *testing.T) {
	testlog.Start(t)

	path := writeConfig(t, `
admin_addr = ""

[hardware]
backend = "serial"
port = "/dev/ttyACM0"
baud = 57600
io_timeout = "2s"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AdminAddr != "" {
		t.Fatalf("expected admin disabled, got %q", cfg.AdminAddr)
	}
	s := cfg.Hardware.Serial
	if s.Port != "/dev/ttyACM0" || s.BaudRate != 57600 || s.IOTimeout != 2*time.Second {
		t.Fatalf("unexpected serial config: %+v", s)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	testlog.Start(t)

	cases := map[string]string{
		"bad duration":   `idle_timeout = "soon"`,
		"tiny buffer":    `buffer_size = 8`,
		"bad backend":    "[hardware]\nbackend = \"infrared\"",
		"zero attempts":  "[hardware]\nconfirm_attempts = 0",
		"unknown key":    `listen = ":80"`,
		"shared address": "listen_addr = \":9000\"\nadmin_addr = \":9000\"",
		"no port":        "[hardware]\nvid = \"\"",
	}
	for name, body := range cases {
		_, err := Load(writeConfig(t, body))
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestTemplateRoundTrips(t *testing.T) {
	testlog.Start(t)

	for _, backend := range []string{"", BackendSimulator} {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := WriteTemplate(path, backend, false); err != nil {
			t.Fatalf("write template: %v", err)
		}
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("load template (%q): %v", backend, err)
		}
		want := DefaultConfig()
		if backend != "" {
			want.Hardware.Backend = backend
		}
		if cfg.ID != want.ID || cfg.Server != want.Server || cfg.Hardware.Backend != want.Hardware.Backend {
			t.Fatalf("template drifted from defaults: %+v", cfg)
		}
		if cfg.Hardware.Sampler != want.Hardware.Sampler {
			t.Fatalf("sampler drifted: %+v", cfg.Hardware.Sampler)
		}
		if err := WriteTemplate(path, backend, false); err == nil {
			t.Fatalf("expected refusal to overwrite")
		}
		if err := WriteTemplate(path, backend, true); err != nil {
			t.Fatalf("overwrite template: %v", err)
		}
	}
}

func TestDefaultTemplateRejectsUnknownBackend(t *testing.T) {
	if _, err := DefaultTemplate("carrier-pigeon"); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
