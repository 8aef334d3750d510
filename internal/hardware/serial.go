package hardware

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

const (
	defaultBaudRate  = 115200
	defaultIOTimeout = time.Second
	readPoll         = 50 * time.Millisecond
	maxReplyLen      = 64
)

// SerialConfig selects and configures the co-processor link. An empty Port
// enables USB VID/PID auto-detection.
type SerialConfig struct {
	Port      string
	BaudRate  int
	VID       string
	PID       string
	IOTimeout time.Duration
	Backoff   BackoffConfig
}

func (c SerialConfig) WithDefaults() SerialConfig {
	if c.BaudRate <= 0 {
		c.BaudRate = defaultBaudRate
	}
	if c.IOTimeout <= 0 {
		c.IOTimeout = defaultIOTimeout
	}
	if c.Backoff == (BackoffConfig{}) {
		c.Backoff = DefaultBackoffConfig()
	}
	return c
}

// serialPort is the subset of serial.Port the device relies on.
type serialPort interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

type portOpener func(name string, mode *serial.Mode) (serialPort, error)

func openSerial(name string, mode *serial.Mode) (serialPort, error) {
	return serial.Open(name, mode)
}

// SerialDevice drives an IR/LED co-processor with a line protocol:
//
//	TX 807F807F\n -> OK\n
//	RGB?\n        -> RGB 110\n
type SerialDevice struct {
	cfg      SerialConfig
	open     portOpener
	findPort func(vid, pid string) (string, error)

	mu       sync.Mutex
	port     serialPort
	name     string
	failures int
	closed   bool
	rng      *rand.Rand
}

func NewSerialDevice(cfg SerialConfig) *SerialDevice {
	return &SerialDevice{
		cfg:      cfg.WithDefaults(),
		open:     openSerial,
		findPort: FindPort,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// FindPort returns the first USB serial port matching vid and pid.
func FindPort(vid, pid string) (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("hardware: enumerate ports: %w", err)
	}
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		if strings.EqualFold(p.VID, vid) && strings.EqualFold(p.PID, pid) {
			return p.Name, nil
		}
	}
	return "", fmt.Errorf("%w: vid=%s pid=%s", ErrPortNotFound, vid, pid)
}

func (d *SerialDevice) Transmit(ctx context.Context, code uint32) error {
	reply, err := d.roundTrip(ctx, fmt.Sprintf("TX %08X", code))
	if err != nil {
		return err
	}
	if reply != "OK" {
		return fmt.Errorf("%w: transmit %08X got %q", ErrBadReply, code, reply)
	}
	return nil
}

func (d *SerialDevice) ReadSignal(ctx context.Context) (Signal, error) {
	reply, err := d.roundTrip(ctx, "RGB?")
	if err != nil {
		return 0, err
	}
	return parseSignalReply(reply)
}

func (d *SerialDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return d.dropPort()
}

func (d *SerialDevice) roundTrip(ctx context.Context, cmd string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureOpen(ctx); err != nil {
		return "", err
	}
	if err := d.port.ResetInputBuffer(); err != nil {
		return "", d.fail(err)
	}
	if _, err := io.WriteString(d.port, cmd+"\n"); err != nil {
		return "", d.fail(err)
	}
	reply, err := d.readLine(ctx)
	if err != nil {
		return "", d.fail(err)
	}
	return reply, nil
}

func (d *SerialDevice) ensureOpen(ctx context.Context) error {
	if d.closed {
		return ErrDeviceClosed
	}
	if d.port != nil {
		return nil
	}
	if d.failures > 0 {
		delay := NextBackoffDelay(d.cfg.Backoff, d.failures, d.rng)
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}

	name := strings.TrimSpace(d.cfg.Port)
	if name == "" {
		found, err := d.findPort(d.cfg.VID, d.cfg.PID)
		if err != nil {
			d.failures++
			return err
		}
		name = found
	}
	port, err := d.open(name, &serial.Mode{BaudRate: d.cfg.BaudRate})
	if err != nil {
		d.failures++
		return fmt.Errorf("hardware: open %s: %w", name, err)
	}
	if err := port.SetReadTimeout(readPoll); err != nil {
		_ = port.Close()
		d.failures++
		return fmt.Errorf("hardware: configure %s: %w", name, err)
	}
	d.port = port
	d.name = name
	d.failures = 0
	log.Info().Str("port", name).Int("baud", d.cfg.BaudRate).Msg("hardware.SerialDevice opened")
	return nil
}

// readLine collects bytes until '\n'. The port read timeout is short so the
// overall IOTimeout and ctx are checked between reads.
func (d *SerialDevice) readLine(ctx context.Context) (string, error) {
	deadline := time.Now().Add(d.cfg.IOTimeout)
	var line []byte
	buf := make([]byte, 16)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := d.port.Read(buf)
		if err != nil {
			return "", err
		}
		for _, c := range buf[:n] {
			if c == '\n' {
				return strings.TrimSpace(string(line)), nil
			}
			line = append(line, c)
		}
		if len(line) > maxReplyLen {
			return "", fmt.Errorf("%w: reply exceeds %d bytes", ErrBadReply, maxReplyLen)
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("hardware: read timeout after %s", d.cfg.IOTimeout)
		}
	}
}

func (d *SerialDevice) fail(err error) error {
	log.Warn().Str("port", d.name).Err(err).Msg("hardware.SerialDevice link error")
	d.failures++
	_ = d.dropPort()
	return err
}

func (d *SerialDevice) dropPort() error {
	if d.port == nil {
		return nil
	}
	err := d.port.Close()
	d.port = nil
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func parseSignalReply(reply string) (Signal, error) {
	bits, ok := strings.CutPrefix(reply, "RGB ")
	if !ok || len(bits) != 3 {
		return 0, fmt.Errorf("%w: status %q", ErrBadReply, reply)
	}
	v, err := strconv.ParseUint(bits, 2, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: status %q", ErrBadReply, reply)
	}
	return Signal(v), nil
}
