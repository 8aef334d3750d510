package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/snowdon/internal/admin"
	"github.com/danmuck/snowdon/internal/commands"
	"github.com/danmuck/snowdon/internal/config"
	"github.com/danmuck/snowdon/internal/dispatch"
	"github.com/danmuck/snowdon/internal/hardware"
	"github.com/danmuck/snowdon/internal/server"
	"github.com/rs/zerolog/log"
)

var ErrUnknownBackend = errors.New("bridge: unknown hardware backend")

const heartbeatInterval = time.Minute

// Service owns one bridge process: the device backend, the single-slot
// listener and the optional admin surface.
type Service struct {
	cfg    config.Config
	device hardware.Device
	server *server.Server
	admin  *admin.Server
}

func NewService(cfg config.Config) (*Service, error) {
	device, err := openDevice(cfg.Hardware)
	if err != nil {
		return nil, err
	}
	return NewServiceWithDevice(cfg, device), nil
}

// NewServiceWithDevice wires the bridge around an already constructed device.
func NewServiceWithDevice(cfg config.Config, device hardware.Device) *Service {
	table := commands.Default()
	sampler := hardware.NewSampler(device, cfg.Hardware.Sampler)
	dispatcher := dispatch.New(table, device, sampler)

	s := &Service{
		cfg:    cfg,
		device: device,
		server: server.New(cfg.Server, table, dispatcher),
	}
	if cfg.AdminAddr != "" {
		s.admin = admin.New(cfg.ID, cfg.AdminAddr, cfg.CorsOrigins, table, s.server,
			admin.WithReady(func() bool { return s.server.Addr() != nil }))
	}
	return s
}

func (s *Service) Server() *server.Server {
	return s.server
}

// Run blocks until SIGINT or SIGTERM.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Serve(ctx)
}

// Serve runs the bridge and admin listeners until ctx ends or either fails.
func (s *Service) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.closeDevice()

	log.Info().
		Str("id", s.cfg.ID).
		Str("listen", s.cfg.Server.Addr).
		Str("admin", s.cfg.AdminAddr).
		Str("backend", s.cfg.Hardware.Backend).
		Msg("bridge.Service.Serve starting")

	bridgeErr := make(chan error, 1)
	adminErr := make(chan error, 1)
	go func() {
		bridgeErr <- s.server.ListenAndServe(ctx)
	}()
	adminRunning := s.admin != nil
	if adminRunning {
		go func() {
			adminErr <- s.admin.Serve(ctx)
		}()
	}

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case err := <-bridgeErr:
			cancel()
			if adminRunning {
				<-adminErr
			}
			if err != nil {
				return fmt.Errorf("bridge listener: %w", err)
			}
			log.Info().Msg("bridge.Service.Serve shutdown")
			return nil
		case err := <-adminErr:
			adminRunning = false
			if err != nil {
				cancel()
				<-bridgeErr
				return fmt.Errorf("admin listener: %w", err)
			}
		case <-ticker.C:
			snap := s.server.Snapshot()
			log.Info().
				Str("phase", string(snap.Phase)).
				Uint64("served", snap.Served).
				Uint64("rejected", snap.Rejected).
				Uint64("timed_out", snap.TimedOut).
				Uint64("errored", snap.Errored).
				Msg("bridge.Service.Serve heartbeat")
		}
	}
}

func (s *Service) closeDevice() {
	closer, ok := s.device.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		log.Warn().Err(err).Msg("bridge.Service close device failed")
	}
}

func openDevice(cfg config.HardwareConfig) (hardware.Device, error) {
	switch cfg.Backend {
	case config.BackendSerial:
		return hardware.NewSerialDevice(cfg.Serial), nil
	case config.BackendSimulator:
		return hardware.NewSimulator(cfg.Simulator), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
