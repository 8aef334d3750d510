package server

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/snowdon/internal/observability"
	"github.com/danmuck/snowdon/internal/protocol"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultAddr        = ":80"
	DefaultBufferSize  = 2048
	DefaultIdleTimeout = 5 * time.Second

	readChunk = 512
)

var (
	ErrInvalidConfig = errors.New("server: invalid config")
	errTimedOut      = errors.New("server: idle timeout")
)

// Config configures the single-slot bridge listener.
type Config struct {
	Addr        string
	BufferSize  int
	IdleTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Addr:        DefaultAddr,
		BufferSize:  DefaultBufferSize,
		IdleTimeout: DefaultIdleTimeout,
	}
}

func (c Config) WithDefaults() Config {
	if strings.TrimSpace(c.Addr) == "" {
		c.Addr = DefaultAddr
	}
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	return c
}

// Handler produces the response for one parsed request.
type Handler interface {
	Handle(ctx context.Context, req protocol.Request) protocol.Response
}

type HandlerFunc func(ctx context.Context, req protocol.Request) protocol.Response

func (f HandlerFunc) Handle(ctx context.Context, req protocol.Request) protocol.Response {
	return f(ctx, req)
}

// Snapshot is a point-in-time view of the server for the admin surface.
type Snapshot struct {
	Phase    Phase     `json:"phase"`
	ConnID   string    `json:"conn_id,omitempty"`
	Remote   string    `json:"remote,omitempty"`
	Since    time.Time `json:"since,omitzero"`
	Served   uint64    `json:"served"`
	Rejected uint64    `json:"rejected"`
	TimedOut uint64    `json:"timed_out"`
	Errored  uint64    `json:"errored"`
}

// Server accepts one connection at a time. A connection that arrives while
// another is live is reset immediately and the live one is left alone.
type Server struct {
	cfg      Config
	resolver protocol.Resolver
	handler  Handler
	logger   zerolog.Logger

	mu     sync.Mutex
	active *Connection
	ln     net.Listener
	wg     sync.WaitGroup

	served   atomic.Uint64
	rejected atomic.Uint64
	timedOut atomic.Uint64
	errored  atomic.Uint64
}

func New(cfg Config, resolver protocol.Resolver, handler Handler) *Server {
	observability.RegisterMetrics()
	return &Server{
		cfg:      cfg.WithDefaults(),
		resolver: resolver,
		handler:  handler,
		logger:   log.Logger,
	}
}

// ListenAndServe listens on the configured address and serves until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", strings.TrimSpace(s.cfg.Addr))
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts on ln until ctx ends or ln fails. It waits for the live
// connection to finish before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.resolver == nil || s.handler == nil {
		return ErrInvalidConfig
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	defer ln.Close()
	defer s.wg.Wait()

	s.logger.Info().
		Str("addr", ln.Addr().String()).
		Int("buffer_size", s.cfg.BufferSize).
		Dur("idle_timeout", s.cfg.IdleTimeout).
		Msg("server.Serve listening")

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.logger.Info().Msg("server.Serve shutdown")
				return nil
			}
			s.logger.Warn().Err(err).Msg("server.Serve accept failed")
			continue
		}

		c, ok := s.claim(conn)
		if !ok {
			s.rejected.Add(1)
			observability.RecordConnection(observability.OutcomeRejected)
			s.logger.Warn().
				Str("remote", conn.RemoteAddr().String()).
				Msg("server.Serve connection already in flight, aborting")
			_ = abort(conn)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, c)
		}()
	}
}

// Addr returns the bound listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) Snapshot() Snapshot {
	snap := Snapshot{
		Phase:    PhaseIdle,
		Served:   s.served.Load(),
		Rejected: s.rejected.Load(),
		TimedOut: s.timedOut.Load(),
		Errored:  s.errored.Load(),
	}
	s.mu.Lock()
	c := s.active
	s.mu.Unlock()
	if c != nil {
		snap.Phase = c.Phase()
		snap.ConnID = c.ID
		snap.Remote = c.Remote
		snap.Since = c.Accepted
	}
	return snap
}

func (s *Server) claim(conn net.Conn) (*Connection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return nil, false
	}
	s.active = newConnection(conn, s.cfg.BufferSize, s.logger)
	return s.active, true
}

func (s *Server) release(c *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == c {
		s.active = nil
	}
}

// serveConn drives one connection through receive, process and send. The
// handler runs on this goroutine and may block on hardware polling.
func (s *Server) serveConn(ctx context.Context, c *Connection) {
	defer s.release(c)
	stop := context.AfterFunc(ctx, func() { _ = c.conn.Close() })
	defer stop()

	c.logger.Info().Msg("server.serveConn client connected")

	if err := s.receive(c); err != nil {
		s.fail(c, err)
		return
	}
	if c.recvLen == 0 {
		c.setPhase(PhaseClosed)
		_ = c.conn.Close()
		c.logger.Debug().Msg("server.serveConn peer closed without data")
		return
	}

	c.setPhase(PhaseProcessing)
	req := protocol.ParseRequest(c.received(), s.resolver)
	resp := s.handler.Handle(ctx, req)
	n, err := protocol.EncodeResponse(c.sendBuf, resp)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.payloadLen = n
	c.logger.Info().
		Str("method", req.Method.String()).
		Str("path", req.Path).
		Str("command", req.Command).
		Int("status", int(resp.Status)).
		Msg("server.serveConn processed")

	if err := s.send(c); err != nil {
		s.fail(c, err)
		return
	}

	c.setPhase(PhaseClosed)
	if err := c.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		c.logger.Debug().Err(err).Msg("server.serveConn close failed")
	}
	s.served.Add(1)
	observability.RecordConnection(observability.OutcomeServed)
	c.logger.Info().Int("bytes", c.sentLen).Msg("server.serveConn response sent")
}

// receive buffers chunks until the request is complete, the buffer is
// full, or the peer half-closes. Bytes past capacity are dropped.
func (s *Server) receive(c *Connection) error {
	c.setPhase(PhaseReceiving)
	if err := c.conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
		return err
	}
	chunk := make([]byte, readChunk)
	for {
		n, err := c.conn.Read(chunk)
		if n > 0 {
			if dropped := c.receive(chunk[:n]); dropped > 0 {
				c.logger.Debug().Int("dropped", dropped).Msg("server.receive buffer full")
			}
			if c.full() || protocol.RequestComplete(c.received()) {
				return nil
			}
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return errTimedOut
		}
		return err
	}
}

func (s *Server) send(c *Connection) error {
	c.setPhase(PhaseSending)
	c.sentLen = 0
	if err := c.conn.SetWriteDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
		return err
	}
	for {
		n, err := c.conn.Write(c.pending())
		if c.sent(n) {
			return nil
		}
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return errTimedOut
			}
			return err
		}
	}
}

// fail aborts the connection without a response. A connection that is
// already closed is released quietly.
func (s *Server) fail(c *Connection, err error) {
	phase := c.Phase()
	c.setPhase(PhaseAborted)
	_ = abort(c.conn)
	switch {
	case errors.Is(err, net.ErrClosed):
		c.logger.Debug().Msg("server.serveConn already closed")
	case errors.Is(err, errTimedOut):
		s.timedOut.Add(1)
		observability.RecordConnection(observability.OutcomeTimeout)
		c.logger.Warn().Int("received", c.recvLen).Msg("server.serveConn idle timeout, aborting")
	default:
		s.errored.Add(1)
		observability.RecordConnection(observability.OutcomeError)
		c.logger.Error().Err(err).Str("phase", string(phase)).Msg("server.serveConn transport error, aborting")
	}
}
