package server

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Phase is the lifecycle position of the live connection.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseAccepted   Phase = "accepted"
	PhaseReceiving  Phase = "receiving"
	PhaseProcessing Phase = "processing"
	PhaseSending    Phase = "sending"
	PhaseClosed     Phase = "closed"
	PhaseAborted    Phase = "aborted"
)

// Connection is the state of the one live client. It is created on accept
// and dropped on close; nothing in it outlives the client.
type Connection struct {
	ID       string
	Remote   string
	Accepted time.Time

	conn   net.Conn
	logger zerolog.Logger
	phase  atomic.Value

	recvBuf    []byte
	recvLen    int
	sendBuf    []byte
	sentLen    int
	payloadLen int
}

func newConnection(conn net.Conn, bufferSize int, logger zerolog.Logger) *Connection {
	id := uuid.NewString()
	remote := conn.RemoteAddr().String()
	c := &Connection{
		ID:       id,
		Remote:   remote,
		Accepted: time.Now(),
		conn:     conn,
		logger:   logger.With().Str("conn", id).Str("remote", remote).Logger(),
		recvBuf:  make([]byte, bufferSize),
		sendBuf:  make([]byte, bufferSize),
	}
	c.setPhase(PhaseAccepted)
	return c
}

func (c *Connection) Phase() Phase {
	p, _ := c.phase.Load().(Phase)
	return p
}

func (c *Connection) setPhase(p Phase) {
	c.phase.Store(p)
	c.logger.Debug().Str("phase", string(p)).Msg("server.Connection phase")
}

// receive copies chunk into the receive buffer up to capacity and returns
// the number of bytes dropped.
func (c *Connection) receive(chunk []byte) int {
	n := copy(c.recvBuf[c.recvLen:], chunk)
	c.recvLen += n
	return len(chunk) - n
}

func (c *Connection) received() []byte {
	return c.recvBuf[:c.recvLen]
}

func (c *Connection) full() bool {
	return c.recvLen == len(c.recvBuf)
}

// sent accumulates written bytes and reports whether the payload is done.
func (c *Connection) sent(n int) bool {
	c.sentLen += n
	return c.sentLen == c.payloadLen
}

func (c *Connection) pending() []byte {
	return c.sendBuf[c.sentLen:c.payloadLen]
}

// abort resets the socket instead of closing it gracefully.
func abort(conn net.Conn) error {
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetLinger(0)
	}
	return conn.Close()
}
