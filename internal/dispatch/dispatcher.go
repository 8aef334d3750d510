package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/snowdon/internal/commands"
	"github.com/danmuck/snowdon/internal/hardware"
	"github.com/danmuck/snowdon/internal/observability"
	"github.com/danmuck/snowdon/internal/protocol"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	msgVersion         = "HTTP version must be 1.1"
	msgEndpoint        = "Endpoint not found"
	msgMethod          = "HTTP method not supported"
	msgUnknownCommand  = "code not recognised"
	msgCommandRequired = "code variable required"
)

var (
	respOK = protocol.Response{Status: protocol.StatusOK, Body: "{\"status\": \"ok\"}\n"}
	respNG = protocol.Response{Status: protocol.StatusInternalServerError, Body: "{\"status\": \"ng\"}\n"}
)

// Sampler reads a settled status and confirms a post-transmit change.
type Sampler interface {
	Sample(ctx context.Context) (hardware.Status, error)
	Confirm(ctx context.Context, before hardware.Signal) error
}

// Dispatcher turns a parsed request into a hardware action and response.
// It is driven by one connection at a time and holds no per-request state.
type Dispatcher struct {
	table   *commands.Table
	tx      hardware.Transmitter
	sampler Sampler
	listing protocol.Response
	logger  zerolog.Logger
}

type Option func(*Dispatcher)

func WithLogger(logger zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func New(table *commands.Table, tx hardware.Transmitter, sampler Sampler, opts ...Option) *Dispatcher {
	if table == nil {
		table = commands.Default()
	}
	d := &Dispatcher{
		table:   table,
		tx:      tx,
		sampler: sampler,
		listing: commandListing(table),
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle applies the first matching rule: version, path, listing, method,
// then the command itself.
func (d *Dispatcher) Handle(ctx context.Context, req protocol.Request) protocol.Response {
	start := time.Now()
	resp := d.handle(ctx, req)
	observability.RecordRequest(req.Method.String(), int(resp.Status), time.Since(start))
	return resp
}

func (d *Dispatcher) handle(ctx context.Context, req protocol.Request) protocol.Response {
	if req.Version != protocol.Version11 {
		return protocol.Message(protocol.StatusBadRequest, msgVersion)
	}
	if req.Path != "/" {
		return protocol.Message(protocol.StatusBadRequest, msgEndpoint)
	}
	if req.Method == protocol.MethodGet {
		return d.listing
	}
	if req.Method != protocol.MethodPut {
		return protocol.Message(protocol.StatusBadRequest, msgMethod)
	}

	switch {
	case req.Code.IsTransmit():
		return d.transmit(ctx, req)
	case req.Code == commands.CodeStatus:
		return d.status(ctx)
	case req.Code == commands.CodeUnknown:
		return protocol.Message(protocol.StatusBadRequest, msgUnknownCommand)
	default:
		return protocol.Message(protocol.StatusBadRequest, msgCommandRequired)
	}
}

func (d *Dispatcher) transmit(ctx context.Context, req protocol.Request) protocol.Response {
	var before hardware.Status
	if req.ChangesState {
		st, err := d.sampler.Sample(ctx)
		if err != nil {
			d.logger.Error().Err(err).Str("command", req.Command).Msg("dispatch.transmit pre-sample failed")
			return respNG
		}
		before = st
	}

	if err := d.tx.Transmit(ctx, uint32(req.Code)); err != nil {
		d.logger.Error().Err(err).Str("command", req.Command).Stringer("code", req.Code).Msg("dispatch.transmit failed")
		return respNG
	}
	observability.RecordTransmit(req.Command)
	d.logger.Info().Str("command", req.Command).Stringer("code", req.Code).Msg("dispatch.transmit sent")

	resp := respOK
	if !req.ChangesState {
		return resp
	}

	err := d.sampler.Confirm(ctx, before.Signal)
	switch {
	case err == nil:
		observability.RecordConfirmation(observability.ConfirmConfirmed)
	case errors.Is(err, hardware.ErrConfirmTimeout):
		observability.RecordConfirmation(observability.ConfirmTimeout)
		d.logger.Warn().
			Str("command", req.Command).
			Str("before", before.Input).
			Msg("dispatch.transmit status unchanged")
		resp = respNG
	default:
		observability.RecordConfirmation(observability.ConfirmError)
		d.logger.Error().Err(err).Str("command", req.Command).Msg("dispatch.transmit confirm failed")
		resp = respNG
	}
	return resp
}

func (d *Dispatcher) status(ctx context.Context) protocol.Response {
	st, err := d.sampler.Sample(ctx)
	if err != nil {
		d.logger.Error().Err(err).Msg("dispatch.status sample failed")
		return respNG
	}
	return StatusResponse(st)
}

// StatusResponse renders a settled status as the status query body.
func StatusResponse(st hardware.Status) protocol.Response {
	return protocol.Response{
		Status: protocol.StatusOK,
		Body:   fmt.Sprintf("{\"onoff\": %q, \"input\": %q}\n", st.OnOff, st.Input),
	}
}

func commandListing(table *commands.Table) protocol.Response {
	names := table.Names()
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = fmt.Sprintf("%q", name)
	}
	return protocol.Response{
		Status: protocol.StatusOK,
		Body:   "{\"code\": [" + strings.Join(quoted, ", ") + "]}\n",
	}
}
