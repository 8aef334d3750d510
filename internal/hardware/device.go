package hardware

import (
	"context"
	"errors"
)

var (
	ErrConfirmTimeout = errors.New("hardware: status did not change after transmit")
	ErrDeviceClosed   = errors.New("hardware: device closed")
	ErrPortNotFound   = errors.New("hardware: serial port not found")
	ErrBadReply       = errors.New("hardware: unexpected device reply")
)

// Transmitter sends one 32-bit code. It returns once the code is queued on
// the signal line.
type Transmitter interface {
	Transmit(ctx context.Context, code uint32) error
}

// SignalReader returns the current raw status LED bits.
type SignalReader interface {
	ReadSignal(ctx context.Context) (Signal, error)
}

// Device is the full hardware boundary used by the dispatcher.
type Device interface {
	Transmitter
	SignalReader
}
