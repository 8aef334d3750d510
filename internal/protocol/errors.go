package protocol

import "errors"

var (
	ErrResponseTooLarge = errors.New("protocol: response exceeds send buffer")
)
