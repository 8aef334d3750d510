package server

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func testLogger() zerolog.Logger {
	return log.Logger
}
