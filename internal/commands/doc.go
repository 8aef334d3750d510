// Package commands owns the static remote-command table.
//
// Three codes are reserved and never transmitted:
//
// - CodeStatus: query the device status instead of transmitting
//
// - CodeUnknown: a command name was supplied but is not in the table
//
// - CodeNone: no command was supplied at all
//
// Every other code is a 32-bit NEC frame handed to the transmitter as-is.
package commands
