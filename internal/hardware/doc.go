// Package hardware owns the IR transmitter and the status LED signal.
//
// The status LED is sampled as three bits. Five values map to a stable
// device status; the rest are transitional and are never reported.
//
// Backends:
//
// - SerialDevice: co-processor on a USB serial link
//
// - Simulator: in-process soundbar model for running without hardware
package hardware
