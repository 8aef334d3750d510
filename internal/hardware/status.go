package hardware

import "fmt"

// Signal is the 3-bit status LED reading, one bit per colour channel.
type Signal uint8

const signalMask Signal = 0b111

const (
	SignalOff          Signal = 0b110
	SignalOptical      Signal = 0b100
	SignalAux          Signal = 0b000
	SignalLineIn       Signal = 0b101
	SignalBluetooth    Signal = 0b011
	SignalTransitional Signal = 0b111
)

func (s Signal) String() string {
	return fmt.Sprintf("%03b", uint8(s&signalMask))
}

// Status is a stable, reportable device state.
type Status struct {
	Signal Signal `json:"-"`
	OnOff  string `json:"onoff"`
	Input  string `json:"input"`
}

var statusTable = map[Signal]Status{
	SignalOff:       {Signal: SignalOff, OnOff: "off", Input: "off"},
	SignalOptical:   {Signal: SignalOptical, OnOff: "on", Input: "optical"},
	SignalAux:       {Signal: SignalAux, OnOff: "on", Input: "aux"},
	SignalLineIn:    {Signal: SignalLineIn, OnOff: "on", Input: "line-in"},
	SignalBluetooth: {Signal: SignalBluetooth, OnOff: "on", Input: "bluetooth"},
}

// Classify maps a raw reading to a Status. It reports false for the
// transitional value and for bit patterns with no defined status.
func Classify(sig Signal) (Status, bool) {
	st, ok := statusTable[sig&signalMask]
	return st, ok
}
