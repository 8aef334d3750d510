package hardware

import (
	"context"
	"sync"

	"github.com/danmuck/snowdon/internal/commands"
	"github.com/rs/zerolog/log"
)

var simulatorInputs = []Signal{SignalOptical, SignalAux, SignalLineIn, SignalBluetooth}

// SimulatorConfig shapes the in-process soundbar model.
type SimulatorConfig struct {
	// SettleReads is how many reads return the transitional value after a
	// state change.
	SettleReads int
	PoweredOn   bool
	Input       Signal
}

// Simulator models the soundbar: power toggles standby and input cycles
// through the four sources while powered on.
type Simulator struct {
	mu          sync.Mutex
	powerCode   uint32
	inputCode   uint32
	settleReads int
	settling    int
	poweredOn   bool
	input       int
	sent        []uint32
}

func NewSimulator(cfg SimulatorConfig) *Simulator {
	table := commands.Default()
	sim := &Simulator{
		powerCode:   uint32(table.Resolve("power").Code),
		inputCode:   uint32(table.Resolve("input").Code),
		settleReads: max(cfg.SettleReads, 0),
		poweredOn:   cfg.PoweredOn,
	}
	for i, sig := range simulatorInputs {
		if sig == cfg.Input {
			sim.input = i
		}
	}
	return sim
}

func (s *Simulator) Transmit(ctx context.Context, code uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sent = append(s.sent, code)
	switch code {
	case s.powerCode:
		s.poweredOn = !s.poweredOn
		s.settling = s.settleReads
	case s.inputCode:
		if s.poweredOn {
			s.input = (s.input + 1) % len(simulatorInputs)
			s.settling = s.settleReads
		}
	}
	log.Debug().
		Uint32("code", code).
		Bool("powered_on", s.poweredOn).
		Stringer("signal", s.current()).
		Msg("hardware.Simulator.Transmit")
	return nil
}

func (s *Simulator) ReadSignal(ctx context.Context) (Signal, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settling > 0 {
		s.settling--
		return SignalTransitional, nil
	}
	return s.current(), nil
}

// Transmitted returns every code sent so far.
func (s *Simulator) Transmitted() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint32, len(s.sent))
	copy(out, s.sent)
	return out
}

func (s *Simulator) current() Signal {
	if !s.poweredOn {
		return SignalOff
	}
	return simulatorInputs[s.input]
}
