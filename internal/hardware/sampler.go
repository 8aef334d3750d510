package hardware

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultSampleInterval  = 50 * time.Millisecond
	DefaultConfirmAttempts = 12
)

// SamplerConfig controls status polling.
type SamplerConfig struct {
	Interval        time.Duration
	ConfirmAttempts int
}

func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{
		Interval:        DefaultSampleInterval,
		ConfirmAttempts: DefaultConfirmAttempts,
	}
}

func (c SamplerConfig) WithDefaults() SamplerConfig {
	if c.Interval < 0 {
		c.Interval = DefaultSampleInterval
	}
	if c.ConfirmAttempts <= 0 {
		c.ConfirmAttempts = DefaultConfirmAttempts
	}
	return c
}

// Sampler reads and classifies the status signal.
type Sampler struct {
	reader SignalReader
	cfg    SamplerConfig
}

func NewSampler(reader SignalReader, cfg SamplerConfig) *Sampler {
	return &Sampler{reader: reader, cfg: cfg.WithDefaults()}
}

func (s *Sampler) Config() SamplerConfig {
	return s.cfg
}

// Sample blocks until the signal settles on a defined status. There is no
// retry bound; only ctx ends the wait early.
func (s *Sampler) Sample(ctx context.Context) (Status, error) {
	for attempt := 1; ; attempt++ {
		sig, err := s.reader.ReadSignal(ctx)
		if err != nil {
			return Status{}, err
		}
		if st, ok := Classify(sig); ok {
			if attempt > 1 {
				log.Debug().
					Int("attempts", attempt).
					Stringer("signal", sig).
					Msg("hardware.Sampler.Sample settled")
			}
			return st, nil
		}
		if err := sleep(ctx, s.cfg.Interval); err != nil {
			return Status{}, err
		}
	}
}

// Confirm polls the raw signal up to ConfirmAttempts times, one interval
// apart, and succeeds on the first reading that differs from before.
func (s *Sampler) Confirm(ctx context.Context, before Signal) error {
	before &= signalMask
	for attempt := 1; attempt <= s.cfg.ConfirmAttempts; attempt++ {
		if err := sleep(ctx, s.cfg.Interval); err != nil {
			return err
		}
		sig, err := s.reader.ReadSignal(ctx)
		if err != nil {
			return err
		}
		if sig&signalMask != before {
			log.Debug().
				Int("attempt", attempt).
				Stringer("before", before).
				Stringer("after", sig).
				Msg("hardware.Sampler.Confirm changed")
			return nil
		}
	}
	return ErrConfirmTimeout
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
