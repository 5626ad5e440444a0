package system

import (
	"math"

	"github.com/san-kum/enginesim/internal/dynamo"
	"github.com/san-kum/enginesim/internal/integrators"
)

// Settings controls AdvanceToSteadyState.
type Settings struct {
	CrankStep    float64 // [deg]
	MaxCycles    int
	MaxTime      float64 // [s]
	FallbackStep float64 // [s] time step of systems without an engine
	MaxSamples   int     // 0 means unbounded
	Integrator   string
}

func DefaultSettings() Settings {
	return Settings{
		CrankStep:    0.1,
		MaxCycles:    10,
		MaxTime:      5,
		FallbackStep: 1e-5,
		Integrator:   "rk4",
	}
}

func (s Settings) Validate() error {
	if s.CrankStep <= 0 || s.CrankStep > 720 {
		return dynamo.Configf("crank step must be in (0, 720] deg, got %g", s.CrankStep)
	}
	if s.MaxCycles < 1 {
		return dynamo.Configf("max cycles must be at least 1, got %d", s.MaxCycles)
	}
	if s.MaxTime <= 0 {
		return dynamo.Configf("max time must be positive, got %g s", s.MaxTime)
	}
	if s.FallbackStep <= 0 {
		return dynamo.Configf("fallback step must be positive, got %g s", s.FallbackStep)
	}
	if s.MaxSamples < 0 {
		return dynamo.Configf("max samples must not be negative, got %d", s.MaxSamples)
	}
	if _, err := integrators.ByName(s.Integrator); err != nil {
		return err
	}
	return nil
}

// StepsPerCycle is the number of crank steps in one four-stroke cycle.
func (s Settings) StepsPerCycle() int {
	return int(math.Round(720 / s.CrankStep))
}
