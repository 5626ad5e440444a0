// Package sweep runs a system over sets of operating points, either across
// engine speeds or across a grid of engine parameters.
package sweep

import (
	"context"
	"fmt"

	"github.com/san-kum/enginesim/internal/dynamo"
	"github.com/san-kum/enginesim/internal/engine"
	"github.com/san-kum/enginesim/internal/system"
)

// Point is one finished operating point. System is the system that ran it;
// its samples describe this point only until the next one starts.
type Point struct {
	Index       int
	Speed       float64
	Performance engine.Performance
	System      *system.System
}

// Sequential runs sys to steady state at each speed in turn. Each point
// starts from the state the previous one left behind.
func Sequential(ctx context.Context, sys *system.System, set system.Settings, speeds []float64, onPoint func(Point) error) ([]engine.Performance, error) {
	if sys.Engine() == nil {
		return nil, dynamo.Configf("speed sweep needs an engine")
	}
	out := make([]engine.Performance, 0, len(speeds))
	for i, speed := range speeds {
		if err := sys.SetSpeed(speed); err != nil {
			return out, err
		}
		perf, err := sys.AdvanceToSteadyState(ctx, set)
		if err != nil {
			return out, fmt.Errorf("%.0f RPM: %w", speed, err)
		}
		out = append(out, perf)
		if onPoint != nil {
			if err := onPoint(Point{Index: i, Speed: speed, Performance: perf, System: sys}); err != nil {
				return out, err
			}
		}
	}
	return out, nil
}
