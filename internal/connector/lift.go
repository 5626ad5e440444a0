package connector

import "github.com/san-kum/enginesim/internal/dynamo"

// AccelerationRatio is the ratio between the negative and positive cam
// accelerations of the lift profile.
const AccelerationRatio = -2.0

// LiftProfile is a three-segment piecewise quadratic lift/diameter curve over
// the open duration. Lift, velocity and acceleration ratio are matched at the
// segment boundaries and the peak sits at half the duration.
type LiftProfile struct {
	duration float64 // [deg]
	maxRatio float64
	a1       float64
	b1       float64
	b2       float64
	b3       float64
	c1       float64
	c2       float64
	c3       float64
	edges    [2]float64
}

// NewLiftProfile builds the profile for the given maximum lift/diameter and
// open duration [deg].
func NewLiftProfile(maxRatio, duration float64) (*LiftProfile, error) {
	if maxRatio <= 0 || duration <= 0 || duration > 720 {
		return nil, dynamo.Configf("lift profile: max lift/diameter %g and duration %g deg must be positive (duration at most 720)", maxRatio, duration)
	}
	ar := AccelerationRatio
	p := &LiftProfile{duration: duration, maxRatio: maxRatio}
	p.a1 = 4 * maxRatio * (1 - ar) / (duration * duration)
	p.b1 = p.a1 / ar
	p.b2 = -p.b1 * duration
	p.b3 = -p.b2 * duration / (4 * (1 - ar))
	p.c1 = p.a1
	p.c2 = -2 * p.a1 * duration
	p.c3 = p.a1 * duration * duration

	n := 2 * (1 - ar)
	p.edges = [2]float64{duration / n, (n - 1) * duration / n}
	return p, nil
}

// Ratio returns lift/diameter at angle degrees after opening.
func (p *LiftProfile) Ratio(angle float64) float64 {
	switch {
	case angle <= p.edges[0]:
		return p.a1 * angle * angle
	case angle >= p.edges[1]:
		return p.c1*angle*angle + p.c2*angle + p.c3
	default:
		return p.b1*angle*angle + p.b2*angle + p.b3
	}
}

func (p *LiftProfile) Duration() float64 { return p.duration }
func (p *LiftProfile) MaxRatio() float64 { return p.maxRatio }
