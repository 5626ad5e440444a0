package connector

import (
	"math"

	"github.com/san-kum/enginesim/internal/dynamo"
)

// backflowShare is the weight of the upstream state while backflow is pending.
const backflowShare = 0.5

// Valve is a poppet valve driven by the crank angle of the cylinder it is
// attached to. The cylinder is always endpoint 0.
type Valve struct {
	link
	opening  float64 // [deg]
	closing  float64 // [deg]
	window   float64 // closing - opening [deg], negative when straddling 720
	diameter float64 // [m]
	maxLift  float64 // [m]
	area     float64 // [m²]
	profile  *LiftProfile

	angle    float64 // [deg]
	throat   float64 // [m²]
	backflow float64 // [kg]
}

// NewValve builds a valve on cylinder opening and closing at the given
// crank angles [deg, firing TDC = 0], with diameter and maximum lift in metres.
func NewValve(name, cylinder string, opening, closing, diameter, maxLift float64) (*Valve, error) {
	fail := func(err error) (*Valve, error) {
		return nil, &dynamo.ObjectError{Object: name, Op: "new valve", Err: err}
	}
	if cylinder == "" {
		return fail(dynamo.Configf("valve must belong to a cylinder"))
	}
	if opening < 0 || opening >= 720 || closing < 0 || closing >= 720 {
		return fail(dynamo.Configf("opening %g and closing %g must be in [0, 720) deg", opening, closing))
	}
	if opening == closing {
		return fail(dynamo.Configf("opening and closing angles are equal (%g deg)", opening))
	}
	if diameter <= 0 || maxLift <= 0 {
		return fail(dynamo.Configf("diameter %g m and max lift %g m must be positive", diameter, maxLift))
	}

	window := closing - opening
	duration := window
	if duration < 0 {
		duration += 720
	}
	profile, err := NewLiftProfile(maxLift/diameter, duration)
	if err != nil {
		return fail(err)
	}
	return &Valve{
		link:     link{name: name, endpoints: []string{cylinder}},
		opening:  opening,
		closing:  closing,
		window:   window,
		diameter: diameter,
		maxLift:  maxLift,
		area:     0.25 * math.Pi * diameter * diameter,
		profile:  profile,
	}, nil
}

func (v *Valve) Kind() Kind { return KindValve }

func (v *Valve) Cylinder() string { return v.endpoints[0] }

func (v *Valve) Opening() float64  { return v.opening }
func (v *Valve) Closing() float64  { return v.closing }
func (v *Valve) Diameter() float64 { return v.diameter }
func (v *Valve) MaxLift() float64  { return v.maxLift }

// Backflow returns the mass [kg] that left the cylinder and was not yet
// replaced through this valve.
func (v *Valve) Backflow() float64 { return v.backflow }

func (v *Valve) ThroatArea() float64 { return v.throat }

// IsOpen reports whether the valve is open at angle [deg, 0..720).
func (v *Valve) IsOpen(angle float64) bool {
	if v.window < 0 {
		return !(angle < v.opening && angle > v.closing)
	}
	return !(angle < v.opening || angle > v.closing)
}

// LiftRatio returns lift/diameter at angle [deg]; zero while closed.
func (v *Valve) LiftRatio(angle float64) float64 {
	if !v.IsOpen(angle) {
		return 0
	}
	since := angle - v.opening
	if since < 0 {
		since += 720
	}
	return v.profile.Ratio(since)
}

// ThroatAreaAt maps a lift/diameter ratio to the flow area [m²].
func (v *Valve) ThroatAreaAt(ratio float64) float64 {
	d := v.diameter
	lift := ratio * d
	switch {
	case ratio <= 0.125:
		return 2.22144146908 * lift * (d + 0.5*lift)
	case ratio <= 0.274049:
		return 3.33794219444 * d * math.Sqrt(lift*lift-0.125*lift*d+0.0078125*d*d)
	default:
		return 0.73631077818 * d * d
	}
}

// dischargeCoefficient is the empirical Cd referred to the throat area.
// intoCylinder selects the inflow correlation.
func (v *Valve) dischargeCoefficient(ratio, throat float64, intoCylinder bool) float64 {
	if throat < 1e-10 {
		return 0
	}
	x := ratio
	var cd float64
	if intoCylinder {
		cd = 70.60033*x*x*x*x - 53.48961*x*x*x + 8.324442*x*x + 2.341224*x
	} else {
		cd = 58.48379*x*x*x*x - 41.68971*x*x*x + 4.793636*x*x + 2.759528*x
	}
	return cd * v.area / throat
}

func (v *Valve) UpdateFlow(states []dynamo.Properties, dt float64) error {
	if err := v.checkStates(states); err != nil {
		return err
	}
	var rad float64
	found := false
	for _, s := range states {
		if s.HasCrankAngle {
			rad, found = s.CrankAngle, true
		}
	}
	if !found {
		return &dynamo.ObjectError{Object: v.name, Op: "update flow", Err: dynamo.Invariantf("no endpoint reports a crank angle")}
	}
	v.angle = rad * 180 / math.Pi

	if !v.IsOpen(v.angle) {
		v.resetFlow()
		v.throat = 0
		v.backflow = 0
		return nil
	}
	ratio := v.LiftRatio(v.angle)
	v.throat = v.ThroatAreaAt(ratio)

	up, down, ok := direction(states[0].Pressure, states[1].Pressure, 1.000000001, 0.999999991)
	if !ok {
		v.resetFlow()
		return nil
	}

	u, d := &states[up], &states[down]
	t, k, r := u.Temperature, u.K, u.GasConst
	if v.backflow > 0 && down == 0 {
		w := backflowShare
		t = w*u.Temperature + (1-w)*d.Temperature
		k = w*u.K + (1-w)*d.K
		r = w*u.GasConst + (1-w)*d.GasConst
	}

	cd := v.dischargeCoefficient(ratio, v.throat, down == 0)
	mdot := orificeFlow(cd*v.throat, u.Pressure, t, k, r, d.Pressure)
	v.post(up, down, dynamo.FlowRatio{MassFlow: mdot, EnthalpyFlow: enthalpyFlow(mdot, k, r, t)})

	v.backflow -= v.flows[0].MassFlow * dt
	if v.backflow < 0 {
		v.backflow = 0
	}
	return nil
}

func (v *Valve) Headers() []string {
	return []string{"crank-angle [deg]", "mass flow [kg/s]", "enthalpy flow [J/s]", "throat area [cm²]", "backflow [mg]"}
}

// Sample reports flows into the cylinder.
func (v *Valve) Sample() []float64 {
	return []float64{v.angle, v.flows[0].MassFlow, v.flows[0].EnthalpyFlow, v.throat * 1e4, v.backflow * 1e6}
}

// ProfilePoint is one row of the valve lift/area table.
type ProfilePoint struct {
	Angle      float64 // [deg]
	ThroatArea float64 // [m²]
	Lift       float64 // [m]
}

// Profile tabulates throat area and lift over one cycle.
func (v *Valve) Profile(step float64) ([]ProfilePoint, error) {
	if step <= 0 {
		return nil, dynamo.Configf("profile step must be positive, got %g", step)
	}
	n := int(math.Ceil(720 / step))
	out := make([]ProfilePoint, 0, n)
	for i := 0; i < n; i++ {
		a := float64(i) * step
		ratio := v.LiftRatio(a)
		p := ProfilePoint{Angle: a}
		if v.IsOpen(a) {
			p.ThroatArea = v.ThroatAreaAt(ratio)
			p.Lift = ratio * v.diameter
		}
		out = append(out, p)
	}
	return out, nil
}
