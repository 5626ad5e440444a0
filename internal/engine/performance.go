package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/enginesim/internal/dynamo"
)

// PerformanceHeader is the column header of a performance table.
var PerformanceHeader = []string{
	"Speed [RPM]",
	"Power [W]",
	"Torque [Nm]",
	"IMEP [bar]",
	"Efficiency [%]",
	"Volumetric effic [%]",
	"Residual mass [%]",
}

// Performance holds the indicated figures of one operating point.
type Performance struct {
	Speed                float64 `json:"speed"`
	Power                float64 `json:"power"`
	Torque               float64 `json:"torque"`
	IMEP                 float64 `json:"imep"`
	Efficiency           float64 `json:"efficiency"`
	VolumetricEfficiency float64 `json:"volumetric_efficiency"`
	Residual             float64 `json:"residual"`
}

// Trace is one cylinder's pressure [Pa] and volume [m³] over the final cycle.
type Trace struct {
	Pressure []float64
	Volume   []float64
}

// Work integrates the indicated work of the trace with the trapezoidal rule,
// relative to the reference pressure [J].
func (t Trace) Work() (float64, error) {
	if len(t.Pressure) != len(t.Volume) {
		return 0, dynamo.Invariantf("trace has %d pressures and %d volumes", len(t.Pressure), len(t.Volume))
	}
	w := 0.0
	for i := 1; i < len(t.Volume); i++ {
		w += (t.Volume[i] - t.Volume[i-1]) * (0.5*(t.Pressure[i]+t.Pressure[i-1]) - dynamo.PRef)
	}
	return w, nil
}

// Performance computes the indicated figures from one trace per cylinder, in
// cylinder order, together with each cylinder's trapped mass, residual and fuel.
func (e *Engine) Performance(traces []Trace) (Performance, error) {
	if len(traces) != len(e.cylinders) {
		return Performance{}, dynamo.Invariantf("%d traces for %d cylinders", len(traces), len(e.cylinders))
	}
	perf := Performance{Speed: e.cfg.Speed}
	var work, fuel, trapped, residual float64
	for i, c := range e.cylinders {
		w, err := traces[i].Work()
		if err != nil {
			return Performance{}, &dynamo.ObjectError{Object: c.Name(), Op: "performance", Err: err}
		}
		work += w
		fuel += c.FuelMass()
		trapped += c.TrappedMass()
		residual += c.ResidualFraction()
	}
	vd := e.TotalDisplacement()
	perf.Power = work * perf.Speed / 120
	perf.Torque = perf.Power / (perf.Speed * math.Pi / 30)
	perf.IMEP = work / vd * 1e-5
	if e.fuel != nil && fuel > 0 {
		perf.Efficiency = 100 * work / (fuel * e.fuel.LHV)
	}
	// Reference air density at TRef and PRef.
	perf.VolumetricEfficiency = 100 * trapped / (dynamo.PRef * vd / (287 * dynamo.TRef))
	perf.Residual = 100 * residual / float64(len(e.cylinders))
	return perf, nil
}

func (p Performance) Values() []float64 {
	return []float64{p.Speed, p.Power, p.Torque, p.IMEP, p.Efficiency, p.VolumetricEfficiency, p.Residual}
}

// Row formats the figures as one tab-separated table line.
func (p Performance) Row() string {
	var b strings.Builder
	for i, v := range p.Values() {
		if i == 0 {
			fmt.Fprintf(&b, "%.1f", v)
			continue
		}
		fmt.Fprintf(&b, "\t%.2f", v)
	}
	return b.String()
}

// FormatTable renders a header line followed by one row per operating point.
func FormatTable(rows []Performance) string {
	var b strings.Builder
	b.WriteString(strings.Join(PerformanceHeader, "\t"))
	b.WriteByte('\n')
	for _, r := range rows {
		b.WriteString(r.Row())
		b.WriteByte('\n')
	}
	return b.String()
}
