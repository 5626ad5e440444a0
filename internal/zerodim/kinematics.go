package zerodim

import (
	"math"

	"github.com/san-kum/enginesim/internal/dynamo"
)

// Kinematics is a slider-crank mechanism with an optional piston-pin offset.
// Angles are crank-angle radians measured from firing top dead centre.
type Kinematics struct {
	bore         float64 // [m]
	conrod       float64 // [m]
	eccentricity float64 // [m]
	displacement float64 // [m³]
	compression  float64

	area      float64 // piston crown [m²]
	stroke    float64 // [m]
	crank     float64 // [m]
	clearance float64 // [m³]
	tdc       float64 // crank offset of top dead centre [rad]
	reach     float64 // (l + r)·cos(tdc) [m]
}

// NewKinematics builds the mechanism from lengths in metres and displacement in m³.
func NewKinematics(bore, conrod, eccentricity, displacement, compression float64) (*Kinematics, error) {
	if bore <= 0 {
		return nil, dynamo.Configf("bore must be positive, got %g m", bore)
	}
	if displacement <= 0 {
		return nil, dynamo.Configf("displacement must be positive, got %g m³", displacement)
	}
	if conrod <= 0 {
		return nil, dynamo.Configf("connecting rod must be positive, got %g m", conrod)
	}
	k := &Kinematics{
		bore:         bore,
		conrod:       conrod,
		eccentricity: eccentricity,
		area:         0.25 * math.Pi * bore * bore,
	}
	if err := k.resize(displacement, compression); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *Kinematics) resize(displacement, compression float64) error {
	if displacement <= 0 {
		return dynamo.Configf("displacement must be positive, got %g m³", displacement)
	}
	if compression <= 1 {
		return dynamo.Configf("compression ratio must exceed 1, got %g", compression)
	}
	stroke := displacement / k.area
	crank := 0.5 * stroke
	if k.conrod <= crank+math.Abs(k.eccentricity) {
		return dynamo.Configf("connecting rod %g m too short for crank radius %g m and offset %g m", k.conrod, crank, k.eccentricity)
	}
	k.displacement = displacement
	k.compression = compression
	k.stroke = stroke
	k.crank = crank
	k.clearance = displacement / (compression - 1)
	k.tdc = math.Asin(k.eccentricity / (k.conrod + k.crank))
	k.reach = (k.conrod + k.crank) * math.Cos(k.tdc)
	return nil
}

// Volume returns V [m³] and dV/dθ [m³/rad] at crank angle theta.
func (k *Kinematics) Volume(theta float64) (v, dv float64) {
	phi := theta + k.tdc
	sinPhi, cosPhi := math.Sincos(phi)
	sinGamma := (k.crank*sinPhi - k.eccentricity) / k.conrod
	cosGamma := math.Sqrt(1 - sinGamma*sinGamma)

	x := k.reach - k.crank*cosPhi - k.conrod*cosGamma
	tmp := (k.crank / k.conrod) * (cosPhi / cosGamma)
	dx := k.crank*sinPhi*(1+tmp) - k.eccentricity*tmp
	return k.area*x + k.clearance, k.area * dx
}

// VolumeTable samples V over one cycle every step radians.
func (k *Kinematics) VolumeTable(step float64) (angles, volumes []float64) {
	n := int(math.Ceil(dynamo.FourStroke / step))
	angles = make([]float64, n)
	volumes = make([]float64, n)
	for i := range angles {
		angles[i] = float64(i) * step
		volumes[i], _ = k.Volume(angles[i])
	}
	return angles, volumes
}

func (k *Kinematics) Bore() float64             { return k.bore }
func (k *Kinematics) Stroke() float64           { return k.stroke }
func (k *Kinematics) PistonArea() float64       { return k.area }
func (k *Kinematics) Displacement() float64     { return k.displacement }
func (k *Kinematics) Clearance() float64        { return k.clearance }
func (k *Kinematics) CompressionRatio() float64 { return k.compression }

// MeanPistonSpeed returns 2·stroke·n [m/s] for a speed in RPM.
func (k *Kinematics) MeanPistonSpeed(rpm float64) float64 {
	return 2 * k.stroke * rpm / 60
}
