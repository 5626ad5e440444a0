package system_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/enginesim/internal/dynamo"
	"github.com/san-kum/enginesim/internal/engine"
	"github.com/san-kum/enginesim/internal/system"
	"github.com/san-kum/enginesim/internal/thermo"
	"github.com/san-kum/enginesim/internal/zerodim"
)

func gasAt(t, p float64) *thermo.Gas {
	g, err := thermo.NewGas("air", thermo.DefaultTable(), t, p, "O2:0.21, N2:0.79")
	Expect(err).NotTo(HaveOccurred())
	return g
}

func motoredEngine() engine.Config {
	return engine.Config{
		Speed:        7500,
		ConRod:       58.2,
		Displacement: 26.2,
		Bore:         32,
		FiringOrder:  "1",
		Cylinders: []engine.CylinderConfig{{
			Name:             "cyl_1",
			CompressionRatio: 8.5,
			WallTemperature:  470,
			IntakeValves:     []engine.ValveConfig{{Name: "valve_int", OpeningAngle: 340, ClosingAngle: 590, Diameter: 10, MaxLift: 3}},
			ExhaustValves:    []engine.ValveConfig{{Name: "valve_exh", OpeningAngle: 130, ClosingAngle: 380, Diameter: 10, MaxLift: 3}},
		}},
	}
}

type duct struct{}

func (duct) Name() string    { return "runner" }
func (duct) Length() float64 { return 0.2 }

type cycleCounter struct{ calls, last, total int }

func (c *cycleCounter) OnCycle(cycle, cycles int, _ float64) {
	c.calls++
	c.last, c.total = cycle, cycles
}

var _ = Describe("Builder", func() {
	var amb *thermo.Gas

	BeforeEach(func() {
		amb = gasAt(293, 101325)
	})

	It("resolves a reservoir network", func() {
		sys, err := system.NewBuilder().
			AddEnvironment("ambient", amb).
			AddReservoir("chamber", 500, amb).
			AddOrifice("hole", 50, 0.9, "chamber", "ambient").
			Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(sys.Names()).To(Equal([]string{"ambient", "chamber", "hole"}))
		Expect(sys.Engine()).To(BeNil())
		r, err := sys.Element("chamber")
		Expect(err).NotTo(HaveOccurred())
		Expect(r.(*zerodim.Reservoir).Volume()).To(BeNumerically("~", 500e-6, 1e-15))
	})

	It("attaches endpoints with Connect", func() {
		_, err := system.NewBuilder().
			AddEnvironment("ambient", amb).
			AddReservoir("chamber", 500, amb).
			AddOrifice("hole", 50, 0.9, "chamber").
			Connect("hole", "ambient").
			Build()
		Expect(err).NotTo(HaveOccurred())
	})

	DescribeTable("rejects invalid networks",
		func(build func(*system.Builder) *system.Builder) {
			_, err := build(system.NewBuilder()).Build()
			Expect(err).To(MatchError(dynamo.ErrConfiguration))
		},
		Entry("unconnected element", func(b *system.Builder) *system.Builder {
			return b.AddEnvironment("ambient", amb).AddReservoir("chamber", 500, amb).AddReservoir("lonely", 10, amb).
				AddOrifice("hole", 50, 0.9, "chamber", "ambient")
		}),
		Entry("unresolved endpoint", func(b *system.Builder) *system.Builder {
			return b.AddEnvironment("ambient", amb).AddOrifice("hole", 50, 0.9, "chamber", "ambient")
		}),
		Entry("single endpoint", func(b *system.Builder) *system.Builder {
			return b.AddEnvironment("ambient", amb).AddOrifice("hole", 50, 0.9, "ambient")
		}),
		Entry("duplicate name", func(b *system.Builder) *system.Builder {
			return b.AddEnvironment("ambient", amb).AddReservoir("ambient", 500, amb)
		}),
		Entry("third endpoint", func(b *system.Builder) *system.Builder {
			return b.AddEnvironment("ambient", amb).AddReservoir("chamber", 500, amb).AddReservoir("other", 5, amb).
				AddOrifice("hole", 50, 0.9, "chamber", "ambient").Connect("hole", "other")
		}),
		Entry("unknown connector", func(b *system.Builder) *system.Builder {
			return b.AddEnvironment("ambient", amb).Connect("hole", "ambient")
		}),
		Entry("duct", func(b *system.Builder) *system.Builder {
			return b.AddEnvironment("ambient", amb).AddDuct(duct{})
		}),
		Entry("negative reservoir volume", func(b *system.Builder) *system.Builder {
			return b.AddEnvironment("ambient", amb).AddReservoir("chamber", -1, amb)
		}),
		Entry("unconnected valve", func(b *system.Builder) *system.Builder {
			return b.AddEngine(motoredEngine(), amb).AddEnvironment("ambient", amb).Connect("valve_int", "ambient")
		}),
		Entry("orifice into a cylinder", func(b *system.Builder) *system.Builder {
			return b.AddEngine(motoredEngine(), amb).AddEnvironment("ambient", amb).
				Connect("valve_int", "ambient").Connect("valve_exh", "ambient").
				AddOrifice("leak", 1, 0.6, "cyl_1", "ambient")
		}),
		Entry("two engines", func(b *system.Builder) *system.Builder {
			return b.AddEngine(motoredEngine(), amb).AddEngine(motoredEngine(), amb)
		}),
		Entry("empty system", func(b *system.Builder) *system.Builder { return b }),
	)

	It("keeps the first error", func() {
		b := system.NewBuilder().AddEnvironment("", amb).AddDuct(duct{})
		Expect(b.Err()).To(MatchError(ContainSubstring("needs a name")))
	})
})

var _ = Describe("Reservoir relaxation", func() {
	It("drives the chamber to ambient pressure", func() {
		amb := gasAt(293, 101325)
		sys, err := system.NewBuilder().
			AddEnvironment("ambient", amb).
			AddReservoir("chamber", 500, gasAt(293, 1.2*101325)).
			AddOrifice("hole", 50, 0.9, "chamber", "ambient").
			Build()
		Expect(err).NotTo(HaveOccurred())

		set := system.DefaultSettings()
		set.FallbackStep = 1e-6
		set.MaxTime = 0.02
		counter := &cycleCounter{}
		sys.AddObserver(counter)
		perf, err := sys.AdvanceToSteadyState(context.Background(), set)
		Expect(err).NotTo(HaveOccurred())
		Expect(perf).To(Equal(engine.Performance{}))
		Expect(sys.History()).To(BeEmpty())
		Expect(counter.calls).To(Equal(1))

		el, err := sys.Element("chamber")
		Expect(err).NotTo(HaveOccurred())
		Expect(el.State().Pressure).To(BeNumerically("~", 101325, 50))
		Expect(math.Abs(el.(*zerodim.Reservoir).Flow().MassFlow)).To(BeNumerically("<", 1e-2))

		rows, err := sys.Samples("chamber")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows[0][0]).To(BeNumerically("~", 1.2*1.01325, 1e-9))
		Expect(len(rows)).To(Equal(len(sys.Times())))
		Expect(sys.Time()).To(BeNumerically("~", 0.02, 1e-9))
	})

	It("conserves mass across the orifice at every step", func() {
		amb := gasAt(293, 101325)
		sys, err := system.NewBuilder().
			AddEnvironment("ambient", amb).
			AddReservoir("chamber", 500, gasAt(400, 3*101325)).
			AddOrifice("hole", 5, 0.8, "chamber", "ambient").
			Build()
		Expect(err).NotTo(HaveOccurred())
		c, err := sys.Connector("hole")
		Expect(err).NotTo(HaveOccurred())
		for i := 0; i < 200; i++ {
			Expect(sys.Advance(1e-5)).To(Succeed())
			a, err := c.FlowTo("chamber")
			Expect(err).NotTo(HaveOccurred())
			b, err := c.FlowTo("ambient")
			Expect(err).NotTo(HaveOccurred())
			Expect(a.MassFlow).To(Equal(-b.MassFlow))
			Expect(a.EnthalpyFlow).To(Equal(-b.EnthalpyFlow))
			Expect(a.MassFlow).To(BeNumerically("<", 0))
		}
	})

	It("fails once the sample ceiling is reached", func() {
		amb := gasAt(293, 101325)
		sys, err := system.NewBuilder().
			AddEnvironment("ambient", amb).
			AddReservoir("chamber", 500, amb).
			AddOrifice("hole", 50, 0.9, "chamber", "ambient").
			Build()
		Expect(err).NotTo(HaveOccurred())
		set := system.DefaultSettings()
		set.MaxTime = 1e-3
		set.MaxSamples = 10
		_, err = sys.AdvanceToSteadyState(context.Background(), set)
		Expect(err).To(MatchError(dynamo.ErrSampleCapacity))
	})

	It("stops when the context is cancelled", func() {
		amb := gasAt(293, 101325)
		sys, err := system.NewBuilder().
			AddEnvironment("ambient", amb).
			AddReservoir("chamber", 500, amb).
			AddOrifice("hole", 50, 0.9, "chamber", "ambient").
			Build()
		Expect(err).NotTo(HaveOccurred())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = sys.AdvanceToSteadyState(ctx, system.DefaultSettings())
		Expect(err).To(MatchError(context.Canceled))
	})
})

var _ = Describe("Motored engine", func() {
	var (
		sys *system.System
		set system.Settings
	)

	BeforeEach(func() {
		amb := gasAt(293, 101325)
		var err error
		sys, err = system.NewBuilder().
			AddEngine(motoredEngine(), amb).
			AddEnvironment("ambient", amb).
			Connect("valve_int", "ambient").
			Connect("valve_exh", "ambient").
			Build()
		Expect(err).NotTo(HaveOccurred())
		set = system.DefaultSettings()
		set.CrankStep = 0.5
		set.MaxCycles = 3
	})

	It("reports one performance point per run", func() {
		counter := &cycleCounter{}
		sys.AddObserver(counter)
		perf, err := sys.AdvanceToSteadyState(context.Background(), set)
		Expect(err).NotTo(HaveOccurred())
		Expect(counter.calls).To(Equal(3))
		Expect(counter.last).To(Equal(3))

		Expect(perf.Speed).To(Equal(7500.0))
		Expect(perf.IMEP).To(BeNumerically("<", 0))
		Expect(perf.Efficiency).To(BeZero())
		Expect(perf.VolumetricEfficiency).To(BeNumerically(">", 30))
		Expect(perf.VolumetricEfficiency).To(BeNumerically("<", 130))
		Expect(perf.Residual).To(BeNumerically(">=", 0))
		Expect(perf.Residual).To(BeNumerically("<", 100))
		Expect(sys.History()).To(HaveLen(1))

		rows, err := sys.FinalCycle("cyl_1")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(set.StepsPerCycle() + 1))
		Expect(sys.FinalCycleTimes()).To(HaveLen(len(rows)))
		headers, err := sys.Headers("valve_int")
		Expect(err).NotTo(HaveOccurred())
		Expect(headers).To(HaveLen(5))
	})

	It("keeps the charge mass constant while the valves are closed", func() {
		_, err := sys.AdvanceToSteadyState(context.Background(), set)
		Expect(err).NotTo(HaveOccurred())
		el, err := sys.Element("cyl_1")
		Expect(err).NotTo(HaveOccurred())
		cyl := el.(*zerodim.Cylinder)
		rows, err := sys.FinalCycle("cyl_1")
		Expect(err).NotTo(HaveOccurred())
		var closed []float64
		for _, r := range rows {
			// Between intake closing and exhaust opening.
			if r[0] > 600 && r[0] < 710 || r[0] > 10 && r[0] < 120 {
				closed = append(closed, r[4])
			}
		}
		Expect(closed).NotTo(BeEmpty())
		for _, m := range closed {
			Expect(m).To(BeNumerically("~", closed[0], 1e-9))
		}
		Expect(cyl.TrappedMass()).To(BeNumerically("~", closed[0]*1e-6, 1e-12))
	})

	It("repeats itself once settled", func() {
		first, err := sys.AdvanceToSteadyState(context.Background(), set)
		Expect(err).NotTo(HaveOccurred())
		second, err := sys.AdvanceToSteadyState(context.Background(), set)
		Expect(err).NotTo(HaveOccurred())
		Expect(second.IMEP).To(BeNumerically("~", first.IMEP, 0.05))
		Expect(second.VolumetricEfficiency).To(BeNumerically("~", first.VolumetricEfficiency, 1))
		Expect(sys.History()).To(HaveLen(2))
	})

	It("applies parameter changes between runs", func() {
		Expect(sys.SetSpeed(5000)).To(Succeed())
		perf, err := sys.AdvanceToSteadyState(context.Background(), set)
		Expect(err).NotTo(HaveOccurred())
		Expect(perf.Speed).To(Equal(5000.0))
		Expect(sys.SetAirFuelRatio(1.1)).To(MatchError(dynamo.ErrConfiguration))
		Expect(sys.SetStoreSpecies(true)).To(Succeed())
		_, err = sys.AdvanceToSteadyState(context.Background(), set)
		Expect(err).NotTo(HaveOccurred())
		headers, err := sys.Headers("cyl_1")
		Expect(err).NotTo(HaveOccurred())
		Expect(headers).To(HaveLen(5 + thermo.DefaultTable().Len()))
	})

	It("rejects invalid settings", func() {
		set.CrankStep = 0
		_, err := sys.AdvanceToSteadyState(context.Background(), set)
		Expect(err).To(MatchError(dynamo.ErrConfiguration))
		set = system.DefaultSettings()
		set.Integrator = "leapfrog"
		_, err = sys.AdvanceToSteadyState(context.Background(), set)
		Expect(err).To(MatchError(dynamo.ErrConfiguration))
	})
})
