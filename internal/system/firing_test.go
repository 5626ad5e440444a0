package system_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/enginesim/internal/config"
	"github.com/san-kum/enginesim/internal/engine"
	"github.com/san-kum/enginesim/internal/system"
)

var _ = Describe("Firing engine", Ordered, func() {
	var (
		sys   *system.System
		set   system.Settings
		first engine.Performance
	)

	BeforeAll(func() {
		var err error
		sys, err = config.GetPreset("ryobi").Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(sys.SetSpeed(7500)).To(Succeed())
		set = system.DefaultSettings()
		set.MaxCycles = 5
		first, err = sys.AdvanceToSteadyState(context.Background(), set)
		Expect(err).NotTo(HaveOccurred())
	})

	It("produces positive work from the fuel it burns", func() {
		Expect(first.Speed).To(Equal(7500.0))
		Expect(first.IMEP).To(BeNumerically(">", 0))
		Expect(first.Power).To(BeNumerically(">", 0))
		Expect(first.Torque).To(BeNumerically(">", 0))
		Expect(first.Efficiency).To(BeNumerically(">", 0))
		Expect(first.Efficiency).To(BeNumerically("<", 60))
		Expect(first.VolumetricEfficiency).To(BeNumerically(">", 20))
	})

	It("injects fuel through the port", func() {
		cyl := sys.Engine().Cylinders()[0]
		Expect(cyl.FuelMass()).To(BeNumerically(">", 0))
		Expect(cyl.TrappedMass()).To(BeNumerically(">", cyl.FuelMass()))
	})

	It("reaches combustion temperatures in the final cycle", func() {
		rows, err := sys.FinalCycle("cyl_1")
		Expect(err).NotTo(HaveOccurred())
		peakT, peakP := 0.0, 0.0
		for _, r := range rows {
			peakP = max(peakP, r[1])
			peakT = max(peakT, r[2])
		}
		Expect(peakT).To(BeNumerically(">", 1500))
		Expect(peakP).To(BeNumerically(">", 10))
	})

	It("repeats on a second run", func() {
		second, err := sys.AdvanceToSteadyState(context.Background(), set)
		Expect(err).NotTo(HaveOccurred())
		Expect(second.IMEP).To(BeNumerically("~", first.IMEP, 0.2))
		Expect(second.Efficiency).To(BeNumerically("~", first.Efficiency, 1.5))
		Expect(sys.History()).To(HaveLen(2))
	})
})
