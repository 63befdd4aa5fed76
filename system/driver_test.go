package system

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ecatsim/controlstack"
	"github.com/sarchlab/ecatsim/ecat"
	"github.com/sarchlab/ecatsim/internal/toysim"
	"github.com/sarchlab/ecatsim/sim/timing"
)

var _ = Describe("Driver", func() {
	var (
		engine *timing.SerialEngine
		robot  *toysim.Robot
		sys    *System
	)

	BeforeEach(func() {
		engine = timing.NewSerialEngine()
		robot = toysim.New(toysim.DefaultConfig())

		var err error
		sys, err = MakeBuilder().
			WithSession(controlstack.NewHandle(
				controlstack.NewHoldPosture(controlstack.StandingPosture))).
			WithAdvance(true).
			Build(robot)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should run one cycle per bus period", func() {
		d := NewDriver("Bus", engine, DefaultBusFreq, sys, robot, 40)

		d.Start()
		Expect(engine.Run()).To(Succeed())

		Expect(sys.Cycle()).To(Equal(uint64(40)))
		Expect(robot.Steps()).To(Equal(uint64(40)))
		Expect(engine.Now()).To(BeNumerically("~", 39*DefaultBusFreq.Period(), 1e-12))
		Expect(sys.State()).To(Equal(ecat.Operational))
	})

	It("should hold the posture once operational", func() {
		d := NewDriver("Bus", engine, DefaultBusFreq, sys, robot, 4000)

		d.Start()
		Expect(engine.Run()).To(Succeed())

		for i := range controlstack.StandingPosture {
			Expect(robot.Position(i)).To(
				BeNumerically("~", controlstack.StandingPosture[i], 1e-2))
		}
	})

	It("should stop when asked", func() {
		d := NewDriver("Bus", engine, DefaultBusFreq, sys, robot, 0)
		sys.AcceptHook(NewCycleEndHook(func(info CycleInfo) {
			if info.Cycle == 9 {
				d.Stop()
			}
		}))

		d.Start()
		Expect(engine.Run()).To(Succeed())

		Expect(sys.Cycle()).To(Equal(uint64(10)))
	})

	It("should be named", func() {
		d := NewDriver("Bus", engine, DefaultBusFreq, sys, robot, 1)

		Expect(d.Name()).To(Equal("Bus"))
		Expect(d.System()).To(BeIdenticalTo(sys))
		Expect(d.Cycles()).To(Equal(uint64(1)))
	})
})
