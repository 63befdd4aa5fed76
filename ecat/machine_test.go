package ecat_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ecatsim/ecat"
)

var errControl = errors.New("controller diverged")

type driver struct {
	m     *ecat.Machine
	cycle uint64
	time  float64
}

func (d *driver) run(readErr, controlErr error) ecat.Transition {
	t := d.m.Evaluate(ecat.Outcome{
		Cycle:      d.cycle,
		Time:       d.time,
		ReadErr:    readErr,
		ControlErr: controlErr,
	})
	d.cycle++
	d.time += 5e-4

	return t
}

func (d *driver) clean(n int) ecat.State {
	for i := 0; i < n; i++ {
		d.run(nil, nil)
	}

	return d.m.State()
}

var _ = Describe("Machine", func() {
	var (
		cfg ecat.Config
		d   *driver
	)

	build := func() {
		m, err := ecat.NewMachine(cfg)
		Expect(err).NotTo(HaveOccurred())
		d = &driver{m: m}
	}

	BeforeEach(func() {
		cfg = ecat.DefaultConfig()
		cfg.CleanCyclesToSafeOp = 3
		cfg.RecoveryCycles = 4
		cfg.MaxRecoveries = 2
		build()
	})

	It("should start in Init", func() {
		Expect(d.m.State()).To(Equal(ecat.Init))
		Expect(d.m.Snapshot()).To(Equal(ecat.Status{}))
	})

	It("should walk the handshake in order", func() {
		var states []ecat.State
		for i := 0; i < 5; i++ {
			states = append(states, d.run(nil, nil).To)
		}

		Expect(states).To(Equal([]ecat.State{
			ecat.PreOperational,
			ecat.PreOperational,
			ecat.SafeOperational,
			ecat.Operational,
			ecat.Operational,
		}))
	})

	It("should report transitions", func() {
		t := d.run(nil, nil)

		Expect(t.Changed()).To(BeTrue())
		Expect(t.From).To(Equal(ecat.Init))
		Expect(t.To).To(Equal(ecat.PreOperational))
		Expect(t.Cause).To(BeNil())

		t = d.run(nil, nil)
		Expect(t.Changed()).To(BeFalse())
		Expect(t.Cycle).To(Equal(uint64(1)))
	})

	It("should fault from Init on a failed first read", func() {
		t := d.run(errors.New("no data"), nil)

		Expect(t.To).To(Equal(ecat.Fault))
		Expect(d.m.Snapshot().TotalFaults).To(Equal(uint64(1)))
	})

	DescribeTable("should fault from every handshake state",
		func(cleanCycles int, from ecat.State) {
			Expect(d.clean(cleanCycles)).To(Equal(from))

			t := d.run(nil, errControl)

			Expect(t.From).To(Equal(from))
			Expect(t.To).To(Equal(ecat.Fault))
			Expect(t.Cause).To(MatchError(errControl))
		},
		Entry("PreOperational", 1, ecat.PreOperational),
		Entry("SafeOperational", 3, ecat.SafeOperational),
		Entry("Operational", 4, ecat.Operational),
	)

	It("should keep fault counters", func() {
		d.clean(4)
		d.run(errControl, nil)
		d.run(nil, errControl)

		s := d.m.Snapshot()
		Expect(s.State).To(Equal(ecat.Fault))
		Expect(s.ConsecutiveFaults).To(Equal(uint64(2)))
		Expect(s.ConsecutiveClean).To(BeZero())
		Expect(s.TotalFaults).To(Equal(uint64(1)))
		Expect(s.LastFault).To(MatchError(errControl))
		Expect(s.LastFaultMessage()).To(Equal(errControl.Error()))
		Expect(s.Cycle).To(Equal(uint64(6)))
	})

	It("should recover after R consecutive clean cycles", func() {
		d.clean(4)
		d.run(nil, errControl)

		Expect(d.clean(3)).To(Equal(ecat.Fault))

		t := d.run(nil, nil)
		Expect(t.From).To(Equal(ecat.Fault))
		Expect(t.To).To(Equal(ecat.PreOperational))
		Expect(d.m.Snapshot().Recoveries).To(Equal(uint64(1)))

		Expect(d.clean(1)).To(Equal(ecat.PreOperational))
		Expect(d.clean(1)).To(Equal(ecat.SafeOperational))
		Expect(d.clean(1)).To(Equal(ecat.Operational))
	})

	It("should restart the recovery window on a new fault", func() {
		d.clean(4)
		d.run(nil, errControl)
		d.clean(3)
		d.run(nil, errControl)

		Expect(d.clean(3)).To(Equal(ecat.Fault))
		Expect(d.clean(1)).To(Equal(ecat.PreOperational))
		Expect(d.m.Snapshot().TotalFaults).To(Equal(uint64(1)))
	})

	It("should park in Fault once recovery is exhausted", func() {
		d.clean(4)
		for i := 0; i < cfg.MaxRecoveries; i++ {
			d.run(nil, errControl)
			Expect(d.clean(cfg.RecoveryCycles)).To(Equal(ecat.PreOperational))
		}

		d.run(nil, errControl)

		s := d.m.Snapshot()
		Expect(s.Terminal).To(BeTrue())
		Expect(s.TotalFaults).To(Equal(uint64(cfg.MaxRecoveries + 1)))
		Expect(d.clean(100)).To(Equal(ecat.Fault))
		Expect(d.m.Snapshot().Recoveries).To(Equal(uint64(cfg.MaxRecoveries)))
	})

	It("should park in Fault at the first fault with no recoveries allowed", func() {
		cfg.MaxRecoveries = 0
		build()

		d.run(nil, errControl)

		Expect(d.m.Snapshot().Terminal).To(BeTrue())
		Expect(d.clean(50)).To(Equal(ecat.Fault))
	})

	It("should forget faults outside the window", func() {
		cfg.MaxRecoveries = 1
		cfg.FaultWindow = 20
		build()

		d.run(nil, errControl)
		d.clean(30)
		d.run(nil, errControl)

		Expect(d.m.Snapshot().Terminal).To(BeFalse())
		Expect(d.clean(cfg.RecoveryCycles)).To(Equal(ecat.PreOperational))
	})

	It("should count faults inside the window", func() {
		cfg.MaxRecoveries = 1
		cfg.FaultWindow = 20
		build()

		d.run(nil, errControl)
		d.clean(5)
		d.run(nil, errControl)

		Expect(d.m.Snapshot().Terminal).To(BeTrue())
	})

	Context("with a watchdog", func() {
		BeforeEach(func() {
			cfg.WatchdogTimeout = 2e-3
			build()
		})

		It("should not fire while cycles keep coming", func() {
			Expect(d.clean(10)).To(Equal(ecat.Operational))
		})

		It("should fault after a stall", func() {
			d.clean(4)
			d.time += 1

			t := d.run(nil, nil)

			Expect(t.To).To(Equal(ecat.Fault))
			Expect(t.Cause).To(MatchError(ecat.ErrWatchdog))
		})

		It("should fault when no live cycle arrives in time", func() {
			d.clean(4)
			for i := 0; i < 4; i++ {
				d.run(errors.New("stale frame"), nil)
			}

			t := d.run(errors.New("stale frame"), nil)
			Expect(t.Cause).NotTo(MatchError(ecat.ErrWatchdog))

			t = d.run(nil, nil)
			Expect(t.Cause).To(MatchError(ecat.ErrWatchdog))
		})

		It("should recover once the bus is alive again", func() {
			d.clean(4)
			d.time += 1
			d.run(nil, nil)

			Expect(d.clean(cfg.RecoveryCycles)).To(Equal(ecat.PreOperational))
		})
	})
})

var _ = Describe("Config", func() {
	It("should accept the defaults", func() {
		Expect(ecat.DefaultConfig().Validate()).To(Succeed())
	})

	It("should report every invalid field", func() {
		cfg := ecat.Config{
			CleanCyclesToSafeOp: 0,
			RecoveryCycles:      -1,
			MaxRecoveries:       -1,
			WatchdogTimeout:     -1,
		}

		err := cfg.Validate()

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("clean cycles"))
		Expect(err.Error()).To(ContainSubstring("recovery cycles"))
		Expect(err.Error()).To(ContainSubstring("max recoveries"))
		Expect(err.Error()).To(ContainSubstring("watchdog"))
	})

	It("should refuse to build a machine from an invalid config", func() {
		m, err := ecat.NewMachine(ecat.Config{})

		Expect(m).To(BeNil())
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("State", func() {
	It("should round trip through text", func() {
		for s := ecat.Init; s <= ecat.Fault; s++ {
			text, err := s.MarshalText()
			Expect(err).NotTo(HaveOccurred())

			var back ecat.State
			Expect(back.UnmarshalText(text)).To(Succeed())
			Expect(back).To(Equal(s))
		}
	})

	It("should name unknown states", func() {
		Expect(ecat.State(42).String()).To(Equal("State(42)"))
		_, err := ecat.State(42).MarshalText()
		Expect(err).To(HaveOccurred())
	})

	It("should apply commands only when Operational", func() {
		Expect(ecat.Operational.AppliesCommands()).To(BeTrue())
		Expect(ecat.SafeOperational.AppliesCommands()).To(BeFalse())
		Expect(ecat.Fault.AppliesCommands()).To(BeFalse())
	})
})
