package controlstack

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/ecatsim/pdo"
)

var _ = Describe("Handle", func() {
	var (
		mockCtrl *gomock.Controller
		session  *MockSession
		h        *Handle
		in       pdo.Sensors
		out      pdo.Commands
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		session = NewMockSession(mockCtrl)
		h = NewHandle(session)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should forward cycles to the session", func() {
		session.EXPECT().Cycle(&in, &out).Return(nil)

		Expect(h.Cycle(&in, &out)).To(Succeed())
	})

	It("should return the session's error", func() {
		boom := errors.New("boom")
		session.EXPECT().Cycle(gomock.Any(), gomock.Any()).Return(boom)

		Expect(h.Cycle(&in, &out)).To(MatchError(boom))
	})

	It("should turn a panic into an error", func() {
		session.EXPECT().Cycle(gomock.Any(), gomock.Any()).
			Do(func(*pdo.Sensors, *pdo.Commands) { panic("estimator diverged") })

		err := h.Cycle(&in, &out)

		Expect(err).To(MatchError(ErrPanic))
		Expect(err.Error()).To(ContainSubstring("estimator diverged"))
	})

	It("should close the session exactly once", func() {
		session.EXPECT().Close().Return(nil).Times(1)

		Expect(h.Release()).To(Succeed())
		Expect(h.Release()).To(Succeed())
		Expect(h.Valid()).To(BeFalse())
	})

	It("should wrap a close error", func() {
		boom := errors.New("boom")
		session.EXPECT().Close().Return(boom)

		Expect(h.Release()).To(MatchError(boom))
	})

	It("should move ownership", func() {
		moved := h.Move()

		Expect(h.Valid()).To(BeFalse())
		Expect(moved.Valid()).To(BeTrue())
		Expect(h.Cycle(&in, &out)).To(MatchError(ErrNoSession))

		session.EXPECT().Close().Return(nil).Times(1)
		Expect(h.Release()).To(Succeed())
		Expect(moved.Release()).To(Succeed())
	})

	It("should refuse to cycle after release", func() {
		session.EXPECT().Close().Return(nil)
		Expect(h.Release()).To(Succeed())

		Expect(h.Cycle(&in, &out)).To(MatchError(ErrNoSession))
	})

	It("should treat a nil handle as empty", func() {
		var empty *Handle
		Expect(empty.Valid()).To(BeFalse())
	})
})

var _ = Describe("Func", func() {
	It("should adapt a function", func() {
		called := false
		f := Func(func(_ *pdo.Sensors, out *pdo.Commands) error {
			called = true
			out.Mode[0] = pdo.ModeTorque
			return nil
		})

		var out pdo.Commands
		Expect(f.Cycle(&pdo.Sensors{}, &out)).To(Succeed())
		Expect(called).To(BeTrue())
		Expect(out.Mode[0]).To(Equal(pdo.ModeTorque))
		Expect(f.Close()).To(Succeed())
	})
})

var _ = Describe("HoldPosture", func() {
	It("should command the posture in position mode", func() {
		c := NewHoldPosture(StandingPosture)

		var out pdo.Commands
		Expect(c.Cycle(&pdo.Sensors{}, &out)).To(Succeed())

		for i := 0; i < pdo.NumMotors; i++ {
			Expect(out.Mode[i]).To(Equal(pdo.ModePosition))
			Expect(out.PositionTarget[i]).To(Equal(StandingPosture[i]))
		}
		Expect(c.Cycles()).To(Equal(uint64(1)))
	})

	It("should go limp on an emergency stop", func() {
		c := NewHoldPosture(StandingPosture)

		var out pdo.Commands
		Expect(c.Cycle(&pdo.Sensors{Status: pdo.StatusEStop}, &out)).To(Succeed())

		Expect(out.IsSafe()).To(BeTrue())
	})

	It("should record closing", func() {
		c := NewHoldPosture(StandingPosture)
		Expect(c.Close()).To(Succeed())
		Expect(c.Closed()).To(BeTrue())
	})
})

var _ = Describe("FaultInjector", func() {
	var (
		mockCtrl *gomock.Controller
		session  *MockSession
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		session = NewMockSession(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should fail the chosen calls only", func() {
		f := NewFaultInjector(session).FailAt(1)
		session.EXPECT().Cycle(gomock.Any(), gomock.Any()).Return(nil).Times(2)

		var out pdo.Commands
		Expect(f.Cycle(&pdo.Sensors{}, &out)).To(Succeed())
		Expect(f.Cycle(&pdo.Sensors{}, &out)).To(MatchError(ErrInjected))
		Expect(out.IsSafe()).To(BeFalse())
		Expect(f.Cycle(&pdo.Sensors{}, &out)).To(Succeed())
		Expect(f.Calls()).To(Equal(uint64(3)))
	})

	It("should panic on the chosen calls", func() {
		f := NewFaultInjector(session).PanicAt(0)
		h := NewHandle(f)

		err := h.Cycle(&pdo.Sensors{}, &pdo.Commands{})

		Expect(err).To(MatchError(ErrPanic))
	})

	It("should close the wrapped session", func() {
		session.EXPECT().Close().Return(nil)

		Expect(NewFaultInjector(session).Close()).To(Succeed())
	})
})
