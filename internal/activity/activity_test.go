package activity_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/softsim/internal/activity"
)

var _ = Describe("Controller", func() {
	var ctrl *activity.Controller

	thresholds := activity.Thresholds{
		SleepSpeed:  0.1,
		SleepTime:   0.5,
		WakeImpulse: 1.0,
		WakeSpeed:   0.5,
		WakeRadius:  2.0,
	}

	BeforeEach(func() {
		ctrl = activity.NewController(thresholds)
	})

	It("starts awake", func() {
		Expect(ctrl.State()).To(Equal(activity.Awake))
		Expect(ctrl.Active()).To(BeTrue())
		Expect(ctrl.StillFor()).To(BeZero())
		Expect(ctrl.LastWake()).To(Equal(activity.WakeNone))
	})

	It("stays awake while moving", func() {
		for i := 0; i < 100; i++ {
			Expect(ctrl.Observe(1.0, 0, 0.1)).To(BeFalse())
		}
		Expect(ctrl.State()).To(Equal(activity.Awake))
	})

	Context("with sustained stillness", func() {
		It("falls asleep exactly once after the window", func() {
			for i := 0; i < 4; i++ {
				Expect(ctrl.Observe(0.01, 0, 0.1)).To(BeFalse())
			}
			Expect(ctrl.Observe(0.01, 0, 0.1)).To(BeTrue())
			Expect(ctrl.State()).To(Equal(activity.Asleep))

			for i := 0; i < 10; i++ {
				Expect(ctrl.Observe(0.01, 0, 0.1)).To(BeFalse())
			}
			Expect(ctrl.Sleeps()).To(Equal(1))
		})

		It("restarts the window after a single loud frame", func() {
			for i := 0; i < 4; i++ {
				ctrl.Observe(0.01, 0, 0.1)
			}
			ctrl.Observe(5.0, 0, 0.1)
			Expect(ctrl.State()).To(Equal(activity.Awake))
			Expect(ctrl.StillFor()).To(BeZero())

			for i := 0; i < 4; i++ {
				Expect(ctrl.Observe(0.01, 0, 0.1)).To(BeFalse())
			}
			Expect(ctrl.State()).To(Equal(activity.Awake))
		})

		It("treats a strong contact impulse as motion", func() {
			for i := 0; i < 4; i++ {
				ctrl.Observe(0.01, 0, 0.1)
			}
			ctrl.Observe(0.01, 2.0, 0.1)
			Expect(ctrl.StillFor()).To(BeZero())
			Expect(ctrl.State()).To(Equal(activity.Awake))
		})
	})

	Context("when asleep", func() {
		BeforeEach(func() {
			for i := 0; i < 5; i++ {
				ctrl.Observe(0.01, 0, 0.1)
			}
			Expect(ctrl.State()).To(Equal(activity.Asleep))
		})

		It("wakes on an explicit call", func() {
			Expect(ctrl.Wake(activity.WakeExplicit)).To(BeTrue())
			Expect(ctrl.State()).To(Equal(activity.Awake))
			Expect(ctrl.LastWake()).To(Equal(activity.WakeExplicit))
			Expect(ctrl.Wakes()).To(Equal(1))
		})

		It("ignores impulses under the threshold", func() {
			Expect(ctrl.WakeOnImpulse(0.5)).To(BeFalse())
			Expect(ctrl.State()).To(Equal(activity.Asleep))
		})

		It("wakes on a strong impulse", func() {
			Expect(ctrl.WakeOnImpulse(1.5)).To(BeTrue())
			Expect(ctrl.State()).To(Equal(activity.Awake))
			Expect(ctrl.LastWake()).To(Equal(activity.WakeImpulse))
		})

		It("records a proximity wake", func() {
			Expect(ctrl.Wake(activity.WakeProximity)).To(BeTrue())
			Expect(ctrl.LastWake()).To(Equal(activity.WakeProximity))
		})
	})

	It("only resets the clock when waking an awake body", func() {
		ctrl.Observe(0.01, 0, 0.1)
		Expect(ctrl.StillFor()).To(BeNumerically(">", 0))
		Expect(ctrl.Wake(activity.WakeExplicit)).To(BeFalse())
		Expect(ctrl.StillFor()).To(BeZero())
		Expect(ctrl.Wakes()).To(BeZero())
	})

	It("never sleeps when the speed threshold is disabled", func() {
		off := activity.NewController(activity.Thresholds{SleepTime: 0.1})
		for i := 0; i < 50; i++ {
			Expect(off.Observe(0, 0, 0.1)).To(BeFalse())
		}
		Expect(off.State()).To(Equal(activity.Awake))
	})

	It("resets to the initial state", func() {
		for i := 0; i < 5; i++ {
			ctrl.Observe(0.01, 0, 0.1)
		}
		Expect(ctrl.State()).To(Equal(activity.Asleep))

		ctrl.Reset()
		Expect(ctrl.State()).To(Equal(activity.Awake))
		Expect(ctrl.Sleeps()).To(BeZero())
		Expect(ctrl.StillFor()).To(BeZero())
	})
})
