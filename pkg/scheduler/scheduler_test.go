package scheduler_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/scriptoriumco/vellum/pkg/scheduler"
)

var _ = Describe("Scheduler", func() {
	var (
		clock   *scheduler.ManualClock
		flushes int
		sched   *scheduler.Scheduler
	)

	BeforeEach(func() {
		clock = scheduler.NewManualClock()
		flushes = 0
		sched = scheduler.New(
			func() { flushes++ },
			scheduler.WithClock(clock),
			scheduler.WithWindow(50*time.Millisecond),
		)
	})

	It("coalesces notifications inside one window into one flush", func() {
		for range 10 {
			sched.Notify()
		}
		Expect(flushes).To(BeZero())

		clock.Advance(50 * time.Millisecond)
		Expect(flushes).To(Equal(1))
	})

	It("schedules a fresh flush after the window fires", func() {
		sched.Notify()
		clock.Advance(50 * time.Millisecond)
		Expect(flushes).To(Equal(1))

		sched.Notify()
		clock.Advance(50 * time.Millisecond)
		Expect(flushes).To(Equal(2))
	})

	It("does not flush before the window elapses", func() {
		sched.Notify()
		clock.Advance(49 * time.Millisecond)
		Expect(flushes).To(BeZero())
		clock.Advance(1 * time.Millisecond)
		Expect(flushes).To(Equal(1))
	})

	Describe("Flush", func() {
		It("delivers immediately and cancels the pending timer", func() {
			sched.Notify()
			sched.Flush()
			Expect(flushes).To(Equal(1))

			// The cancelled timer must not fire a second flush.
			clock.Advance(time.Second)
			Expect(flushes).To(Equal(1))
			Expect(clock.PendingTimers()).To(BeZero())
		})

		It("delivers even when nothing was notified", func() {
			sched.Flush()
			Expect(flushes).To(Equal(1))
		})
	})
})
