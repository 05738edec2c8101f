package verification_test

import (
	"time"

	. "github.com/ClearGateLLC/kidpass/verification"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("WeekdayTag", func() {

	It("should map every weekday of a known week", func() {
		// 2024-01-01 was a Monday
		expected := []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}
		for i, tag := range expected {
			day := time.Date(2024, 1, 1+i, 12, 0, 0, 0, time.UTC)
			Expect(WeekdayTag(day)).To(Equal(tag))
		}
	})

	It("should depend on the wall-clock day, not the hour", func() {
		justBeforeMidnight := time.Date(2024, 1, 7, 23, 59, 59, 0, time.UTC)
		justAfterMidnight := time.Date(2024, 1, 8, 0, 0, 1, 0, time.UTC)
		Expect(WeekdayTag(justBeforeMidnight)).To(Equal("sun"))
		Expect(WeekdayTag(justAfterMidnight)).To(Equal("mon"))
	})
})
