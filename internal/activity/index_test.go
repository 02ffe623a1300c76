package activity_test

import (
	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/softsim/internal/activity"
)

var _ = Describe("SpatialIndex", func() {
	It("returns ids within the radius in ascending order", func() {
		idx := activity.NewSpatialIndex(1.0)
		idx.Insert(3, mgl64.Vec3{0.4, 0, 0})
		idx.Insert(1, mgl64.Vec3{0, 0, 0})
		idx.Insert(2, mgl64.Vec3{5, 0, 0})

		Expect(idx.Nearby(mgl64.Vec3{0.1, 0, 0}, 1.0)).To(Equal([]int{1, 3}))
		Expect(idx.Len()).To(Equal(3))
	})

	It("finds entries across cell boundaries", func() {
		idx := activity.NewSpatialIndex(0.5)
		idx.Insert(7, mgl64.Vec3{0.9, 0, 0})
		Expect(idx.Nearby(mgl64.Vec3{0.1, 0, 0}, 1.0)).To(Equal([]int{7}))
	})

	It("returns nothing for empty or degenerate queries", func() {
		idx := activity.NewSpatialIndex(1.0)
		Expect(idx.Nearby(mgl64.Vec3{}, 1.0)).To(BeEmpty())

		idx.Insert(1, mgl64.Vec3{})
		Expect(idx.Nearby(mgl64.Vec3{}, 0)).To(BeEmpty())
	})

	It("filters by true distance, not just by cell", func() {
		idx := activity.NewSpatialIndex(2.0)
		idx.Insert(4, mgl64.Vec3{-1, -1, -1})
		idx.Insert(9, mgl64.Vec3{1.8, 0, 0})
		Expect(idx.Nearby(mgl64.Vec3{-1, -1, -1}, 0.5)).To(Equal([]int{4}))
	})

	It("handles negative coordinates on both sides of the origin", func() {
		idx := activity.NewSpatialIndex(1.0)
		idx.Insert(1, mgl64.Vec3{-0.2, 0, 0})
		idx.Insert(2, mgl64.Vec3{0.2, 0, 0})
		Expect(idx.Nearby(mgl64.Vec3{0, 0, 0}, 0.5)).To(Equal([]int{1, 2}))
	})
})
