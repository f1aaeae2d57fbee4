package metrics_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/bipedsim/internal/metrics"
	"github.com/san-kum/bipedsim/internal/sim"
)

func stateAt(t, height, roll, pitch, x, y float64) sim.RobotState {
	return sim.RobotState{
		Time: t,
		Base: sim.BaseState{
			Position: sim.Vec3{X: x, Y: y, Z: height},
			Roll:     roll,
			Pitch:    pitch,
		},
	}
}

var _ = Describe("Stability", func() {
	var s *metrics.Stability

	BeforeEach(func() {
		s = metrics.NewStability(metrics.DefaultThresholds(), metrics.DefaultWeights())
	})

	Context("with no samples", func() {
		It("is not stable", func() {
			Expect(s.IsStable()).To(BeFalse())
		})

		It("scores zero", func() {
			Expect(s.Score()).To(BeZero())
		})
	})

	Context("with a perfectly steady trace", func() {
		BeforeEach(func() {
			for i := 0; i < 100; i++ {
				s.Update(stateAt(float64(i)*0.02, 0.28, 0, 0, 0, 0))
			}
		})

		It("is stable", func() {
			Expect(s.IsStable()).To(BeTrue())
		})

		It("scores exactly 100", func() {
			Expect(s.Score()).To(Equal(100.0))
		})

		It("summarizes with zero deviations", func() {
			sum := s.Summary()
			Expect(sum.Samples).To(Equal(100))
			Expect(sum.MeanHeight).To(BeNumerically("~", 0.28, 1e-12))
			Expect(sum.MinHeight).To(Equal(0.28))
			Expect(sum.MaxHeight).To(Equal(0.28))
			Expect(sum.StdHeight).To(BeZero())
			Expect(sum.MeanRoll).To(BeZero())
			Expect(sum.MeanPitch).To(BeZero())
			Expect(sum.StdRoll).To(BeZero())
			Expect(sum.Violations).To(BeZero())
			Expect(sum.IsStable).To(BeTrue())
		})

		It("returns identical summaries without an intervening update", func() {
			Expect(s.Summary()).To(Equal(s.Summary()))
		})
	})

	Context("summary extremes", func() {
		It("reports height bounds and mean tilt", func() {
			s.Update(stateAt(0.00, 0.26, 2, -4, 0, 0))
			s.Update(stateAt(0.02, 0.30, 4, -8, 0, 0))
			sum := s.Summary()
			Expect(sum.MinHeight).To(Equal(0.26))
			Expect(sum.MaxHeight).To(Equal(0.30))
			Expect(sum.MeanRoll).To(BeNumerically("~", 3, 1e-12))
			Expect(sum.MeanPitch).To(BeNumerically("~", -6, 1e-12))
		})
	})

	Context("with a single bad height sample injected", func() {
		BeforeEach(func() {
			for i := 0; i < 99; i++ {
				s.Update(stateAt(float64(i)*0.02, 0.28, 0, 0, 0, 0))
			}
			s.Update(stateAt(99*0.02, 0.10, 0, 0, 0, 0))
		})

		It("degrades the score below 100", func() {
			Expect(s.Score()).To(BeNumerically("<", 100))
		})

		It("is no longer stable, since the latest sample violates", func() {
			Expect(s.IsStable()).To(BeFalse())
		})

		It("counts the violation", func() {
			Expect(s.Summary().Violations).To(Equal(1))
		})
	})

	Context("threshold checks", func() {
		It("flags a fallen robot", func() {
			s.Update(stateAt(0, 0.05, 0, 0, 0, 0))
			Expect(s.IsStable()).To(BeFalse())
		})

		It("flags excessive roll", func() {
			s.Update(stateAt(0, 0.28, 45, 0, 0, 0))
			Expect(s.IsStable()).To(BeFalse())
		})

		It("flags excessive pitch", func() {
			s.Update(stateAt(0, 0.28, 0, -35, 0, 0))
			Expect(s.IsStable()).To(BeFalse())
		})

		It("flags drift beyond the bound", func() {
			s.Update(stateAt(0, 0.28, 0, 0, 0, 0))
			s.Update(stateAt(0.02, 0.28, 0, 0, 0.4, 0.4))
			Expect(s.IsStable()).To(BeFalse())
		})

		It("measures drift from the first recorded sample", func() {
			for i := 0; i < 100; i++ {
				s.Update(stateAt(float64(i)*0.02, 0.28, 0, 0, 1.0, 0))
			}
			Expect(s.IsStable()).To(BeTrue())
			Expect(s.Summary().MaxDrift).To(BeZero())
			Expect(s.Score()).To(Equal(100.0))
		})

		It("judges only the latest sample", func() {
			s.Update(stateAt(0, 0.05, 0, 0, 0, 0))
			s.Update(stateAt(0.02, 0.28, 0, 0, 0, 0))
			Expect(s.IsStable()).To(BeTrue())
		})
	})

	Context("scoring", func() {
		It("penalizes a wobbly trace more than a steady one", func() {
			steady := metrics.NewStability(metrics.DefaultThresholds(), metrics.DefaultWeights())
			wobbly := metrics.NewStability(metrics.DefaultThresholds(), metrics.DefaultWeights())

			for i := 0; i < 200; i++ {
				steady.Update(stateAt(float64(i)*0.02, 0.28, 0.1, 0.1, 0, 0))
				tilt := 5.0
				if i%2 == 0 {
					tilt = -5.0
				}
				wobbly.Update(stateAt(float64(i)*0.02, 0.28, tilt, tilt, 0, 0))
			}
			Expect(wobbly.Score()).To(BeNumerically("<", steady.Score()))
		})

		It("penalizes peak drift even when the robot later holds still", func() {
			lurched := metrics.NewStability(metrics.DefaultThresholds(), metrics.Weights{Drift: 1})
			lurched.Update(stateAt(0, 0.28, 0, 0, 0, 0))
			for i := 1; i < 200; i++ {
				lurched.Update(stateAt(float64(i)*0.02, 0.28, 0, 0, 10, 0))
			}
			// The drift trace is almost all 10 m, so its stddev is tiny;
			// the sub-score must follow the excursion instead.
			Expect(lurched.Score()).To(BeNumerically("<", 5))
		})

		It("stays within [0, 100]", func() {
			for i := 0; i < 50; i++ {
				h := 0.05 + 0.3*float64(i%7)
				s.Update(stateAt(float64(i)*0.02, h, float64(i%60)-30, 0, float64(i)*0.01, 0))
			}
			Expect(s.Score()).To(BeNumerically(">=", 0))
			Expect(s.Score()).To(BeNumerically("<=", 100))
		})

		It("weights sub-scores as configured", func() {
			heightOnly := metrics.NewStability(metrics.DefaultThresholds(), metrics.Weights{Height: 1})
			for i := 0; i < 100; i++ {
				tilt := 8.0
				if i%2 == 0 {
					tilt = -8.0
				}
				heightOnly.Update(stateAt(float64(i)*0.02, 0.28, tilt, tilt, 0, 0))
			}
			// Tilt is wild but carries no weight; height is flat.
			Expect(heightOnly.Score()).To(Equal(100.0))
		})
	})

	Context("reset", func() {
		It("discards all state", func() {
			for i := 0; i < 10; i++ {
				s.Update(stateAt(float64(i)*0.02, 0.05, 40, 40, 1, 1))
			}
			s.Reset()

			Expect(s.Samples()).To(BeZero())
			Expect(s.Score()).To(BeZero())
			Expect(s.IsStable()).To(BeFalse())
			sum := s.Summary()
			Expect(sum.Violations).To(BeZero())
			Expect(sum.MaxDrift).To(BeZero())
		})
	})
})
