package vicsek_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/vicsek/internal/torus"
	"github.com/san-kum/vicsek/internal/vicsek"
)

var reference = torus.Domain{Width: 160, Height: 100}

func referenceConfig() vicsek.Config {
	cfg := vicsek.DefaultConfig()
	cfg.ParticleCount = 300
	cfg.NoiseAmplitude = 0.5
	cfg.InteractionRadius = 5
	cfg.Speed = 1
	cfg.TimeStep = 1
	cfg.Seed = 42
	cfg.BurnIn = 200
	cfg.AvgWindow = 100
	return cfg
}

var _ = Describe("Simulation", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("opposite headings", func() {
		It("average to heading zero", func() {
			cfg := vicsek.DefaultConfig()
			cfg.ParticleCount = 2
			cfg.InteractionRadius = 100
			cfg.NoiseAmplitude = 0

			s := vicsek.New()
			Expect(s.ResetWith(cfg, torus.Domain{Width: 10, Height: 10}, []vicsek.Particle{
				{Pos: r2.Vec{X: 2, Y: 2}, Theta: 0},
				{Pos: r2.Vec{X: 7, Y: 7}, Theta: math.Pi},
			})).To(Succeed())

			s.Step()

			st := s.State()
			Expect(st.Particles[0].Theta).To(Equal(0.0))
			Expect(st.Particles[1].Theta).To(Equal(0.0))
			Expect(st.Particles[0].Pos).To(Equal(r2.Vec{X: 3, Y: 2}))
			Expect(st.Particles[1].Pos).To(Equal(r2.Vec{X: 8, Y: 7}))
			Expect(st.CurrentPhi).To(Equal(1.0))
		})
	})

	Describe("an aligned flock without noise", func() {
		It("keeps phi at exactly one", func() {
			cfg := vicsek.DefaultConfig()
			cfg.ParticleCount = 100
			cfg.InitHeadings = vicsek.HeadingsAligned
			cfg.NoiseAmplitude = 0
			cfg.BurnIn = 0

			s, err := vicsek.NewWithConfig(cfg, reference)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.StepN(ctx, 500)).To(Succeed())

			for _, phi := range s.PhiHistory() {
				Expect(phi).To(Equal(1.0))
			}
			Expect(s.AvgPhi()).To(Equal(1.0))
		})
	})

	Describe("the reference run", func() {
		run := func(mutate func(*vicsek.Config)) *vicsek.Simulation {
			cfg := referenceConfig()
			if mutate != nil {
				mutate(&cfg)
			}
			s, err := vicsek.NewWithConfig(cfg, reference)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.StepN(ctx, cfg.BurnIn+cfg.AvgWindow)).To(Succeed())
			return s
		}

		It("reproduces bit for bit", func() {
			a, b := run(nil), run(nil)

			Expect(a.Iteration()).To(Equal(300))
			Expect(a.PhiHistory()).To(Equal(b.PhiHistory()))
			Expect(a.State()).To(Equal(b.State()))
			Expect(a.AvgPhi()).To(BeNumerically(">", 0))
			Expect(a.AvgPhi()).To(BeNumerically("<=", 1))
		})

		It("does not depend on the search method or worker count", func() {
			base := run(nil)
			tuned := run(func(c *vicsek.Config) {
				c.NeighborSearch = vicsek.SearchGrid
				c.Workers = 4
			})

			Expect(tuned.PhiHistory()).To(Equal(base.PhiHistory()))
			Expect(tuned.AvgPhi()).To(Equal(base.AvgPhi()))
		})

		It("orders more strongly at lower noise", func() {
			noisy := run(func(c *vicsek.Config) { c.NoiseAmplitude = 5 })
			quiet := run(func(c *vicsek.Config) { c.NoiseAmplitude = 0.1 })

			Expect(quiet.AvgPhi()).To(BeNumerically(">", noisy.AvgPhi()))
		})
	})

	DescribeTable("UpdateConfig",
		func(patch vicsek.ConfigPatch, reinitializes bool) {
			s, err := vicsek.NewWithConfig(referenceConfig(), reference)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.StepN(ctx, 4)).To(Succeed())

			Expect(s.UpdateConfig(patch)).To(Succeed())

			if reinitializes {
				Expect(s.Iteration()).To(BeZero())
				Expect(s.PhiHistory()).To(BeEmpty())
			} else {
				Expect(s.Iteration()).To(Equal(4))
				Expect(s.PhiHistory()).To(HaveLen(4))
			}
		},
		Entry("noise applies live", vicsek.ConfigPatch{NoiseAmplitude: vicsek.Ptr(1.0)}, false),
		Entry("radius applies live", vicsek.ConfigPatch{InteractionRadius: vicsek.Ptr(2.0)}, false),
		Entry("time step applies live", vicsek.ConfigPatch{TimeStep: vicsek.Ptr(0.5)}, false),
		Entry("seed reinitializes", vicsek.ConfigPatch{Seed: vicsek.Ptr(int64(3))}, true),
		Entry("particle count reinitializes", vicsek.ConfigPatch{ParticleCount: vicsek.Ptr(10)}, true),
		Entry("heading mode reinitializes", vicsek.ConfigPatch{InitHeadings: vicsek.Ptr(vicsek.HeadingsCone)}, true),
	)

	Describe("errors", func() {
		It("rejects an invalid reset without touching state", func() {
			s, err := vicsek.NewWithConfig(referenceConfig(), reference)
			Expect(err).NotTo(HaveOccurred())
			s.Step()

			bad := referenceConfig()
			bad.InteractionRadius = 0
			Expect(s.Reset(bad, reference)).To(MatchError(vicsek.ErrInvalidConfig))
			Expect(s.Iteration()).To(Equal(1))
		})

		It("refuses to step before the first reset", func() {
			s := vicsek.New()
			Expect(s.StepN(ctx, 1)).To(MatchError(vicsek.ErrNotReady))
		})
	})
})
