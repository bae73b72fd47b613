package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/softwarewrighter/n-body/internal/physics"
)

var _ = Describe("Simulation lifecycle", func() {
	var s *Simulation

	BeforeEach(func() {
		cfg := DefaultConfig()
		cfg.ParticleCount = 64
		var err error
		s, err = New(cfg, 42)
		Expect(err).NotTo(HaveOccurred())
		s.SetLogf(GinkgoT().Logf) // keep advisory output out of stderr
	})

	Describe("pausing", func() {
		It("freezes particles bitwise across any number of steps", func() {
			s.Step()
			s.Step()
			frozen, _ := s.Step()

			s.SetPaused(true)
			var last Snapshot
			for i := 0; i < 5; i++ {
				last, _ = s.Step()
			}

			Expect(last.FrameNumber).To(Equal(frozen.FrameNumber))
			Expect(last.SimTime).To(Equal(frozen.SimTime))
			Expect(last.Particles).To(Equal(frozen.Particles))

			s.SetPaused(false)
			resumed, _ := s.Step()
			Expect(resumed.FrameNumber).To(Equal(frozen.FrameNumber + 1))
		})

		It("reports zero computation time while paused", func() {
			s.SetPaused(true)
			_, stats := s.Step()
			Expect(stats.ComputationTimeMs).To(BeZero())
		})
	})

	Describe("resetting", func() {
		It("rewinds time and regenerates the full array", func() {
			for i := 0; i < 4; i++ {
				s.Step()
			}
			s.Reset()

			snap, stats := s.Step()
			Expect(snap.FrameNumber).To(Equal(uint64(1)))
			Expect(stats.SimTime).To(BeNumerically("~", float64(s.Config().TimeStep), 1e-6))
			Expect(snap.Particles).To(HaveLen(64))
		})

		It("clears the pause flag", func() {
			s.SetPaused(true)
			s.Reset()
			Expect(s.Paused()).To(BeFalse())
		})

		It("is indistinguishable when doubled, modulo RNG choice", func() {
			s.Reset()
			s.Reset()
			snap, _ := s.Step()
			Expect(snap.FrameNumber).To(Equal(uint64(1)))
			Expect(snap.Particles).To(HaveLen(64))
			for _, p := range snap.Particles {
				Expect(p.IsFinite()).To(BeTrue())
			}
		})
	})

	Describe("invariants", func() {
		It("keeps the particle array matching the configured count", func() {
			for i := 0; i < 3; i++ {
				snap, _ := s.Step()
				Expect(snap.Particles).To(HaveLen(s.Config().ParticleCount))
			}
		})

		It("hands out snapshot copies detached from the live array", func() {
			snap, _ := s.Step()
			mutated := snap.Particles[0]
			mutated.Position = physics.Vec3{999, 999, 999}
			snap.Particles[0] = mutated

			next, _ := s.Step()
			Expect(next.Particles[0].Position).NotTo(Equal(physics.Vec3{999, 999, 999}))
		})
	})
})
