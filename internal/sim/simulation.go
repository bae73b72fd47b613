package sim

import (
	"log"
	"time"

	"github.com/softwarewrighter/n-body/internal/physics"
)

const (
	// maxComputationTime is the advisory budget for one physics step.
	maxComputationTime = 200 * time.Millisecond

	// slowFrameEscalation promotes the slow-frame warning to an error after
	// this many consecutive over-budget steps.
	slowFrameEscalation = 10

	// targetTickMillis is the nominal tick period the cpu-usage heuristic
	// measures against.
	targetTickMillis = 16.67

	// fpsSmoothing is the EMA coefficient for the reported tick rate.
	fpsSmoothing = 0.1
)

// Snapshot is a consistent read-only view of the particle array and clock,
// handed to the transport for emission.
type Snapshot struct {
	Particles   []physics.Particle `json:"particles"`
	SimTime     float32            `json:"sim_time"`
	FrameNumber uint64             `json:"frame_number"`
}

// Stats carries per-step runtime measurements.
type Stats struct {
	FPS               float32 `json:"fps"`
	ComputationTimeMs float32 `json:"computation_time_ms"`
	ParticleCount     int     `json:"particle_count"`
	SimTime           float32 `json:"sim_time"`
	CPUUsage          float32 `json:"cpu_usage"`
	FrameNumber       uint64  `json:"frame_number"`
}

// Simulation is the authoritative container for particles, configuration and
// time state. It is not safe for concurrent use; the session driver guards
// it with a mutex held across each operation.
type Simulation struct {
	engine    *physics.Engine
	particles []physics.Particle
	cfg       Config

	simTime     float32
	frameNumber uint64
	paused      bool

	seed int64

	lastComputation time.Duration
	consecutiveSlow int
	smoothedFPS     float32
	lastStepAt      time.Time

	logf func(format string, args ...any)
}

// New validates cfg and builds a simulation with freshly generated
// particles. seed feeds the galaxy initializer; each reset advances it so
// consecutive resets differ, while a fixed seed keeps tests reproducible.
func New(cfg Config, seed int64) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulation{
		engine: physics.NewEngine(0),
		cfg:    cfg,
		seed:   seed,
		logf:   log.Printf,
	}
	s.Reset()
	return s, nil
}

// SetLogf redirects the simulation's diagnostic output.
func (s *Simulation) SetLogf(logf func(format string, args ...any)) {
	if logf != nil {
		s.logf = logf
	}
}

// Reset regenerates the particle array from the current configuration and
// rewinds sim_time and frame_number to zero. The simulation resumes unpaused.
func (s *Simulation) Reset() {
	s.particles = physics.GenerateCollision(s.cfg.ParticleCount, s.seed)
	s.seed++
	s.simTime = 0
	s.frameNumber = 0
	s.paused = false
	s.consecutiveSlow = 0
}

// UpdateConfig replaces the configuration atomically. Validation failure
// leaves the simulation untouched. A particle-count change forces a reset;
// every other field updates in place without disturbing the particles.
func (s *Simulation) UpdateConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	needReset := cfg.ParticleCount != s.cfg.ParticleCount
	old := s.cfg.ParticleCount
	s.cfg = cfg

	if needReset {
		s.logf("particle count changed from %d to %d, resetting simulation", old, cfg.ParticleCount)
		s.Reset()
	}
	return nil
}

// SetPaused flips the pause flag. Paused steps skip physics entirely.
func (s *Simulation) SetPaused(paused bool) {
	s.paused = paused
}

// Paused reports the pause flag.
func (s *Simulation) Paused() bool { return s.paused }

// Config returns the current configuration.
func (s *Simulation) Config() Config { return s.cfg }

// FrameNumber returns the current frame counter.
func (s *Simulation) FrameNumber() uint64 { return s.frameNumber }

// Snapshot returns a consistent view of the current state without advancing
// physics.
func (s *Simulation) Snapshot() Snapshot {
	return Snapshot{
		Particles:   physics.CloneParticles(s.particles),
		SimTime:     s.simTime,
		FrameNumber: s.frameNumber,
	}
}

// Step advances physics by one fixed time step unless paused, then returns
// a snapshot and a stats record. Paused steps still produce both, with
// computation_time_ms zero and counters unchanged.
func (s *Simulation) Step() (Snapshot, Stats) {
	s.observeTickPeriod(time.Now())

	if !s.paused {
		start := time.Now()
		s.engine.Step(s.particles, s.cfg.TimeStep, s.cfg.GravityStrength)
		s.lastComputation = time.Since(start)

		s.simTime += s.cfg.TimeStep
		s.frameNumber++

		s.checkBudget()
		if s.cfg.Debug && s.frameNumber%100 == 0 {
			s.logf("frame %d: t=%.2f, %d particles, %.1fms",
				s.frameNumber, s.simTime, len(s.particles), s.computationMillis())
		}
	} else {
		s.lastComputation = 0
	}

	snapshot := Snapshot{
		Particles:   physics.CloneParticles(s.particles),
		SimTime:     s.simTime,
		FrameNumber: s.frameNumber,
	}
	stats := Stats{
		FPS:               s.smoothedFPS,
		ComputationTimeMs: s.computationMillis(),
		ParticleCount:     len(s.particles),
		SimTime:           s.simTime,
		CPUUsage:          s.estimateCPU(),
		FrameNumber:       s.frameNumber,
	}
	return snapshot, stats
}

// observeTickPeriod feeds the fps smoother from the spacing between Step
// calls. Paused steps sample too, so fps tracks the tick cadence rather
// than physics cost.
func (s *Simulation) observeTickPeriod(now time.Time) {
	if !s.lastStepAt.IsZero() {
		if period := now.Sub(s.lastStepAt).Seconds(); period > 0 {
			sample := float32(1 / period)
			if s.smoothedFPS == 0 {
				s.smoothedFPS = sample
			} else {
				s.smoothedFPS += fpsSmoothing * (sample - s.smoothedFPS)
			}
		}
	}
	s.lastStepAt = now
}

func (s *Simulation) checkBudget() {
	if s.lastComputation <= maxComputationTime {
		s.consecutiveSlow = 0
		return
	}
	s.consecutiveSlow++
	if s.consecutiveSlow >= slowFrameEscalation {
		s.logf("ERROR: %d consecutive slow frames (%.0fms > %dms); reduce particle count below %d",
			s.consecutiveSlow, s.computationMillis(), maxComputationTime.Milliseconds(), len(s.particles))
	} else {
		s.logf("WARN: slow frame %d: %.0fms exceeds %dms budget",
			s.frameNumber, s.computationMillis(), maxComputationTime.Milliseconds())
	}
}

func (s *Simulation) computationMillis() float32 {
	return float32(s.lastComputation.Seconds() * 1000)
}

// estimateCPU is a rough load heuristic: how much of the nominal tick
// period the last physics step consumed, clamped to [0,100].
func (s *Simulation) estimateCPU() float32 {
	usage := s.computationMillis() / targetTickMillis * 100
	if usage > 100 {
		return 100
	}
	if usage < 0 {
		return 0
	}
	return usage
}
