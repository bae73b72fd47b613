package physics

import "runtime"

const (
	// GravityBase is the internal gravitational constant. The runtime
	// gravity_strength option scales it.
	GravityBase = 1.0

	// Softening is added in quadrature to inter-particle distance so close
	// encounters stay finite. Fixed at build time, not runtime-tunable.
	Softening = 0.1

	// minChunk is the smallest per-worker slice worth a goroutine.
	minChunk = 64
)

// Engine advances a dense particle array with pairwise softened Newtonian
// gravity and a semi-implicit Euler update: v += a·dt, then r += v·dt using
// the fresh velocity. The scheme is fixed-step.
//
// The outer force loop is chunked across workers; within one particle the
// inner loop over sources runs in a fixed order, so results are
// bit-identical under any worker count.
type Engine struct {
	workers int
	accel   []Vec3
}

// NewEngine returns an engine using the given worker count. Zero or negative
// means one worker per available CPU.
func NewEngine(workers int) *Engine {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{workers: workers}
}

// Workers reports the engine's worker count.
func (e *Engine) Workers() int { return e.workers }

// Accelerations computes the acceleration of every particle under
// G = GravityBase · gravityStrength. The returned slice is an internal
// buffer, valid until the next call.
//
// The kernel reads only positions and masses and writes only accel[i], so
// chunks are independent.
func (e *Engine) Accelerations(particles []Particle, gravityStrength float32) []Vec3 {
	n := len(particles)
	if cap(e.accel) < n {
		e.accel = make([]Vec3, n)
	}
	accel := e.accel[:n]

	g := float32(GravityBase) * gravityStrength
	const eps2 = Softening * Softening

	parallelFor(n, e.workers, minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			pi := particles[i].Position
			var ax, ay, az float32
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				pj := &particles[j]
				dx := pj.Position[0] - pi[0]
				dy := pj.Position[1] - pi[1]
				dz := pj.Position[2] - pi[2]
				d2 := dx*dx + dy*dy + dz*dz + eps2
				inv := invSqrt32(d2)
				w := g * pj.Mass * inv * inv * inv
				ax += dx * w
				ay += dy * w
				az += dz * w
			}
			accel[i] = Vec3{ax, ay, az}
		}
	})

	return accel
}

// Step advances all particles by dt. The update for particle i touches only
// particle i and accel[i], so it parallelizes by index.
func (e *Engine) Step(particles []Particle, dt, gravityStrength float32) {
	accel := e.Accelerations(particles, gravityStrength)

	parallelFor(len(particles), e.workers, minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			p := &particles[i]
			p.Velocity = p.Velocity.Add(accel[i].Scale(dt))
			p.Position = p.Position.Add(p.Velocity.Scale(dt))
		}
	})
}
