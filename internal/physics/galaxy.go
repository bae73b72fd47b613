package physics

import (
	"math"

	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Disk describes one spiral galaxy before it dissolves into the flat
// particle array. Nothing retains galaxy identity after generation.
type Disk struct {
	Center       Vec3
	BulkVelocity Vec3
	Axis         Vec3
	Count        int
	Radius       float32
	BaseColor    [4]float32
}

// GenerateCollision builds n particles arranged as two spiral disks on an
// approach trajectory. Counts split n/2 and n-n/2, so odd n leaves a
// one-particle imbalance.
func GenerateCollision(n int, seed int64) []Particle {
	first := Disk{
		Center:       Vec3{-5, 0, 0},
		BulkVelocity: Vec3{0.5, 0, 0},
		Axis:         Vec3{0, 0, 1},
		Count:        n / 2,
		Radius:       2,
		BaseColor:    [4]float32{0.8, 0.8, 1.0, 1.0},
	}
	second := Disk{
		Center:       Vec3{5, 0, 0},
		BulkVelocity: Vec3{-0.5, 0, 0},
		Axis:         Vec3{0.3, 0, 1}.Normalized(),
		Count:        n - n/2,
		Radius:       2,
		BaseColor:    [4]float32{1.0, 0.8, 0.8, 1.0},
	}

	particles := make([]Particle, 0, n)
	particles = append(particles, GenerateDisk(first, seed)...)
	particles = append(particles, GenerateDisk(second, seed+1)...)
	return particles
}

// GenerateDisk samples one spiral disk. Radii follow an exponential profile
// truncated to the outer radius, which concentrates mass in a central bulge.
// Each star gets a near-circular tangential velocity in the disk's rest
// frame, the bulk velocity on top, and a small out-of-plane offset for
// finite thickness.
func GenerateDisk(d Disk, seed int64) []Particle {
	src := exprand.NewSource(uint64(seed))
	rng := exprand.New(src)
	radial := distuv.Exponential{Rate: 3 / float64(d.Radius), Src: src}

	type star struct {
		r, theta, z float64
	}
	stars := make([]star, d.Count)
	masses := make([]float32, d.Count)

	var diskMass float32
	for i := range stars {
		r := radial.Rand()
		for r > float64(d.Radius) {
			r = radial.Rand()
		}
		stars[i] = star{
			r:     r,
			theta: rng.Float64() * 2 * math.Pi,
			z:     (rng.Float64() - 0.5) * 0.1 * float64(d.Radius),
		}
		// near-constant stellar mass, slightly heavier toward the bulge
		masses[i] = 1 + 2*float32(math.Exp(-2*r/float64(d.Radius)))
		diskMass += masses[i]
	}

	u, v := planeBasis(d.Axis)
	rate := 3 / float64(d.Radius)

	particles := make([]Particle, d.Count)
	for i, s := range stars {
		r := float32(s.r)
		cos := float32(math.Cos(s.theta))
		sin := float32(math.Sin(s.theta))

		radialDir := u.Scale(cos).Add(v.Scale(sin))
		tangent := u.Scale(-sin).Add(v.Scale(cos))

		pos := d.Center.
			Add(radialDir.Scale(r)).
			Add(d.Axis.Scale(float32(s.z)))

		// circular speed against the mass enclosed by the exponential
		// profile, softened at small r
		enclosed := diskMass * float32(1-math.Exp(-rate*s.r))
		speed := sqrt32(GravityBase * enclosed / (r + Softening))
		vel := d.BulkVelocity.Add(tangent.Scale(speed))

		particles[i] = Particle{
			Position: pos,
			Velocity: vel,
			Mass:     masses[i],
			Color:    diskColor(d.BaseColor, r/d.Radius, float32(rng.Float64())),
		}
	}
	return particles
}

// planeBasis returns two unit vectors spanning the plane normal to axis.
func planeBasis(axis Vec3) (Vec3, Vec3) {
	ref := Vec3{0, 1, 0}
	if axis.Cross(ref).Norm() < 1e-4 {
		ref = Vec3{1, 0, 0}
	}
	u := axis.Cross(ref).Normalized()
	v := axis.Cross(u)
	return u, v
}

// diskColor blends the palette from a white-hot bulge out to the disk's base
// color, with per-star jitter. Channels stay inside [0,1].
func diskColor(base [4]float32, t, jitter float32) [4]float32 {
	if t > 1 {
		t = 1
	}
	var c [4]float32
	for k := 0; k < 3; k++ {
		c[k] = 1 + (base[k]-1)*t + (jitter-0.5)*0.2
		if c[k] < 0 {
			c[k] = 0
		} else if c[k] > 1 {
			c[k] = 1
		}
	}
	c[3] = base[3]
	return c
}
