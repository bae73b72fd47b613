package physics

import (
	"math"
	"testing"
)

func TestGenerateCollisionCount(t *testing.T) {
	for _, n := range []int{1, 2, 3, 100, 101, 3000} {
		particles := GenerateCollision(n, 1)
		if len(particles) != n {
			t.Errorf("n=%d: got %d particles", n, len(particles))
		}
	}
}

func TestGenerateCollisionParticlesValid(t *testing.T) {
	particles := GenerateCollision(500, 9)

	for i, p := range particles {
		if !p.IsFinite() {
			t.Fatalf("particle %d non-finite: %+v", i, p)
		}
		if p.Mass <= 0 {
			t.Fatalf("particle %d has non-positive mass %v", i, p.Mass)
		}
		for k, c := range p.Color {
			if c < 0 || c > 1 {
				t.Fatalf("particle %d color[%d]=%v outside [0,1]", i, k, c)
			}
		}
	}
}

func TestGenerateCollisionTwoDisks(t *testing.T) {
	particles := GenerateCollision(1000, 5)

	// first half seeds around x=-5, second around x=+5
	var meanX1, meanX2 float64
	half := len(particles) / 2
	for i, p := range particles {
		if i < half {
			meanX1 += float64(p.Position[0])
		} else {
			meanX2 += float64(p.Position[0])
		}
	}
	meanX1 /= float64(half)
	meanX2 /= float64(len(particles) - half)

	if meanX1 > -3 || meanX2 < 3 {
		t.Errorf("disk centers not separated: %.2f vs %.2f", meanX1, meanX2)
	}
}

func TestGenerateDiskBulkVelocity(t *testing.T) {
	base := Disk{
		Center:    Vec3{0, 0, 0},
		Axis:      Vec3{0, 0, 1},
		Count:     100,
		Radius:    2,
		BaseColor: [4]float32{1, 1, 1, 1},
	}
	moving := base
	moving.BulkVelocity = Vec3{0.5, -0.25, 0.125}

	rest := GenerateDisk(base, 13)
	boosted := GenerateDisk(moving, 13)

	// identical seed: boosted velocities differ by exactly the bulk velocity
	for i := range rest {
		if rest[i].Position != boosted[i].Position {
			t.Fatalf("particle %d position depends on bulk velocity", i)
		}
		got := boosted[i].Velocity.Sub(rest[i].Velocity)
		for k := 0; k < 3; k++ {
			if diff := math.Abs(float64(got[k] - moving.BulkVelocity[k])); diff > 1e-3 {
				t.Fatalf("particle %d bulk velocity contribution %v, want %v", i, got, moving.BulkVelocity)
			}
		}
	}
}

func TestGenerateCollisionRadialExtent(t *testing.T) {
	particles := GenerateCollision(400, 3)
	half := len(particles) / 2
	center := Vec3{-5, 0, 0}
	for i := 0; i < half; i++ {
		d := particles[i].Position.Sub(center)
		inPlane := math.Hypot(float64(d[0]), float64(d[1]))
		if inPlane > 2.5 {
			t.Fatalf("particle %d at in-plane radius %.2f beyond disk extent", i, inPlane)
		}
	}
}

func TestGenerateCollisionSeedDeterminism(t *testing.T) {
	a := GenerateCollision(200, 77)
	b := GenerateCollision(200, 77)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at particle %d", i)
		}
	}

	c := GenerateCollision(200, 78)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical arrays")
	}
}
