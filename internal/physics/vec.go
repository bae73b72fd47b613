package physics

import "math"

// Vec3 is a single-precision 3-vector. It marshals as a JSON array, which is
// the wire layout clients expect for positions and velocities.
type Vec3 [3]float32

func (v Vec3) X() float32 { return v[0] }
func (v Vec3) Y() float32 { return v[1] }
func (v Vec3) Z() float32 { return v[2] }

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

func (v Vec3) Dot(o Vec3) float32 {
	return v[0]*o[0] + v[1]*o[1] + v[2]*o[2]
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}

func (v Vec3) Norm() float32 {
	return sqrt32(v.Dot(v))
}

func (v Vec3) Normalized() Vec3 {
	n := v.Norm()
	if n == 0 {
		return Vec3{}
	}
	return v.Scale(1 / n)
}

func (v Vec3) IsFinite() bool {
	for _, c := range v {
		f := float64(c)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

func sqrt32(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

// invSqrt32 computes 1/sqrt(x). The force kernel relies on it to form
// inv·inv·inv instead of dividing by a 3/2 power.
func invSqrt32(x float32) float32 {
	return float32(1 / math.Sqrt(float64(x)))
}
