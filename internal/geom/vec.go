package geom

import "math"

// Vec3 is a world-space position or direction. Y is up.
type Vec3 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// Forward is the default facing of a freshly spawned unit.
var Forward = Vec3{Z: 1}

func V(x, y, z float32) Vec3 { return Vec3{X: x, Y: y, Z: z} }

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float32) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Mul(o Vec3) Vec3      { return Vec3{v.X * o.X, v.Y * o.Y, v.Z * o.Z} }
func (v Vec3) Dot(o Vec3) float32   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Len() float32         { return float32(math.Sqrt(float64(v.Dot(v)))) }
func (v Vec3) Dist(o Vec3) float32  { return v.Sub(o).Len() }
func (v Vec3) IsZero() bool         { return v.X == 0 && v.Y == 0 && v.Z == 0 }
func (v Vec3) Flat() Vec3           { return Vec3{X: v.X, Z: v.Z} }

func (v Vec3) Within(o Vec3, r float32) bool {
	d := v.Sub(o)
	return d.Dot(d) <= r*r
}

// Normalize returns the unit vector along v, or zero for a zero vector.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// RotateY rotates v around the up axis by rad radians.
func (v Vec3) RotateY(rad float64) Vec3 {
	s, c := math.Sincos(rad)
	return Vec3{
		X: float32(float64(v.X)*c + float64(v.Z)*s),
		Y: v.Y,
		Z: float32(-float64(v.X)*s + float64(v.Z)*c),
	}
}

// MoveToward steps from v toward target by at most maxDist.
func (v Vec3) MoveToward(target Vec3, maxDist float32) Vec3 {
	d := target.Sub(v)
	l := d.Len()
	if l <= maxDist || l == 0 {
		return target
	}
	return v.Add(d.Scale(maxDist / l))
}

// AABB is an axis-aligned box used for zone bounds and blockers.
type AABB struct {
	Min Vec3 `json:"min" yaml:"min"`
	Max Vec3 `json:"max" yaml:"max"`
}

func (b AABB) Contains(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Clamp returns the closest point to p inside b.
func (b AABB) Clamp(p Vec3) Vec3 {
	return Vec3{
		X: clamp(p.X, b.Min.X, b.Max.X),
		Y: clamp(p.Y, b.Min.Y, b.Max.Y),
		Z: clamp(p.Z, b.Min.Z, b.Max.Z),
	}
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
