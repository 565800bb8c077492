package scripting

import (
	"math"
	"math/rand"

	"enginecore/internal/ecs"
)

// scriptRNG is a dedicated per-world random source, never the global
// math/rand source, so two runtimes seeded identically produce identical
// math.random sequences (spec §4.E surface 4, spec §8 invariant 15). No
// third-party RNG appears anywhere in the retrieval pack, so this is built
// directly on math/rand.
type scriptRNG struct {
	source *rand.Rand
}

func newScriptRNG(seed int64) *scriptRNG {
	return &scriptRNG{source: rand.New(rand.NewSource(seed))}
}

func (r *scriptRNG) random() float64 {
	return r.source.Float64()
}

func (r *scriptRNG) randomRange(min, max float64) float64 {
	return min + r.source.Float64()*(max-min)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func distance(ax, ay, az, bx, by, bz float64) float64 {
	dx, dy, dz := ax-bx, ay-by, az-bz
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }
func radToDeg(r float64) float64 { return r * 180 / math.Pi }

// rotateVector applies a Transform.Rotation (pitch=X, yaw=Y, roll=Z,
// radians) to v, in yaw-pitch-roll order (R = Ry * Rx * Rz), backing the
// transform surface's forward/right/up direction accessors.
func rotateVector(v, rot ecs.Vector3) ecs.Vector3 {
	sz, cz := math.Sincos(rot.Z)
	x1, y1, z1 := v.X*cz-v.Y*sz, v.X*sz+v.Y*cz, v.Z

	sx, cx := math.Sincos(rot.X)
	x2, y2, z2 := x1, y1*cx-z1*sx, y1*sx+z1*cx

	sy, cy := math.Sincos(rot.Y)
	x3, y3, z3 := x2*cy+z2*sy, y2, -x2*sy+z2*cy

	return ecs.Vector3{X: x3, Y: y3, Z: z3}
}

// lookAtRotation returns the pitch/yaw rotation that orients an entity's
// forward axis (-Z) from eye toward target, backing transform.look_at.
// Roll is left at zero: look_at never banks the entity.
func lookAtRotation(eye, target ecs.Vector3) ecs.Vector3 {
	dx, dy, dz := target.X-eye.X, target.Y-eye.Y, target.Z-eye.Z
	horiz := math.Sqrt(dx*dx + dz*dz)
	if horiz == 0 && dy == 0 {
		return ecs.Vector3{}
	}
	pitch := math.Atan2(dy, horiz)
	yaw := math.Atan2(-dx, -dz)
	return ecs.Vector3{X: pitch, Y: yaw}
}
