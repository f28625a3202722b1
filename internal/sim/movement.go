package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// MoveSpeed is the base player ground speed in world units per second.
const MoveSpeed = 6.0

// Step advances a position by one input using dead-reckoned ground movement.
// It is the single movement function shared by the authority tick loop and
// the client prediction pipeline: given the same position and input both
// sides must produce bit-identical results, so it uses only plain float64
// arithmetic and no randomness or clocks.
func Step(pos mgl64.Vec3, in Input) mgl64.Vec3 {
	var fwd, strafe float64
	if in.Forward {
		fwd++
	}
	if in.Backward {
		fwd--
	}
	if in.Right {
		strafe++
	}
	if in.Left {
		strafe--
	}
	if fwd == 0 && strafe == 0 {
		return pos
	}

	sin, cos := math.Sin(in.Rotation), math.Cos(in.Rotation)
	// Facing convention: yaw 0 looks down +Z, positive yaw turns toward +X.
	dir := mgl64.Vec3{
		sin*fwd + cos*strafe,
		0,
		cos*fwd - sin*strafe,
	}
	if fwd != 0 && strafe != 0 {
		dir = dir.Mul(1 / math.Sqrt2) // diagonal is not faster
	}
	return pos.Add(dir.Mul(MoveSpeed * in.Dt))
}

// ShortestAngle returns the signed smallest rotation from a to b, in
// (-pi, pi]. Rotation smoothing interpolates along this path so a turn from
// 350° to 10° goes through 0°, not backward through 180°.
func ShortestAngle(a, b float64) float64 {
	d := math.Mod(b-a, 2*math.Pi)
	if d > math.Pi {
		d -= 2 * math.Pi
	}
	if d <= -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

// LerpAngle moves a toward b by fraction t along the shortest angular path.
func LerpAngle(a, b, t float64) float64 {
	return a + ShortestAngle(a, b)*t
}

// PlanarDistance is the XZ-plane distance between two positions. Height is
// ignored for range checks and reconciliation thresholds.
func PlanarDistance(a, b mgl64.Vec3) float64 {
	dx := a.X() - b.X()
	dz := a.Z() - b.Z()
	return math.Sqrt(dx*dx + dz*dz)
}
