// Package client implements the prediction side of the movement protocol:
// inputs are applied locally the moment they are sampled, kept until the
// authority acknowledges them, and replayed on top of every authoritative
// state so the player never waits a round trip to see themselves move.
package client

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/duskspire/server/internal/sim"
)

const (
	// SnapThreshold is the position error, in world units, beyond which
	// reconciliation abandons smoothing and teleports to the corrected
	// position.
	SnapThreshold = 3.0

	// BlendFactor is the fraction of the remaining error closed per
	// reconciliation below the snap threshold.
	BlendFactor = 0.2

	// RotationBlend smooths yaw corrections along the shortest arc.
	RotationBlend = 0.3
)

// Pipeline is the client-side predicted state for the local player.
// Not safe for concurrent use; drive it from the client's frame loop.
type Pipeline struct {
	pos      mgl64.Vec3
	rotation float64

	nextSeq uint32
	pending []sim.Input
}

// NewPipeline starts prediction from an authoritative snapshot.
func NewPipeline(pos mgl64.Vec3, rotation float64) *Pipeline {
	return &Pipeline{pos: pos, rotation: rotation, nextSeq: 1}
}

// Pos returns the current predicted position.
func (p *Pipeline) Pos() mgl64.Vec3 { return p.pos }

// Rotation returns the current predicted yaw.
func (p *Pipeline) Rotation() float64 { return p.rotation }

// Pending returns the number of unacknowledged inputs.
func (p *Pipeline) Pending() int { return len(p.pending) }

// Predict stamps the input with the next sequence number, applies it
// locally and retains it for replay. Returns the stamped input to send.
func (p *Pipeline) Predict(in sim.Input) sim.Input {
	in.Seq = p.nextSeq
	p.nextSeq++
	p.pos = sim.Step(p.pos, in)
	p.rotation = in.Rotation
	p.pending = append(p.pending, in)
	return in
}

// Reconcile folds an authoritative update into the prediction: inputs the
// server has applied are discarded, the rest replay on top of the
// authoritative position, and the residual error is snapped or blended
// away. Called once per patch that carries the local player.
func (p *Pipeline) Reconcile(authPos mgl64.Vec3, authRot float64, lastProcessed uint32) {
	// Drop everything the authority has already applied.
	keep := p.pending[:0]
	for _, in := range p.pending {
		if in.Seq > lastProcessed {
			keep = append(keep, in)
		}
	}
	p.pending = keep

	corrected := authPos
	for _, in := range p.pending {
		corrected = sim.Step(corrected, in)
	}

	err := sim.PlanarDistance(p.pos, corrected)
	switch {
	case err > SnapThreshold:
		p.pos = corrected
	case err > 0:
		p.pos = mgl64.Vec3{
			p.pos.X() + (corrected.X()-p.pos.X())*BlendFactor,
			corrected.Y(),
			p.pos.Z() + (corrected.Z()-p.pos.Z())*BlendFactor,
		}
	}

	// With no inputs in flight the server's yaw is the truth.
	if len(p.pending) == 0 {
		p.rotation = sim.LerpAngle(p.rotation, authRot, RotationBlend)
	}
}

// Reset abandons prediction state after a teleport-style transition
// (floor advance, room transfer) while keeping the sequence counter.
func (p *Pipeline) Reset(pos mgl64.Vec3, rotation float64) {
	p.pos = pos
	p.rotation = rotation
	p.pending = p.pending[:0]
}
