package sim

import "math"

// MaxInputDt bounds the per-input elapsed time. Anything above this is a
// stalled client or a forged packet; either way the input is rejected.
const MaxInputDt = 0.25

// Input is one quantized input packet. The same struct is applied by the
// authority and replayed by the client during reconciliation, so it must
// stay free of any server-only state.
type Input struct {
	Seq      uint32  `json:"seq"`
	Forward  bool    `json:"fwd"`
	Backward bool    `json:"back"`
	Left     bool    `json:"left"`
	Right    bool    `json:"right"`
	Jump     bool    `json:"jump"`
	Rotation float64 `json:"rot"` // yaw, radians
	Dt       float64 `json:"dt"`  // seconds since previous input
	SkillID  int32   `json:"skill,omitempty"`
	Attack   bool    `json:"atk,omitempty"`
}

// Valid reports whether an input is safe to apply. Malformed inputs are
// dropped silently by the input system; they never produce a reply.
func (in Input) Valid() bool {
	if in.Dt <= 0 || in.Dt > MaxInputDt {
		return false
	}
	if math.IsNaN(in.Rotation) || math.IsInf(in.Rotation, 0) {
		return false
	}
	if in.Rotation < -2*math.Pi || in.Rotation > 2*math.Pi {
		return false
	}
	return true
}
