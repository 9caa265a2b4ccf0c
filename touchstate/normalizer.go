package touchstate

import (
	"logicaltouch/oscwire"
)

// DefaultHoldFrames is how many extra Up ticks are needed before a release.
const DefaultHoldFrames = 2

// Vec2 is a position in logical space.
type Vec2 struct {
	X, Y float32
}

// DefaultLogicalSize is the logical space every consumer works in.
var DefaultLogicalSize = Vec2{X: 256, Y: 256}

// State is the per-tick logical touch state.
type State struct {
	Position Vec2
	IsDown   bool
	Phase    oscwire.Phase
}

// Normalizer debounces releases and maps samples into logical space.
type Normalizer struct {
	logicalSize Vec2
	holdFrames  int

	upTicks int
	state   State
}

// NewNormalizer creates a normalizer. The position starts in the centre of
// logical space and the contact starts released.
func NewNormalizer(logicalSize Vec2, holdFrames int) *Normalizer {
	if logicalSize.X <= 0 || logicalSize.Y <= 0 {
		logicalSize = DefaultLogicalSize
	}
	if holdFrames < 0 {
		holdFrames = 0
	}
	return &Normalizer{
		logicalSize: logicalSize,
		holdFrames:  holdFrames,
		upTicks:     holdFrames + 1,
		state: State{
			Position: Vec2{X: logicalSize.X / 2, Y: logicalSize.Y / 2},
			Phase:    oscwire.PhaseUp,
		},
	}
}

// Tick advances one frame with the latest raw sample. ok=false means no
// sample has ever arrived and the state is left alone.
func (n *Normalizer) Tick(s oscwire.Sample, ok bool) State {
	if !ok {
		return n.state
	}

	n.state.Phase = s.Phase

	// A lone Up in the middle of a drag must not end the press: only
	// holdFrames+1 consecutive Up ticks do.
	if s.Phase.Pressed() {
		n.upTicks = 0
		n.state.IsDown = true
	} else {
		if n.upTicks <= n.holdFrames {
			n.upTicks++
		}
		n.state.IsDown = n.upTicks <= n.holdFrames
	}

	n.state.Position = n.ToLogical(s.X, s.Y)
	return n.state
}

// ToLogical maps normalized coordinates into logical space.
func (n *Normalizer) ToLogical(x01, y01 float32) Vec2 {
	return Vec2{
		X: oscwire.Clamp01(x01) * n.logicalSize.X,
		Y: oscwire.Clamp01(y01) * n.logicalSize.Y,
	}
}

// State returns a copy of the current state.
func (n *Normalizer) State() State {
	return n.state
}

// LogicalSize returns the logical space extent.
func (n *Normalizer) LogicalSize() Vec2 {
	return n.logicalSize
}
