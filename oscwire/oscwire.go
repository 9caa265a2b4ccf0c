// Package oscwire decodes and encodes the /touch OSC message sent by the touch sensor.
package oscwire

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/hypebeast/go-osc/osc"
)

const (
	// Address is the only OSC address this package recognises.
	Address = "/touch"
	// TypeTags is the only type tag string this package recognises.
	TypeTags = ",iffi"
)

var (
	ErrMalformed = errors.New("oscwire: malformed packet")
	ErrAddress   = errors.New("oscwire: unexpected address")
	ErrTypeTags  = errors.New("oscwire: unexpected type tags")
	ErrPhase     = errors.New("oscwire: unknown phase")
)

// Phase is the contact phase reported by the sensor.
type Phase int32

const (
	PhaseUp   Phase = 0
	PhaseDown Phase = 1
	PhaseMove Phase = 2
)

// Pressed reports whether the phase means the contact is on the surface.
func (p Phase) Pressed() bool {
	return p == PhaseDown || p == PhaseMove
}

func (p Phase) String() string {
	switch p {
	case PhaseUp:
		return "up"
	case PhaseDown:
		return "down"
	case PhaseMove:
		return "move"
	}
	return fmt.Sprintf("phase(%d)", int32(p))
}

// Sample is one decoded touch report. X and Y are normalized to [0,1].
type Sample struct {
	ID    int32
	X     float32
	Y     float32
	Phase Phase
}

// Decode parses one datagram. It never panics; any input that is not exactly
// a /touch ,iffi message yields an error.
func Decode(b []byte) (s Sample, err error) {
	if len(b) == 0 {
		return Sample{}, ErrMalformed
	}

	// go-osc allocates from length fields it reads off the wire, so a hostile
	// packet can make it panic before we get to look at the tags.
	defer func() {
		if r := recover(); r != nil {
			s, err = Sample{}, fmt.Errorf("%w: %v", ErrMalformed, r)
		}
	}()

	packet, err := osc.ParsePacket(string(b))
	if err != nil {
		return Sample{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	msg, ok := packet.(*osc.Message)
	if !ok || msg == nil {
		return Sample{}, fmt.Errorf("%w: not a message", ErrMalformed)
	}
	if msg.Address != Address {
		return Sample{}, fmt.Errorf("%w: %q", ErrAddress, msg.Address)
	}

	s, err = fromArguments(msg.Arguments)
	if err != nil {
		return Sample{}, err
	}

	// go-osc skips padding without looking at it and stops after the last
	// argument, so compare against the canonical encoding.
	if enc, mErr := msg.MarshalBinary(); mErr != nil || !bytes.Equal(enc, b) {
		return Sample{}, fmt.Errorf("%w: padding or trailing bytes", ErrMalformed)
	}
	return s, nil
}

// fromArguments checks the argument list against ,iffi. go-osc maps i to
// int32 and f to float32, so the Go types identify the tag string exactly.
func fromArguments(args []interface{}) (Sample, error) {
	if len(args) != 4 {
		return Sample{}, fmt.Errorf("%w: %d arguments", ErrTypeTags, len(args))
	}

	id, ok1 := args[0].(int32)
	x, ok2 := args[1].(float32)
	y, ok3 := args[2].(float32)
	phase, ok4 := args[3].(int32)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return Sample{}, fmt.Errorf("%w: %T %T %T %T", ErrTypeTags, args[0], args[1], args[2], args[3])
	}

	p := Phase(phase)
	if p != PhaseUp && p != PhaseDown && p != PhaseMove {
		return Sample{}, fmt.Errorf("%w: %d", ErrPhase, phase)
	}

	return Sample{
		ID:    id,
		X:     Clamp01(x),
		Y:     Clamp01(y),
		Phase: p,
	}, nil
}

// Message builds the OSC message for s.
func Message(s Sample) *osc.Message {
	return osc.NewMessage(Address, s.ID, s.X, s.Y, int32(s.Phase))
}

// Encode serializes s as a /touch ,iffi datagram.
func Encode(s Sample) ([]byte, error) {
	b, err := Message(s).MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode touch: %w", err)
	}
	return b, nil
}

// Clamp01 clamps v into [0,1]. NaN maps to 0.
func Clamp01(v float32) float32 {
	switch {
	case math.IsNaN(float64(v)):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
