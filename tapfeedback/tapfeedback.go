// Package tapfeedback notifies visual, audio and haptic sinks when a press
// starts inside the active region.
package tapfeedback

import (
	"logicaltouch/touchstate"
)

// Tap is one accepted press.
type Tap struct {
	Position touchstate.Vec2
}

// Sink reacts to a tap. Sinks run on the tick goroutine and must not block.
type Sink interface {
	Tap(t Tap)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(t Tap)

func (f SinkFunc) Tap(t Tap) { f(t) }

// Spawner fires sinks on the rising edge of IsDown.
type Spawner struct {
	sinks    []Sink
	prevDown bool
}

// New creates a spawner with the given sinks.
func New(sinks ...Sink) *Spawner {
	return &Spawner{sinks: sinks}
}

// Add registers another sink.
func (s *Spawner) Add(sink Sink) {
	s.sinks = append(s.sinks, sink)
}

// Tick checks for a press edge. Gated presses are swallowed but still
// consume the edge.
func (s *Spawner) Tick(st touchstate.State, allowed bool) {
	down := st.IsDown
	if down && !s.prevDown && allowed {
		tap := Tap{Position: st.Position}
		for _, sink := range s.sinks {
			sink.Tap(tap)
		}
	}
	s.prevDown = down
}
