// Package touchgate restricts touch interaction to part of the logical space.
package touchgate

import (
	"fmt"
	"sync"

	"logicaltouch/touchstate"
)

// Allowed reports whether pos lies at or above threshold, measured as a
// fraction of logicalMax along Y.
func Allowed(pos touchstate.Vec2, logicalMax, threshold float32) bool {
	if logicalMax <= 0 {
		return false
	}
	return pos.Y/logicalMax >= threshold
}

// Gate holds the current threshold and an optional set of named presets
// that screens switch between.
type Gate struct {
	logicalMax float32

	mu        sync.RWMutex
	threshold float32
	presets   map[string]float32
}

// New creates a gate over a logical space of height logicalMax.
func New(logicalMax, threshold float32) *Gate {
	return &Gate{
		logicalMax: logicalMax,
		threshold:  clamp(threshold),
		presets:    map[string]float32{},
	}
}

// Allowed applies the current threshold to pos.
func (g *Gate) Allowed(pos touchstate.Vec2) bool {
	return Allowed(pos, g.logicalMax, g.Threshold())
}

// Threshold returns the current threshold.
func (g *Gate) Threshold() float32 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.threshold
}

// SetThreshold replaces the threshold, clamped to [0,1].
func (g *Gate) SetThreshold(v float32) {
	g.mu.Lock()
	g.threshold = clamp(v)
	g.mu.Unlock()
}

// SetPreset registers a named threshold.
func (g *Gate) SetPreset(name string, v float32) {
	g.mu.Lock()
	g.presets[name] = clamp(v)
	g.mu.Unlock()
}

// Apply switches to a named preset.
func (g *Gate) Apply(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	v, ok := g.presets[name]
	if !ok {
		return fmt.Errorf("touchgate: unknown preset %q", name)
	}
	g.threshold = v
	return nil
}

func clamp(v float32) float32 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
