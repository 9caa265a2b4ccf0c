// Package clicker turns press/release edges of the logical touch into clicks
// on UI targets, without going through the host's pointer pipeline.
package clicker

import (
	"time"

	"github.com/sirupsen/logrus"

	"logicaltouch/touchstate"
)

// DefaultCooldown is how long new presses are ignored after a click.
const DefaultCooldown = 200 * time.Millisecond

// Target is an interactive UI element. Targets are compared with ==, so
// implementations should be pointers or other comparable handles.
type Target interface {
	Name() string
}

// HitTester finds the topmost interactive element at a logical position.
// It must be a pure, synchronous query; nil means nothing is there.
type HitTester interface {
	HitTest(pos touchstate.Vec2) Target
}

// HitTestFunc adapts a function to HitTester.
type HitTestFunc func(pos touchstate.Vec2) Target

func (f HitTestFunc) HitTest(pos touchstate.Vec2) Target { return f(pos) }

// ClickFunc is called once per confirmed click, on the tick goroutine.
type ClickFunc func(t Target)

// Config holds dispatcher settings.
type Config struct {
	Cooldown time.Duration
}

// Dispatcher captures the target under a press and clicks it if the
// release lands on the same target.
type Dispatcher struct {
	hit     HitTester
	onClick ClickFunc
	cfg     Config
	log     logrus.FieldLogger

	prevDown  bool
	capturing bool
	captured  Target
	cooldown  time.Duration
}

// New creates a dispatcher.
func New(hit HitTester, onClick ClickFunc, cfg Config, log logrus.FieldLogger) *Dispatcher {
	if cfg.Cooldown < 0 {
		cfg.Cooldown = 0
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{
		hit:     hit,
		onClick: onClick,
		cfg:     cfg,
		log:     log.WithField("component", "clicker"),
	}
}

// Tick advances the dispatcher by one frame. allowed is the region gate's
// verdict at st.Position; it only matters on press and release edges.
func (d *Dispatcher) Tick(dt time.Duration, st touchstate.State, allowed bool) {
	d.cooldown -= dt
	if d.cooldown < 0 {
		d.cooldown = 0
	}

	down := st.IsDown
	switch {
	case down && !d.prevDown:
		d.press(st.Position, allowed)
	case !down && d.prevDown:
		d.release(st.Position, allowed)
	}
	d.prevDown = down
}

func (d *Dispatcher) press(pos touchstate.Vec2, allowed bool) {
	d.capturing = false
	d.captured = nil

	if !allowed || d.cooldown > 0 {
		d.log.WithFields(logrus.Fields{
			"allowed":  allowed,
			"cooldown": d.cooldown,
		}).Debug("press ignored")
		return
	}

	d.capturing = true
	d.captured = d.hit.HitTest(pos)
	d.log.WithField("target", name(d.captured)).Debug("press")
}

func (d *Dispatcher) release(pos touchstate.Vec2, allowed bool) {
	if !d.capturing {
		return
	}

	pressed := d.captured
	d.capturing = false
	d.captured = nil

	if pressed == nil || !allowed {
		return
	}

	target := d.hit.HitTest(pos)
	d.log.WithFields(logrus.Fields{
		"released": name(target),
		"pressed":  name(pressed),
	}).Debug("release")

	if target == nil || target != pressed {
		return
	}

	d.cooldown = d.cfg.Cooldown
	d.log.WithField("target", target.Name()).Info("click")
	if d.onClick != nil {
		d.onClick(target)
	}
}

// Captured returns the target held since the last press, or nil.
func (d *Dispatcher) Captured() Target {
	return d.captured
}

// Capturing reports whether a press is awaiting its release.
func (d *Dispatcher) Capturing() bool {
	return d.capturing
}

// Cooldown returns the remaining cooldown.
func (d *Dispatcher) Cooldown() time.Duration {
	return d.cooldown
}

func name(t Target) string {
	if t == nil {
		return "<none>"
	}
	return t.Name()
}
