// Package touchsystem wires the per-tick touch pipeline:
// publisher, normalizer, gate, dispatcher, then tap feedback.
package touchsystem

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"logicaltouch/clicker"
	"logicaltouch/config"
	"logicaltouch/oscmanager"
	"logicaltouch/tapfeedback"
	"logicaltouch/touchgate"
	"logicaltouch/touchstate"
)

// System runs one input source through the pipeline. It is not safe for
// concurrent use; call Tick from a single goroutine.
type System struct {
	Publisher  *touchstate.Publisher
	Normalizer *touchstate.Normalizer
	Gate       *touchgate.Gate
	Dispatcher *clicker.Dispatcher
	Feedback   *tapfeedback.Spawner

	state   touchstate.State
	allowed bool
}

// New assembles a system from already built parts. feedback may be nil.
func New(p *touchstate.Publisher, n *touchstate.Normalizer, g *touchgate.Gate, d *clicker.Dispatcher, feedback *tapfeedback.Spawner) *System {
	return &System{
		Publisher:  p,
		Normalizer: n,
		Gate:       g,
		Dispatcher: d,
		Feedback:   feedback,
		state:      n.State(),
	}
}

// Tick runs one frame. Order matters: the state every consumer reads is
// the one produced earlier in this same call.
func (s *System) Tick(dt time.Duration) touchstate.State {
	s.Publisher.Tick(dt)
	s.state = s.Normalizer.Tick(s.Publisher.Latest())
	s.allowed = s.Gate.Allowed(s.state.Position)
	s.Dispatcher.Tick(dt, s.state, s.allowed)
	if s.Feedback != nil {
		s.Feedback.Tick(s.state, s.allowed)
	}
	return s.state
}

// State is the logical touch state as of the last tick.
func (s *System) State() touchstate.State {
	return s.state
}

// Allowed is the gate verdict as of the last tick.
func (s *System) Allowed() bool {
	return s.allowed
}

// Bridge is a System fed by its own UDP listener.
type Bridge struct {
	*System
	Listener *oscmanager.OSCManager
	Mailbox  *oscmanager.Mailbox
}

// Build creates a listener, mailbox and pipeline from settings. The
// listener is not started.
func Build(cfg config.Settings, hit clicker.HitTester, onClick clicker.ClickFunc, log logrus.FieldLogger) *Bridge {
	mb := oscmanager.NewMailbox()
	listener := oscmanager.New(oscmanager.Config{
		Addr:        cfg.ListenAddr,
		ReadTimeout: cfg.ReadTimeout.Std(),
	}, mb, log)

	size := touchstate.Vec2{X: cfg.LogicalWidth, Y: cfg.LogicalHeight}
	gate := touchgate.New(size.Y, cfg.GateThreshold)
	for name, v := range cfg.GatePresets {
		gate.SetPreset(name, v)
	}

	sys := New(
		touchstate.NewPublisher(mb, cfg.StaleAfter.Std(), log),
		touchstate.NewNormalizer(size, cfg.HoldFrames),
		gate,
		clicker.New(hit, onClick, clicker.Config{Cooldown: cfg.ClickCooldown.Std()}, log),
		tapfeedback.New(),
	)

	return &Bridge{System: sys, Listener: listener, Mailbox: mb}
}

// Runner executes f on the host's UI goroutine and returns once it ran.
type Runner func(f func())

// Direct runs f on the calling goroutine.
func Direct(f func()) { f() }

// Run ticks s every interval until ctx is done. Each tick, and the
// after hook when set, go through run so UI toolkits that own a main
// goroutine can host the pipeline.
func Run(ctx context.Context, s *System, interval time.Duration, run Runner, after func(touchstate.State)) {
	if run == nil {
		run = Direct
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			run(func() {
				st := s.Tick(dt)
				if after != nil {
					after(st)
				}
			})
		}
	}
}
