// Package touchstate turns the raw sample stream into the per-tick logical
// touch state read by the gate, the click dispatcher and visual feedback.
package touchstate

import (
	"time"

	"github.com/sirupsen/logrus"

	"logicaltouch/oscwire"
)

// Source is where the publisher pulls new samples from.
type Source interface {
	Take() (oscwire.Sample, bool)
}

// Publisher drains the mailbox once per tick and keeps the last known sample.
type Publisher struct {
	src        Source
	staleAfter time.Duration
	log        logrus.FieldLogger

	latest    oscwire.Sample
	hasSample bool
	sinceLast time.Duration
	stale     bool
	prevPhase oscwire.Phase
}

// NewPublisher creates a publisher. staleAfter > 0 turns a silent sender
// into a release; zero holds the last sample forever.
func NewPublisher(src Source, staleAfter time.Duration, log logrus.FieldLogger) *Publisher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Publisher{
		src:        src,
		staleAfter: staleAfter,
		log:        log.WithField("component", "publisher"),
		prevPhase:  -1,
	}
}

// Tick pulls at most one pending sample. It never blocks.
func (p *Publisher) Tick(dt time.Duration) {
	if s, ok := p.src.Take(); ok {
		p.latest = s
		p.hasSample = true
		p.sinceLast = 0
		p.stale = false
	} else if p.hasSample {
		p.sinceLast += dt
		if p.staleAfter > 0 && !p.stale && p.sinceLast >= p.staleAfter {
			p.stale = true
			p.latest.Phase = oscwire.PhaseUp
			p.log.WithField("silent_for", p.sinceLast).Info("touch source went quiet, releasing")
		}
	}

	if p.hasSample && p.latest.Phase != p.prevPhase {
		p.prevPhase = p.latest.Phase
		p.log.WithFields(logrus.Fields{
			"id":    p.latest.ID,
			"x":     p.latest.X,
			"y":     p.latest.Y,
			"phase": p.latest.Phase,
		}).Debug("phase changed")
	}
}

// Latest returns the last known sample; ok is false before the first one.
func (p *Publisher) Latest() (s oscwire.Sample, ok bool) {
	return p.latest, p.hasSample
}

// Stale reports whether the current sample was synthesized by the staleness timeout.
func (p *Publisher) Stale() bool {
	return p.stale
}
