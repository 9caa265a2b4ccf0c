package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hypebeast/go-osc/osc"

	"logicaltouch/oscwire"
)

// step is one datagram and the pause before the next.
type step struct {
	sample oscwire.Sample
	wait   time.Duration
}

type point struct{ x, y float32 }

func frames(d time.Duration, rate int) int {
	n := int(d * time.Duration(rate) / time.Second)
	if n < 1 {
		n = 1
	}
	return n
}

// tap presses at p, holds for d and releases.
func tap(id int32, p point, d time.Duration) []step {
	return []step{
		{sample: oscwire.Sample{ID: id, X: p.x, Y: p.y, Phase: oscwire.PhaseDown}, wait: d},
		{sample: oscwire.Sample{ID: id, X: p.x, Y: p.y, Phase: oscwire.PhaseUp}},
	}
}

// drag presses at from, moves to to over d at rate samples per second and
// releases at to.
func drag(id int32, from, to point, d time.Duration, rate int) []step {
	n := frames(d, rate)
	interval := d / time.Duration(n)

	steps := []step{{sample: oscwire.Sample{ID: id, X: from.x, Y: from.y, Phase: oscwire.PhaseDown}, wait: interval}}
	for i := 1; i <= n; i++ {
		f := float32(i) / float32(n)
		steps = append(steps, step{
			sample: oscwire.Sample{
				ID:    id,
				X:     from.x + (to.x-from.x)*f,
				Y:     from.y + (to.y-from.y)*f,
				Phase: oscwire.PhaseMove,
			},
			wait: interval,
		})
	}
	return append(steps, step{sample: oscwire.Sample{ID: id, X: to.x, Y: to.y, Phase: oscwire.PhaseUp}})
}

// hold keeps streaming Move at p for d, the way a resting finger reports.
func hold(id int32, p point, d time.Duration, rate int) []step {
	return drag(id, p, p, d, rate)
}

// sender is satisfied by *osc.Client.
type sender interface {
	Send(packet osc.Packet) error
}

// play sends steps in order and stops early when ctx ends.
func play(ctx context.Context, s sender, steps []step, sleep func(context.Context, time.Duration) bool) error {
	for i, st := range steps {
		if err := s.Send(oscwire.Message(st.sample)); err != nil {
			return fmt.Errorf("send step %d: %w", i, err)
		}
		if st.wait > 0 && !sleep(ctx, st.wait) {
			return ctx.Err()
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
