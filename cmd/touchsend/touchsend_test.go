package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logicaltouch/oscwire"
)

type recorder struct {
	sent []oscwire.Sample
	fail error
}

func (r *recorder) Send(p osc.Packet) error {
	if r.fail != nil {
		return r.fail
	}
	b, err := p.MarshalBinary()
	if err != nil {
		return err
	}
	s, err := oscwire.Decode(b)
	if err != nil {
		return err
	}
	r.sent = append(r.sent, s)
	return nil
}

func noSleep(context.Context, time.Duration) bool { return true }

func phases(steps []step) []oscwire.Phase {
	out := make([]oscwire.Phase, len(steps))
	for i, s := range steps {
		out[i] = s.sample.Phase
	}
	return out
}

func TestTap(t *testing.T) {
	steps := tap(3, point{0.25, 0.75}, 50*time.Millisecond)
	assert.Equal(t, []oscwire.Phase{oscwire.PhaseDown, oscwire.PhaseUp}, phases(steps))
	assert.Equal(t, 50*time.Millisecond, steps[0].wait)
	assert.Equal(t, int32(3), steps[1].sample.ID)
	assert.Equal(t, float32(0.75), steps[1].sample.Y)
}

func TestDrag(t *testing.T) {
	steps := drag(0, point{0, 0}, point{1, 0.5}, 100*time.Millisecond, 40)

	require.Len(t, steps, 6)
	assert.Equal(t, oscwire.PhaseDown, steps[0].sample.Phase)
	for _, s := range steps[1:5] {
		assert.Equal(t, oscwire.PhaseMove, s.sample.Phase)
	}
	assert.Equal(t, oscwire.PhaseUp, steps[5].sample.Phase)

	assert.InDelta(t, 0.5, steps[2].sample.X, 1e-6)
	assert.InDelta(t, 1, steps[4].sample.X, 1e-6)
	assert.InDelta(t, 0.5, steps[5].sample.Y, 1e-6)
	assert.Equal(t, 25*time.Millisecond, steps[0].wait)
}

func TestHoldStaysPut(t *testing.T) {
	steps := hold(0, point{0.4, 0.6}, 10*time.Millisecond, 60)
	for _, s := range steps {
		assert.Equal(t, float32(0.4), s.sample.X)
		assert.Equal(t, float32(0.6), s.sample.Y)
	}
	assert.Len(t, steps, 3, "at least one move between down and up")
}

func TestPlaySendsDecodableSamples(t *testing.T) {
	r := &recorder{}
	require.NoError(t, play(context.Background(), r, tap(1, point{0.1, 0.2}, time.Millisecond), noSleep))

	require.Len(t, r.sent, 2)
	assert.Equal(t, oscwire.Sample{ID: 1, X: 0.1, Y: 0.2, Phase: oscwire.PhaseDown}, r.sent[0])
	assert.Equal(t, oscwire.PhaseUp, r.sent[1].Phase)
}

func TestPlayStopsOnCancel(t *testing.T) {
	r := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := play(ctx, r, tap(0, point{}, time.Second), sleepCtx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, r.sent, 1)
}

func TestPlayReportsSendError(t *testing.T) {
	boom := errors.New("boom")
	err := play(context.Background(), &recorder{fail: boom}, tap(0, point{}, 0), noSleep)
	assert.ErrorIs(t, err, boom)
}

func TestRun(t *testing.T) {
	r := &recorder{}
	var dialed string
	connect := func(addr string) (sender, error) {
		dialed = addr
		return r, nil
	}

	err := run(context.Background(), []string{"-addr", "10.0.0.2:9100", "-id", "7", "tap", "-x", "0.3", "-for", "1ms"}, io.Discard, connect)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.2:9100", dialed)
	require.Len(t, r.sent, 2)
	assert.Equal(t, int32(7), r.sent[0].ID)
	assert.InDelta(t, 0.3, r.sent[0].X, 1e-6)
}

func TestRunRejectsUnknownGesture(t *testing.T) {
	err := run(context.Background(), []string{"swipe"}, io.Discard, func(string) (sender, error) { return &recorder{}, nil })
	assert.Error(t, err)

	err = run(context.Background(), nil, io.Discard, nil)
	assert.Error(t, err)
}

func TestDial(t *testing.T) {
	_, err := dial("nope")
	assert.Error(t, err)

	_, err = dial("localhost:abc")
	assert.Error(t, err)

	c, err := dial(":9000")
	require.NoError(t, err)
	assert.NotNil(t, c)
}
