package soundfx

import (
	"math"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logicaltouch/config"
	"logicaltouch/tapfeedback"
)

func drain(t *testing.T, s beep.Streamer) [][2]float64 {
	t.Helper()
	var out [][2]float64
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		out = append(out, buf[:n]...)
		if !ok || n < len(buf) {
			return out
		}
	}
}

func tone(t *testing.T, length time.Duration, volume float64) beep.Streamer {
	t.Helper()
	s, err := Tone(440, length, volume)
	require.NoError(t, err)
	return s
}

func TestToneRejectsAboveNyquist(t *testing.T) {
	_, err := Tone(float64(sampleRate), time.Millisecond, 1)
	assert.Error(t, err)
}

func TestToneLengthAndRange(t *testing.T) {
	s, err := Tone(440, 50*time.Millisecond, 1)
	require.NoError(t, err)
	out := drain(t, s)

	require.Len(t, out, sampleRate.N(50*time.Millisecond))
	for i, v := range out {
		assert.LessOrEqual(t, math.Abs(v[0]), 1.0, "sample %d", i)
		assert.Equal(t, v[0], v[1], "mono in both channels")
	}
	assert.NoError(t, s.Err())
}

func TestToneEnvelopeStartsAndEndsQuiet(t *testing.T) {
	out := drain(t, tone(t, 60*time.Millisecond, 1))
	require.NotEmpty(t, out)

	assert.Zero(t, out[0][0])
	assert.Less(t, math.Abs(out[len(out)-1][0]), 0.01)

	var peak float64
	for _, v := range out {
		peak = math.Max(peak, math.Abs(v[0]))
	}
	assert.Greater(t, peak, 0.9)
}

func TestToneZeroVolumeIsSilent(t *testing.T) {
	for _, v := range drain(t, tone(t, 20*time.Millisecond, 0)) {
		assert.Zero(t, v[0])
	}
}

func TestToneEnvelopeShorterThanEdges(t *testing.T) {
	out := drain(t, tone(t, 2*time.Millisecond, 1))
	assert.Len(t, out, sampleRate.N(2*time.Millisecond))
}

func TestPlayerDisabledStaysQuiet(t *testing.T) {
	p := New(config.SoundSettings{Enabled: false, FrequencyHz: 880, Length: config.Duration(time.Millisecond), Volume: 1}, nil)
	require.NoError(t, p.Init())

	p.TapSink().Tap(tapfeedback.Tap{})
	p.OnClick(nil)
	assert.Zero(t, p.mixer.Len())
	assert.NotPanics(t, p.Close)
}
