// Package soundfx plays short tones when a touch is accepted or a click lands.
package soundfx

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/sirupsen/logrus"

	"logicaltouch/clicker"
	"logicaltouch/config"
	"logicaltouch/tapfeedback"
)

const sampleRate = beep.SampleRate(48000)

// attack/release of every tone, keeps the speaker from popping
const edge = 5 * time.Millisecond

// Player mixes tones into the default speaker.
type Player struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	settings    config.SoundSettings
	initialized bool
	log         logrus.FieldLogger
}

// New creates a player. Nothing is audible until Init succeeds.
func New(s config.SoundSettings, log logrus.FieldLogger) *Player {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Player{
		mixer:    &beep.Mixer{},
		settings: s,
		log:      log.WithField("component", "soundfx"),
	}
}

// Init opens the speaker and starts the mixer.
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized || !p.settings.Enabled {
		return nil
	}

	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(p.mixer)
	p.initialized = true
	return nil
}

// Close silences everything still playing.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	p.initialized = false
}

// Play mixes a tone at freq Hz using the configured length and volume.
func (p *Player) Play(freq float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	s, err := Tone(freq, p.settings.Length.Std(), p.settings.Volume)
	if err != nil {
		p.log.WithError(err).WithField("freq", freq).Warn("bad tone")
		return
	}
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
}

// TapSink plays the base tone on every accepted press.
func (p *Player) TapSink() tapfeedback.Sink {
	return tapfeedback.SinkFunc(func(tapfeedback.Tap) {
		p.Play(p.settings.FrequencyHz)
	})
}

// OnClick plays a fifth above the tap tone.
func (p *Player) OnClick(t clicker.Target) {
	if t != nil {
		p.log.WithField("target", t.Name()).Debug("click tone")
	}
	p.Play(p.settings.FrequencyHz * 1.5)
}

// Tone returns a sine of the given length shaped by a short attack and
// release. A zero or negative volume is silent.
func Tone(freq float64, length time.Duration, volume float64) (beep.Streamer, error) {
	sine, err := generators.SineTone(sampleRate, freq)
	if err != nil {
		return nil, err
	}
	return withVolume(withEnvelope(beep.Take(sampleRate.N(length), sine), length), volume), nil
}

type envelope struct {
	s     beep.Streamer
	pos   int
	edge  int
	total int
}

func withEnvelope(s beep.Streamer, length time.Duration) beep.Streamer {
	e := sampleRate.N(edge)
	total := sampleRate.N(length)
	if 2*e > total {
		e = total / 2
	}
	return &envelope{s: s, edge: e, total: total}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.s.Stream(samples)
	for i := 0; i < n; i++ {
		vol := 1.0
		switch {
		case e.edge == 0:
		case e.pos < e.edge:
			vol = float64(e.pos) / float64(e.edge)
		case e.pos >= e.total-e.edge:
			vol = float64(e.total-e.pos) / float64(e.edge)
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		e.pos++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.s.Err() }

// math.Log2(0) is -Inf
func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}
