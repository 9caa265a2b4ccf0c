package blemanager

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"logicaltouch/clicker"
	"logicaltouch/config"
	"logicaltouch/tapfeedback"
)

// Events a haptic device can subscribe to.
const (
	EventTap   = config.EventTap
	EventClick = config.EventClick
)

// LinkFactory opens a fresh link for each connection attempt.
type LinkFactory func() (Link, error)

// Options tune reconnects and keepalive.
type Options struct {
	RetryDelay time.Duration
	Heartbeat  time.Duration
}

// DefaultOptions are the delays the firmware was tuned against.
func DefaultOptions() Options {
	return Options{
		RetryDelay: 5 * time.Second,
		Heartbeat:  2 * time.Second,
	}
}

type device struct {
	cfg    config.HapticDevice
	pulses chan float64
	online atomic.Bool
	cancel context.CancelFunc
}

// Pool keeps every enabled haptic device connected and forwards pulses to
// it without ever blocking the caller.
type Pool struct {
	newLink LinkFactory
	opts    Options
	log     logrus.FieldLogger

	mu      sync.Mutex
	devices []*device
	ctx     context.Context // set while Run is active
	closed  bool
	wg      sync.WaitGroup
}

// NewPool creates a pool for the enabled devices in devs.
func NewPool(devs []config.HapticDevice, newLink LinkFactory, opts Options, log logrus.FieldLogger) *Pool {
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := &Pool{
		newLink: newLink,
		opts:    opts,
		log:     log.WithField("component", "blemanager"),
	}
	for _, d := range devs {
		if !d.Enabled {
			continue
		}
		d.ID = NormalizeAddress(d.ID)
		p.devices = append(p.devices, &device{cfg: d, pulses: make(chan float64, 1)})
	}
	return p
}

// Len returns the number of managed devices.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.devices)
}

// Run manages every device until ctx is done, then disconnects them all.
// Devices enabled while Run is active are picked up immediately.
func (p *Pool) Run(ctx context.Context) {
	p.mu.Lock()
	p.ctx = ctx
	for _, d := range p.devices {
		p.startLocked(d)
	}
	p.mu.Unlock()

	<-ctx.Done()

	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) startLocked(d *device) {
	if p.ctx == nil || p.closed {
		return
	}
	dctx, cancel := context.WithCancel(p.ctx)
	d.cancel = cancel
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.manage(dctx, d)
	}()
}

// Enable starts managing dev. Devices already in the pool are left alone.
func (p *Pool) Enable(dev config.HapticDevice) {
	dev.ID = NormalizeAddress(dev.ID)
	dev.Enabled = true

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, d := range p.devices {
		if d.cfg.ID == dev.ID {
			return
		}
	}
	d := &device{cfg: dev, pulses: make(chan float64, 1)}
	p.devices = append(p.devices, d)
	p.startLocked(d)
}

// Disable stops managing the device with id and disconnects it.
func (p *Pool) Disable(id string) {
	id = NormalizeAddress(id)

	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.devices[:0]
	for _, d := range p.devices {
		if d.cfg.ID != id {
			kept = append(kept, d)
			continue
		}
		if d.cancel != nil {
			d.cancel()
		}
	}
	p.devices = kept
}

// Pulse queues a buzz of strength 0..1 on every device subscribed to event.
// A pending pulse that was not sent yet is replaced.
func (p *Pool) Pulse(event string, strength float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, d := range p.devices {
		if d.cfg.Event != event || !d.online.Load() {
			continue
		}
		select {
		case <-d.pulses:
		default:
		}
		select {
		case d.pulses <- strength:
		default:
		}
	}
}

// Online reports whether the device with id is connected.
func (p *Pool) Online(id string) bool {
	id = NormalizeAddress(id)
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, d := range p.devices {
		if d.cfg.ID == id {
			return d.online.Load()
		}
	}
	return false
}

// TapSink buzzes tap subscribers lightly on every accepted press.
func (p *Pool) TapSink() tapfeedback.Sink {
	return tapfeedback.SinkFunc(func(tapfeedback.Tap) {
		p.Pulse(EventTap, 0.3)
	})
}

// OnClick buzzes click subscribers at full strength.
func (p *Pool) OnClick(clicker.Target) {
	p.Pulse(EventClick, 1)
}

// Level maps a 0..1 strength into the payload the firmware expects.
// Values are lifted into 0.4..1 so the weakest pulse is still felt.
func Level(v float64) string {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return fmt.Sprintf("%.2f", 0.4+v*0.6)
}

// manage handles connection and heartbeat for a single device
func (p *Pool) manage(ctx context.Context, d *device) {
	log := p.log.WithFields(logrus.Fields{"device": d.cfg.Name, "id": d.cfg.ID})

	for ctx.Err() == nil {
		log.Info("connecting")

		link, err := p.newLink()
		if err == nil {
			err = link.Connect(d.cfg.ID)
		}
		if err != nil {
			log.WithError(err).Warn("connect failed")
			if !sleep(ctx, p.opts.RetryDelay) {
				return
			}
			continue
		}

		d.online.Store(true)
		log.Info("connected")

		p.serve(ctx, d, link, log)

		d.online.Store(false)
		link.Disconnect()
		log.Info("disconnected")
	}
}

func (p *Pool) serve(ctx context.Context, d *device, link Link, log logrus.FieldLogger) {
	heartbeat := time.NewTicker(p.opts.Heartbeat)
	defer heartbeat.Stop()

	for link.Ready() {
		select {
		case <-ctx.Done():
			return
		case v := <-d.pulses:
			if err := link.Write([]byte(Level(v))); err != nil {
				log.WithError(err).Warn("pulse failed")
			}
		case <-heartbeat.C:
			if err := link.Write([]byte("ping")); err != nil {
				log.WithError(err).Warn("heartbeat failed")
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
