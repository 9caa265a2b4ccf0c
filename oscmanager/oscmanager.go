package oscmanager

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"logicaltouch/oscwire"
)

// maxDatagram is the largest UDP payload we accept.
const maxDatagram = 65535

var (
	ErrRunning     = errors.New("oscmanager: already running")
	ErrStopTimeout = errors.New("oscmanager: receive loop did not stop in time")
)

// Config holds the listener settings.
type Config struct {
	// Addr is the UDP address to bind, e.g. ":9000".
	Addr string
	// ReadTimeout bounds each blocking receive so the loop notices Stop.
	ReadTimeout time.Duration
}

// DefaultConfig matches the sensor's default port.
func DefaultConfig() Config {
	return Config{
		Addr:        ":9000",
		ReadTimeout: time.Second,
	}
}

// Stats is a snapshot of the receive counters.
type Stats struct {
	Received uint64
	Decoded  uint64
	Dropped  uint64
	Errors   uint64
}

// OSCManager owns the UDP socket and publishes decoded touch samples
// into a Mailbox.
type OSCManager struct {
	cfg     Config
	mailbox *Mailbox
	log     logrus.FieldLogger

	mu   sync.Mutex
	conn net.PacketConn
	quit chan struct{}
	done chan struct{}

	received atomic.Uint64
	decoded  atomic.Uint64
	dropped  atomic.Uint64
	errs     atomic.Uint64
}

// New creates a new OSCManager. Nothing is bound until Start.
func New(cfg Config, mailbox *Mailbox, log logrus.FieldLogger) *OSCManager {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultConfig().ReadTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &OSCManager{
		cfg:     cfg,
		mailbox: mailbox,
		log:     log.WithField("component", "oscmanager"),
	}
}

// Start binds the socket and launches the receive loop. A bind failure is
// returned to the caller; nothing after that is.
func (o *OSCManager) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.conn != nil {
		return ErrRunning
	}

	conn, err := net.ListenPacket("udp", o.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", o.cfg.Addr, err)
	}

	o.conn = conn
	o.quit = make(chan struct{})
	o.done = make(chan struct{})

	go o.run(conn, o.quit, o.done)

	o.log.WithField("addr", conn.LocalAddr().String()).Info("listening for OSC touch")
	return nil
}

// Stop closes the socket and waits up to wait for the receive loop to exit.
// Calling Stop on a stopped manager is a no-op.
func (o *OSCManager) Stop(wait time.Duration) error {
	o.mu.Lock()
	conn, quit, done := o.conn, o.quit, o.done
	o.conn = nil
	o.mu.Unlock()

	if conn == nil {
		return nil
	}

	close(quit)
	if err := conn.Close(); err != nil {
		o.log.WithError(err).Warn("close socket")
	}

	select {
	case <-done:
		o.log.Info("stopped")
		return nil
	case <-time.After(wait):
		return ErrStopTimeout
	}
}

// LocalAddr returns the bound address, or nil when not running.
func (o *OSCManager) LocalAddr() net.Addr {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.conn == nil {
		return nil
	}
	return o.conn.LocalAddr()
}

// Stats returns the current counters.
func (o *OSCManager) Stats() Stats {
	return Stats{
		Received: o.received.Load(),
		Decoded:  o.decoded.Load(),
		Dropped:  o.dropped.Load(),
		Errors:   o.errs.Load(),
	}
}

func (o *OSCManager) run(conn net.PacketConn, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	buf := make([]byte, maxDatagram)
	for {
		select {
		case <-quit:
			return
		default:
		}

		if err := conn.SetReadDeadline(time.Now().Add(o.cfg.ReadTimeout)); err != nil && !stopping(quit) {
			o.errs.Add(1)
			o.log.WithError(err).Warn("set read deadline")
		}

		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if stopping(quit) {
				return
			}
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				o.log.Warn("socket closed underneath the receive loop")
				return
			}
			o.errs.Add(1)
			o.log.WithError(err).Warn("receive failed")
			continue
		}

		o.received.Add(1)
		o.handle(buf[:n], from)
	}
}

func (o *OSCManager) handle(data []byte, from net.Addr) {
	sample, err := oscwire.Decode(data)
	if err != nil {
		// noise on the port is expected, keep it out of the normal log
		o.dropped.Add(1)
		o.log.WithField("from", from).WithError(err).Debug("dropped datagram")
		return
	}

	o.decoded.Add(1)
	o.mailbox.Publish(sample)
}

func stopping(quit <-chan struct{}) bool {
	select {
	case <-quit:
		return true
	default:
		return false
	}
}
