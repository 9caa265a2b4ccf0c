package oscmanager

import (
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logicaltouch/oscwire"
)

func TestMailboxKeepsOnlyLatest(t *testing.T) {
	mb := NewMailbox()

	_, ok := mb.Take()
	assert.False(t, ok, "empty mailbox")

	for i := int32(1); i <= 50; i++ {
		mb.Publish(oscwire.Sample{ID: i, X: 0.1, Y: 0.2, Phase: oscwire.PhaseMove})
	}

	s, ok := mb.Take()
	require.True(t, ok)
	assert.Equal(t, int32(50), s.ID)

	_, ok = mb.Take()
	assert.False(t, ok, "take clears the slot")
}

func TestMailboxConcurrentPublish(t *testing.T) {
	mb := NewMailbox()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := int32(1); i <= 10000; i++ {
			mb.Publish(oscwire.Sample{ID: i})
		}
	}()

	last := int32(0)
	for {
		select {
		case <-done:
			if s, ok := mb.Take(); ok {
				assert.Greater(t, s.ID, last)
				last = s.ID
			}
			assert.Equal(t, int32(10000), last)
			return
		default:
		}
		if s, ok := mb.Take(); ok {
			require.Greater(t, s.ID, last, "samples never go backwards")
			last = s.ID
		}
	}
}

func startManager(t *testing.T) (*OSCManager, *Mailbox, net.Conn) {
	t.Helper()

	logger, _ := test.NewNullLogger()
	mb := NewMailbox()
	m := New(Config{Addr: "127.0.0.1:0", ReadTimeout: 50 * time.Millisecond}, mb, logger)
	require.NoError(t, m.Start())
	t.Cleanup(func() { _ = m.Stop(time.Second) })

	conn, err := net.Dial("udp", m.LocalAddr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return m, mb, conn
}

func TestReceivesAndPublishes(t *testing.T) {
	m, mb, conn := startManager(t)

	b, err := oscwire.Encode(oscwire.Sample{ID: 1, X: 0.5, Y: 0.5, Phase: oscwire.PhaseDown})
	require.NoError(t, err)
	_, err = conn.Write(b)
	require.NoError(t, err)

	var got oscwire.Sample
	require.Eventually(t, func() bool {
		s, ok := mb.Take()
		got = s
		return ok
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, oscwire.Sample{ID: 1, X: 0.5, Y: 0.5, Phase: oscwire.PhaseDown}, got)
	assert.Equal(t, uint64(1), m.Stats().Decoded)
}

func TestNoiseIsDroppedAndLoopSurvives(t *testing.T) {
	m, mb, conn := startManager(t)

	_, err := conn.Write([]byte("garbage"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return m.Stats().Dropped == 1 }, 2*time.Second, 5*time.Millisecond)

	_, ok := mb.Take()
	assert.False(t, ok)

	b, err := oscwire.Encode(oscwire.Sample{ID: 2, X: 0.1, Y: 0.9, Phase: oscwire.PhaseMove})
	require.NoError(t, err)
	_, err = conn.Write(b)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		s, ok := mb.Take()
		return ok && s.ID == 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestBindFailureIsReported(t *testing.T) {
	m, _, _ := startManager(t)

	logger, _ := test.NewNullLogger()
	other := New(Config{Addr: m.LocalAddr().String()}, NewMailbox(), logger)
	err := other.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen")
}

func TestStartTwice(t *testing.T) {
	m, _, _ := startManager(t)
	assert.ErrorIs(t, m.Start(), ErrRunning)
}

func TestStopIsBoundedAndIdempotent(t *testing.T) {
	logger, _ := test.NewNullLogger()
	m := New(Config{Addr: "127.0.0.1:0", ReadTimeout: time.Second}, NewMailbox(), logger)
	require.NoError(t, m.Start())

	start := time.Now()
	require.NoError(t, m.Stop(2*time.Second))
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Nil(t, m.LocalAddr())

	assert.NoError(t, m.Stop(time.Second))
}

func TestNewDefaultsTimeout(t *testing.T) {
	m := New(Config{Addr: ":0"}, NewMailbox(), logrus.New())
	assert.Equal(t, time.Second, m.cfg.ReadTimeout)
}
