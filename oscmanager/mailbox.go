package oscmanager

import "logicaltouch/oscwire"

// Mailbox is a single-slot, latest-wins handoff between the receive goroutine
// and the tick goroutine. Samples are copied in and copied out.
type Mailbox struct {
	slot chan oscwire.Sample
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{slot: make(chan oscwire.Sample, 1)}
}

// Publish replaces any pending sample with s. It never blocks as long as
// there is a single publisher.
func (m *Mailbox) Publish(s oscwire.Sample) {
	// slot full: drop the stale value then insert the new one
	select {
	case <-m.slot:
	default:
	}
	select {
	case m.slot <- s:
	default:
	}
}

// Take returns the pending sample and clears the slot. ok is false when
// nothing arrived since the last Take.
func (m *Mailbox) Take() (s oscwire.Sample, ok bool) {
	select {
	case s = <-m.slot:
		return s, true
	default:
		return oscwire.Sample{}, false
	}
}
