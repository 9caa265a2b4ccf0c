// Package blemanager drives BLE haptic devices that buzz on taps and clicks.
package blemanager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"
)

var adapter = bluetooth.DefaultAdapter

var (
	hapticService = mustUUID("0000ab00-0000-1000-8000-00805f9b34fb")
	hapticLevel   = mustUUID("0000ab01-0000-1000-8000-00805f9b34fb")
)

const writeTimeout = time.Second

var (
	ErrNotReady         = errors.New("blemanager: link not ready")
	ErrNoCharacteristic = errors.New("blemanager: haptic characteristic missing")
)

func mustUUID(s string) bluetooth.UUID {
	u, err := bluetooth.ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return u
}

// Link is one connection to a haptic device.
type Link interface {
	Connect(addr string) error
	Write(data []byte) error
	Ready() bool
	Disconnect()
}

// BLELink is a Link over tinygo bluetooth.
type BLELink struct {
	mu     sync.Mutex
	device bluetooth.Device
	level  *bluetooth.DeviceCharacteristic
	ready  bool
}

// NewBLELink enables the default adapter and returns an unconnected link.
func NewBLELink() (*BLELink, error) {
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("enable adapter: %w", err)
	}
	return &BLELink{}, nil
}

// Connect dials addr and resolves the level characteristic.
func (b *BLELink) Connect(addr string) error {
	var address bluetooth.Address
	address.Set(addr)

	device, err := adapter.Connect(address, bluetooth.ConnectionParams{})
	if err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}

	level, err := levelCharacteristic(device)
	if err != nil {
		device.Disconnect()
		return fmt.Errorf("connect %s: %w", addr, err)
	}

	b.mu.Lock()
	b.device, b.level, b.ready = device, level, true
	b.mu.Unlock()
	return nil
}

// levelCharacteristic asks only for the haptic service and its level
// characteristic instead of walking everything the device exposes.
func levelCharacteristic(device bluetooth.Device) (*bluetooth.DeviceCharacteristic, error) {
	services, err := device.DiscoverServices([]bluetooth.UUID{hapticService})
	if err != nil {
		return nil, fmt.Errorf("discover services: %w", err)
	}
	for _, svc := range services {
		chars, err := svc.DiscoverCharacteristics([]bluetooth.UUID{hapticLevel})
		if err != nil {
			return nil, fmt.Errorf("discover characteristics: %w", err)
		}
		if len(chars) > 0 {
			return &chars[0], nil
		}
	}
	return nil, ErrNoCharacteristic
}

// Write sends data, giving up after writeTimeout. A failed write marks the
// link as not ready so the pool reconnects.
func (b *BLELink) Write(data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.ready || b.level == nil {
		return ErrNotReady
	}

	done := make(chan error, 1)
	level := b.level
	go func() {
		_, err := level.WriteWithoutResponse(data)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			b.ready = false
			return fmt.Errorf("write: %w", err)
		}
		return nil
	case <-time.After(writeTimeout):
		b.ready = false
		return fmt.Errorf("write: %w", os.ErrDeadlineExceeded)
	}
}

// Ready reports whether the link can write.
func (b *BLELink) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

// Disconnect safely disconnects from the device.
func (b *BLELink) Disconnect() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ready {
		b.device.Disconnect()
		b.ready = false
	}
}

// Discover scans for devices advertising name until ctx ends and reports
// each new address once.
func Discover(ctx context.Context, name string, onFound func(addr string)) error {
	if err := adapter.Enable(); err != nil {
		return fmt.Errorf("enable adapter: %w", err)
	}

	go func() {
		<-ctx.Done()
		adapter.StopScan()
	}()

	seen := map[string]bool{}
	// blocks until StopScan
	err := adapter.Scan(func(a *bluetooth.Adapter, result bluetooth.ScanResult) {
		if result.LocalName() != name {
			return
		}
		addr := NormalizeAddress(result.Address.String())
		if seen[addr] {
			return
		}
		seen[addr] = true
		onFound(addr)
	})
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	return nil
}
