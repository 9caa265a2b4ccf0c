// Package config holds the bridge settings and persists them as JSON.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// DefaultFileName is used when no path is given.
const DefaultFileName = "logicaltouch.json"

var ErrInvalid = errors.New("config: invalid settings")

// Duration is a time.Duration that reads and writes as "200ms" in JSON.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int64
		if err2 := json.Unmarshal(b, &n); err2 != nil {
			return fmt.Errorf("duration: %w", err)
		}
		*d = Duration(n)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Events a haptic device can subscribe to.
const (
	EventTap   = "tap"
	EventClick = "click"
)

// HapticDevice is a BLE device that buzzes on taps and clicks.
type HapticDevice struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	// Event selects what triggers the device: "tap" or "click".
	Event string `json:"event"`
}

// SoundSettings controls the tap tone.
type SoundSettings struct {
	Enabled     bool     `json:"enabled"`
	FrequencyHz float64  `json:"frequency_hz"`
	Length      Duration `json:"length"`
	Volume      float64  `json:"volume"`
}

// LogSettings controls the root logger.
type LogSettings struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Settings is everything the bridge can be configured with.
type Settings struct {
	ListenAddr    string             `json:"listen_addr"`
	ReadTimeout   Duration           `json:"read_timeout"`
	LogicalWidth  float32            `json:"logical_width"`
	LogicalHeight float32            `json:"logical_height"`
	HoldFrames    int                `json:"hold_frames"`
	ClickCooldown Duration           `json:"click_cooldown"`
	GateThreshold float32            `json:"gate_threshold"`
	GatePresets   map[string]float32 `json:"gate_presets"`
	StaleAfter    Duration           `json:"stale_after"`
	TickRate      int                `json:"tick_rate"`
	Log           LogSettings        `json:"log"`
	Sound         SoundSettings      `json:"sound"`
	Haptics       []HapticDevice     `json:"haptics"`
}

// Default returns the settings used when nothing is configured.
func Default() Settings {
	return Settings{
		ListenAddr:    ":9000",
		ReadTimeout:   Duration(time.Second),
		LogicalWidth:  256,
		LogicalHeight: 256,
		HoldFrames:    2,
		ClickCooldown: Duration(200 * time.Millisecond),
		GateThreshold: 0,
		GatePresets: map[string]float32{
			"title":  0,
			"select": 0.5,
		},
		StaleAfter: 0,
		TickRate:   60,
		Log: LogSettings{
			Level:  "info",
			Format: "text",
		},
		Sound: SoundSettings{
			Enabled:     false,
			FrequencyHz: 880,
			Length:      Duration(60 * time.Millisecond),
			Volume:      0.3,
		},
		Haptics: []HapticDevice{},
	}
}

// Validate checks ranges and returns an ErrInvalid wrapped error.
func (s Settings) Validate() error {
	var problems []string
	if s.ListenAddr == "" {
		problems = append(problems, "listen_addr is empty")
	}
	if s.LogicalWidth <= 0 || s.LogicalHeight <= 0 {
		problems = append(problems, "logical size must be positive")
	}
	if s.HoldFrames < 0 {
		problems = append(problems, "hold_frames must be >= 0")
	}
	if s.ClickCooldown < 0 {
		problems = append(problems, "click_cooldown must be >= 0")
	}
	if s.GateThreshold < 0 || s.GateThreshold > 1 {
		problems = append(problems, "gate_threshold must be within [0,1]")
	}
	for name, v := range s.GatePresets {
		if v < 0 || v > 1 {
			problems = append(problems, fmt.Sprintf("gate preset %q must be within [0,1]", name))
		}
	}
	if s.StaleAfter < 0 {
		problems = append(problems, "stale_after must be >= 0")
	}
	if s.TickRate <= 0 {
		problems = append(problems, "tick_rate must be positive")
	}
	for _, d := range s.Haptics {
		if d.Event != EventTap && d.Event != EventClick {
			problems = append(problems, fmt.Sprintf("haptic %q: unknown event %q", d.ID, d.Event))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// TickInterval is the host loop period for TickRate.
func (s Settings) TickInterval() time.Duration {
	if s.TickRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(s.TickRate)
}

// Store guards Settings and persists them to a JSON file.
type Store struct {
	mu       sync.Mutex
	path     string
	settings Settings
}

// New creates a store backed by path, holding defaults until Load.
func New(path string) *Store {
	if path == "" {
		path = DefaultFileName
	}
	return &Store{path: path, settings: Default()}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load reads the file over the defaults. A missing file is not an error.
// Gate presets in the file replace the default ones as a whole.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // nothing saved yet
		}
		return fmt.Errorf("read %s: %w", s.path, err)
	}

	loaded := Default()
	loaded.GatePresets = nil
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}
	if loaded.GatePresets == nil {
		loaded.GatePresets = Default().GatePresets
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("%s: %w", s.path, err)
	}

	s.settings = loaded
	return nil
}

// Save writes the current settings.
func (s *Store) Save() error {
	s.mu.Lock()
	data, err := json.MarshalIndent(s.settings, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// Get returns a copy of the settings.
func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyUnlocked()
}

// Update applies fn to a copy and keeps it if it validates.
func (s *Store) Update(fn func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.copyUnlocked()
	fn(&next)
	if err := next.Validate(); err != nil {
		return err
	}
	s.settings = next
	return nil
}

// AddHaptic registers a device, ignoring duplicates.
func (s *Store) AddHaptic(dev HapticDevice) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.settings.Haptics {
		if d.ID == dev.ID {
			return false // already exists
		}
	}
	s.settings.Haptics = append(s.settings.Haptics, dev)
	return true
}

// RemoveHaptic deletes a device by ID.
func (s *Store) RemoveHaptic(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.settings.Haptics[:0]
	for _, d := range s.settings.Haptics {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	s.settings.Haptics = kept
}

// SetHapticEnabled toggles a device by ID.
func (s *Store) SetHapticEnabled(id string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.settings.Haptics {
		if s.settings.Haptics[i].ID == id {
			s.settings.Haptics[i].Enabled = enabled
		}
	}
}

func (s *Store) copyUnlocked() Settings {
	c := s.settings
	c.GatePresets = make(map[string]float32, len(s.settings.GatePresets))
	for k, v := range s.settings.GatePresets {
		c.GatePresets[k] = v
	}
	c.Haptics = make([]HapticDevice, len(s.settings.Haptics))
	copy(c.Haptics, s.settings.Haptics)
	return c
}
