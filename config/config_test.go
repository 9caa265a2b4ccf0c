package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())

	assert.Equal(t, ":9000", s.ListenAddr)
	assert.Equal(t, float32(256), s.LogicalWidth)
	assert.Equal(t, float32(256), s.LogicalHeight)
	assert.Equal(t, 2, s.HoldFrames)
	assert.Equal(t, 200*time.Millisecond, s.ClickCooldown.Std())
	assert.Zero(t, s.StaleAfter)
	assert.Equal(t, time.Second/60, s.TickInterval())
}

func TestMissingFileKeepsDefaults(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, st.Load())
	assert.Equal(t, Default(), st.Get())
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	st := New(path)
	require.NoError(t, st.Update(func(s *Settings) {
		s.ListenAddr = "127.0.0.1:9100"
		s.ClickCooldown = Duration(350 * time.Millisecond)
		s.GatePresets["bonus"] = 0.75
		s.StaleAfter = Duration(3 * time.Second)
	}))
	assert.True(t, st.AddHaptic(HapticDevice{ID: "AA:BB:CC:DD:EE:FF", Name: "Device A", Enabled: true, Event: "click"}))
	assert.False(t, st.AddHaptic(HapticDevice{ID: "AA:BB:CC:DD:EE:FF"}), "duplicate")
	require.NoError(t, st.Save())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"click_cooldown": "350ms"`)

	other := New(path)
	require.NoError(t, other.Load())
	got := other.Get()
	assert.Equal(t, "127.0.0.1:9100", got.ListenAddr)
	assert.Equal(t, 350*time.Millisecond, got.ClickCooldown.Std())
	assert.Equal(t, float32(0.75), got.GatePresets["bonus"])
	assert.Equal(t, float32(0.5), got.GatePresets["select"])
	assert.Equal(t, 3*time.Second, got.StaleAfter.Std())
	require.Len(t, got.Haptics, 1)
	assert.Equal(t, "Device A", got.Haptics[0].Name)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"hold_frames": -1, "gate_threshold": 2}`), 0644))

	err := New(path).Load()
	assert.ErrorIs(t, err, ErrInvalid)

	require.NoError(t, os.WriteFile(path, []byte(`{"click_cooldown": "soon"}`), 0644))
	assert.Error(t, New(path).Load())
}

func TestLoadRejectsUnknownHapticEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"haptics":[{"id":"A","enabled":true,"event":"tapp"}]}`), 0644))
	assert.ErrorIs(t, New(path).Load(), ErrInvalid)

	require.NoError(t, os.WriteFile(path, []byte(`{"haptics":[{"id":"A","enabled":true}]}`), 0644))
	assert.ErrorIs(t, New(path).Load(), ErrInvalid, "missing event")

	st := New(path)
	err := st.Update(func(s *Settings) {
		s.Haptics = append(s.Haptics, HapticDevice{ID: "B", Event: "buzz"})
	})
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Empty(t, st.Get().Haptics)
}

func TestLoadReplacesGatePresets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"gate_presets":{"bonus":0.3}}`), 0644))

	st := New(path)
	require.NoError(t, st.Load())
	assert.Equal(t, map[string]float32{"bonus": 0.3}, st.Get().GatePresets)

	require.NoError(t, os.WriteFile(path, []byte(`{"tick_rate":30}`), 0644))
	require.NoError(t, st.Load())
	assert.Equal(t, Default().GatePresets, st.Get().GatePresets, "no key keeps defaults")
}

func TestDurationAcceptsNanoseconds(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`1500000`)))
	assert.Equal(t, 1500*time.Microsecond, d.Std())
}

func TestUpdateRejectsInvalidAndKeepsOld(t *testing.T) {
	st := New("")
	assert.Equal(t, DefaultFileName, st.Path())

	err := st.Update(func(s *Settings) { s.TickRate = 0 })
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, 60, st.Get().TickRate)
}

func TestGetReturnsCopy(t *testing.T) {
	st := New("")
	s := st.Get()
	s.GatePresets["title"] = 0.9
	assert.Equal(t, float32(0), st.Get().GatePresets["title"])
}

func TestHapticToggleAndRemove(t *testing.T) {
	st := New("")
	st.AddHaptic(HapticDevice{ID: "A", Enabled: true})
	st.AddHaptic(HapticDevice{ID: "B", Enabled: true})

	st.SetHapticEnabled("A", false)
	got := st.Get().Haptics
	assert.False(t, got[0].Enabled)
	assert.True(t, got[1].Enabled)

	st.RemoveHaptic("A")
	got = st.Get().Haptics
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].ID)
}
