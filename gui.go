// gui.go
package main

import (
	"fmt"
	"image/color"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"logicaltouch/config"
	"logicaltouch/fyneui"
	"logicaltouch/touchgate"
	"logicaltouch/touchstate"
)

// --- Status handling ---
var statusColors = map[string]color.RGBA{
	"Online":   {0, 200, 0, 255},
	"Offline":  {200, 0, 0, 255},
	"Disabled": {150, 150, 150, 255},
	"Pending":  {200, 200, 200, 255},
}

func newStatus(text string) *canvas.Text {
	txt := canvas.NewText(text, statusColors[text])
	txt.TextSize = 14
	txt.Alignment = fyne.TextAlignCenter
	return txt
}

// applyStatus must run on the fyne goroutine
func applyStatus(label *canvas.Text, text string) {
	if label == nil || label.Text == text {
		return
	}
	col, ok := statusColors[text]
	if !ok {
		col = statusColors["Pending"]
	}
	label.Text = text
	label.Color = col
	label.Refresh()
}

// --- Console handling ---

// Console mirrors log entries into a read-only entry. It is a logrus hook.
type Console struct {
	widget *widget.Entry
	limit  int

	mu    sync.Mutex
	lines []string
}

func newConsole(limit int) *Console {
	c := &Console{
		widget: widget.NewMultiLineEntry(),
		limit:  limit,
	}
	c.widget.SetPlaceHolder("Console output...")
	c.widget.Wrapping = fyne.TextWrapWord
	c.widget.Disable()
	return c
}

// Levels implements logrus.Hook. The logger's own level does the filtering.
func (c *Console) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook.
func (c *Console) Fire(e *logrus.Entry) error {
	line := fmt.Sprintf("%s %-5s %s", e.Time.Format("15:04:05"), strings.ToUpper(e.Level.String()), e.Message)
	if comp, ok := e.Data["component"]; ok {
		line = fmt.Sprintf("%s (%v)", line, comp)
	}
	if err, ok := e.Data[logrus.ErrorKey]; ok {
		line = fmt.Sprintf("%s: %v", line, err)
	}
	c.append(line)
	return nil
}

func (c *Console) append(line string) {
	c.mu.Lock()
	c.lines = append(c.lines, line)
	// enforce max lines
	if len(c.lines) > c.limit {
		c.lines = c.lines[len(c.lines)-c.limit:]
	}
	text := strings.Join(c.lines, "\n")
	row := len(c.lines)
	c.mu.Unlock()

	// hooks fire from any goroutine, including fyne's own
	fyne.Do(func() {
		c.widget.SetText(text)
		c.widget.CursorRow = row
	})
}

// --- Kiosk screens ---

// games offered on the select screen
var games = []string{"Memory", "Puzzle", "Quiz"}

type kiosk struct {
	root   *fyne.Container
	layer  *fyneui.Layer
	cursor *fyneui.Cursor
	title  *fyneui.Screen
	sel    *fyneui.Screen
	gate   *touchgate.Gate
	log    logrus.FieldLogger
}

func newKiosk(size touchstate.Vec2, log logrus.FieldLogger) *kiosk {
	k := &kiosk{
		root: container.NewStack(),
		log:  log.WithField("component", "kiosk"),
	}
	k.layer = fyneui.NewLayer(k.root, fyneui.Mapping{Logical: size, YUp: true})
	k.cursor = fyneui.NewCursor(k.layer, 12, theme.Color(theme.ColorNamePrimary))

	w, h := size.X, size.Y

	// Title: the whole surface starts.
	k.title = fyneui.NewScreen(k.layer)
	k.title.PlaceTarget("Start", widget.NewButton("Start", k.showSelect), fyneui.Rect{W: w, H: h})

	// Select: only the upper half answers touches.
	k.sel = fyneui.NewScreen(k.layer)
	cell := w / float32(len(games))
	for i, name := range games {
		name := name
		btn := widget.NewButton(name, func() { k.log.WithField("game", name).Info("game selected") })
		k.sel.PlaceTarget(name, btn, fyneui.Rect{X: float32(i)*cell + 4, Y: h*0.625 + 4, W: cell - 8, H: h*0.375 - 8})
	}
	k.sel.PlaceTarget("Back", widget.NewButton("Back", k.showTitle), fyneui.Rect{X: 4, Y: h*0.5 + 4, W: w/4 - 8, H: h*0.125 - 8})
	hint := widget.NewLabelWithStyle("touch above to choose", fyne.TextAlignCenter, fyne.TextStyle{Italic: true})
	k.sel.Place(hint, fyneui.Rect{Y: h * 0.2, W: w, H: h * 0.1})
	k.sel.Hide()

	k.root.Add(k.title.Container)
	k.root.Add(k.sel.Container)
	k.root.Add(k.cursor.Overlay)
	return k
}

// attach hooks the kiosk to the gate owned by the running pipeline.
func (k *kiosk) attach(gate *touchgate.Gate) {
	k.gate = gate
	k.apply("title")
}

func (k *kiosk) showTitle() {
	k.sel.Hide()
	k.title.Show()
	k.apply("title")
}

func (k *kiosk) showSelect() {
	k.title.Hide()
	k.sel.Show()
	k.apply("select")
}

func (k *kiosk) apply(screen string) {
	if k.gate == nil {
		return
	}
	if err := k.gate.Apply(screen); err != nil {
		k.log.WithError(err).Warn("no gate preset")
		return
	}
	k.log.WithField("screen", screen).Debug("screen changed")
}

// --- Haptic device list ---

// hapticPool is the part of blemanager.Pool the device list drives.
type hapticPool interface {
	Enable(dev config.HapticDevice)
	Disable(id string)
	Online(id string) bool
}

type deviceRow struct {
	id      string
	enabled *widget.Check
	remove  *widget.Button
	status  *canvas.Text
}

// deviceList shows the configured haptic devices and lets the operator
// toggle or forget them. It is only touched from the fyne goroutine.
type deviceList struct {
	box   *fyne.Container
	store *config.Store
	pool  hapticPool
	log   logrus.FieldLogger
	rows  []deviceRow
}

func newDeviceList(store *config.Store, pool hapticPool, log logrus.FieldLogger) *deviceList {
	l := &deviceList{
		box:   container.NewVBox(),
		store: store,
		pool:  pool,
		log:   log.WithField("component", "devices"),
	}
	l.rebuild()
	return l
}

func (l *deviceList) rebuild() {
	l.box.RemoveAll()
	l.box.Add(container.NewGridWithColumns(5,
		widget.NewLabelWithStyle("Name", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Event", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Status", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		layout.NewSpacer(),
		layout.NewSpacer(),
	))

	l.rows = l.rows[:0]
	for _, d := range l.store.Get().Haptics {
		d := d
		status := "Pending"
		if !d.Enabled {
			status = "Disabled"
		}
		row := deviceRow{id: d.ID, status: newStatus(status)}

		// set the initial state before wiring the callback so it does not save
		row.enabled = widget.NewCheck("Enabled", nil)
		row.enabled.SetChecked(d.Enabled)
		row.enabled.OnChanged = func(on bool) { l.setEnabled(d, on) }
		row.remove = widget.NewButton("Remove", func() { l.remove(d) })

		l.box.Add(container.NewGridWithColumns(5,
			widget.NewLabel(d.Name), widget.NewLabel(d.Event), row.status, row.enabled, row.remove))
		l.rows = append(l.rows, row)
	}
	l.box.Refresh()
}

func (l *deviceList) setEnabled(d config.HapticDevice, on bool) {
	l.store.SetHapticEnabled(d.ID, on)
	l.save()
	if on {
		l.pool.Enable(d)
	} else {
		l.pool.Disable(d.ID)
	}
	l.log.WithFields(logrus.Fields{"id": d.ID, "enabled": on}).Info("device toggled")

	for _, r := range l.rows {
		if r.id != d.ID {
			continue
		}
		if on {
			applyStatus(r.status, "Pending")
		} else {
			applyStatus(r.status, "Disabled")
		}
	}
}

func (l *deviceList) remove(d config.HapticDevice) {
	l.store.RemoveHaptic(d.ID)
	l.save()
	l.pool.Disable(d.ID)
	l.log.WithFields(logrus.Fields{"id": d.ID, "name": d.Name}).Info("device removed")
	l.rebuild()
}

func (l *deviceList) save() {
	if err := l.store.Save(); err != nil {
		l.log.WithError(err).Warn("could not save devices")
	}
}

// refreshStatus updates the status column of enabled devices.
func (l *deviceList) refreshStatus() {
	for _, r := range l.rows {
		switch {
		case !r.enabled.Checked:
			applyStatus(r.status, "Disabled")
		case l.pool.Online(r.id):
			applyStatus(r.status, "Online")
		default:
			applyStatus(r.status, "Offline")
		}
	}
}
