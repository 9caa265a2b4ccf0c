// Command touchmon shows the touch pipeline in a terminal: a board of
// buttons in logical space, the cursor, the gate and every click.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"

	"logicaltouch/clicker"
	"logicaltouch/config"
	"logicaltouch/logging"
	"logicaltouch/touchstate"
	"logicaltouch/touchsystem"
)

const logLines = 6

// events keeps the last few log messages for the footer. It is a logrus hook.
type events struct {
	mu    sync.Mutex
	lines []string
}

func (e *events) Levels() []logrus.Level { return logrus.AllLevels }

func (e *events) Fire(entry *logrus.Entry) error {
	line := entry.Time.Format("15:04:05 ") + entry.Message
	if t, ok := entry.Data["target"]; ok {
		line += fmt.Sprintf(" %v", t)
	}
	e.mu.Lock()
	e.lines = append(e.lines, line)
	if len(e.lines) > logLines {
		e.lines = e.lines[len(e.lines)-logLines:]
	}
	e.mu.Unlock()
	return nil
}

func (e *events) snapshot() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.lines...)
}

type monitor struct {
	screen tcell.Screen
	board  *board
	bridge *touchsystem.Bridge
	events *events
	mu     sync.Mutex
}

func main() {
	cfgPath := flag.String("config", config.DefaultFileName, "settings file")
	logPath := flag.String("log", "", "also write logs to this file")
	cols := flag.Int("cols", 3, "button columns")
	rows := flag.Int("rows", 2, "button rows")
	listen := flag.String("listen", "", "override the OSC listen address")
	flag.Parse()

	if err := run(*cfgPath, *logPath, *listen, *cols, *rows); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfgPath, logPath, listen string, cols, rows int) error {
	store := config.New(cfgPath)
	if err := store.Load(); err != nil {
		return err
	}
	if listen != "" {
		if err := store.Update(func(s *config.Settings) { s.ListenAddr = listen }); err != nil {
			return err
		}
	}
	cfg := store.Get()

	var out io.Writer = io.Discard
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer f.Close()
		out = f
	}
	log, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: out})
	if err != nil {
		return err
	}
	ev := &events{}
	log.AddHook(ev)
	log.WithField("path", store.Path()).Info("settings loaded")

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	size := touchstate.Vec2{X: cfg.LogicalWidth, Y: cfg.LogicalHeight}
	m := &monitor{
		screen: screen,
		board:  newBoard(size, cols, rows),
		events: ev,
	}
	m.bridge = touchsystem.Build(cfg, m.board, func(t clicker.Target) {
		m.board.click(t)
		log.WithField("target", t.Name()).Info("click")
	}, log)

	if err := m.bridge.Listener.Start(); err != nil {
		return err
	}
	defer stopListener(m.bridge.Listener, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// tcell screens are safe for concurrent use; m.mu keeps the
	// pipeline and drawing on one goroutine at a time.
	locked := func(f func()) {
		m.mu.Lock()
		defer m.mu.Unlock()
		f()
	}
	go touchsystem.Run(ctx, m.bridge.System, cfg.TickInterval(), locked, m.draw)

	presets := []string{"title", "select"}
	current := 0
	for {
		switch e := screen.PollEvent().(type) {
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventKey:
			switch {
			case e.Key() == tcell.KeyEscape || e.Key() == tcell.KeyCtrlC || e.Rune() == 'q':
				return nil
			case e.Rune() == 'g':
				current = (current + 1) % len(presets)
				if err := m.bridge.Gate.Apply(presets[current]); err != nil {
					log.WithError(err).Warn("gate preset")
				} else {
					log.Infof("gate preset %s", presets[current])
				}
			}
		case nil:
			return nil
		}
	}
}

const stopWait = 2 * time.Second

type stopper interface {
	Stop(wait time.Duration) error
}

func stopListener(l stopper, log logrus.FieldLogger) {
	if err := l.Stop(stopWait); err != nil {
		log.WithError(err).Warn("listener did not stop")
	}
}

var (
	styleFrame   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleButton  = tcell.StyleDefault.Background(tcell.ColorNavy).Foreground(tcell.ColorWhite)
	styleHot     = tcell.StyleDefault.Background(tcell.ColorYellow).Foreground(tcell.ColorBlack)
	styleBlocked = tcell.StyleDefault.Foreground(tcell.ColorDarkRed)
	styleCursor  = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleDown    = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleText    = tcell.StyleDefault
)

// draw renders one frame; it runs with m.mu held.
func (m *monitor) draw(st touchstate.State) {
	s := m.screen
	s.Clear()

	w, h := s.Size()
	footer := logLines + 2
	v := view{size: m.board.size, cols: w, rows: h - footer}
	if v.cols <= 0 || v.rows <= 0 {
		s.Show()
		return
	}

	captured := m.bridge.Dispatcher.Captured()
	for y := 0; y < v.rows; y++ {
		for x := 0; x < v.cols; x++ {
			p := v.logical(x, y)
			if !m.bridge.Gate.Allowed(p) {
				s.SetContent(x, y, '░', nil, styleBlocked)
			}
			for _, b := range m.board.buttons {
				if !b.contains(p) {
					continue
				}
				style := styleButton
				if captured != nil && captured.Name() == b.name {
					style = styleHot
				}
				s.SetContent(x, y, ' ', nil, style)
			}
		}
	}

	for _, b := range m.board.buttons {
		x, y := v.cell(touchstate.Vec2{X: b.x + b.w/2, Y: b.y + b.h/2})
		puts(s, x-len(b.name)/2, y, styleButton, fmt.Sprintf("%s %d", b.name, b.clicks))
	}

	cx, cy := v.cell(st.Position)
	if st.IsDown {
		s.SetContent(cx, cy, '●', nil, styleDown)
	} else {
		s.SetContent(cx, cy, '+', nil, styleCursor)
	}

	stats := m.bridge.Listener.Stats()
	status := fmt.Sprintf("pos %6.1f %6.1f  %-4s down=%-5t gate %.2f  rx %d drop %d  [g] gate  [q] quit",
		st.Position.X, st.Position.Y, st.Phase, st.IsDown, m.bridge.Gate.Threshold(), stats.Received, stats.Dropped)
	puts(s, 0, v.rows, styleFrame, status)
	for i, line := range m.events.snapshot() {
		puts(s, 0, v.rows+1+i, styleText, line)
	}
	s.Show()
}

func puts(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}
