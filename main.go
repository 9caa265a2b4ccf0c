package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"logicaltouch/blemanager"
	"logicaltouch/clicker"
	"logicaltouch/config"
	"logicaltouch/logging"
	"logicaltouch/soundfx"
	"logicaltouch/touchstate"
	"logicaltouch/touchsystem"
)

// name the haptic firmware advertises
const hapticName = "TouchHaptic"

// nextDeviceName picks the first free "Device X" label.
func nextDeviceName(devs []config.HapticDevice) string {
	for i := 0; i < 26; i++ { // A-Z
		name := fmt.Sprintf("Device %c", 'A'+i)
		unique := true
		for _, d := range devs {
			if d.Name == name {
				unique = false
				break
			}
		}
		if unique {
			return name
		}
	}
	// fallback if all letters used
	return fmt.Sprintf("Device %d", len(devs)+1)
}

// discover scans for haptic devices for d and stores new ones.
func discover(store *config.Store, d time.Duration, log logrus.FieldLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	log.WithField("for", d).Info("discovery started")
	err := blemanager.Discover(ctx, hapticName, func(addr string) {
		dev := config.HapticDevice{
			ID:      addr,
			Name:    nextDeviceName(store.Get().Haptics),
			Enabled: true,
			Event:   blemanager.EventTap,
		}
		if !store.AddHaptic(dev) {
			log.WithField("id", addr).Debug("device already known")
			return
		}
		log.WithFields(logrus.Fields{"id": addr, "name": dev.Name}).Info("device found")
	})
	if err != nil {
		log.WithError(err).Warn("discovery failed")
		return
	}
	if err := store.Save(); err != nil {
		log.WithError(err).Warn("could not save devices")
	}
}

// --- Main ---
func main() {
	cfgPath := flag.String("config", config.DefaultFileName, "settings file")
	scan := flag.Duration("discover", 0, "scan for haptic devices this long before starting")
	flag.Parse()

	store := config.New(*cfgPath)
	if err := store.Load(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg := store.Get()

	log, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log.WithField("path", store.Path()).Info("settings loaded")

	a := app.New()
	w := a.NewWindow("Logical Touch")

	// --- Console ---
	console := newConsole(100)
	log.AddHook(console)
	consoleScroll := container.NewVScroll(console.widget)
	consoleScroll.SetMinSize(fyne.NewSize(0, 200))

	if *scan > 0 {
		discover(store, *scan, log)
		cfg = store.Get()
	}

	// --- Feedback ---
	sound := soundfx.New(cfg.Sound, log)
	if err := sound.Init(); err != nil {
		log.WithError(err).Warn("sound disabled")
	}
	defer sound.Close()

	pool := blemanager.NewPool(cfg.Haptics, func() (blemanager.Link, error) {
		return blemanager.NewBLELink()
	}, blemanager.DefaultOptions(), log)

	// --- Touch pipeline ---
	k := newKiosk(touchstate.Vec2{X: cfg.LogicalWidth, Y: cfg.LogicalHeight}, log)
	bridge := touchsystem.Build(cfg, k.layer, func(t clicker.Target) {
		k.layer.Click(t)
		sound.OnClick(t)
		pool.OnClick(t)
	}, log)
	bridge.Feedback.Add(k.cursor)
	bridge.Feedback.Add(sound.TapSink())
	bridge.Feedback.Add(pool.TapSink())
	k.attach(bridge.Gate)

	// --- Side panel ---
	stats := widget.NewLabel("")
	devices := newDeviceList(store, pool, log)
	side := container.NewBorder(
		container.NewVBox(stats, devices.box, widget.NewLabel("Console:")),
		nil, nil, nil,
		consoleScroll,
	)

	split := container.NewHSplit(k.root, side)
	split.SetOffset(0.65)
	w.SetContent(split)
	w.Resize(fyne.NewSize(1100, 700))

	if err := bridge.Listener.Start(); err != nil {
		log.WithError(err).Fatal("cannot listen for touches")
	}

	ctx, cancel := context.WithCancel(context.Background())
	go pool.Run(ctx)

	frames := 0
	go touchsystem.Run(ctx, bridge.System, cfg.TickInterval(), fyne.DoAndWait, func(st touchstate.State) {
		k.cursor.Update(st)

		frames++
		if frames%30 != 0 {
			return
		}
		s := bridge.Listener.Stats()
		stats.SetText(fmt.Sprintf("%s  gate %.2f  received %d  dropped %d",
			bridge.Listener.LocalAddr(), bridge.Gate.Threshold(), s.Received, s.Dropped))
		devices.refreshStatus()
	})

	// --- Run GUI ---
	w.ShowAndRun()

	cancel()
	if err := bridge.Listener.Stop(2 * time.Second); err != nil {
		log.WithError(err).Warn("listener did not stop")
	}
}
