// Command touchsend plays scripted /touch gestures at a listener, for bench
// testing without the sensor.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/sirupsen/logrus"

	"logicaltouch/logging"
)

const usage = `usage: touchsend [flags] <tap|drag|hold> [gesture flags]

gestures:
  tap   -x -y -for          press and release at one point
  drag  -x -y -to-x -to-y -for  press, move, release
  hold  -x -y -for          press and keep reporting the same point

coordinates are normalized 0..1`

type options struct {
	addr     string
	id       int
	rate     int
	logLevel string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr, dial); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func dial(addr string) (sender, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("parse addr %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("parse port %q: %w", portStr, err)
	}
	if host == "" {
		host = "127.0.0.1"
	}
	return osc.NewClient(host, port), nil
}

func run(ctx context.Context, args []string, stderr io.Writer, connect func(string) (sender, error)) error {
	var opts options
	root := flag.NewFlagSet("touchsend", flag.ContinueOnError)
	root.SetOutput(stderr)
	root.Usage = func() {
		fmt.Fprintln(stderr, usage)
		root.PrintDefaults()
	}
	root.StringVar(&opts.addr, "addr", "127.0.0.1:9000", "listener address")
	root.IntVar(&opts.id, "id", 0, "touch id")
	root.IntVar(&opts.rate, "rate", 60, "samples per second while moving")
	root.StringVar(&opts.logLevel, "log-level", "info", "log level")

	if err := root.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if root.NArg() == 0 {
		root.Usage()
		return errors.New("missing gesture")
	}

	log, err := logging.New(logging.Options{Level: opts.logLevel, Output: stderr})
	if err != nil {
		return err
	}

	steps, err := parseGesture(root.Arg(0), root.Args()[1:], int32(opts.id), opts.rate, stderr)
	if err != nil {
		return err
	}

	client, err := connect(opts.addr)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"gesture": root.Arg(0),
		"addr":    opts.addr,
		"samples": len(steps),
	}).Info("sending")

	return play(ctx, client, steps, sleepCtx)
}

func parseGesture(name string, args []string, id int32, rate int, stderr io.Writer) ([]step, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	x := fs.Float64("x", 0.5, "x position")
	y := fs.Float64("y", 0.5, "y position")
	d := fs.Duration("for", 100*time.Millisecond, "gesture length")

	var toX, toY *float64
	if name == "drag" {
		toX = fs.Float64("to-x", 0.5, "end x position")
		toY = fs.Float64("to-y", 0.5, "end y position")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	at := point{float32(*x), float32(*y)}
	switch name {
	case "tap":
		return tap(id, at, *d), nil
	case "drag":
		return drag(id, at, point{float32(*toX), float32(*toY)}, *d, rate), nil
	case "hold":
		return hold(id, at, *d, rate), nil
	default:
		return nil, fmt.Errorf("unknown gesture %q", name)
	}
}
