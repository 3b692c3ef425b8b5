// thermosend simulates a thermometer by sending drifting temperature
// readings to a SmartHome Core telemetry port over UDP.
//
// Usage:
//
//	thermosend -peer 127.0.0.1:55331 -interval 1s -start 20 -step 0.1
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/smarthome-core/internal/infrastructure/config"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/logging"
	"github.com/nerrad567/smarthome-core/internal/telemetry"
)

var version = "dev"

// options holds parsed command-line flags.
type options struct {
	peer     string
	bind     string
	interval time.Duration
	start    float64
	step     float64
	count    int
	fail     bool
	verbose  bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options

	fs := flag.NewFlagSet("thermosend", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.peer, "peer", "127.0.0.1:55331", "telemetry address to send to (host:port)")
	fs.StringVar(&o.bind, "bind", "0.0.0.0:0", "local address to send from")
	fs.DurationVar(&o.interval, "interval", time.Second, "time between readings")
	fs.Float64Var(&o.start, "start", 20, "first reading in Celsius")
	fs.Float64Var(&o.step, "step", 0.1, "drift step; the i-th reading adds step*i")
	fs.IntVar(&o.count, "count", 0, "number of readings to send (0 = until interrupted)")
	fs.BoolVar(&o.fail, "fail", false, "drop every reading, to exercise receiver timeouts")
	fs.BoolVar(&o.verbose, "verbose", false, "log every send")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() != 0 {
		return o, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if o.interval <= 0 {
		return o, fmt.Errorf("interval must be positive, got %v", o.interval)
	}
	if o.count < 0 {
		return o, fmt.Errorf("count must not be negative, got %d", o.count)
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	logCfg := config.LoggingConfig{Level: "warn", Format: "text"}
	if o.verbose {
		logCfg.Level = "info"
	}
	logger := logging.NewWithWriter(stderr, logCfg, version)
	cfg := telemetry.Config{LoggerFactory: logger}

	peer, err := telemetry.ResolvePeer(o.peer)
	if err != nil {
		return err
	}

	udp, err := telemetry.NewUDPSender(o.bind, cfg)
	if err != nil {
		return err
	}
	defer udp.Close()

	var sender telemetry.Sender = udp
	if o.fail {
		sender = telemetry.NewFailingSender(sender)
	}
	sender = telemetry.NewLoggingSender(sender, cfg)

	p := telemetry.NewPeriodicSender(sender, peer, o.interval, telemetry.DriftSequence(o.start, o.step), o.count, cfg)
	err = p.Run(ctx)

	stats := p.Stats()
	fmt.Fprintf(stdout, "sent %d, failed %d\n", stats.Sent, stats.Failed)

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
