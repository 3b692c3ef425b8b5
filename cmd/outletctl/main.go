// outletctl controls a SmartHome Core outlet over STP.
//
// Usage:
//
//	outletctl [flags] on|off|info|state
//	outletctl [flags] mcp
//
// The mcp command serves the outlet as Model Context Protocol tools on
// stdin/stdout, for use by an assistant host.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/smarthome-core/internal/infrastructure/config"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/logging"
	"github.com/nerrad567/smarthome-core/internal/mcptools"
	"github.com/nerrad567/smarthome-core/internal/outlet"
	"github.com/nerrad567/smarthome-core/internal/stp"
)

var version = "dev"

const usage = `usage: outletctl [flags] <command>

commands:
  on     switch the outlet on and print its info
  off    switch the outlet off and print its info
  info   print the outlet info
  state  print "on" or "off"
  mcp    serve the outlet as MCP tools on stdin/stdout

flags:
`

// errUsage marks a bad command line.
var errUsage = errors.New("invalid usage")

// options holds parsed command-line flags.
type options struct {
	addr      string
	handshake bool
	timeout   time.Duration
	verbose   bool
	command   string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options

	fs := flag.NewFlagSet("outletctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&o.addr, "addr", "127.0.0.1:7878", "outlet address (host:port)")
	fs.BoolVar(&o.handshake, "handshake", false, "exchange the clnt/serv greeting after connect")
	fs.DurationVar(&o.timeout, "timeout", 10*time.Second, "connect and per-request timeout")
	fs.BoolVar(&o.verbose, "verbose", false, "log transport activity to stderr")

	if err := fs.Parse(args); err != nil {
		return o, fmt.Errorf("%w: %w", errUsage, err)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return o, fmt.Errorf("%w: expected exactly one command", errUsage)
	}
	o.command = fs.Arg(0)
	return o, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	logCfg := config.LoggingConfig{Level: "warn", Format: "text"}
	if o.verbose {
		logCfg.Level = "debug"
	}
	logger := logging.NewWithWriter(stderr, logCfg, version)

	cfg := stp.Config{
		Handshake:      o.handshake,
		ConnectTimeout: o.timeout,
		LoggerFactory:  logger,
	}

	switch o.command {
	case "on", "off", "info", "state":
		return runCommand(ctx, o, cfg, stdout)
	case "mcp":
		client, err := outlet.Dial(ctx, o.addr, cfg)
		if err != nil {
			return fmt.Errorf("connecting to outlet: %w", err)
		}
		defer client.Close()

		srv := mcptools.New(client, mcptools.Options{
			Version: version,
			Logger:  logger,
		})
		return srv.Serve(ctx, stdin, stdout, log.New(stderr, "mcp: ", log.LstdFlags))
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, o.command)
	}
}

// runCommand sends one outlet command and prints the reply.
func runCommand(ctx context.Context, o options, cfg stp.Config, stdout io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	client, err := outlet.Dial(ctx, o.addr, cfg)
	if err != nil {
		return fmt.Errorf("connecting to outlet: %w", err)
	}
	defer client.Close()

	var text string
	switch o.command {
	case "on":
		text, err = client.TurnOn(ctx)
	case "off":
		text, err = client.TurnOff(ctx)
	case "info":
		text, err = client.Info(ctx)
	case "state":
		var on bool
		on, err = client.State(ctx)
		text = "off"
		if on {
			text = "on"
		}
	}
	if err != nil {
		return fmt.Errorf("%s: %w", o.command, err)
	}

	_, err = fmt.Fprintln(stdout, text)
	return err
}
