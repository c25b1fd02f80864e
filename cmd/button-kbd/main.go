// Command button-kbd watches GPIO buttons and types key sequences on a
// virtual keyboard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sweeney/button-kbd/internal/gpio"
	"github.com/sweeney/button-kbd/internal/keyboard"
	"github.com/sweeney/button-kbd/internal/keymap"
	"github.com/sweeney/button-kbd/internal/logic"
	"github.com/sweeney/button-kbd/internal/monitor"
	"github.com/sweeney/button-kbd/internal/mqtt"
	"github.com/sweeney/button-kbd/internal/status"
	"github.com/sweeney/button-kbd/internal/web"
)

type options struct {
	config      string
	backend     string
	chip        string
	sysfsRoot   string
	bias        string
	edge        string
	bounce      time.Duration
	grace       time.Duration
	settle      time.Duration
	pollTimeout time.Duration
	clockJump   time.Duration
	uinput      string
	deviceName  string
	broker      string
	httpAddr    string
	heartbeat   time.Duration
	logFile     string
	debug       bool
	printState  bool
	listKeys    bool
}

func main() {
	var o options
	flag.StringVar(&o.config, "config", "", "Key mapping file (.toml, .yaml, .json); built-in mapping if empty")
	flag.StringVar(&o.backend, "backend", "cdev", "GPIO backend: cdev or sysfs")
	flag.StringVar(&o.chip, "chip", gpio.DefaultChip, "GPIO chip for the cdev backend")
	flag.StringVar(&o.sysfsRoot, "sysfs-root", gpio.DefaultSysfsRoot, "GPIO sysfs directory for the sysfs backend")
	flag.StringVar(&o.bias, "bias", string(gpio.BiasAsIs), "Line bias for the cdev backend: as-is, pull-up, pull-down, disabled")
	flag.StringVar(&o.edge, "edge", "falling", "Default trigger edge: rising, falling, both")
	flag.DurationVar(&o.bounce, "bounce", logic.DefaultBounceWindow, "Minimum time between accepted presses on a line")
	flag.DurationVar(&o.grace, "grace", logic.DefaultStartupGrace, "Ignore presses this long after startup")
	flag.DurationVar(&o.settle, "settle", monitor.DefaultSettle, "Delay before sampling a line after an interrupt")
	flag.DurationVar(&o.pollTimeout, "poll-timeout", monitor.DefaultPollTimeout, "Upper bound on each wait")
	flag.DurationVar(&o.clockJump, "clock-jump", logic.DefaultClockJump, "Clock change treated as a discontinuity")
	flag.StringVar(&o.uinput, "uinput", keyboard.DefaultPath, "uinput device node")
	flag.StringVar(&o.deviceName, "device-name", keyboard.DefaultName, "Name of the virtual keyboard")
	flag.StringVar(&o.broker, "broker", "", "MQTT broker address (empty to disable)")
	flag.StringVar(&o.httpAddr, "http", "", "HTTP status address (empty to disable)")
	flag.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "MQTT heartbeat interval (0 to disable)")
	flag.StringVar(&o.logFile, "log-file", "", "Also write logs to this file, rotated")
	flag.BoolVar(&o.debug, "debug", false, "Log every wakeup")
	flag.BoolVar(&o.printState, "print-state", false, "Print current line levels and exit")
	flag.BoolVar(&o.listKeys, "list-keys", false, "Print known key names and exit")

	flag.Parse()

	var logOut io.Closer
	if o.logFile != "" {
		lj := &lumberjack.Logger{
			Filename:   o.logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		log.SetOutput(io.MultiWriter(os.Stderr, lj))
		logOut = lj
	}

	os.Exit(finish(run(o), logOut))
}

// finish logs a fatal error, closes the log file and returns the exit code.
// The log file is closed here rather than deferred because os.Exit skips
// deferred calls.
func finish(err error, logOut io.Closer) int {
	code := 0
	if err != nil {
		log.Printf("fatal: %v", err)
		code = 1
	}
	if logOut != nil {
		if cerr := logOut.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "close log file: %v\n", cerr)
		}
	}
	return code
}

func run(o options) error {
	if o.listKeys {
		fmt.Println(strings.Join(keymap.KnownNames(), "\n"))
		return nil
	}

	cfg := o.monitorConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid timing flags: %w", err)
	}

	table, err := loadKeymap(o.config, o.edge)
	if err != nil {
		return err
	}
	for _, id := range table.Unbalanced() {
		log.Printf("warning: mapping for line %d leaves a key held down", id)
	}

	watcher, err := openWatcher(o, table.LineIDs())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			log.Printf("gpio: close: %v", err)
		}
	}()

	if o.printState {
		for _, id := range table.LineIDs() {
			level, err := watcher.Level(id)
			if err != nil {
				fmt.Printf("line %d: %v\n", id, err)
				continue
			}
			fmt.Printf("line %d: %d\n", id, level)
		}
		return nil
	}

	dev, err := keyboard.NewUinput(o.uinput, o.deviceName, table.Codes())
	if err != nil {
		return fmt.Errorf("init keyboard: %w", err)
	}
	defer func() {
		if err := dev.Close(); err != nil {
			log.Printf("keyboard: close: %v", err)
		}
	}()

	tracker := status.NewTracker(time.Now(), status.Config{
		Backend:       o.backend,
		BounceMs:      o.bounce.Milliseconds(),
		GraceMs:       o.grace.Milliseconds(),
		SettleMs:      o.settle.Milliseconds(),
		PollTimeoutMs: o.pollTimeout.Milliseconds(),
		HeartbeatMs:   o.heartbeat.Milliseconds(),
		Device:        o.deviceName,
		Broker:        o.broker,
		HTTPAddr:      o.httpAddr,
	}, table)

	monOpts := []monitor.Option{monitor.WithObserver(tracker)}

	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if o.broker != "" {
		rp, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:   o.broker,
			OnStatus: tracker.SetMQTTConnected,
		})
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer rp.Close()
		publisher, mqttStatus = rp, rp

		fwd := mqtt.NewForwarder(rp, mqtt.DefaultForwardQueue)
		defer fwd.Close()
		monOpts = append(monOpts, monitor.WithObserver(fwd))
	}

	if o.httpAddr != "" {
		srv := web.New(o.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", o.httpAddr)
	}

	mon := monitor.New(cfg, watcher, table, keyboard.NewEmitter(dev), monOpts...)

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case s := <-sigCh:
			log.Printf("received %v, shutting down", s)
			cancel(signalCause{s})
		case <-ctx.Done():
		}
	}()

	var tick <-chan time.Time
	if o.heartbeat > 0 && publisher != nil {
		ticker := time.NewTicker(o.heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}

	log.Printf("started: backend=%s lines=%v bounce=%v grace=%v settle=%v device=%q broker=%q",
		o.backend, table.LineIDs(), o.bounce, o.grace, o.settle, o.deviceName, o.broker)

	return runLoop(ctx, mon, publisher, mqttStatus, tracker, tick)
}

func (o options) monitorConfig() monitor.Config {
	return monitor.Config{
		BounceWindow: o.bounce,
		StartupGrace: o.grace,
		ClockJump:    o.clockJump,
		Settle:       o.settle,
		PollTimeout:  o.pollTimeout,
		Debug:        o.debug,
	}
}

func loadKeymap(path, edge string) (*keymap.Table, error) {
	defaultEdge, err := logic.ParseEdge(edge)
	if err != nil {
		return nil, fmt.Errorf("--edge: %w", err)
	}
	if path == "" {
		log.Printf("no --config given, using built-in mapping")
		return keymap.Default(), nil
	}
	table, err := keymap.Load(path, defaultEdge)
	if err != nil {
		return nil, fmt.Errorf("load keymap %s: %w", path, err)
	}
	return table, nil
}

func openWatcher(o options, ids []int) (gpio.Watcher, error) {
	switch o.backend {
	case "cdev":
		bias, err := gpio.ParseBias(o.bias)
		if err != nil {
			return nil, err
		}
		c, err := gpio.NewCdev(o.chip, ids, bias)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "sysfs":
		s, err := gpio.NewSysfs(o.sysfsRoot, ids)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown backend %q (want cdev or sysfs)", o.backend)
}

// signalCause is the cancellation cause recorded when a signal arrives.
type signalCause struct {
	sig os.Signal
}

func (s signalCause) Error() string {
	return "received " + s.sig.String()
}

var signalNames = map[os.Signal]string{
	syscall.SIGINT:  "SIGINT",
	syscall.SIGTERM: "SIGTERM",
	syscall.SIGHUP:  "SIGHUP",
	syscall.SIGQUIT: "SIGQUIT",
}

// shutdownReason names the signal that ended ctx, if any.
func shutdownReason(ctx context.Context) string {
	var sc signalCause
	if errors.As(context.Cause(ctx), &sc) {
		if name, ok := signalNames[sc.sig]; ok {
			return name
		}
		return sc.sig.String()
	}
	return "UNKNOWN"
}

type runner interface {
	Run(ctx context.Context) error
}

// runLoop publishes STARTUP, runs the monitor until ctx is cancelled while
// publishing heartbeats on tick, then publishes SHUTDOWN. publisher may be nil.
func runLoop(ctx context.Context, mon runner, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, tick <-chan time.Time) error {
	publishStatus := func(event, reason string, retained bool) {
		if publisher == nil {
			return
		}
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
		snap := tracker.Snapshot()
		err := publisher.PublishSystem(mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      event,
			Reason:     reason,
			Retained:   retained,
			RawPayload: status.FormatStatusEvent(snap, event, reason),
		})
		if err != nil {
			log.Printf("failed to publish %s event: %v", strings.ToLower(event), err)
		}
	}

	publishStatus(mqtt.EventStartup, "", true)

	done := make(chan error, 1)
	go func() { done <- mon.Run(ctx) }()

	for {
		select {
		case <-tick:
			snap := tracker.Snapshot()
			log.Printf("heartbeat: uptime=%v emitted=%d clock_resets=%d", snap.Uptime().Truncate(time.Second), snap.Emitted(), snap.ClockResets)
			publishStatus(mqtt.EventHeartbeat, "", false)

		case err := <-done:
			publishStatus(mqtt.EventShutdown, shutdownReason(ctx), true)
			if err != nil {
				return fmt.Errorf("monitor: %w", err)
			}
			return nil
		}
	}
}
