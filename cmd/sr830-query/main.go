// {{{ Copyright (c) Paul R. Tagliamonte <paul@k3xec.com>, 2021
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE. }}}

// Command sr830-query reads values from an SR830 lock-in amplifier on the
// GPIB, and prints them or forwards them to MQTT, InfluxDB or Redis.
//
// Usage:
//
//	sr830-query [flags] [attribute ...]
//
// Attributes are x, y, r, theta, aux1 to aux4, ref_freq, ch1 and ch2:
//
//	sr830-query -pad 8 x y theta
//	sr830-query -scan -count 0 -interval 500ms -format csv -attrs r,theta
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"hz.tools/lockin/device/sr830"
	"hz.tools/lockin/gpib"
	"hz.tools/lockin/internal/config"
	"hz.tools/lockin/internal/logging"
	"hz.tools/lockin/internal/monitor"
	"hz.tools/lockin/internal/output"
	"hz.tools/lockin/internal/poll"
	"hz.tools/lockin/internal/sink"
)

// Version is set at build time.
var Version = "dev"

type flags struct {
	config   string
	attrs    string
	board    int
	pad      int
	sad      int
	scan     bool
	interval time.Duration
	count    int
	format   string
	version  bool
}

func parseFlags(args []string) (*flags, []string, error) {
	f := &flags{}
	fs := flag.NewFlagSet("sr830-query", flag.ContinueOnError)
	fs.StringVar(&f.config, "config", "", "path to the YAML configuration file")
	fs.StringVar(&f.attrs, "attrs", "", "comma separated attributes to read")
	fs.IntVar(&f.board, "board", -1, "GPIB board index")
	fs.IntVar(&f.pad, "pad", -1, "GPIB primary address of the SR830")
	fs.IntVar(&f.sad, "sad", -1, "GPIB secondary address of the SR830")
	fs.BoolVar(&f.scan, "scan", false, "find the SR830 among the listeners on the board")
	fs.DurationVar(&f.interval, "interval", -1, "time between readings")
	fs.IntVar(&f.count, "count", -1, "number of readings, 0 reads until interrupted")
	fs.StringVar(&f.format, "format", "text", "output format: text, csv or json")
	fs.BoolVar(&f.version, "version", false, "print the version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	var names []string
	for _, name := range strings.Split(f.attrs, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	names = append(names, fs.Args()...)
	return f, names, nil
}

// apply overrides the configuration with the flags which were set.
func (f *flags) apply(cfg *config.Config) {
	if f.board >= 0 {
		cfg.GPIB.Board = f.board
	}
	if f.pad >= 0 {
		cfg.GPIB.PAD = f.pad
	}
	if f.sad >= 0 {
		cfg.GPIB.SAD = f.sad
	}
	if f.scan {
		cfg.GPIB.Scan = true
	}
	if f.interval >= 0 {
		cfg.Poll.Interval = f.interval
	}
	if f.count >= 0 {
		cfg.Poll.Count = f.count
	}
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "sr830-query: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	f, names, err := parseFlags(args)
	if err != nil {
		return err
	}
	if f.version {
		fmt.Fprintf(stdout, "sr830-query %s\n", Version)
		return nil
	}

	cfg, err := config.Load(f.config)
	if err != nil {
		return err
	}
	f.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.Entry(logging.New(cfg.Logging))

	registry, err := cfg.Registry()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return errors.New("no attributes requested")
	}
	if unknown := registry.Unknown(names...); len(unknown) > 0 {
		log.WithField("names", unknown).Warn("ignoring unknown attributes")
	}

	printer, err := output.New(f.format, stdout, registry, names)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bus, name, err := connect(ctx, cfg, registry, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := bus.Local(); err != nil {
			log.WithError(err).Warn("can not return the SR830 to local control")
		}
		bus.Close()
	}()

	sinks, err := openSinks(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer sinks.Close()

	var metrics *monitor.Metrics
	if cfg.Metrics.Enabled {
		metrics = monitor.New()
		metrics.Serve(ctx, cfg.Metrics.Listen, log)
	}

	runner := &poll.Runner{
		Device:  sr830.New(bus, registry),
		Name:    name,
		Sink:    sinks,
		Metrics: metrics,
		Log:     log,
		OnReading: func(reading sink.Reading) {
			if err := printer.Print(reading); err != nil {
				log.WithError(err).Warn("can not print reading")
			}
		},
	}
	return runner.Run(ctx, names, cfg.Poll.Interval, cfg.Poll.Count)
}

// connect opens the SR830 at the configured address, or the first listener
// on the board identifying as an SR830 when scanning.
func connect(ctx context.Context, cfg *config.Config, registry *sr830.Registry, log logrus.FieldLogger) (*gpib.Device, string, error) {
	opts := &gpib.Options{
		BaseContext: ctx,
		Timeout:     cfg.GPIB.Timeout,
	}

	pads := []int{cfg.GPIB.PAD}
	if cfg.GPIB.Scan {
		var err error
		pads, err = gpib.Listeners(cfg.GPIB.Board)
		if err != nil {
			return nil, "", errors.Wrapf(err, "scanning gpib board %d", cfg.GPIB.Board)
		}
	}

	for _, pad := range pads {
		name := fmt.Sprintf("gpib%d,%d", cfg.GPIB.Board, pad)
		dev, err := gpib.Open(cfg.GPIB.Board, pad, cfg.GPIB.SAD, opts)
		if err != nil {
			log.WithError(err).WithField("device", name).Debug("can not open device")
			continue
		}
		id, err := sr830.New(dev, registry).Identify()
		if err != nil {
			log.WithError(err).WithField("device", name).Debug("not an SR830")
			dev.Close()
			continue
		}
		log.WithFields(logrus.Fields{"device": name, "id": id}).Info("connected")
		return dev, name, nil
	}
	return nil, "", errors.New("device not found")
}

func openSinks(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (sink.Multi, error) {
	var sinks sink.Multi
	fail := func(err error) (sink.Multi, error) {
		sinks.Close()
		return nil, err
	}

	if cfg.MQTT.Enabled {
		s, err := sink.NewMQTT(cfg.MQTT)
		if err != nil {
			return fail(err)
		}
		log.WithField("broker", cfg.MQTT.Broker).Info("publishing readings to mqtt")
		sinks = append(sinks, s)
	}
	if cfg.InfluxDB.Enabled {
		s, err := sink.NewInfluxDB(ctx, cfg.InfluxDB)
		if err != nil {
			return fail(err)
		}
		log.WithField("url", cfg.InfluxDB.URL).Info("writing readings to influxdb")
		sinks = append(sinks, s)
	}
	if cfg.Redis.Enabled {
		s, err := sink.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return fail(err)
		}
		log.WithField("addr", cfg.Redis.Addr).Info("publishing readings to redis")
		sinks = append(sinks, s)
	}
	return sinks, nil
}

// vim: foldmethod=marker
