package main

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/itohio/usbscope/pkg/acquire"
	"github.com/itohio/usbscope/pkg/config"
	"github.com/itohio/usbscope/pkg/device"
	"github.com/itohio/usbscope/pkg/meter"
	"github.com/itohio/usbscope/pkg/sample"
	"github.com/itohio/usbscope/pkg/scope"
	"github.com/sirupsen/logrus"
)

// How long to wait for the acquisition loop before closing the device.
const shutdownTimeout = time.Second

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		logrus.WithError(err).Fatal("Failed to parse arguments")
	}

	switch {
	case opts.ListDevices:
		if err := listDevices(os.Stdout); err != nil {
			logrus.WithError(err).Fatal("Failed to list devices")
		}
		return
	case opts.ListPorts:
		if err := listPorts(os.Stdout); err != nil {
			logrus.WithError(err).Fatal("Failed to list ports")
		}
		return
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := opts.apply(cfg); err != nil {
		logrus.WithError(err).Fatal("Invalid arguments")
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	os.Exit(run(cfg, log))
}

func run(cfg *config.Config, log *logrus.Logger) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dev, err := device.Open(cfg)
	if err != nil {
		log.WithError(err).WithField("transport", cfg.Device.Transport).Fatal("Failed to open device")
	}

	endpoint, err := acquire.NewProber(cfg, log).Find(ctx, dev)
	if err != nil {
		dev.Close()
		log.WithError(err).Fatal("Failed to find streaming endpoint")
	}

	queue := sample.NewQueue(sample.DefaultQueueCapacity)
	counter := meter.NewRateCounter()

	s, err := scope.New(cfg, queue, log)
	if err != nil {
		dev.Close()
		log.WithError(err).Fatal("Failed to create scope")
	}

	application := app.NewWithID("com.itohio.usbscope")
	window := scope.NewWindow(application, cfg)

	monitor := meter.NewMonitor(counter, cfg.Acquisition.RatePeriod, log)
	monitor.OnUpdate(window.ShowRate)

	loop := acquire.NewLoop(dev, endpoint, queue, counter, cfg.Acquisition, log)
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("Acquisition stopped")
		}
	}()

	go monitor.Run(ctx)

	var exitCode atomic.Int32
	go func() {
		if err := scope.Run(ctx, s, window, cfg.Display.FrameInterval); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("Render loop failed")
			exitCode.Store(1)
		}
		cancel()
		fyne.Do(application.Quit)
	}()

	log.WithFields(logrus.Fields{
		"transport":       cfg.Device.Transport,
		"endpoint":        endpoint,
		"time_per_screen": cfg.Sweep.TimePerScreen,
	}).Info("Starting oscilloscope")

	window.Fyne().ShowAndRun()

	cancel()
	select {
	case <-loopDone:
	case <-time.After(shutdownTimeout):
		log.Warn("Acquisition loop did not stop, closing device")
	}
	if err := dev.Close(); err != nil {
		log.WithError(err).Debug("Failed to close device")
	}

	return int(exitCode.Load())
}
