// Package applet runs the YubiKey tray indicator: it polls for devices,
// keeps the indicators in sync and handles their menus.
package applet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/shelepuginivan/yubikey-indicator/internal/device"
	"github.com/shelepuginivan/yubikey-indicator/internal/indicator"
)

// Version of the applet, shown in the about notification.
var Version = "1.0.0"

// Scanner finds attached devices.
type Scanner interface {
	Scan() []device.Descriptor
}

// Tray creates indicators with the given menu.
type Tray interface {
	NewIndicator(spec indicator.Spec, menu []MenuEntry) (indicator.Indicator, error)
}

// Launcher starts external programs.
type Launcher interface {
	Launch(name string) error
}

type Options struct {
	Scanner  Scanner
	Tray     Tray
	Notifier Notifier
	Launcher Launcher

	// Period between scans.
	Interval time.Duration

	// Program started by "Open Yubikey Personalization GUI".
	PersonalizationCommand string

	Logger zerolog.Logger
}

// Applet owns the indicator registry and the about notification. All of its
// state is touched from the goroutine running [Applet.Run]; callbacks from
// the bus are handed over through the action queue.
type Applet struct {
	scanner  Scanner
	tray     Tray
	launcher Launcher
	about    *about
	interval time.Duration
	command  string
	log      zerolog.Logger

	registry *indicator.Registry
	actions  chan func()
	done     chan struct{}
	quit     context.CancelFunc
}

// New returns an [Applet]. Scanner, Tray, Notifier and Launcher are
// required.
func New(opts Options) (*Applet, error) {
	if opts.Scanner == nil || opts.Tray == nil || opts.Notifier == nil || opts.Launcher == nil {
		return nil, errors.New("applet: scanner, tray, notifier and launcher are required")
	}

	if opts.Interval <= 0 {
		return nil, fmt.Errorf("applet: invalid poll interval %s", opts.Interval)
	}

	a := &Applet{
		scanner:  opts.Scanner,
		tray:     opts.Tray,
		launcher: opts.Launcher,
		interval: opts.Interval,
		command:  opts.PersonalizationCommand,
		log:      opts.Logger,
		actions:  make(chan func(), 16),
		done:     make(chan struct{}),
		quit:     func() {},
	}

	a.about = newAbout(opts.Notifier)
	opts.Notifier.OnClosed(func(id uint32, _ uint32) {
		a.post(func() { a.about.closed(id) })
	})

	return a, nil
}

// Run creates the no-key indicator, scans immediately and then once per
// interval until ctx is cancelled or Quit is chosen from a menu. Indicators
// are closed before Run returns.
//
// Run must be called at most once.
func (a *Applet) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer close(a.done)

	a.quit = cancel

	registry, err := indicator.New(factory{a}, a.log)
	if err != nil {
		return fmt.Errorf("applet: %w", err)
	}
	a.registry = registry

	defer func() {
		if err := registry.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close indicators")
		}
	}()

	a.log.Info().Dur("interval", a.interval).Msg("polling for devices")

	a.poll()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info().Msg("stopped")
			return nil
		case <-ticker.C:
			a.poll()
		case action := <-a.actions:
			action()
		}
	}
}

// poll runs one scan and reconciles the registry with its result.
func (a *Applet) poll() {
	a.registry.Reconcile(a.scanner.Scan())
}

// post queues action for the event loop. Actions posted after Run returned
// are dropped.
func (a *Applet) post(action func()) {
	select {
	case a.actions <- action:
	case <-a.done:
	}
}

// factory adapts [Tray] to [indicator.Factory], attaching the menu that
// matches the indicator.
type factory struct {
	applet *Applet
}

func (f factory) New(spec indicator.Spec) (indicator.Indicator, error) {
	return f.applet.tray.NewIndicator(spec, f.applet.menu(spec.Model))
}
