package systray

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	StatusNotifierWatcherInterface = "org.kde.StatusNotifierWatcher"
	StatusNotifierWatcherPath      = "/StatusNotifierWatcher"
)

// ErrNoWatcher is returned by [Item.Register] when no StatusNotifierWatcher
// is present on the bus.
var ErrNoWatcher = errors.New("no StatusNotifierWatcher on the bus")

// registerWithWatcher registers item name in the watcher.
func registerWithWatcher(conn *dbus.Conn, name string) error {
	var hasOwner bool

	err := conn.BusObject().Call(
		"org.freedesktop.DBus.NameHasOwner", 0, StatusNotifierWatcherInterface,
	).Store(&hasOwner)
	if err != nil {
		return fmt.Errorf("failed to look up %s: %w", StatusNotifierWatcherInterface, err)
	}

	if !hasOwner {
		return ErrNoWatcher
	}

	call := conn.Object(
		StatusNotifierWatcherInterface,
		StatusNotifierWatcherPath,
	).Call(StatusNotifierWatcherInterface+".RegisterStatusNotifierItem", 0, name)
	if call.Err != nil {
		return fmt.Errorf("failed to register item %s: %w", name, call.Err)
	}

	return nil
}

// subscribe watches ownership of the watcher name. Whenever a new watcher
// takes the name, D-Bus sends NameOwnerChanged with non-empty NewOwner
// argument, and the item registers itself again.
func (item *Item) subscribe() error {
	if err := item.conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchSender("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, StatusNotifierWatcherInterface),
	); err != nil {
		return fmt.Errorf("failed to watch %s: %w", StatusNotifierWatcherInterface, err)
	}

	item.conn.Signal(item.signals)

	go func() {
		for signal := range item.signals {
			if newOwner, ok := watcherOwnerChange(signal); ok && newOwner != "" {
				registerWithWatcher(item.conn, item.name)
			}
		}
	}()

	return nil
}

// unsubscribe stops the loop started by subscribe.
func (item *Item) unsubscribe() {
	item.conn.RemoveMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchSender("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, StatusNotifierWatcherInterface),
	)

	item.conn.RemoveSignal(item.signals)
	close(item.signals)
}

// watcherOwnerChange reports the new owner of the watcher name if signal is
// a NameOwnerChanged signal about it.
func watcherOwnerChange(signal *dbus.Signal) (string, bool) {
	if signal.Name != "org.freedesktop.DBus.NameOwnerChanged" {
		return "", false
	}

	if len(signal.Body) < 3 {
		return "", false
	}

	name, ok := signal.Body[0].(string)
	if !ok || name != StatusNotifierWatcherInterface {
		return "", false
	}

	newOwner, ok := signal.Body[2].(string)
	if !ok {
		return "", false
	}

	return newOwner, true
}
