package applet

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"

	"github.com/shelepuginivan/yubikey-indicator/internal/indicator"
	"github.com/shelepuginivan/yubikey-indicator/systray"
)

const trayTitle = "Yubikey Indicator"

// SNITray is a [Tray] that exports each indicator as a StatusNotifierItem on
// its own session bus connection.
type SNITray struct {
	IconsDir string
	Logger   zerolog.Logger

	// Connect opens a private session bus connection. Defaults to
	// [dbus.ConnectSessionBus].
	Connect func() (*dbus.Conn, error)
}

func (t *SNITray) NewIndicator(spec indicator.Spec, entries []MenuEntry) (indicator.Indicator, error) {
	connect := t.Connect
	if connect == nil {
		connect = func() (*dbus.Conn, error) { return dbus.ConnectSessionBus() }
	}

	conn, err := connect()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}

	item := systray.NewItem(conn, spec.Name)
	item.Title = trayTitle
	item.Category = systray.ItemCategoryHardware
	item.Status = systray.ItemStatusPassive
	item.IconName = spec.Icon
	item.IconThemePath = t.IconsDir
	item.Tooltip = tooltip(spec)
	item.SetMenu(buildMenu(entries))

	if err := item.Register(); err != nil {
		if !errors.Is(err, systray.ErrNoWatcher) {
			conn.Close()
			return nil, fmt.Errorf("register %s: %w", spec.Name, err)
		}

		t.Logger.Warn().Str("name", spec.Name).Msg("no system tray found, waiting for one to appear")
	}

	t.Logger.Debug().Str("name", spec.Name).Str("bus_name", item.Name()).Msg("indicator exported")

	return &sniIndicator{conn: conn, item: item}, nil
}

func tooltip(spec indicator.Spec) string {
	if spec.Model == "" {
		return "No YubiKey detected"
	}

	return spec.Model
}

// buildMenu converts entries into a dbusmenu.
func buildMenu(entries []MenuEntry) *systray.Menu {
	menu := systray.NewMenu()

	for _, entry := range entries {
		if entry.Separator {
			menu.AddSeparator()
			continue
		}

		item := menu.AddItem(entry.Label, entry.Action)
		if entry.Disabled {
			item.SetEnabled(false)
		}
	}

	return menu
}

type sniIndicator struct {
	conn *dbus.Conn
	item *systray.Item
}

func (i *sniIndicator) SetStatus(status indicator.Status) error {
	if status == indicator.StatusActive {
		return i.item.SetStatus(systray.ItemStatusActive)
	}

	return i.item.SetStatus(systray.ItemStatusPassive)
}

// Close removes the item from the tray. Closing the connection drops the
// bus name, which is what the watcher tracks.
func (i *sniIndicator) Close() error {
	return errors.Join(i.item.Close(), i.conn.Close())
}
