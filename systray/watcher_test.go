package systray

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
)

func TestWatcherOwnerChange(t *testing.T) {
	tests := []struct {
		name      string
		signal    *dbus.Signal
		wantOwner string
		wantOK    bool
	}{
		{
			name: "watcher appeared",
			signal: &dbus.Signal{
				Name: "org.freedesktop.DBus.NameOwnerChanged",
				Body: []any{StatusNotifierWatcherInterface, "", ":1.42"},
			},
			wantOwner: ":1.42",
			wantOK:    true,
		},
		{
			name: "watcher vanished",
			signal: &dbus.Signal{
				Name: "org.freedesktop.DBus.NameOwnerChanged",
				Body: []any{StatusNotifierWatcherInterface, ":1.42", ""},
			},
			wantOwner: "",
			wantOK:    true,
		},
		{
			name: "other name",
			signal: &dbus.Signal{
				Name: "org.freedesktop.DBus.NameOwnerChanged",
				Body: []any{"org.freedesktop.Notifications", "", ":1.7"},
			},
		},
		{
			name: "other signal",
			signal: &dbus.Signal{
				Name: "org.kde.StatusNotifierWatcher.StatusNotifierHostRegistered",
				Body: []any{StatusNotifierWatcherInterface},
			},
		},
		{
			name: "short body",
			signal: &dbus.Signal{
				Name: "org.freedesktop.DBus.NameOwnerChanged",
				Body: []any{StatusNotifierWatcherInterface},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, ok := watcherOwnerChange(tt.signal)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantOwner, owner)
		})
	}
}
