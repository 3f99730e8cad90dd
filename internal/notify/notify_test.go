package notify

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
)

func TestParseClosed(t *testing.T) {
	id, reason, ok := parseClosed(&dbus.Signal{
		Name: NotificationsInterface + ".NotificationClosed",
		Body: []any{uint32(7), uint32(2)},
	})

	assert.True(t, ok)
	assert.Equal(t, uint32(7), id)
	assert.Equal(t, uint32(2), reason)
}

func TestParseClosedRejectsOtherSignals(t *testing.T) {
	signals := []*dbus.Signal{
		{Name: NotificationsInterface + ".ActionInvoked", Body: []any{uint32(7), "default"}},
		{Name: NotificationsInterface + ".NotificationClosed", Body: []any{uint32(7)}},
		{Name: NotificationsInterface + ".NotificationClosed", Body: []any{"7", uint32(2)}},
		{Name: NotificationsInterface + ".NotificationClosed", Body: []any{uint32(7), int32(2)}},
	}

	for _, signal := range signals {
		_, _, ok := parseClosed(signal)
		assert.False(t, ok)
	}
}
