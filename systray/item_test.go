package systray

import (
	"strings"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewItemDefaults(t *testing.T) {
	item := NewItem(nil, "YubikeyIndicatorNone")

	assert.Equal(t, "YubikeyIndicatorNone", item.ID)
	assert.Equal(t, ItemCategoryApplicationStatus, item.Category)
	assert.Equal(t, ItemStatusActive, item.Status)
	assert.True(t, strings.HasPrefix(item.Name(), "org.kde.StatusNotifierItem-"))
}

func TestItemNamesAreUnique(t *testing.T) {
	first := NewItem(nil, "a")
	second := NewItem(nil, "a")

	assert.NotEqual(t, first.Name(), second.Name())
}

func TestPropertyMap(t *testing.T) {
	item := NewItem(nil, "YubikeyIndicator0-YubiKey")
	item.Category = ItemCategoryHardware
	item.IconName = "icon-yubikey"
	item.IconThemePath = "/opt/yubikey-indicator/icons"
	item.Tooltip = "YubiKey"
	item.SetMenu(NewMenu())

	props := item.propertyMap()[StatusNotifierItemInterface]

	assert.Equal(t, "Hardware", props["Category"].Value)
	assert.Equal(t, "YubikeyIndicator0-YubiKey", props["Id"].Value)
	assert.Equal(t, "Active", props["Status"].Value)
	assert.Equal(t, "icon-yubikey", props["IconName"].Value)
	assert.Equal(t, "/opt/yubikey-indicator/icons", props["IconThemePath"].Value)
	assert.Equal(t, true, props["ItemIsMenu"].Value)
	assert.Equal(t, dbus.ObjectPath(MenuPath), props["Menu"].Value)

	tooltip, ok := props["ToolTip"].Value.(Tooltip)
	require.True(t, ok)
	assert.Equal(t, "YubiKey", tooltip.Description)
}

func TestPropertySignatures(t *testing.T) {
	props := NewItem(nil, "id").propertyMap()[StatusNotifierItemInterface]

	assert.Equal(t, "a(iiay)", dbus.SignatureOf(props["IconPixmap"].Value).String())
	assert.Equal(t, "(sa(iiay)ss)", dbus.SignatureOf(props["ToolTip"].Value).String())
	assert.Equal(t, "o", dbus.SignatureOf(props["Menu"].Value).String())
	assert.Equal(t, "i", dbus.SignatureOf(props["WindowId"].Value).String())
}

func TestPropertyMapWithoutMenu(t *testing.T) {
	props := NewItem(nil, "id").propertyMap()[StatusNotifierItemInterface]

	assert.Equal(t, false, props["ItemIsMenu"].Value)
	assert.Equal(t, dbus.ObjectPath("/NO_DBUSMENU"), props["Menu"].Value)
}

func TestSettersBeforeRegister(t *testing.T) {
	item := NewItem(nil, "id")

	require.NoError(t, item.SetStatus(ItemStatusPassive))
	require.NoError(t, item.SetIcon("icon-yubikey-u2f"))
	require.NoError(t, item.SetTooltip("U2F"))

	assert.Equal(t, ItemStatusPassive, item.Status)
	assert.Equal(t, "icon-yubikey-u2f", item.IconName)
	assert.Equal(t, "U2F", item.Tooltip)
}

func TestCloseUnregisteredItem(t *testing.T) {
	item := NewItem(nil, "id")

	require.NoError(t, item.Close())
	require.NoError(t, item.Close())
	assert.Error(t, item.Register())
}

func TestItemServerCallbacks(t *testing.T) {
	item := NewItem(nil, "id")
	server := &itemServer{item: item}

	var activated, secondary [2]int32
	var scrolled string

	item.OnActivate(func(x, y int32) { activated = [2]int32{x, y} })
	item.OnSecondaryActivate(func(x, y int32) { secondary = [2]int32{x, y} })
	item.OnScroll(func(delta int32, orientation string) { scrolled = orientation })

	require.Nil(t, server.Activate(10, 20))
	require.Nil(t, server.SecondaryActivate(30, 40))
	require.Nil(t, server.Scroll(1, "vertical"))
	require.Nil(t, server.ContextMenu(0, 0))

	assert.Equal(t, [2]int32{10, 20}, activated)
	assert.Equal(t, [2]int32{30, 40}, secondary)
	assert.Equal(t, "vertical", scrolled)
}
