package systray

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
)

const (
	StatusNotifierItemInterface = "org.kde.StatusNotifierItem"
	StatusNotifierItemPath      = "/StatusNotifierItem"
)

type ItemCategory string

// StatusNotifierItem categories.
const (
	// The item describes the status of a generic application, for instance the
	// current state of a media player.
	ItemCategoryApplicationStatus ItemCategory = "ApplicationStatus"

	// The item describes the status of communication oriented applications, like
	// an instant messenger or an email client.
	ItemCategoryCommunications ItemCategory = "Communications"

	// The item describes services of the system not seen as a stand alone
	// application by the user.
	ItemCategorySystemServices ItemCategory = "SystemServices"

	// The item describes the state and control of a particular hardware, such as
	// an indicator of the battery charge or an attached security key.
	ItemCategoryHardware ItemCategory = "Hardware"
)

type ItemStatus string

// StatusNotifierItem statuses.
const (
	// The item is idle; hosts usually hide it.
	ItemStatusPassive ItemStatus = "Passive"

	// The item is active and should be shown.
	ItemStatusActive ItemStatus = "Active"

	// The item carries really important information for the user.
	ItemStatusNeedsAttention ItemStatus = "NeedsAttention"
)

// Sequence used to build unique well-known names of items within a process.
var itemSeq atomic.Uint32

// Item is a system tray item. It implements the application side of
// [StatusNotifierItem].
//
// Exported fields describe the item and must be set before [Item.Register].
// Afterwards use the setters, which also notify the tray host.
//
// [StatusNotifierItem]: https://www.freedesktop.org/wiki/Specifications/StatusNotifierItem/StatusNotifierItem/
type Item struct {
	mu         sync.Mutex
	conn       *dbus.Conn
	name       string
	props      *prop.Properties
	menu       *Menu
	signals    chan *dbus.Signal
	registered bool
	closed     bool

	onActivate          func(x, y int32)
	onSecondaryActivate func(x, y int32)
	onScroll            func(delta int32, orientation string)

	// Unique identifier for the application, such as the application name.
	ID string

	// Name that describes the application, can be more descriptive than ID.
	Title string

	// Extra information shown in the tooltip.
	Tooltip string

	// Category of the item.
	Category ItemCategory

	// Status of the item.
	Status ItemStatus

	// [Freedesktop-compliant] icon name.
	//
	// [Freedesktop-compliant]: https://specifications.freedesktop.org/icon-naming-spec/latest/
	IconName string

	// Additional directory searched for IconName, OverlayIconName and
	// AttentionIconName.
	IconThemePath string

	// Binary representation of the icon. Hosts prefer IconName when both are
	// available.
	IconPixmap []Icon

	// Icon name used as an overlay over the main icon.
	OverlayIconName string

	// Icon name used when Status is NeedsAttention.
	AttentionIconName string
}

// NewItem returns a new [Item] that will be exported on conn.
//
// Parameter id is the application identifier reported to hosts.
func NewItem(conn *dbus.Conn, id string) *Item {
	return &Item{
		conn:                conn,
		name:                fmt.Sprintf("org.kde.StatusNotifierItem-%d-%d", os.Getpid(), itemSeq.Add(1)),
		signals:             make(chan *dbus.Signal, 16),
		onActivate:          func(int32, int32) {},
		onSecondaryActivate: func(int32, int32) {},
		onScroll:            func(int32, string) {},
		ID:                  id,
		Title:               id,
		Category:            ItemCategoryApplicationStatus,
		Status:              ItemStatusActive,
		IconPixmap:          []Icon{},
	}
}

// Name returns the well-known bus name of the item.
func (item *Item) Name() string {
	return item.name
}

// SetMenu attaches menu to the item. It must be called before
// [Item.Register].
func (item *Item) SetMenu(menu *Menu) {
	item.mu.Lock()
	defer item.mu.Unlock()

	item.menu = menu
}

// OnActivate sets callback that runs when the host asks for primary
// activation, usually a left click.
func (item *Item) OnActivate(callback func(x, y int32)) {
	item.mu.Lock()
	defer item.mu.Unlock()

	item.onActivate = callback
}

// OnSecondaryActivate sets callback that runs on secondary activation,
// usually a middle click.
func (item *Item) OnSecondaryActivate(callback func(x, y int32)) {
	item.mu.Lock()
	defer item.mu.Unlock()

	item.onSecondaryActivate = callback
}

// OnScroll sets callback that runs when the item is scrolled.
func (item *Item) OnScroll(callback func(delta int32, orientation string)) {
	item.mu.Lock()
	defer item.mu.Unlock()

	item.onScroll = callback
}

// Register requests the well-known name of the item, exports the item and
// its menu, and registers the item in [StatusNotifierWatcher].
//
// If no watcher is running, the item stays exported and an error wrapping
// [ErrNoWatcher] is returned; the item registers itself once a watcher
// appears.
//
// [StatusNotifierWatcher]: https://www.freedesktop.org/wiki/Specifications/StatusNotifierItem/StatusNotifierWatcher/
func (item *Item) Register() error {
	item.mu.Lock()
	defer item.mu.Unlock()

	if item.closed {
		return fmt.Errorf("register: item is closed")
	}

	if item.registered {
		return nil
	}

	reply, err := item.conn.RequestName(item.name, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("register: failed to request name %s: %w", item.name, err)
	}

	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("register: name %s already taken", item.name)
	}

	server := &itemServer{item: item}

	if err := item.conn.Export(server, StatusNotifierItemPath, StatusNotifierItemInterface); err != nil {
		return fmt.Errorf("register: failed to export %s: %w", StatusNotifierItemInterface, err)
	}

	props, err := prop.Export(item.conn, StatusNotifierItemPath, item.propertyMap())
	if err != nil {
		return fmt.Errorf("register: failed to export properties: %w", err)
	}
	item.props = props

	if item.menu != nil {
		if err := item.menu.export(item.conn); err != nil {
			return fmt.Errorf("register: %w", err)
		}
	}

	node := &introspect.Node{
		Name: StatusNotifierItemPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       StatusNotifierItemInterface,
				Methods:    introspect.Methods(server),
				Properties: props.Introspection(StatusNotifierItemInterface),
				Signals:    itemSignals,
			},
		},
	}

	if err := item.conn.Export(introspect.NewIntrospectable(node), StatusNotifierItemPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("register: failed to export introspection: %w", err)
	}

	if err := item.subscribe(); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	item.registered = true

	if err := registerWithWatcher(item.conn, item.name); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	return nil
}

// SetStatus changes status of the item. Setting the current status is a
// no-op and emits nothing.
func (item *Item) SetStatus(status ItemStatus) error {
	item.mu.Lock()
	defer item.mu.Unlock()

	if item.Status == status {
		return nil
	}

	item.Status = status

	return item.update("Status", string(status), "NewStatus", string(status))
}

// SetIcon changes icon name of the item.
func (item *Item) SetIcon(iconName string) error {
	item.mu.Lock()
	defer item.mu.Unlock()

	if item.IconName == iconName {
		return nil
	}

	item.IconName = iconName

	return item.update("IconName", iconName, "NewIcon")
}

// SetTooltip changes tooltip text of the item.
func (item *Item) SetTooltip(tooltip string) error {
	item.mu.Lock()
	defer item.mu.Unlock()

	if item.Tooltip == tooltip {
		return nil
	}

	item.Tooltip = tooltip

	return item.update("ToolTip", item.tooltip(), "NewToolTip")
}

// Close releases the name of the item and stops watching for watcher
// restarts. It does not close the connection.
//
// Item cannot be reused after Close was called.
func (item *Item) Close() error {
	item.mu.Lock()
	defer item.mu.Unlock()

	if item.closed {
		return nil
	}

	item.closed = true

	if !item.registered {
		return nil
	}

	item.unsubscribe()

	if _, err := item.conn.ReleaseName(item.name); err != nil {
		return fmt.Errorf("close: failed to release name %s: %w", item.name, err)
	}

	return nil
}

// update stores property value and emits signal. It is a no-op until the
// item is registered.
func (item *Item) update(property string, value any, signal string, args ...any) error {
	if item.props == nil {
		return nil
	}

	item.props.SetMust(StatusNotifierItemInterface, property, value)

	if err := item.conn.Emit(StatusNotifierItemPath, StatusNotifierItemInterface+"."+signal, args...); err != nil {
		return fmt.Errorf("failed to emit %s: %w", signal, err)
	}

	return nil
}

func (item *Item) tooltip() Tooltip {
	return Tooltip{
		IconName:    item.IconName,
		IconPixmap:  []Icon{},
		Title:       item.Title,
		Description: item.Tooltip,
	}
}

// propertyMap returns org.kde.StatusNotifierItem properties of the item.
func (item *Item) propertyMap() prop.Map {
	menuPath := dbus.ObjectPath("/NO_DBUSMENU")
	if item.menu != nil {
		menuPath = MenuPath
	}

	property := func(value any) *prop.Prop {
		return &prop.Prop{Value: value, Writable: false, Emit: prop.EmitTrue}
	}

	return prop.Map{
		StatusNotifierItemInterface: map[string]*prop.Prop{
			"Category":            property(string(item.Category)),
			"Id":                  property(item.ID),
			"Title":               property(item.Title),
			"Status":              property(string(item.Status)),
			"WindowId":            property(int32(0)),
			"IconThemePath":       property(item.IconThemePath),
			"IconName":            property(item.IconName),
			"IconPixmap":          property(item.IconPixmap),
			"OverlayIconName":     property(item.OverlayIconName),
			"OverlayIconPixmap":   property([]Icon{}),
			"AttentionIconName":   property(item.AttentionIconName),
			"AttentionIconPixmap": property([]Icon{}),
			"AttentionMovieName":  property(""),
			"ToolTip":             property(item.tooltip()),
			"ItemIsMenu":          property(item.menu != nil),
			"Menu":                property(menuPath),
		},
	}
}

var itemSignals = []introspect.Signal{
	{Name: "NewTitle"},
	{Name: "NewIcon"},
	{Name: "NewAttentionIcon"},
	{Name: "NewOverlayIcon"},
	{Name: "NewToolTip"},
	{Name: "NewStatus", Args: []introspect.Arg{{Name: "status", Type: "s"}}},
}

// itemServer holds the methods of org.kde.StatusNotifierItem, so that only
// they are exported on the bus.
type itemServer struct {
	item *Item
}

// ContextMenu is called by the host to show the context menu. Items that
// export a menu let the host draw it.
func (s *itemServer) ContextMenu(x, y int32) *dbus.Error {
	return nil
}

// Activate is called by the host on primary activation.
func (s *itemServer) Activate(x, y int32) *dbus.Error {
	s.item.mu.Lock()
	callback := s.item.onActivate
	s.item.mu.Unlock()

	callback(x, y)

	return nil
}

// SecondaryActivate is called by the host on secondary activation.
func (s *itemServer) SecondaryActivate(x, y int32) *dbus.Error {
	s.item.mu.Lock()
	callback := s.item.onSecondaryActivate
	s.item.mu.Unlock()

	callback(x, y)

	return nil
}

// Scroll is called by the host when the item is scrolled.
func (s *itemServer) Scroll(delta int32, orientation string) *dbus.Error {
	s.item.mu.Lock()
	callback := s.item.onScroll
	s.item.mu.Unlock()

	callback(delta, orientation)

	return nil
}
