package systray

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
)

const (
	MenuInterface = "com.canonical.dbusmenu"
	MenuPath      = "/MenuBar"
)

// Version of the com.canonical.dbusmenu interface implemented by [Menu].
const menuVersion uint32 = 3

// ID of the root layout node.
const rootID int32 = 0

type MenuItemType string

// dbusmenu item types.
const (
	// A regular item that can be clicked.
	MenuItemStandard MenuItemType = "standard"

	// A separator line between items.
	MenuItemSeparator MenuItemType = "separator"
)

// ItemProperties is an entry of the GetGroupProperties reply, encoded as
// (ia{sv}).
type ItemProperties struct {
	ID         int32
	Properties map[string]dbus.Variant
}

// MenuEvent is an entry of the EventGroup request, encoded as (isvu).
type MenuEvent struct {
	ID        int32
	EventID   string
	Data      dbus.Variant
	Timestamp uint32
}

// MenuItem is a node of [Menu].
type MenuItem struct {
	menu     *Menu
	children []*MenuItem
	onClick  func()

	// ID of the node in the layout. Assigned by [Menu].
	ID int32

	// Text shown for the item. Ignored for separators.
	Label string

	// Type of the item.
	Type MenuItemType

	// Whether the item can be activated.
	Enabled bool

	// Whether the item is shown.
	Visible bool
}

// Menu is a context menu of [Item]. It implements the server side of the
// com.canonical.dbusmenu interface.
//
// Items are appended in display order. Click handlers run on the D-Bus
// dispatch goroutine; applications with a single event loop should hand
// the work over to it rather than doing it inline.
type Menu struct {
	mu       sync.RWMutex
	conn     *dbus.Conn
	revision uint32
	nextID   int32
	root     *MenuItem
	items    map[int32]*MenuItem
}

// NewMenu returns an empty [Menu].
func NewMenu() *Menu {
	m := &Menu{
		revision: 1,
		nextID:   rootID + 1,
		items:    make(map[int32]*MenuItem),
	}

	m.root = &MenuItem{
		menu:    m,
		ID:      rootID,
		Type:    MenuItemStandard,
		Enabled: true,
		Visible: true,
	}
	m.items[rootID] = m.root

	return m
}

// AddItem appends a clickable item to the menu. onClick may be nil.
func (m *Menu) AddItem(label string, onClick func()) *MenuItem {
	return m.append(&MenuItem{
		Label:   label,
		Type:    MenuItemStandard,
		Enabled: true,
		Visible: true,
		onClick: onClick,
	})
}

// AddSeparator appends a separator to the menu.
func (m *Menu) AddSeparator() *MenuItem {
	return m.append(&MenuItem{
		Type:    MenuItemSeparator,
		Enabled: true,
		Visible: true,
	})
}

// Items returns top-level items of the menu in display order.
func (m *Menu) Items() []*MenuItem {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]*MenuItem, len(m.root.children))
	copy(items, m.root.children)

	return items
}

// Click runs the click handler of the item with the given ID, as if a host
// sent a "clicked" event for it.
func (m *Menu) Click(id int32) error {
	m.mu.RLock()
	item, ok := m.items[id]
	var onClick func()
	if ok && item.Enabled {
		onClick = item.onClick
	}
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("click: unknown menu item %d", id)
	}

	if onClick != nil {
		onClick()
	}

	return nil
}

// SetEnabled enables or disables the item.
func (mi *MenuItem) SetEnabled(enabled bool) {
	mi.menu.update(mi, func() { mi.Enabled = enabled }, "enabled")
}

// SetLabel changes text of the item.
func (mi *MenuItem) SetLabel(label string) {
	mi.menu.update(mi, func() { mi.Label = label }, "label")
}

func (m *Menu) append(item *MenuItem) *MenuItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	item.menu = m
	item.ID = m.nextID
	m.nextID++

	m.root.children = append(m.root.children, item)
	m.items[item.ID] = item
	m.revision++

	if m.conn != nil {
		m.conn.Emit(MenuPath, MenuInterface+".LayoutUpdated", m.revision, rootID)
	}

	return item
}

// update applies change to item and notifies hosts about changed property.
func (m *Menu) update(item *MenuItem, change func(), property string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	change()

	if m.conn == nil {
		return
	}

	m.conn.Emit(
		MenuPath,
		MenuInterface+".ItemsPropertiesUpdated",
		[]ItemProperties{{ID: item.ID, Properties: item.properties([]string{property})}},
		[]struct {
			ID    int32
			Names []string
		}{},
	)
}

// export publishes the menu on conn at [MenuPath].
func (m *Menu) export(conn *dbus.Conn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	server := &menuServer{menu: m}

	if err := conn.Export(server, MenuPath, MenuInterface); err != nil {
		return fmt.Errorf("failed to export %s: %w", MenuInterface, err)
	}

	props, err := prop.Export(conn, MenuPath, prop.Map{
		MenuInterface: map[string]*prop.Prop{
			"Version": {
				Value:    menuVersion,
				Writable: false,
				Emit:     prop.EmitConst,
			},
			"TextDirection": {
				Value:    "ltr",
				Writable: false,
				Emit:     prop.EmitTrue,
			},
			"Status": {
				Value:    "normal",
				Writable: false,
				Emit:     prop.EmitTrue,
			},
			"IconThemePath": {
				Value:    []string{},
				Writable: false,
				Emit:     prop.EmitTrue,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to export %s properties: %w", MenuInterface, err)
	}

	node := &introspect.Node{
		Name: MenuPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       MenuInterface,
				Methods:    introspect.Methods(server),
				Properties: props.Introspection(MenuInterface),
				Signals: []introspect.Signal{
					{Name: "ItemsPropertiesUpdated", Args: []introspect.Arg{
						{Name: "updatedProps", Type: "a(ia{sv})"},
						{Name: "removedProps", Type: "a(ias)"},
					}},
					{Name: "LayoutUpdated", Args: []introspect.Arg{
						{Name: "revision", Type: "u"},
						{Name: "parent", Type: "i"},
					}},
					{Name: "ItemActivationRequested", Args: []introspect.Arg{
						{Name: "id", Type: "i"},
						{Name: "timestamp", Type: "u"},
					}},
				},
			},
		},
	}

	if err := conn.Export(introspect.NewIntrospectable(node), MenuPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export menu introspection: %w", err)
	}

	m.conn = conn

	return nil
}

// menuServer holds the methods of com.canonical.dbusmenu, so that only they
// are exported on the bus.
type menuServer struct {
	menu *Menu
}

// GetLayout provides the layout and properties that are attached to the
// entries that are in the layout.
func (s *menuServer) GetLayout(parentID int32, recursionDepth int32, propertyNames []string) (uint32, LayoutNode, *dbus.Error) {
	s.menu.mu.RLock()
	defer s.menu.mu.RUnlock()

	parent, ok := s.menu.items[parentID]
	if !ok {
		return 0, LayoutNode{}, unknownID(parentID)
	}

	return s.menu.revision, parent.layout(recursionDepth, propertyNames), nil
}

// GetGroupProperties returns properties of multiple items at once.
func (s *menuServer) GetGroupProperties(ids []int32, propertyNames []string) ([]ItemProperties, *dbus.Error) {
	s.menu.mu.RLock()
	defer s.menu.mu.RUnlock()

	result := make([]ItemProperties, 0, len(ids))

	for _, id := range ids {
		item, ok := s.menu.items[id]
		if !ok {
			continue
		}

		result = append(result, ItemProperties{
			ID:         id,
			Properties: item.properties(propertyNames),
		})
	}

	return result, nil
}

// GetProperty returns a single property of an item.
func (s *menuServer) GetProperty(id int32, name string) (dbus.Variant, *dbus.Error) {
	s.menu.mu.RLock()
	defer s.menu.mu.RUnlock()

	item, ok := s.menu.items[id]
	if !ok {
		return dbus.Variant{}, unknownID(id)
	}

	value, ok := item.properties([]string{name})[name]
	if !ok {
		return dbus.Variant{}, dbus.NewError(MenuInterface+".Error.UnknownProperty", []any{name})
	}

	return value, nil
}

// Event is called by the host when something happens to a menu item.
//
// Only "clicked" has an effect; "hovered", "opened" and "closed" are
// accepted and ignored.
func (s *menuServer) Event(id int32, eventID string, data dbus.Variant, timestamp uint32) *dbus.Error {
	if eventID != "clicked" {
		s.menu.mu.RLock()
		_, ok := s.menu.items[id]
		s.menu.mu.RUnlock()

		if !ok {
			return unknownID(id)
		}

		return nil
	}

	if err := s.menu.Click(id); err != nil {
		return unknownID(id)
	}

	return nil
}

// EventGroup delivers multiple events and returns IDs that were not found.
func (s *menuServer) EventGroup(events []MenuEvent) ([]int32, *dbus.Error) {
	notFound := []int32{}

	for _, event := range events {
		if err := s.Event(event.ID, event.EventID, event.Data, event.Timestamp); err != nil {
			notFound = append(notFound, event.ID)
		}
	}

	if len(events) > 0 && len(notFound) == len(events) {
		return notFound, dbus.MakeFailedError(fmt.Errorf("none of the event targets exist"))
	}

	return notFound, nil
}

// AboutToShow is called by the host before a submenu is shown. The layout is
// static between updates, so no refresh is ever requested.
func (s *menuServer) AboutToShow(id int32) (bool, *dbus.Error) {
	s.menu.mu.RLock()
	defer s.menu.mu.RUnlock()

	if _, ok := s.menu.items[id]; !ok {
		return false, unknownID(id)
	}

	return false, nil
}

// AboutToShowGroup is the batched variant of AboutToShow.
func (s *menuServer) AboutToShowGroup(ids []int32) ([]int32, []int32, *dbus.Error) {
	s.menu.mu.RLock()
	defer s.menu.mu.RUnlock()

	notFound := []int32{}

	for _, id := range ids {
		if _, ok := s.menu.items[id]; !ok {
			notFound = append(notFound, id)
		}
	}

	return []int32{}, notFound, nil
}

func unknownID(id int32) *dbus.Error {
	return dbus.NewError(MenuInterface+".Error.UnknownId", []any{fmt.Sprintf("unknown menu item %d", id)})
}
