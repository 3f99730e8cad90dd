package systray

import (
	"slices"

	"github.com/godbus/dbus/v5"
)

// LayoutNode is a single node of the com.canonical.dbusmenu layout, encoded
// on the bus as (ia{sv}av). Children hold LayoutNode values wrapped in
// variants.
type LayoutNode struct {
	ID         int32
	Properties map[string]dbus.Variant
	Children   []dbus.Variant
}

// layout returns the layout of mi and its descendants.
//
// depth limits recursion: 0 returns the node without children, -1 (or any
// negative value) returns the whole subtree. names filters the returned
// properties; an empty slice returns all of them.
func (mi *MenuItem) layout(depth int32, names []string) LayoutNode {
	node := LayoutNode{
		ID:         mi.ID,
		Properties: mi.properties(names),
		Children:   []dbus.Variant{},
	}

	if depth == 0 {
		return node
	}

	for _, child := range mi.children {
		node.Children = append(node.Children, dbus.MakeVariant(child.layout(depth-1, names)))
	}

	return node
}

// properties returns dbusmenu properties of mi filtered by names.
func (mi *MenuItem) properties(names []string) map[string]dbus.Variant {
	all := make(map[string]dbus.Variant, 5)

	if mi.Type == MenuItemSeparator {
		all["type"] = dbus.MakeVariant(string(MenuItemSeparator))
	} else if mi.ID != rootID {
		all["label"] = dbus.MakeVariant(mi.Label)
	}

	all["enabled"] = dbus.MakeVariant(mi.Enabled)
	all["visible"] = dbus.MakeVariant(mi.Visible)

	if len(mi.children) > 0 {
		all["children-display"] = dbus.MakeVariant("submenu")
	}

	if len(names) == 0 {
		return all
	}

	filtered := make(map[string]dbus.Variant, len(names))
	for key, value := range all {
		if slices.Contains(names, key) {
			filtered[key] = value
		}
	}

	return filtered
}
