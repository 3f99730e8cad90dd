// Package systray is a toolkit-agnostic implementation of the application
// side of the [StatusNotifierItem] specification. It exports tray items on
// the D-Bus session bus and registers them with the running
// [StatusNotifierWatcher], which is how AppIndicator-style applets appear in
// KDE, GNOME (with the AppIndicator extension), waybar and similar trays.
//
// # Usage
//
// An application creates one [Item] per tray icon. Each item owns a D-Bus
// connection for its lifetime; closing that connection is how an item leaves
// the tray, so applications that add and remove icons at runtime should give
// every item a private connection (see [dbus.ConnectSessionBus]).
//
//   - [Item] exports org.kde.StatusNotifierItem and its properties.
//   - [Menu] exports com.canonical.dbusmenu, the context menu of the item.
//
// Items re-register themselves whenever the watcher service is restarted.
//
// [StatusNotifierItem]: https://www.freedesktop.org/wiki/Specifications/StatusNotifierItem/
// [StatusNotifierWatcher]: https://www.freedesktop.org/wiki/Specifications/StatusNotifierItem/StatusNotifierWatcher/
package systray
