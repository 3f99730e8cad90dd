// Package notify sends desktop notifications through
// org.freedesktop.Notifications.
package notify

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	NotificationsInterface = "org.freedesktop.Notifications"
	NotificationsPath      = "/org/freedesktop/Notifications"
)

// Notification describes a notification to show.
type Notification struct {
	// ID of a notification to replace, or 0 to create a new one.
	ReplacesID uint32
	AppIcon    string
	Summary    string
	Body       string

	// Expiration timeout in milliseconds. 0 keeps the notification until
	// the user closes it, -1 leaves the choice to the server.
	Timeout int32
}

// Client talks to the notification server on the session bus.
type Client struct {
	mu       sync.Mutex
	conn     *dbus.Conn
	appName  string
	signals  chan *dbus.Signal
	onClosed func(id uint32, reason uint32)
	closed   bool
}

// NewClient returns a [Client] sending notifications on behalf of appName and
// subscribes to NotificationClosed signals.
func NewClient(conn *dbus.Conn, appName string) (*Client, error) {
	c := &Client{
		conn:     conn,
		appName:  appName,
		signals:  make(chan *dbus.Signal, 16),
		onClosed: func(uint32, uint32) {},
	}

	if err := c.subscribe(); err != nil {
		return nil, fmt.Errorf("notify: %w", err)
	}

	return c, nil
}

// Notify shows n and returns its ID assigned by the server.
func (c *Client) Notify(n Notification) (uint32, error) {
	call := c.conn.Object(NotificationsInterface, NotificationsPath).Call(
		NotificationsInterface+".Notify", 0,
		c.appName,
		n.ReplacesID,
		n.AppIcon,
		n.Summary,
		n.Body,
		[]string{},
		map[string]dbus.Variant{},
		n.Timeout,
	)
	if call.Err != nil {
		return 0, fmt.Errorf("notify call: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("notify parse response: %w", err)
	}

	return id, nil
}

// OnClosed sets callback that runs whenever a notification is closed. It
// runs on the signal goroutine of the client.
func (c *Client) OnClosed(callback func(id uint32, reason uint32)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onClosed = callback
}

// Close unsubscribes from signals. It does not close the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true

	err := c.conn.RemoveMatchSignal(
		dbus.WithMatchInterface(NotificationsInterface),
		dbus.WithMatchMember("NotificationClosed"),
	)

	c.conn.RemoveSignal(c.signals)
	close(c.signals)

	return err
}

func (c *Client) subscribe() error {
	if err := c.conn.AddMatchSignal(
		dbus.WithMatchInterface(NotificationsInterface),
		dbus.WithMatchMember("NotificationClosed"),
	); err != nil {
		return err
	}

	c.conn.Signal(c.signals)

	go func() {
		for signal := range c.signals {
			id, reason, ok := parseClosed(signal)
			if !ok {
				continue
			}

			c.mu.Lock()
			callback := c.onClosed
			c.mu.Unlock()

			callback(id, reason)
		}
	}()

	return nil
}

// parseClosed extracts arguments of the
// org.freedesktop.Notifications.NotificationClosed signal.
func parseClosed(signal *dbus.Signal) (uint32, uint32, bool) {
	if signal.Name != NotificationsInterface+".NotificationClosed" {
		return 0, 0, false
	}

	if len(signal.Body) != 2 {
		return 0, 0, false
	}

	id, ok := signal.Body[0].(uint32)
	if !ok {
		return 0, 0, false
	}

	reason, ok := signal.Body[1].(uint32)
	if !ok {
		return 0, 0, false
	}

	return id, reason, true
}
