package applet

import (
	"fmt"

	"github.com/shelepuginivan/yubikey-indicator/internal/indicator"
	"github.com/shelepuginivan/yubikey-indicator/internal/notify"
)

const (
	aboutSummary = "About YubikeyIndicator"
	projectURL   = "https://github.com/jeffchannell/yubikey-indicator"
)

// Notifier shows desktop notifications.
type Notifier interface {
	Notify(n notify.Notification) (uint32, error)
	OnClosed(callback func(id uint32, reason uint32))
}

// about is the about notification. At most one is shown at a time: showing
// it again replaces the current one, and once the user closes it the next
// show creates a new one.
type about struct {
	notifier Notifier
	id       uint32
}

func newAbout(notifier Notifier) *about {
	return &about{notifier: notifier}
}

func (a *about) show() error {
	id, err := a.notifier.Notify(notify.Notification{
		ReplacesID: a.id,
		AppIcon:    indicator.IconKey,
		Summary:    aboutSummary,
		Body:       aboutBody(),
		Timeout:    0,
	})
	if err != nil {
		return fmt.Errorf("show about: %w", err)
	}

	a.id = id

	return nil
}

// closed forgets the notification if id is the current one.
func (a *about) closed(id uint32) {
	if id == a.id {
		a.id = 0
	}
}

// open reports whether the about notification is shown.
func (a *about) open() bool {
	return a.id != 0
}

func aboutBody() string {
	return fmt.Sprintf(
		"%s\n\n"+
			"A Yubikey indicator applet\n\n"+
			"%s\n\n"+
			"© 2017 Jeff Channell\n\n"+
			"This program comes with absolutely no warranty.\n"+
			"See the GNU General Public License, version 3 or later for details.",
		Version, projectURL,
	)
}
