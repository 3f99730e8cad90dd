package applet

// Menu labels.
const (
	LabelPersonalize = "Open Yubikey Personalization GUI"
	LabelAbout       = "About"
	LabelQuit        = "Quit"
)

// MenuEntry is a context menu entry of an indicator.
type MenuEntry struct {
	Label     string
	Separator bool
	Disabled  bool

	// Action runs when the entry is clicked. It is called from the tray's
	// goroutine and only queues work for the event loop.
	Action func()
}

// menu returns entries of an indicator menu. The model line and its
// separator are left out when model is empty.
func (a *Applet) menu(model string) []MenuEntry {
	entries := []MenuEntry{
		{Label: LabelPersonalize, Action: func() { a.post(a.personalize) }},
		{Separator: true},
	}

	if model != "" {
		entries = append(entries,
			MenuEntry{Label: "Model:\t" + model, Disabled: true},
			MenuEntry{Separator: true},
		)
	}

	return append(entries,
		MenuEntry{Label: LabelAbout, Action: func() { a.post(a.showAbout) }},
		MenuEntry{Separator: true},
		MenuEntry{Label: LabelQuit, Action: func() { a.post(func() { a.quit() }) }},
	)
}

func (a *Applet) personalize() {
	if err := a.launcher.Launch(a.command); err != nil {
		a.log.Warn().Err(err).Str("command", a.command).Msg("failed to launch personalization tool")
	}
}

func (a *Applet) showAbout() {
	if a.about.open() {
		a.log.Debug().Uint32("id", a.about.id).Msg("replacing about notification")
	}

	if err := a.about.show(); err != nil {
		a.log.Warn().Err(err).Msg("failed to show about")
	}
}
