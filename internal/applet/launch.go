package applet

import (
	"fmt"
	"os/exec"

	"github.com/rs/zerolog"
)

// ExecLauncher starts programs without arguments and does not wait for them.
type ExecLauncher struct {
	Logger zerolog.Logger
}

// Launch starts name. The exit status of the program is only logged.
func (l ExecLauncher) Launch(name string) error {
	cmd := exec.Command(name)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}

	l.Logger.Debug().Str("command", name).Int("pid", cmd.Process.Pid).Msg("launched")

	go func() {
		if err := cmd.Wait(); err != nil {
			l.Logger.Debug().Err(err).Str("command", name).Msg("exited")
		}
	}()

	return nil
}
