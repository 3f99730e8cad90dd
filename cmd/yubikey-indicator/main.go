package main

import (
	"context"
	"fmt"
	"os"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/shelepuginivan/yubikey-indicator/internal/applet"
	"github.com/shelepuginivan/yubikey-indicator/internal/config"
	"github.com/shelepuginivan/yubikey-indicator/internal/device"
	"github.com/shelepuginivan/yubikey-indicator/internal/logger"
	"github.com/shelepuginivan/yubikey-indicator/internal/notify"
)

const appName = "YubikeyIndicator"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "yubikey-indicator",
	Short:         "Tray indicator for attached YubiKeys",
	Long:          `yubikey-indicator shows a tray icon for every attached YubiKey, or a single placeholder icon when none is attached.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), cmd)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("YubikeyIndicator v%s\n", applet.Version)
	},
}

func init() {
	defaults := config.Default()

	flags := rootCmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/yubikey-indicator/config.yaml)")
	flags.Duration("interval", defaults.PollInterval, "period between device scans")
	flags.String("icons", defaults.IconsDir, "directory containing the indicator icons")
	flags.String("personalization-command", defaults.PersonalizationCommand, "program started by the personalization menu entry")
	flags.String("scan-backend", defaults.ScanBackend, "device enumeration backend (usb, hid)")
	flags.String("log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
	flags.String("log-output", defaults.LogOutput, "log output (stderr, stdout)")
	flags.String("log-format", defaults.LogFormat, "log format (console, json)")
	flags.Bool("debug", defaults.Debug, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Debug:  cfg.Debug,
		Output: cfg.LogOutput,
		Format: cfg.LogFormat,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log := logger.GetLogger()

	enum, err := newEnumerator(cfg.ScanBackend)
	if err != nil {
		return err
	}
	defer enum.Close()

	scanner := device.NewScanner(enum, device.WithLogger(logger.WithComponent("scanner")))

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer conn.Close()

	notifier, err := notify.NewClient(conn, appName)
	if err != nil {
		return err
	}
	defer notifier.Close()

	a, err := applet.New(applet.Options{
		Scanner:  scanner,
		Tray:     &applet.SNITray{IconsDir: cfg.IconsDir, Logger: logger.WithComponent("tray")},
		Notifier: notifier,
		Launcher: applet.ExecLauncher{Logger: logger.WithComponent("launcher")},

		Interval:               cfg.PollInterval,
		PersonalizationCommand: cfg.PersonalizationCommand,
		Logger:                 logger.WithComponent("applet"),
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("version", applet.Version).
		Str("icons_dir", cfg.IconsDir).
		Str("scan_backend", cfg.ScanBackend).
		Msg("starting YubikeyIndicator")

	return a.Run(ctx)
}

type enumerator interface {
	device.Enumerator
	Close() error
}

func newEnumerator(backend string) (enumerator, error) {
	if backend == config.BackendHID {
		enum, err := device.NewHIDEnumerator()
		if err != nil {
			return nil, err
		}

		return enum, nil
	}

	return device.NewUSBEnumerator(), nil
}
