package sysinstall

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/whistle-ai/whistle/internal/config"
	"github.com/whistle-ai/whistle/internal/logger"
	"github.com/whistle-ai/whistle/internal/service/installer"
	"github.com/whistle-ai/whistle/internal/ui"
)

const (
	// ServiceName is the systemd unit name without the ".service" suffix.
	ServiceName = "whistle-ai"

	// UnitPath is where the systemd unit file is installed.
	UnitPath = "/etc/systemd/system/whistle-ai.service"

	// unitFileMode is the permission set on the written unit file.
	unitFileMode = os.FileMode(0o644)

	// unitTemplate is the systemd unit, parameterized by the executable
	// path and the configuration file it monitors with.
	unitTemplate = `[Unit]
Description=WhistleAI Log Monitoring Service
After=network.target

[Service]
Type=simple
User=root
ExecStart=%s monitor --config %s
Restart=on-failure

[Install]
WantedBy=multi-user.target
`
)

var (
	errMustRunAsRoot      = errors.New("this command must be run as root")
	errExecutableNotFound = errors.New(`"whistle" executable not found in PATH`)
)

// Install sets whistle up as a systemd service: it writes a default
// configuration under /etc/whistle when none exists, installs the unit file
// and reloads systemd. Requires root.
func Install(ctx context.Context) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "whistle-service")

	if os.Geteuid() != 0 {
		return errMustRunAsRoot
	}

	printer := ui.NewPrinter()
	printer.Println("Installing WhistleAI service...")

	whistlePath, err := exec.LookPath(installer.BinaryName)
	if err != nil {
		return fmt.Errorf("%w, make sure the package is installed correctly", errExecutableNotFound)
	}

	printer.Printf("Found whistle executable at: %s\n", whistlePath)

	if err = ensureDefaultConfig(printer, config.SystemConfigPath); err != nil {
		return fmt.Errorf("create config file: %w", err)
	}

	printer.Printf("Creating systemd service file at %s\n", UnitPath)

	if err = writeUnitFile(UnitPath, whistlePath); err != nil {
		return fmt.Errorf("create systemd service file: %w", err)
	}

	reloadSystemd(ctx, printer)

	printer.Successf("\nWhistleAI service installed successfully!")
	printer.Println("To start the service, run: sudo systemctl start " + ServiceName)
	printer.Println("To enable the service to start on boot, run: sudo systemctl enable " + ServiceName)

	return nil
}

// Uninstall stops and removes the systemd service. The configuration under
// /etc/whistle is kept. Requires root.
func Uninstall(ctx context.Context) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "whistle-service")

	if os.Geteuid() != 0 {
		return errMustRunAsRoot
	}

	printer := ui.NewPrinter()
	printer.Println("Uninstalling WhistleAI service...")

	// Best-effort stop; the unit may not be running or even loaded.
	for _, action := range []string{"stop", "disable"} {
		if err := runSystemctl(ctx, action, ServiceName); err != nil {
			logger.DebugKV(ctx, "systemctl call failed", "action", action, "error", err)
		}
	}

	switch _, err := os.Stat(UnitPath); {
	case err == nil:
		if err = os.Remove(UnitPath); err != nil {
			return fmt.Errorf("remove systemd service file: %w", err)
		}

		printer.Printf("Removed systemd service file at %s\n", UnitPath)
	case errors.Is(err, os.ErrNotExist):
		printer.Noticef("Service file %s does not exist. Nothing to remove.", UnitPath)
	default:
		return fmt.Errorf("stat systemd service file: %w", err)
	}

	reloadSystemd(ctx, printer)

	printer.Noticef("Configuration in %s was kept.", filepath.Dir(config.SystemConfigPath))
	printer.Successf("\nWhistleAI service uninstalled successfully!")

	return nil
}

// ensureDefaultConfig writes the default configuration unless one exists.
func ensureDefaultConfig(printer *ui.Printer, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		printer.Printf("Config file %s already exists. Skipping creation.\n", configPath)
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	printer.Printf("Creating default config at %s\n", configPath)

	return config.Save(configPath, config.Default())
}

// writeUnitFile renders and writes the systemd unit.
func writeUnitFile(unitPath, execPath string) error {
	if err := os.MkdirAll(filepath.Dir(unitPath), config.DefaultDirPermissions); err != nil {
		return err
	}

	return os.WriteFile(unitPath, []byte(renderUnit(execPath)), unitFileMode)
}

// renderUnit fills the unit template with the executable path.
func renderUnit(execPath string) string {
	return fmt.Sprintf(unitTemplate, execPath, config.SystemConfigPath)
}

// reloadSystemd reloads the systemd daemon, degrading to manual guidance
// when the call fails. The files are already in place at that point.
func reloadSystemd(ctx context.Context, printer *ui.Printer) {
	printer.Println("Reloading systemd daemon...")

	if err := runSystemctl(ctx, "daemon-reload"); err != nil {
		logger.WarnKV(ctx, "Failed to reload systemd", "error", err)
		printer.Noticef("Please run 'sudo systemctl daemon-reload' manually.")
	}
}

// runSystemctl invokes systemctl with the given arguments.
func runSystemctl(ctx context.Context, args ...string) error {
	return exec.CommandContext(ctx, "systemctl", args...).Run()
}
