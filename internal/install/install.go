// Package install hands a downloaded update artifact over to the platform
// package installer.
package install

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// PackageMIMEType is the MIME type of companion application packages.
const PackageMIMEType = "application/vnd.android.package-archive"

var (
	// ErrMissingArtifact is returned when the artifact doesn't exist or is empty.
	ErrMissingArtifact = errors.New("missing install artifact")

	// ErrNoHandler is returned when no installer handler matches the artifact.
	ErrNoHandler = errors.New("no install handler available")

	// ErrPermissionDenied is returned when the install capability hasn't been granted.
	ErrPermissionDenied = errors.New("install permission not granted")
)

// Handler invokes the platform installer for a downloaded artifact.
type Handler interface {
	// CanInstall reports whether the capability to install packages has
	// been granted. Callers must obtain the capability before installing.
	CanInstall(ctx context.Context) bool

	Install(ctx context.Context, path string) error
}

// Installer validates a downloaded artifact and triggers its installation.
type Installer struct {
	handler Handler
}

// New returns an installer using the given handler.
func New(handler Handler) *Installer {
	return &Installer{handler: handler}
}

// Install checks the artifact and asks the handler to install it.
func (i *Installer) Install(ctx context.Context, path string) error {
	// The artifact must exist and be non-empty.
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return ErrMissingArtifact
	}

	if i.handler == nil {
		return ErrNoHandler
	}

	if !i.handler.CanInstall(ctx) {
		return ErrPermissionDenied
	}

	slog.Info("Installing update package", "path", path, "type", PackageMIMEType)

	return i.handler.Install(ctx, path)
}

// CommandHandler installs artifacts by running a configured installer
// command with the artifact path appended as the last argument.
type CommandHandler struct {
	Command string
}

// CanInstall reports whether the configured command resolves to an executable.
func (h *CommandHandler) CanInstall(_ context.Context) bool {
	argv := strings.Fields(h.Command)
	if len(argv) == 0 {
		return false
	}

	_, err := exec.LookPath(argv[0])

	return err == nil
}

// Install runs the installer command.
func (h *CommandHandler) Install(ctx context.Context, path string) error {
	argv := strings.Fields(h.Command)
	if len(argv) == 0 {
		return ErrNoHandler
	}

	argv = append(argv, path)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.New("installer command failed: " + err.Error() + ": " + strings.TrimSpace(string(output)))
	}

	return nil
}
