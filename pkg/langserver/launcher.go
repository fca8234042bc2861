// Package langserver launches the backing data-catalog language server as a
// child process. It is thin bootstrap glue: no protocol logic lives here.
package langserver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/google/uuid"
)

// Launcher starts and supervises the language-server process.
type Launcher struct {
	// Path is the language-server binary.
	Path string

	// Args are passed to the binary verbatim.
	Args []string

	// Env entries are appended to the current environment.
	Env []string

	cmd      *exec.Cmd
	launchID string
}

// Start launches the process. The launch ID ties log lines of one process
// lifetime together.
func (l *Launcher) Start(ctx context.Context) error {
	if l.Path == "" {
		return fmt.Errorf("language server path is required")
	}
	if l.cmd != nil {
		return fmt.Errorf("language server already started")
	}

	l.launchID = uuid.NewString()

	cmd := exec.CommandContext(ctx, l.Path, l.Args...) // #nosec G204 -- path and args come from operator config
	cmd.Env = append(os.Environ(), l.Env...)
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting language server: %w", err)
	}
	l.cmd = cmd

	slog.Info("langserver: started", "launch_id", l.launchID, "path", l.Path, "pid", cmd.Process.Pid)
	return nil
}

// Wait blocks until the process exits.
func (l *Launcher) Wait() error {
	if l.cmd == nil {
		return fmt.Errorf("language server not started")
	}
	if err := l.cmd.Wait(); err != nil {
		return fmt.Errorf("language server exited: %w", err)
	}
	slog.Info("langserver: exited", "launch_id", l.launchID)
	return nil
}

// Stop terminates the process if it is running.
func (l *Launcher) Stop() error {
	if l.cmd == nil || l.cmd.Process == nil {
		return nil
	}
	if err := l.cmd.Process.Kill(); err != nil {
		return fmt.Errorf("stopping language server: %w", err)
	}
	slog.Info("langserver: stopped", "launch_id", l.launchID)
	return nil
}
