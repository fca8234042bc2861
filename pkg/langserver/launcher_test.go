package langserver

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLauncher_RequiresPath(t *testing.T) {
	launcher := &Launcher{}

	err := launcher.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}

func TestLauncher_StartWaitStop(t *testing.T) {
	path, err := exec.LookPath("true")
	if err != nil {
		t.Skip("no 'true' binary on this system")
	}

	launcher := &Launcher{Path: path}
	require.NoError(t, launcher.Start(context.Background()))
	require.NoError(t, launcher.Wait())
}

func TestLauncher_DoubleStartRejected(t *testing.T) {
	path, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("no 'sleep' binary on this system")
	}

	launcher := &Launcher{Path: path, Args: []string{"10"}}
	require.NoError(t, launcher.Start(context.Background()))
	defer func() { _ = launcher.Stop() }()

	err = launcher.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")
}

func TestLauncher_StopBeforeStart(t *testing.T) {
	launcher := &Launcher{Path: "/bin/whatever"}
	assert.NoError(t, launcher.Stop())
}
