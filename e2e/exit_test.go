//go:build e2e && unix

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestApplicationExit(t *testing.T) {
	t.Parallel()
	tf := NewTUITest(t)
	defer tf.Cleanup()

	workspace, err := tf.CreateTestWorkspace()
	require.NoError(t, err, "Failed to create test workspace")

	require.NoError(t, tf.StartApp(), "Failed to start app")
	require.True(t, tf.Ready(), "Should receive ready signal")
	require.True(t, tf.SeePlain("searchbox"), "Should show searchbox title")

	// Typing q is a query, not a quit
	require.NoError(t, tf.TypeText("q"))
	require.True(t, tf.SeePlain("› q"))

	t.Logf("Sending ctrl+c to quit application...")
	require.NoError(t, tf.Quit())
	if err := tf.WaitExit(2 * time.Second); err != nil {
		tf.DumpTailOnFail(t, "exit-failure", 4096)
		t.Fatalf("Application did not exit cleanly: %v", err)
	}

	// Logs go to the file, never to the terminal
	logContent, err := os.ReadFile(filepath.Join(workspace, "searchbox.log"))
	require.NoError(t, err, "Log file should be written")
	require.Contains(t, string(logContent), "UI exited normally")
}
