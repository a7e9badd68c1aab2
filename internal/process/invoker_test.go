//go:build !windows

package process

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecInvoker_Success(t *testing.T) {
	inv := NewExecInvoker(5 * time.Second)

	err := inv.Invoke(context.Background(), Command{Name: "sh", Args: []string{"-c", "exit 0"}})
	require.NoError(t, err)
}

func TestExecInvoker_NonZeroExit(t *testing.T) {
	inv := NewExecInvoker(5 * time.Second)

	err := inv.Invoke(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo 'Error: source file could not be loaded' >&2; exit 3"},
	})
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitCode)
	assert.Equal(t, "Error: source file could not be loaded\n", exitErr.Stderr)
	assert.Equal(t, "sh", exitErr.Command)
	assert.Equal(t, "sh exited with status 3: Error: source file could not be loaded", err.Error())
}

func TestExecInvoker_StderrIsVerbatim(t *testing.T) {
	inv := NewExecInvoker(5 * time.Second)

	err := inv.Invoke(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", `printf '  Error: x\n\n' >&2; exit 1`},
	})

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, "  Error: x\n\n", exitErr.Stderr)
}

func TestExecInvoker_StdoutIsNotCaptured(t *testing.T) {
	inv := NewExecInvoker(5 * time.Second)

	err := inv.Invoke(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo progress; echo failed >&2; exit 1"},
	})

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, "failed\n", exitErr.Stderr)
	assert.NotContains(t, exitErr.Stderr, "progress")
}

func TestExecInvoker_StdoutSink(t *testing.T) {
	inv := NewExecInvoker(5 * time.Second)
	var out bytes.Buffer

	err := inv.Invoke(context.Background(), Command{
		Name:   "sh",
		Args:   []string{"-c", "printf 'HDF5 \"x.h5\"'"},
		Stdout: &out,
	})
	require.NoError(t, err)
	assert.Equal(t, `HDF5 "x.h5"`, out.String())
}

func TestExecInvoker_InvalidUTF8IsReplaced(t *testing.T) {
	inv := NewExecInvoker(5 * time.Second)

	err := inv.Invoke(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", `printf 'bad \377 byte' >&2; exit 1`},
	})

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, "bad � byte", exitErr.Stderr)
}

func TestExecInvoker_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	inv := NewExecInvoker(5 * time.Second)

	err := inv.Invoke(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "touch marker"},
		Dir:  dir,
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "marker"))
	assert.NoError(t, err)
}

func TestExecInvoker_Env(t *testing.T) {
	inv := NewExecInvoker(5 * time.Second)
	var out bytes.Buffer

	err := inv.Invoke(context.Background(), Command{
		Name:   "sh",
		Args:   []string{"-c", "printf %s \"$ANYPDF_TEST\""},
		Env:    []string{"ANYPDF_TEST=value"},
		Stdout: &out,
	})
	require.NoError(t, err)
	assert.Equal(t, "value", out.String())
}

func TestExecInvoker_Timeout(t *testing.T) {
	inv := NewExecInvoker(200 * time.Millisecond)

	started := time.Now()
	err := inv.Invoke(context.Background(), Command{Name: "sh", Args: []string{"-c", "sleep 30"}})
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrTimeout))
	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 200*time.Millisecond, timeoutErr.Timeout)
	assert.Less(t, time.Since(started), 10*time.Second)
}

func TestExecInvoker_TimeoutKillsChildren(t *testing.T) {
	inv := NewExecInvoker(200 * time.Millisecond)

	// The grandchild holds stderr open; without a group kill Wait would block
	// until WaitDelay and the sleep would outlive the invocation.
	started := time.Now()
	err := inv.Invoke(context.Background(), Command{Name: "sh", Args: []string{"-c", "sleep 30 & wait"}})
	require.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(started), waitDelay-time.Second)
}

func TestExecInvoker_MissingBinary(t *testing.T) {
	inv := NewExecInvoker(5 * time.Second)

	err := inv.Invoke(context.Background(), Command{Name: "anypdf-definitely-not-installed"})
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, -1, exitErr.ExitCode)
	assert.NotEmpty(t, exitErr.Stderr)
}

func TestNewExecInvoker_DefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, NewExecInvoker(0).Timeout())
	assert.Equal(t, time.Second, NewExecInvoker(time.Second).Timeout())
}

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "pandoc", Command{Name: "pandoc"}.String())
	assert.Equal(t, "pandoc in.md -o out.pdf", Command{Name: "pandoc", Args: []string{"in.md", "-o", "out.pdf"}}.String())
}

func TestKillProcessGroup_InvalidPID(t *testing.T) {
	// Only checks the call does not panic; a real PID cannot be targeted safely.
	KillProcessGroup(999999999)
}
