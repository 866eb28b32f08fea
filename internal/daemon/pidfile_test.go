package daemon

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deadPID is a PID that almost certainly does not exist.
const deadPID = 999999

func newPIDFile(t *testing.T) *PIDFile {
	t.Helper()
	return NewPIDFile(filepath.Join(t.TempDir(), "run", "focuswin.pid"))
}

func TestPIDFile_WriteAndRead(t *testing.T) {
	pf := newPIDFile(t)

	require.NoError(t, pf.WritePID(12345))

	pid, err := pf.Read()
	require.NoError(t, err)
	assert.Equal(t, 12345, pid)
}

func TestPIDFile_Read_Errors(t *testing.T) {
	pf := newPIDFile(t)

	_, err := pf.Read()
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.MkdirAll(filepath.Dir(pf.Path), 0o755))
	require.NoError(t, os.WriteFile(pf.Path, []byte("not-a-number\n"), 0o644))
	_, err = pf.Read()
	assert.ErrorContains(t, err, "invalid PID file content")
}

func TestPIDFile_IsRunning(t *testing.T) {
	pf := newPIDFile(t)

	pid, running := pf.IsRunning()
	assert.Equal(t, 0, pid)
	assert.False(t, running)

	require.NoError(t, pf.Write())
	pid, running = pf.IsRunning()
	assert.True(t, running)
	assert.Equal(t, os.Getpid(), pid)

	require.NoError(t, pf.WritePID(deadPID))
	pid, running = pf.IsRunning()
	assert.Equal(t, deadPID, pid)
	assert.False(t, running)
}

func TestPIDFile_ProcessName(t *testing.T) {
	pf := newPIDFile(t)
	require.NoError(t, pf.Write())

	name, err := pf.ProcessName()
	require.NoError(t, err)
	assert.NotEmpty(t, name)
}

func TestPIDFile_Acquire(t *testing.T) {
	t.Run("fresh", func(t *testing.T) {
		pf := newPIDFile(t)
		require.NoError(t, pf.Acquire())

		pid, err := pf.Read()
		require.NoError(t, err)
		assert.Equal(t, os.Getpid(), pid)
	})

	t.Run("stale file replaced", func(t *testing.T) {
		pf := newPIDFile(t)
		require.NoError(t, pf.WritePID(deadPID))

		require.NoError(t, pf.Acquire())
		pid, _ := pf.Read()
		assert.Equal(t, os.Getpid(), pid)
	})

	t.Run("live owner", func(t *testing.T) {
		pf := newPIDFile(t)
		require.NoError(t, pf.WritePID(os.Getppid()))

		err := pf.Acquire()
		assert.ErrorIs(t, err, ErrAlreadyRunning)
	})
}

func TestPIDFile_Release(t *testing.T) {
	pf := newPIDFile(t)
	assert.NoError(t, pf.Release(), "missing file is fine")

	require.NoError(t, pf.WritePID(deadPID))
	require.NoError(t, pf.Release())
	_, err := os.Stat(pf.Path)
	assert.NoError(t, err, "file owned by another PID is kept")

	require.NoError(t, pf.Write())
	require.NoError(t, pf.Release())
	_, err = os.Stat(pf.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestPIDFile_Signal(t *testing.T) {
	pf := newPIDFile(t)

	err := pf.Signal(syscall.Signal(0))
	assert.ErrorContains(t, err, "read PID file")

	require.NoError(t, pf.Write())
	assert.NoError(t, pf.Signal(syscall.Signal(0)))
}
