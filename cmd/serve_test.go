package cmd

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/focuswin/internal/daemon"
	"github.com/joescharf/focuswin/internal/models"
	"github.com/joescharf/focuswin/internal/rules"
)

func TestPidFile_Path(t *testing.T) {
	dir := testEnv(t)
	assert.Equal(t, filepath.Join(dir, "focuswin-serve.pid"), pidFile().Path)
}

func TestServeLogPath(t *testing.T) {
	dir := testEnv(t)
	assert.Equal(t, filepath.Join(dir, "focuswin-serve.log"), serveLogPath())
}

func TestServeAddr(t *testing.T) {
	testEnv(t)
	assert.Equal(t, "127.0.0.1:8765", serveAddr())

	viper.Set("port", 9000)
	assert.Equal(t, "127.0.0.1:9000", serveAddr())
}

func TestServeStatusRun_NotRunning(t *testing.T) {
	testEnv(t)
	assert.NoError(t, serveStatusRun())
}

func TestServeStatusRun_Running(t *testing.T) {
	dir := testEnv(t)
	out := &bytes.Buffer{}
	ui.Out = out

	pf := daemon.NewPIDFile(filepath.Join(dir, "focuswin-serve.pid"))
	require.NoError(t, pf.Write())

	require.NoError(t, serveStatusRun())
	assert.Contains(t, out.String(), "Server running")
}

func TestServeStopRun_NotRunning(t *testing.T) {
	testEnv(t)

	err := serveStopRun()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not running")
}

func TestServeStartRun_AlreadyRunning(t *testing.T) {
	dir := testEnv(t)

	pf := daemon.NewPIDFile(filepath.Join(dir, "focuswin-serve.pid"))
	require.NoError(t, pf.Write())
	t.Cleanup(func() { _ = os.Remove(pf.Path) })

	err := serveStartRun()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestServeStartRun_DryRun(t *testing.T) {
	testEnv(t)
	dryRun = true
	ui.DryRun = true
	t.Cleanup(func() { dryRun = false })

	errOut := &bytes.Buffer{}
	ui.ErrOut = errOut

	require.NoError(t, serveStartRun())
	assert.Contains(t, errOut.String(), "[DRY-RUN]")
	_, running := pidFile().IsRunning()
	assert.False(t, running)
}

type fakeRulesSetter struct {
	engine *rules.Engine
}

func (f *fakeRulesSetter) SetRules(e *rules.Engine) { f.engine = e }

func TestReloadRules(t *testing.T) {
	testEnv(t)
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))

	viper.Set("rules.distraction", []string{"wikipedia"})

	f := &fakeRulesSetter{}
	reloadRules(f, logger, fsnotify.Event{Name: "config.yaml", Op: fsnotify.Write})
	require.NotNil(t, f.engine)

	v := f.engine.Classify("Firefox", "Wikipedia - Otters")
	assert.Equal(t, models.FocusStateDistracted, v.State)

	// Unset lists keep their defaults.
	v = f.engine.Classify("Code", "main.go")
	assert.Equal(t, models.FocusStateFocused, v.State)

	assert.Contains(t, logs.String(), "rules reloaded")
}

func TestBuildTracker(t *testing.T) {
	testEnv(t)
	viper.Set("camera.enabled", true)

	s, err := getStore()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps, err := buildTracker(s, newProvider("", "Calculus - Derivatives"), nil, logger)
	require.NoError(t, err)

	assert.True(t, deps.hub.Enabled())
	require.NotNil(t, deps.metrics)

	deps.tracker.Tick(cmdContext())
	snap := deps.tracker.Snapshot()
	assert.Equal(t, "Demo", snap.AppName)
	assert.Equal(t, models.FocusStateFocused, snap.FocusState)
	assert.Equal(t, "Starting camera...", snap.CameraMessage)
}

func TestNewCoach(t *testing.T) {
	testEnv(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	assert.Nil(t, newCoach(logger))

	viper.Set("voice.enabled", true)
	viper.Set("voice.command", "   ")
	assert.NotNil(t, newCoach(logger))
}
