package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/joescharf/focuswin/internal/api"
	"github.com/joescharf/focuswin/internal/daemon"
	"github.com/joescharf/focuswin/internal/focus"
	"github.com/joescharf/focuswin/internal/rules"
	webui "github.com/joescharf/focuswin/internal/ui"
)

const shutdownTimeout = 5 * time.Second

var (
	serveAppName     string
	serveWindowTitle string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Track focus and serve the dashboard",
	Long: `Run the focus tracker in the foreground and serve the dashboard and API.

The active window is checked every tick_interval. Use --window-title (and
optionally --app-name) to score a fixed window instead, for demos.

Use 'focuswin serve start' to run in the background.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveRun(cmd.Context())
	},
}

var serveStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the tracker in the background",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStartRun()
	},
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background tracker",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStopRun()
	},
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the background tracker is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStatusRun()
	},
}

func init() {
	serveCmd.PersistentFlags().IntP("port", "p", 8765, "Port to listen on")
	_ = viper.BindPFlag("port", serveCmd.PersistentFlags().Lookup("port"))
	serveCmd.Flags().StringVar(&serveAppName, "app-name", "", "Score a fixed app name instead of the active window")
	serveCmd.Flags().StringVar(&serveWindowTitle, "window-title", "", "Score a fixed window title instead of the active window")

	serveCmd.AddCommand(serveStartCmd)
	serveCmd.AddCommand(serveStopCmd)
	serveCmd.AddCommand(serveStatusCmd)
	rootCmd.AddCommand(serveCmd)
}

func pidFile() *daemon.PIDFile {
	return daemon.NewPIDFile(filepath.Join(viper.GetString("state_dir"), "focuswin-serve.pid"))
}

func serveLogPath() string {
	return filepath.Join(viper.GetString("state_dir"), "focuswin-serve.log")
}

func serveAddr() string {
	return fmt.Sprintf("127.0.0.1:%d", viper.GetInt("port"))
}

func serveRun(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := getStore()
	if err != nil {
		return err
	}

	pf := pidFile()
	if err := pf.Acquire(); err != nil {
		return err
	}
	defer func() { _ = pf.Release() }()

	logger := stderrLogger()

	var classifier focus.Classifier
	if async := newClassifier(logger); async != nil {
		classifier = async
		defer async.Close()
		logger.Info("secondary classifier enabled", "model", viper.GetString("anthropic.model"))
	}

	deps, err := buildTracker(s, newProvider(serveAppName, serveWindowTitle), classifier, logger)
	if err != nil {
		return err
	}
	tr := deps.tracker
	if err := tr.Load(ctx); err != nil {
		return fmt.Errorf("load game state: %w", err)
	}
	watchRules(tr, logger)

	dashboard, err := webui.Handler()
	if err != nil {
		return fmt.Errorf("failed to initialize UI handler: %w", err)
	}
	apiServer := api.NewServer(tr, s, deps.hub, deps.metrics.Handler())
	httpServer := &http.Server{
		Addr:              serveAddr(),
		Handler:           apiServer.Router(dashboard),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, shutdownSignals()...)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return tr.Run(gctx)
	})
	g.Go(func() error {
		ui.Success("Dashboard at http://%s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	// A session still running at shutdown is closed so it lands in history.
	if tr.Snapshot().SessionActive {
		if sum, stopErr := tr.StopSession(context.Background()); stopErr == nil {
			logger.Info("session closed on shutdown", "duration_seconds", sum.DurationSeconds, "xp_earned", sum.XPEarned)
		}
	}
	logger.Info("tracker stopped")
	return err
}

// rulesSetter receives reloaded keyword rules.
type rulesSetter interface {
	SetRules(*rules.Engine)
}

// watchRules hot-swaps keyword rules when the config file changes.
func watchRules(tr rulesSetter, logger *slog.Logger) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		reloadRules(tr, logger, e)
	})
	viper.WatchConfig()
}

func reloadRules(tr rulesSetter, logger *slog.Logger, e fsnotify.Event) {
	engine, err := loadRules()
	if err != nil {
		logger.Warn("config reload failed, keeping current rules", "file", e.Name, "error", err)
		return
	}
	tr.SetRules(engine)
	logger.Info("rules reloaded", "file", e.Name, "op", e.Op.String())
}

func serveStartRun() error {
	pf := pidFile()
	if pid, running := pf.IsRunning(); running {
		return fmt.Errorf("server already running (PID %d)", pid)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("find executable: %w", err)
	}

	logPath := serveLogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	args := []string{"serve", "--port", strconv.Itoa(viper.GetInt("port"))}
	if cfg := viper.ConfigFileUsed(); cfg != "" {
		args = append(args, "--config", cfg)
	}

	if dryRun {
		ui.DryRunMsg("Would run %s %v", exe, args)
		return nil
	}

	child := exec.Command(exe, args...)
	child.Stdout = logFile
	child.Stderr = logFile
	setDaemonAttrs(child)
	if err := child.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	pid := child.Process.Pid
	_ = child.Process.Release()

	ui.Success("Server started (PID %d) at http://%s", pid, serveAddr())
	ui.Info("Logs: %s", logPath)
	return nil
}

func serveStopRun() error {
	pf := pidFile()
	pid, running := pf.IsRunning()
	if !running {
		return fmt.Errorf("server is not running")
	}

	if dryRun {
		ui.DryRunMsg("Would stop server (PID %d)", pid)
		return nil
	}

	if err := pf.Signal(sigTERM()); err != nil {
		return fmt.Errorf("signal server: %w", err)
	}
	deadline := time.Now().Add(shutdownTimeout)
	for time.Now().Before(deadline) {
		if _, alive := pf.IsRunning(); !alive {
			ui.Success("Server stopped (PID %d)", pid)
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	ui.Warning("Server did not exit in %s, killing", shutdownTimeout)
	if err := pf.Signal(sigKILL()); err != nil {
		return fmt.Errorf("kill server: %w", err)
	}
	_ = pf.Remove()
	ui.Success("Server killed (PID %d)", pid)
	return nil
}

func serveStatusRun() error {
	pf := pidFile()
	pid, running := pf.IsRunning()
	if !running {
		if pid != 0 {
			ui.Warning("Server not running (stale PID file for %d)", pid)
			return nil
		}
		ui.Info("Server not running")
		return nil
	}

	name, _ := pf.ProcessName()
	ui.Success("Server running (PID %d, %s)", pid, name)
	ui.Info("Dashboard: http://%s", serveAddr())
	ui.Info("Logs: %s", serveLogPath())
	return nil
}
