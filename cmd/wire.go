package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/joescharf/focuswin/internal/camera"
	"github.com/joescharf/focuswin/internal/focus"
	"github.com/joescharf/focuswin/internal/game"
	"github.com/joescharf/focuswin/internal/metrics"
	"github.com/joescharf/focuswin/internal/rules"
	"github.com/joescharf/focuswin/internal/store"
	"github.com/joescharf/focuswin/internal/tracker"
	"github.com/joescharf/focuswin/internal/voice"
	"github.com/joescharf/focuswin/internal/window"
)

// newLogger builds the slog logger for long-running commands.
func newLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log.level"))); err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadRules builds a rule engine from the configured keyword lists. Lists
// left empty fall back to the built-in defaults.
func loadRules() (*rules.Engine, error) {
	var kw rules.Keywords
	if err := viper.UnmarshalKey("rules", &kw); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	return rules.NewEngine(kw.Merge(rules.DefaultKeywords())), nil
}

// newProvider picks the window provider. A fixed title or app name from the
// flags selects the static demo provider.
func newProvider(appName, windowTitle string) window.Provider {
	if appName != "" || windowTitle != "" {
		if appName == "" {
			appName = "Demo"
		}
		return &window.Static{AppName: appName, WindowTitle: windowTitle}
	}
	return window.NewProvider(runtime.GOOS)
}

// newCoach returns the voice coach, or nil when voice is off.
func newCoach(logger *slog.Logger) *voice.Coach {
	if !viper.GetBool("voice.enabled") {
		return nil
	}
	fields := strings.Fields(viper.GetString("voice.command"))
	if len(fields) == 0 {
		fields = []string{voice.DefaultCommand(runtime.GOOS)}
	}
	speaker := &voice.CommandSpeaker{Command: fields[0], Args: fields[1:]}
	return voice.NewCoach(speaker,
		voice.WithCooldown(viper.GetDuration("voice.cooldown")),
		voice.WithLogger(logger),
	)
}

// trackerDeps is everything the serve command assembles around the tracker.
type trackerDeps struct {
	tracker *tracker.Tracker
	hub     *camera.Hub
	metrics *metrics.Metrics
}

// buildTracker assembles the tracker from config. classifier may be nil.
func buildTracker(s store.Store, provider window.Provider, classifier focus.Classifier, logger *slog.Logger) (*trackerDeps, error) {
	engine, err := loadRules()
	if err != nil {
		return nil, err
	}

	detOpts := []focus.Option{focus.WithGracePeriod(viper.GetDuration("grace_period"))}
	if classifier != nil {
		detOpts = append(detOpts, focus.WithClassifier(classifier))
	}
	detector := focus.NewDetector(engine, detOpts...)

	rates := game.Rates{
		Regen:   viper.GetFloat64("game.regen_rate"),
		Penalty: viper.GetFloat64("game.distraction_penalty"),
	}
	hub := camera.NewHub(viper.GetBool("camera.enabled"), viper.GetDuration("camera.max_age"))
	m := metrics.New()

	opts := []tracker.Option{
		tracker.WithStore(s),
		tracker.WithMetrics(m),
		tracker.WithLogger(logger),
		tracker.WithDenylist(window.NewDenylist(viper.GetStringSlice("window.ignore_apps"))),
		tracker.WithTickInterval(viper.GetDuration("tick_interval")),
		tracker.WithPostureInterval(viper.GetDuration("posture.warning_interval")),
		tracker.WithBreakInterval(viper.GetDuration("breaks.interval")),
	}
	if coach := newCoach(logger); coach != nil {
		opts = append(opts, tracker.WithCoach(coach))
	}

	tr := tracker.New(provider, detector, game.NewEngine(rates, nil), hub, opts...)
	return &trackerDeps{tracker: tr, hub: hub, metrics: m}, nil
}

// stderrLogger is the default logger for foreground commands.
func stderrLogger() *slog.Logger {
	return newLogger(os.Stderr)
}
