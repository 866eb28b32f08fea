package llm

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joescharf/focuswin/internal/models"
)

// Predictor is a blocking classifier.
type Predictor interface {
	Predict(ctx context.Context, text string) (models.FocusState, float64, error)
}

const (
	defaultTimeout    = 10 * time.Second
	defaultRetryAfter = 30 * time.Second
	defaultMaxEntries = 1024
)

type entry struct {
	pending  bool
	state    models.FocusState
	conf     float64
	err      error
	failedAt time.Time
}

// AsyncClassifier makes a blocking Predictor safe to call from the tick.
// The first request for a text returns unknown and resolves in the
// background; later requests read the cached result. Failures are cached
// for a retry interval so a broken API is not called every tick.
type AsyncClassifier struct {
	inner      Predictor
	timeout    time.Duration
	retryAfter time.Duration
	maxEntries int
	now        func() time.Time
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	cache map[string]*entry
}

// NewAsyncClassifier wraps inner. A timeout <= 0 uses 10s.
func NewAsyncClassifier(inner Predictor, timeout time.Duration, logger *slog.Logger) *AsyncClassifier {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &AsyncClassifier{
		inner:      inner,
		timeout:    timeout,
		retryAfter: defaultRetryAfter,
		maxEntries: defaultMaxEntries,
		now:        time.Now,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		cache:      make(map[string]*entry),
	}
}

// Predict never blocks on the inner classifier.
func (a *AsyncClassifier) Predict(_ context.Context, text string) (models.FocusState, float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if e, ok := a.cache[text]; ok {
		switch {
		case e.pending:
			return models.FocusStateUnknown, 0, nil
		case e.err == nil:
			return e.state, e.conf, nil
		case a.now().Sub(e.failedAt) < a.retryAfter:
			return models.FocusStateUnknown, 0, e.err
		}
	}

	if a.ctx.Err() != nil {
		return models.FocusStateUnknown, 0, a.ctx.Err()
	}
	if len(a.cache) >= a.maxEntries {
		clear(a.cache)
	}
	a.cache[text] = &entry{pending: true}
	a.wg.Add(1)
	go a.resolve(text)
	return models.FocusStateUnknown, 0, nil
}

func (a *AsyncClassifier) resolve(text string) {
	defer a.wg.Done()

	ctx, cancel := context.WithTimeout(a.ctx, a.timeout)
	defer cancel()
	state, conf, err := a.inner.Predict(ctx, text)

	a.mu.Lock()
	defer a.mu.Unlock()
	e := &entry{state: state, conf: conf, err: err}
	if err != nil {
		e.failedAt = a.now()
		a.logger.Warn("classifier request failed", "error", err)
	}
	a.cache[text] = e
}

// Close cancels in-flight requests and waits for them to finish.
func (a *AsyncClassifier) Close() {
	a.cancel()
	a.wg.Wait()
}

// Wait blocks until all in-flight requests have resolved.
func (a *AsyncClassifier) Wait() {
	a.wg.Wait()
}
