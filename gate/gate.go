// Package gate owns the one-time asynchronous load of the digest engine and
// refuses to invoke it before the load has completed.
package gate

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	dp "github.com/wippyai/digest-playground"
	"github.com/wippyai/digest-playground/engine"
	"github.com/wippyai/digest-playground/errors"
)

// Readiness is the engine lifecycle. It only moves forward:
// NotLoaded -> Loading -> Ready, or Loading -> Failed. Close moves any state
// to Closed.
type Readiness int32

const (
	NotLoaded Readiness = iota
	Loading
	Ready
	Failed
	Closed
)

func (r Readiness) String() string {
	switch r {
	case NotLoaded:
		return "not_loaded"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Future resolves exactly once, when the load finishes.
type Future struct {
	done chan struct{}
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(err error) {
	f.err = err
	close(f.done)
}

// Done is closed when the load has finished, successfully or not.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the load finishes or ctx is done.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the load error once Done is closed, nil before.
func (f *Future) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}

// Gate manages the engine lifecycle. It is safe for concurrent use.
type Gate struct {
	loader engine.Loader
	logger *zap.Logger
	eng    engine.Engine
	future *Future
	state  Readiness
	closed bool
	mu     sync.Mutex
	callMu sync.Mutex
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// New returns a gate that will acquire its engine through loader.
func New(loader engine.Loader, opts ...Option) *Gate {
	g := &Gate{
		loader: loader,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Readiness returns the current lifecycle state.
func (g *Gate) Readiness() Readiness {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Ready reports whether Invoke will reach the engine.
func (g *Gate) Ready() bool {
	return g.Readiness() == Ready
}

// Load starts the engine load on its own goroutine the first time it is
// called. Every call returns the same Future.
func (g *Gate) Load(ctx context.Context) *Future {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.future != nil {
		return g.future
	}
	g.future = newFuture()
	g.state = Loading

	if g.closed {
		g.state = Closed
		g.future.resolve(errors.New(errors.PhaseLoad, errors.KindLoadFailed).Detail("gate closed").Build())
		return g.future
	}

	go g.load(ctx, g.future)
	return g.future
}

func (g *Gate) load(ctx context.Context, f *Future) {
	start := time.Now()
	eng, err := g.loader(ctx)

	g.mu.Lock()
	switch {
	case g.closed:
		// Closed while loading: the engine is never handed out.
		if err == nil {
			_ = eng.Close(ctx)
			err = errors.New(errors.PhaseLoad, errors.KindLoadFailed).Detail("gate closed during load").Build()
		}
	case err != nil:
		g.state = Failed
	default:
		g.eng = eng
		g.state = Ready
	}
	g.mu.Unlock()

	if err != nil {
		g.logger.Error("engine load failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
	} else {
		g.logger.Info("engine ready", zap.Duration("elapsed", time.Since(start)))
	}
	f.resolve(err)
}

// Invoke runs the engine on a trimmed statement. Before the gate is Ready it
// returns a MessageNotReady failure without touching the engine. Engine
// errors and malformed payloads come back as failures; Invoke never panics
// or returns an error.
func (g *Gate) Invoke(ctx context.Context, sql string, version dp.Version) engine.Outcome {
	g.mu.Lock()
	eng, state := g.eng, g.state
	g.mu.Unlock()

	if state != Ready || eng == nil {
		g.logger.Debug("invoke rejected", zap.Error(errors.NotReady()), zap.Stringer("readiness", state))
		return engine.Failure(engine.MessageNotReady)
	}

	g.callMu.Lock()
	defer g.callMu.Unlock()

	start := time.Now()
	payload, err := eng.Compute(ctx, sql, int(version))
	if err != nil {
		g.logger.Warn("engine call failed", zap.Error(err), zap.Int("version", int(version)))
		return engine.Failure(err.Error())
	}

	out, err := engine.ParseOutcome(payload)
	if err != nil {
		g.logger.Warn("malformed engine payload", zap.Error(err), zap.Int("bytes", len(payload)))
		out = engine.Failure(engine.MessageMalformed)
	}
	g.logger.Debug("engine call",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("version", int(version)),
		zap.Bool("failed", out.Failed))
	return out
}

// Close releases the engine and moves the gate to Closed. A load still in
// flight is discarded when it completes.
func (g *Gate) Close(ctx context.Context) error {
	g.mu.Lock()
	eng := g.eng
	g.eng = nil
	g.closed = true
	g.state = Closed
	g.mu.Unlock()

	if eng == nil {
		return nil
	}
	g.callMu.Lock()
	defer g.callMu.Unlock()
	return eng.Close(ctx)
}
