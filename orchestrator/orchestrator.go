// Package orchestrator coordinates one recompute cycle: keep the shareable
// URL in sync with the form, call the engine once it is ready and hand the
// outcome to a renderer.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	dp "github.com/wippyai/digest-playground"
	"github.com/wippyai/digest-playground/debounce"
	"github.com/wippyai/digest-playground/engine"
	"github.com/wippyai/digest-playground/gate"
	"github.com/wippyai/digest-playground/render"
	"github.com/wippyai/digest-playground/urlstate"
)

// DefaultDebounce is the pause in typing after which a recompute runs.
const DefaultDebounce = 150 * time.Millisecond

// Invoker is the part of the gate a recompute needs.
type Invoker interface {
	Invoke(ctx context.Context, sql string, version dp.Version) engine.Outcome
}

// Evaluate derives the display for form: a blank statement never reaches
// the engine.
func Evaluate(ctx context.Context, inv Invoker, form dp.FormState) render.Display {
	sql := form.Trimmed()
	if sql == "" {
		return render.Blank()
	}
	return render.FromOutcome(inv.Invoke(ctx, sql, form.Version))
}

// Orchestrator is the single context object for the interactive session.
// Recomputes are serialized by runMu; stateMu guards the form, the location
// and the last display so accessors never wait for an engine call.
//
// Renderers and address listeners are called with runMu held and must not
// call back into the Orchestrator's mutating methods.
type Orchestrator struct {
	gate      *gate.Gate
	location  *urlstate.Location
	renderer  render.Renderer
	onAddress func(link string)
	logger    *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	scheduler debounce.Scheduler
	form      dp.FormState
	display   render.Display
	delay     time.Duration
	runMu     sync.Mutex
	stateMu   sync.Mutex
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDebounce sets the typing pause before a recompute.
func WithDebounce(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithAddressListener is called with the full shareable link whenever a
// recompute changes it.
func WithAddressListener(fn func(link string)) Option {
	return func(o *Orchestrator) {
		o.onAddress = fn
	}
}

// WithForm seeds the form before the location is decoded on Start.
func WithForm(form dp.FormState) Option {
	return func(o *Orchestrator) {
		o.form = form
	}
}

// New returns an orchestrator over g. loc is the visible address; its
// current query seeds the form on Start.
func New(g *gate.Gate, loc *urlstate.Location, r render.Renderer, opts ...Option) *Orchestrator {
	if loc == nil {
		loc, _ = urlstate.ParseLocation("")
	}
	o := &Orchestrator{
		gate:     g,
		location: loc,
		renderer: r,
		logger:   zap.NewNop(),
		form:     dp.NewFormState(),
		display:  render.Loading(),
		delay:    DefaultDebounce,
		ctx:      context.Background(),
		cancel:   func() {},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start decodes the location into the form, shows the loading state and
// begins the engine load. Once the engine is ready one recompute runs with
// whatever form exists at that moment. If the load fails the load error is
// rendered and the orchestrator stays inert.
func (o *Orchestrator) Start(ctx context.Context) *gate.Future {
	ctx, cancel := context.WithCancel(ctx)

	o.stateMu.Lock()
	o.ctx, o.cancel = ctx, cancel
	o.form = urlstate.Decode(o.location.Query(), o.form)
	form := o.form
	o.stateMu.Unlock()

	o.logger.Debug("form seeded from location",
		zap.Int("sql_bytes", len(form.SQL)),
		zap.Stringer("version", form.Version))

	if !o.gate.Ready() {
		o.publish(render.Loading())
	}

	f := o.gate.Load(ctx)
	go func() {
		select {
		case <-f.Done():
		case <-ctx.Done():
			return
		}
		if err := f.Err(); err != nil {
			o.runMu.Lock()
			o.publish(render.LoadFailed(err))
			o.runMu.Unlock()
			return
		}
		o.Recompute()
	}()
	return f
}

// SetSQL stores the statement and schedules a debounced recompute.
func (o *Orchestrator) SetSQL(sql string) {
	o.stateMu.Lock()
	o.form.SQL = sql
	o.stateMu.Unlock()

	o.scheduler.Schedule(o.Recompute, o.delay)
}

// SetVersion stores the version and recomputes without waiting for the
// debounce delay. Any pending debounced recompute is superseded; the
// immediate one reads the latest statement anyway.
func (o *Orchestrator) SetVersion(v dp.Version) {
	if !v.Valid() {
		v = dp.DefaultVersion
	}
	o.stateMu.Lock()
	o.form.Version = v
	o.stateMu.Unlock()

	o.scheduler.Schedule(o.Recompute, 0)
}

// Recompute runs one cycle synchronously. It is a no-op until the engine is
// ready. Running it twice on an unchanged form yields the same display and
// leaves the address untouched.
func (o *Orchestrator) Recompute() {
	o.runMu.Lock()
	defer o.runMu.Unlock()

	if !o.gate.Ready() {
		return
	}

	o.stateMu.Lock()
	form := o.form
	ctx := o.ctx
	query := urlstate.Encode(form)
	changed := o.location.Query() != query
	o.location.Replace(query)
	link := o.location.String()
	o.stateMu.Unlock()

	if changed && o.onAddress != nil {
		o.onAddress(link)
	}

	start := time.Now()
	d := Evaluate(ctx, o.gate, form)
	o.logger.Debug("recompute",
		zap.Stringer("display", d.Kind),
		zap.Stringer("version", form.Version),
		zap.Duration("elapsed", time.Since(start)))

	o.publish(d)
}

func (o *Orchestrator) publish(d render.Display) {
	o.stateMu.Lock()
	o.display = d
	o.stateMu.Unlock()

	if o.renderer != nil {
		o.renderer.Render(d)
	}
}

// Form returns the current form.
func (o *Orchestrator) Form() dp.FormState {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	return o.form
}

// Display returns the last published display.
func (o *Orchestrator) Display() render.Display {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	return o.display
}

// ShareLink returns the current full shareable link.
func (o *Orchestrator) ShareLink() string {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	return o.location.String()
}

// Pending reports whether a debounced recompute is armed.
func (o *Orchestrator) Pending() bool {
	return o.scheduler.Pending()
}

// Close cancels any pending recompute and stops waiting for the engine.
// The gate is owned by the caller.
func (o *Orchestrator) Close() {
	o.scheduler.Cancel()
	o.stateMu.Lock()
	cancel := o.cancel
	o.stateMu.Unlock()
	cancel()
}
