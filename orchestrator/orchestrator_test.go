package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dp "github.com/wippyai/digest-playground"
	"github.com/wippyai/digest-playground/engine"
	"github.com/wippyai/digest-playground/gate"
	"github.com/wippyai/digest-playground/render"
	"github.com/wippyai/digest-playground/urlstate"
)

type call struct {
	sql     string
	version int
}

// scriptEngine answers like the real engine: statements starting with
// SELEKT fail, everything else echoes the statement as its digest text.
type scriptEngine struct {
	mu    sync.Mutex
	calls []call
}

func (e *scriptEngine) Compute(_ context.Context, sql string, version int) ([]byte, error) {
	e.mu.Lock()
	e.calls = append(e.calls, call{sql, version})
	e.mu.Unlock()

	if strings.HasPrefix(sql, "SELEKT") {
		return []byte(`{"error":"syntax error near SELEKT"}`), nil
	}
	hash := "abc123"
	if version != int(dp.DefaultVersion) {
		hash = fmt.Sprintf("abc123-v%d", version)
	}
	return []byte(fmt.Sprintf(`{"text":%q,"hash":%q}`, sql, hash)), nil
}

func (e *scriptEngine) Close(context.Context) error { return nil }

func (e *scriptEngine) snapshot() []call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]call(nil), e.calls...)
}

// recorder collects every rendered Display.
type recorder struct {
	mu       sync.Mutex
	displays []render.Display
	notify   chan render.Display
}

func newRecorder() *recorder {
	return &recorder{notify: make(chan render.Display, 64)}
}

func (r *recorder) Render(d render.Display) {
	r.mu.Lock()
	r.displays = append(r.displays, d)
	r.mu.Unlock()
	r.notify <- d
}

func (r *recorder) all() []render.Display {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]render.Display(nil), r.displays...)
}

// next waits for a display of the given kind, skipping others.
func (r *recorder) next(t *testing.T, kind render.Kind) render.Display {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case d := <-r.notify:
			if d.Kind == kind {
				return d
			}
		case <-deadline:
			require.FailNowf(t, "no display", "waited for %s", kind)
		}
	}
}

type harness struct {
	eng     *scriptEngine
	gate    *gate.Gate
	loc     *urlstate.Location
	rec     *recorder
	orch    *Orchestrator
	release chan struct{}
}

func newHarness(t *testing.T, address string, opts ...Option) *harness {
	t.Helper()
	loc, err := urlstate.ParseLocation(address)
	require.NoError(t, err)

	h := &harness{
		eng:     &scriptEngine{},
		loc:     loc,
		rec:     newRecorder(),
		release: make(chan struct{}),
	}
	h.gate = gate.New(func(ctx context.Context) (engine.Engine, error) {
		select {
		case <-h.release:
			return h.eng, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	h.orch = New(h.gate, loc, h.rec, append([]Option{WithDebounce(20 * time.Millisecond)}, opts...)...)
	t.Cleanup(func() {
		h.orch.Close()
		_ = h.gate.Close(context.Background())
	})
	return h
}

// ready starts the orchestrator, releases the engine and waits for the
// post-load recompute.
func (h *harness) ready(t *testing.T) {
	t.Helper()
	f := h.orch.Start(context.Background())
	close(h.release)
	require.NoError(t, f.Wait(context.Background()))
}

func TestScenario_Success(t *testing.T) {
	h := newHarness(t, "https://example.test/")
	h.ready(t)
	h.rec.next(t, render.KindBlank)

	h.orch.SetSQL("SELECT * FROM t")
	d := h.rec.next(t, render.KindSuccess)

	assert.Equal(t, render.Success("SELECT * FROM t", "abc123"), d)
	regions := render.Map(d)
	assert.True(t, regions.Result)
	assert.False(t, regions.Error)
	assert.Equal(t, "https://example.test/?query=SELECT+%2A+FROM+t", h.orch.ShareLink())
}

func TestScenario_EngineError(t *testing.T) {
	h := newHarness(t, "")
	h.ready(t)
	h.rec.next(t, render.KindBlank)

	h.orch.SetSQL("SELEKT 1")
	d := h.rec.next(t, render.KindError)

	assert.Equal(t, "syntax error near SELEKT", d.Message)
	regions := render.Map(d)
	assert.True(t, regions.Error)
	assert.False(t, regions.Result)
}

func TestScenario_SeededFromAddress(t *testing.T) {
	h := newHarness(t, "https://example.test/?query=SELECT+1&version=1")

	f := h.orch.Start(context.Background())
	// Seeded before any recompute has run.
	assert.Equal(t, dp.FormState{SQL: "SELECT 1", Version: dp.VersionMySQL84}, h.orch.Form())
	assert.Empty(t, h.eng.snapshot())

	close(h.release)
	require.NoError(t, f.Wait(context.Background()))
	d := h.rec.next(t, render.KindSuccess)

	assert.Equal(t, "SELECT 1", d.Text)
	assert.Equal(t, []call{{"SELECT 1", 1}}, h.eng.snapshot())
	assert.Equal(t, "https://example.test/?query=SELECT+1&version=1", h.orch.ShareLink())
}

func TestScenario_InvalidVersionFallsBack(t *testing.T) {
	h := newHarness(t, "?version=9")
	h.orch.Start(context.Background())

	assert.Equal(t, dp.DefaultVersion, h.orch.Form().Version)
}

func TestStart_ShowsLoadingUntilReady(t *testing.T) {
	h := newHarness(t, "?query=SELECT+1")
	h.orch.Start(context.Background())

	d := h.rec.next(t, render.KindLoading)
	assert.Equal(t, render.Loading(), d)
	assert.Equal(t, render.Loading(), h.orch.Display())

	// Edits before the engine is ready do not reach it.
	h.orch.SetSQL("SELECT 2")
	h.orch.Recompute()
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, h.eng.snapshot())

	close(h.release)
	d = h.rec.next(t, render.KindSuccess)
	assert.Equal(t, "SELECT 2", d.Text, "post-load recompute uses the form at that moment")
}

func TestStart_LoadFailure(t *testing.T) {
	loc, err := urlstate.ParseLocation("")
	require.NoError(t, err)
	rec := newRecorder()
	boom := errors.New("digest.wasm: no such file")
	g := gate.New(func(context.Context) (engine.Engine, error) { return nil, boom })
	o := New(g, loc, rec)
	defer o.Close()

	o.Start(context.Background())
	d := rec.next(t, render.KindLoadFailed)
	assert.Contains(t, d.Message, "no such file")

	o.SetVersion(dp.VersionMySQL80)
	o.Recompute()
	assert.Equal(t, render.KindLoadFailed, o.Display().Kind, "stays inert after a failed load")
}

func TestRecompute_BlankSkipsEngine(t *testing.T) {
	h := newHarness(t, "?query=SELECT+1")
	h.ready(t)
	h.rec.next(t, render.KindSuccess)
	before := len(h.eng.snapshot())

	h.orch.SetSQL("   \n\t ")
	d := h.rec.next(t, render.KindBlank)

	assert.Equal(t, render.Blank(), d)
	assert.Len(t, h.eng.snapshot(), before)
	assert.Equal(t, "", h.loc.Query(), "blank statement is dropped from the address")
}

func TestRecompute_Idempotent(t *testing.T) {
	var links []string
	h := newHarness(t, "?query=SELECT+1&version=3", WithAddressListener(func(link string) {
		links = append(links, link)
	}))
	h.ready(t)
	first := h.rec.next(t, render.KindSuccess)
	address := h.orch.ShareLink()

	h.orch.Recompute()
	second := h.rec.next(t, render.KindSuccess)

	assert.Equal(t, first, second)
	assert.Equal(t, address, h.orch.ShareLink())
	assert.Empty(t, links, "address already matched the form")
}

func TestSetSQL_DebounceCoalesces(t *testing.T) {
	h := newHarness(t, "")
	h.ready(t)
	h.rec.next(t, render.KindBlank)

	for _, s := range []string{"S", "SE", "SEL", "SELECT", "SELECT 4", "SELECT 42"} {
		h.orch.SetSQL(s)
	}
	assert.True(t, h.orch.Pending())

	d := h.rec.next(t, render.KindSuccess)
	assert.Equal(t, "SELECT 42", d.Text)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, []call{{"SELECT 42", 2}}, h.eng.snapshot())
}

func TestSetVersion_Immediate(t *testing.T) {
	h := newHarness(t, "", WithDebounce(time.Hour))
	h.ready(t)
	h.rec.next(t, render.KindBlank)

	h.orch.SetSQL("SELECT 1")
	h.orch.SetVersion(dp.VersionMySQL80)
	d := h.rec.next(t, render.KindSuccess)

	assert.Equal(t, "abc123-v0", d.Hash)
	assert.False(t, h.orch.Pending(), "version change supersedes the pending text run")
	assert.Equal(t, "?query=SELECT+1&version=0", h.orch.ShareLink())

	h.orch.SetVersion(dp.Version(7))
	d = h.rec.next(t, render.KindSuccess)
	assert.Equal(t, "abc123", d.Hash)
	assert.Equal(t, "?query=SELECT+1", h.orch.ShareLink())
}

func TestClose_CancelsPending(t *testing.T) {
	h := newHarness(t, "")
	h.ready(t)
	h.rec.next(t, render.KindBlank)

	h.orch.SetSQL("SELECT 1")
	h.orch.Close()
	time.Sleep(60 * time.Millisecond)

	assert.Empty(t, h.eng.snapshot())
	assert.Len(t, h.rec.all(), 2)
}

func TestRecompute_AfterGateClosed(t *testing.T) {
	h := newHarness(t, "")
	h.ready(t)
	h.rec.next(t, render.KindBlank)

	h.orch.SetSQL("SELECT 1")
	h.rec.next(t, render.KindSuccess)
	rendered := len(h.rec.all())

	require.NoError(t, h.gate.Close(context.Background()))
	h.orch.Recompute()

	assert.Len(t, h.rec.all(), rendered, "recompute on a closed engine renders nothing")
	assert.Equal(t, render.KindSuccess, h.orch.Display().Kind)
	assert.Len(t, h.eng.snapshot(), 1)
}

type countingInvoker struct{ n int }

func (c *countingInvoker) Invoke(context.Context, string, dp.Version) engine.Outcome {
	c.n++
	return engine.Success("SELECT ?", "h")
}

func TestEvaluate(t *testing.T) {
	inv := &countingInvoker{}

	assert.Equal(t, render.Blank(), Evaluate(context.Background(), inv, dp.FormState{SQL: "  "}))
	assert.Equal(t, 0, inv.n)

	d := Evaluate(context.Background(), inv, dp.FormState{SQL: " SELECT 1 ", Version: dp.DefaultVersion})
	assert.Equal(t, render.Success("SELECT ?", "h"), d)
	assert.Equal(t, 1, inv.n)
}
