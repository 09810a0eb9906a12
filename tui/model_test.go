package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dp "github.com/wippyai/digest-playground"
	"github.com/wippyai/digest-playground/clipboard"
	"github.com/wippyai/digest-playground/engine"
	"github.com/wippyai/digest-playground/gate"
	"github.com/wippyai/digest-playground/orchestrator"
	"github.com/wippyai/digest-playground/render"
	"github.com/wippyai/digest-playground/urlstate"
)

type echoEngine struct{}

func (echoEngine) Compute(_ context.Context, sql string, _ int) ([]byte, error) {
	return []byte(`{"text":"` + sql + `","hash":"abc123"}`), nil
}

func (echoEngine) Close(context.Context) error { return nil }

type fakeClip struct {
	mu     sync.Mutex
	values []string
	method clipboard.Method
}

func (c *fakeClip) Copy(v string) clipboard.Method {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = append(c.values, v)
	return c.method
}

func newModel(t *testing.T, address string) (*Model, *orchestrator.Orchestrator, *fakeClip) {
	t.Helper()
	loc, err := urlstate.ParseLocation(address)
	require.NoError(t, err)

	g := gate.New(func(context.Context) (engine.Engine, error) { return echoEngine{}, nil })
	box := NewMailbox(loc.String())
	orch := orchestrator.New(g, loc, box,
		orchestrator.WithDebounce(time.Hour),
		orchestrator.WithAddressListener(box.SetLink))
	t.Cleanup(func() {
		box.Close()
		orch.Close()
		_ = g.Close(context.Background())
	})

	require.NoError(t, orch.Start(context.Background()).Wait(context.Background()))
	clip := &fakeClip{method: clipboard.MethodSystem}
	return New(orch, box, clip), orch, clip
}

// drain feeds frames into the model until one of the wanted kind arrives.
func drain(t *testing.T, m *Model, kind render.Kind) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		msg := m.box.Next()()
		f, ok := msg.(frameMsg)
		require.True(t, ok)
		m.Update(f)
		if f.Display.Kind == kind {
			return
		}
	}
	require.FailNowf(t, "no frame", "waited for %s", kind)
}

func TestNew_SeedsFromAddress(t *testing.T) {
	m, _, _ := newModel(t, "https://example.test/?query=SELECT+1&version=0")

	assert.Equal(t, "SELECT 1", m.input.Value())
	assert.Equal(t, dp.VersionMySQL80, m.version)
	assert.Contains(t, m.View(), "MySQL 8.0")
}

func TestUpdate_TypingUpdatesForm(t *testing.T) {
	m, orch, _ := newModel(t, "")

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("SELECT 1")})

	assert.Equal(t, "SELECT 1", m.input.Value())
	assert.Equal(t, "SELECT 1", orch.Form().SQL)
	assert.True(t, orch.Pending(), "text changes are debounced")
}

func TestUpdate_VersionCycle(t *testing.T) {
	m, orch, _ := newModel(t, "?query=SELECT+1")
	drain(t, m, render.KindSuccess)

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, dp.Version3, m.version)
	assert.Equal(t, dp.Version3, orch.Form().Version)

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, dp.VersionMySQL80, m.version, "wraps around")

	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, dp.Version3, m.version)

	require.Eventually(t, func() bool {
		return orch.ShareLink() == "?query=SELECT+1&version=3"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestUpdate_FrameUpdatesRegions(t *testing.T) {
	m, _, _ := newModel(t, "?query=SELECT+1")
	drain(t, m, render.KindSuccess)

	assert.True(t, m.regions.Result)
	assert.Equal(t, "SELECT 1", m.regions.Text)
	assert.Equal(t, "abc123", m.regions.Hash)

	view := m.View()
	assert.Contains(t, view, "abc123")
	assert.Contains(t, view, "?query=SELECT+1")
}

func TestUpdate_CopyActions(t *testing.T) {
	m, orch, clip := newModel(t, "")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Nil(t, cmd)
	assert.Equal(t, "no digest text to copy", m.status)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("SELECT 1")})
	orch.Recompute()
	drain(t, m, render.KindSuccess)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	require.NotNil(t, cmd)
	m.Update(cmd())
	assert.Equal(t, "copied link", m.status)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	require.NotNil(t, cmd)
	m.Update(cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	require.NotNil(t, cmd)
	m.Update(cmd())
	assert.Equal(t, "copied digest", m.status)

	assert.Equal(t, []string{"?query=SELECT+1", "SELECT 1", "abc123"}, clip.values)

	clip.method = clipboard.MethodNone
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	m.Update(cmd())
	assert.Equal(t, "could not copy digest", m.status)
}

func TestUpdate_Quit(t *testing.T) {
	m, _, _ := newModel(t, "")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Nil(t, m.box.Next()(), "mailbox is closed on quit")
}

func TestMailbox_KeepsLatest(t *testing.T) {
	box := NewMailbox("")
	box.Render(render.Error("syntax error"))
	box.Render(render.Success("SELECT ?", "h"))
	box.SetLink("?query=SELECT+1")

	msg := box.Next()()
	assert.Equal(t, frameMsg{Display: render.Success("SELECT ?", "h"), Link: "?query=SELECT+1"}, msg)

	box.Close()
	assert.Nil(t, box.Next()())
}
