package clipboard

import (
	"bytes"
	"encoding/base64"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func noEnv(string) string { return "" }

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestCopy_System(t *testing.T) {
	var got string
	var term bytes.Buffer
	b := New(
		WithSystem(func(s string) error { got = s; return nil }),
		WithTerminal(&term),
		WithEnv(noEnv),
	)

	assert.Equal(t, MethodSystem, b.Copy("https://example.test/?query=SELECT+1"))
	assert.Equal(t, "https://example.test/?query=SELECT+1", got)
	assert.Zero(t, term.Len())
}

func TestCopy_FallsBackToTerminal(t *testing.T) {
	var term bytes.Buffer
	b := New(
		WithSystem(func(string) error { return errors.New("exec: \"xclip\": executable file not found") }),
		WithTerminal(&term),
		WithEnv(noEnv),
	)

	assert.Equal(t, MethodTerminal, b.Copy("abc123"))
	out := term.String()
	assert.Contains(t, out, "\x1b]52;c;")
	assert.Contains(t, out, base64.StdEncoding.EncodeToString([]byte("abc123")))
}

func TestCopy_TmuxPassthrough(t *testing.T) {
	var term bytes.Buffer
	b := New(
		WithSystem(nil),
		WithTerminal(&term),
		WithEnv(func(k string) string {
			if k == "TMUX" {
				return "/tmp/tmux-1000/default,1,0"
			}
			return ""
		}),
	)

	assert.Equal(t, MethodTerminal, b.Copy("h"))
	assert.Contains(t, term.String(), "\x1bPtmux;")
}

func TestCopy_BestEffort(t *testing.T) {
	b := New(
		WithSystem(func(string) error { return errors.New("denied") }),
		WithTerminal(failingWriter{}),
		WithEnv(noEnv),
	)
	assert.Equal(t, MethodNone, b.Copy("x"))

	b = New(WithSystem(nil), WithTerminal(nil))
	assert.Equal(t, MethodNone, b.Copy("x"))
}

func TestNew_TerminalDefaultsToStderr(t *testing.T) {
	b := New(WithSystem(nil))
	assert.Same(t, os.Stderr, b.terminal)

	var term bytes.Buffer
	b = New(WithSystem(nil), WithTerminal(&term))
	assert.Same(t, &term, b.terminal)
}

func TestMethod_String(t *testing.T) {
	assert.Equal(t, "system", MethodSystem.String())
	assert.Equal(t, "osc52", MethodTerminal.String())
	assert.Equal(t, "none", MethodNone.String())
}
