// Package clipboard copies text to the user's clipboard on a best-effort
// basis. The system clipboard is tried first; when it is unavailable (no
// xclip/xsel/wl-copy, headless sessions, SSH) the text is sent to the
// terminal as an OSC 52 escape sequence, which most modern terminals turn
// into a clipboard write.
package clipboard

import (
	"io"
	"os"
	"strings"

	sysclip "github.com/atotto/clipboard"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
	"go.uber.org/zap"
)

// Method reports how a value reached the clipboard.
type Method int

const (
	MethodNone Method = iota
	MethodSystem
	MethodTerminal
)

func (m Method) String() string {
	switch m {
	case MethodSystem:
		return "system"
	case MethodTerminal:
		return "osc52"
	default:
		return "none"
	}
}

// Bridge writes values to the clipboard. Failures are logged, never
// returned.
type Bridge struct {
	system   func(string) error
	terminal io.Writer
	getenv   func(string) string
	logger   *zap.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithSystem replaces the system clipboard writer. nil disables it.
func WithSystem(fn func(string) error) Option {
	return func(b *Bridge) { b.system = fn }
}

// WithTerminal sets where OSC 52 sequences are written. nil disables the
// fallback.
func WithTerminal(w io.Writer) Option {
	return func(b *Bridge) { b.terminal = w }
}

// WithEnv replaces the environment lookup used to detect tmux and screen.
func WithEnv(getenv func(string) string) Option {
	return func(b *Bridge) {
		if getenv != nil {
			b.getenv = getenv
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.logger = l
		}
	}
}

// New returns a Bridge using the system clipboard and falling back to
// OSC 52 on stderr.
func New(opts ...Option) *Bridge {
	b := &Bridge{
		terminal: os.Stderr,
		getenv:   os.Getenv,
		logger:   zap.NewNop(),
	}
	if !sysclip.Unsupported {
		b.system = sysclip.WriteAll
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Copy writes value to the clipboard and reports which path took it.
func (b *Bridge) Copy(value string) Method {
	if b.system != nil {
		err := b.system(value)
		if err == nil {
			b.logger.Debug("copied to clipboard", zap.Stringer("method", MethodSystem), zap.Int("bytes", len(value)))
			return MethodSystem
		}
		b.logger.Debug("system clipboard unavailable", zap.Error(err))
	}

	if b.terminal != nil {
		_, err := b.sequence(value).WriteTo(b.terminal)
		if err == nil {
			b.logger.Debug("copied to clipboard", zap.Stringer("method", MethodTerminal), zap.Int("bytes", len(value)))
			return MethodTerminal
		}
		b.logger.Debug("osc52 write failed", zap.Error(err))
	}

	return MethodNone
}

func (b *Bridge) sequence(value string) osc52.Sequence {
	seq := osc52.New(value)
	switch {
	case b.getenv("TMUX") != "":
		seq = seq.Tmux()
	case strings.HasPrefix(b.getenv("TERM"), "screen"):
		seq = seq.Screen()
	}
	return seq
}
