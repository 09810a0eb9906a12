// Package render maps computation outcomes to visible UI regions.
//
// A Display is derived state: the orchestrator produces one per recompute
// and hands it to a Renderer. Map turns it into Regions, the visibility of
// the loading indicator, load error, result and error areas. Result and
// error are mutually exclusive; a blank statement hides both.
package render

import (
	"github.com/wippyai/digest-playground/engine"
)

// Kind is the display variant.
type Kind int

const (
	KindLoading Kind = iota
	KindLoadFailed
	KindBlank
	KindError
	KindSuccess
)

func (k Kind) String() string {
	switch k {
	case KindLoading:
		return "loading"
	case KindLoadFailed:
		return "load_failed"
	case KindBlank:
		return "blank"
	case KindError:
		return "error"
	case KindSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// Display is what the user should see after a recompute.
type Display struct {
	Text    string
	Hash    string
	Message string
	Kind    Kind
}

// Loading is shown until the engine is ready.
func Loading() Display { return Display{Kind: KindLoading} }

// LoadFailed replaces the loading indicator when the engine cannot be loaded.
func LoadFailed(err error) Display {
	d := Display{Kind: KindLoadFailed}
	if err != nil {
		d.Message = err.Error()
	}
	return d
}

// Blank hides both the result and the error.
func Blank() Display { return Display{Kind: KindBlank} }

// Error shows message in the error region.
func Error(message string) Display { return Display{Kind: KindError, Message: message} }

// Success shows the normalized text and its hash.
func Success(text, hash string) Display { return Display{Kind: KindSuccess, Text: text, Hash: hash} }

// FromOutcome converts an engine outcome.
func FromOutcome(o engine.Outcome) Display {
	if o.Failed {
		return Error(o.Message)
	}
	return Success(o.Text, o.Hash)
}

// Renderer receives every new Display.
type Renderer interface {
	Render(Display)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(Display)

// Render calls f(d).
func (f RendererFunc) Render(d Display) { f(d) }

// Regions is the visible state of the page.
type Regions struct {
	Text      string
	Hash      string
	Message   string
	Loading   bool
	LoadError bool
	Result    bool
	Error     bool
}

// Map is the pure mapping from a Display to region visibility.
func Map(d Display) Regions {
	switch d.Kind {
	case KindLoading:
		return Regions{Loading: true}
	case KindLoadFailed:
		return Regions{LoadError: true, Message: d.Message}
	case KindError:
		return Regions{Error: true, Message: d.Message}
	case KindSuccess:
		return Regions{Result: true, Text: d.Text, Hash: d.Hash}
	default:
		return Regions{}
	}
}

// Apply maps d onto prev. Only visibility changes for the regions d does not
// fill: a hidden result keeps its last text and hash, a hidden error keeps
// its last message.
func Apply(prev Regions, d Display) Regions {
	next := Map(d)
	if !next.Result {
		next.Text, next.Hash = prev.Text, prev.Hash
	}
	if !next.Error && !next.LoadError {
		next.Message = prev.Message
	}
	return next
}
