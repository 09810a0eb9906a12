package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/digest-playground/render"
)

// Frame is what the orchestrator last published.
type Frame struct {
	Display render.Display
	Link    string
}

type frameMsg Frame

// Mailbox carries frames from the orchestrator to the bubbletea loop. It
// keeps only the latest frame: a Display always supersedes the previous
// one, so frames the loop has not picked up yet are simply replaced.
// Render and SetLink never block.
type Mailbox struct {
	mu     sync.Mutex
	frame  Frame
	notify chan struct{}
	done   chan struct{}
	once   sync.Once
}

// NewMailbox returns a mailbox holding the loading display and link.
func NewMailbox(link string) *Mailbox {
	return &Mailbox{
		frame:  Frame{Display: render.Loading(), Link: link},
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Render implements render.Renderer.
func (b *Mailbox) Render(d render.Display) {
	b.mu.Lock()
	b.frame.Display = d
	b.mu.Unlock()
	b.signal()
}

// SetLink records a new share link. It matches the orchestrator's address
// listener signature.
func (b *Mailbox) SetLink(link string) {
	b.mu.Lock()
	b.frame.Link = link
	b.mu.Unlock()
	b.signal()
}

// Latest returns the current frame.
func (b *Mailbox) Latest() Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frame
}

// Next returns a command that waits for the next change and delivers the
// latest frame. It yields nil once the mailbox is closed.
func (b *Mailbox) Next() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-b.done:
			return nil
		default:
		}
		select {
		case <-b.notify:
			return frameMsg(b.Latest())
		case <-b.done:
			return nil
		}
	}
}

// Close releases any command blocked in Next.
func (b *Mailbox) Close() {
	b.once.Do(func() { close(b.done) })
}

func (b *Mailbox) signal() {
	select {
	case b.notify <- struct{}{}:
	default:
	}
}
