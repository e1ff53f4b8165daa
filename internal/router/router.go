// Package router keeps the stack of open screens. The top of the stack
// receives every message and is the only screen drawn.
package router

import (
	tea "charm.land/bubbletea/v2"

	"github.com/mockt/mockt/internal/screen"
)

type (
	// PushScreenMsg opens Screen on top of the current one.
	PushScreenMsg struct{ Screen screen.Screen }
	// PopScreenMsg closes the current screen.
	PopScreenMsg struct{}
	// ReplaceScreenMsg closes the current screen and opens Screen in its
	// place, so Esc from Screen goes to the one below.
	ReplaceScreenMsg struct{ Screen screen.Screen }
)

// Open returns a command that pushes s.
func Open(s screen.Screen) tea.Cmd {
	return func() tea.Msg { return PushScreenMsg{Screen: s} }
}

// Back returns a command that pops the current screen.
func Back() tea.Cmd {
	return func() tea.Msg { return PopScreenMsg{} }
}

// Swap returns a command that replaces the current screen with s.
func Swap(s screen.Screen) tea.Cmd {
	return func() tea.Msg { return ReplaceScreenMsg{Screen: s} }
}

// Router owns the screens on its stack. A screen implementing
// screen.Closer is closed as soon as it leaves the stack.
type Router struct {
	stack []screen.Screen
}

// New returns a router whose bottom screen is root. root is never popped.
func New(root screen.Screen) *Router {
	return &Router{stack: []screen.Screen{root}}
}

func (r *Router) Push(s screen.Screen) tea.Cmd {
	r.stack = append(r.stack, s)
	return s.Init()
}

// Pop closes the top screen and sends screen.ResumedMsg to the one it
// uncovers.
func (r *Router) Pop() tea.Cmd {
	if len(r.stack) < 2 {
		return nil
	}
	leave(r.take())
	return func() tea.Msg { return screen.ResumedMsg{} }
}

func (r *Router) Replace(s screen.Screen) tea.Cmd {
	if len(r.stack) > 0 {
		leave(r.take())
	}
	return r.Push(s)
}

// Active is the top screen, or nil for an empty stack.
func (r *Router) Active() screen.Screen {
	if len(r.stack) == 0 {
		return nil
	}
	return r.stack[len(r.stack)-1]
}

func (r *Router) Depth() int { return len(r.stack) }

// Close empties the stack, closing screens from the top down.
func (r *Router) Close() {
	for len(r.stack) > 0 {
		leave(r.take())
	}
}

// Update applies navigation messages and hands everything else to the
// active screen.
func (r *Router) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case PushScreenMsg:
		return r.Push(msg.Screen)
	case PopScreenMsg:
		return r.Pop()
	case ReplaceScreenMsg:
		return r.Replace(msg.Screen)
	}
	top := r.Active()
	if top == nil {
		return nil
	}
	next, cmd := top.Update(msg)
	r.stack[len(r.stack)-1] = next
	return cmd
}

func (r *Router) View(width, height int) string {
	if top := r.Active(); top != nil {
		return top.View(width, height)
	}
	return ""
}

func (r *Router) take() screen.Screen {
	top := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	return top
}

func leave(s screen.Screen) {
	if c, ok := s.(screen.Closer); ok {
		c.Close()
	}
}
