package service

import "sync"

// WindowState is the UI-only state of the floating chat window.
type WindowState struct {
	IsOpen     bool
	IsExpanded bool
}

// ChatWindow tracks whether the widget is open and whether it fills the
// viewport. It never persists and never talks to the backend.
type ChatWindow struct {
	mu    sync.Mutex
	state WindowState
}

// NewChatWindow returns a window that starts open at its normal size.
func NewChatWindow() *ChatWindow {
	return &ChatWindow{state: WindowState{IsOpen: true}}
}

// State returns the current window state.
func (w *ChatWindow) State() WindowState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// ToggleOpen collapses the window to its header or reopens it.
func (w *ChatWindow) ToggleOpen() WindowState {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.IsOpen = !w.state.IsOpen
	return w.state
}

// ToggleExpanded switches between the floating size and full viewport.
func (w *ChatWindow) ToggleExpanded() WindowState {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.IsExpanded = !w.state.IsExpanded
	return w.state
}
