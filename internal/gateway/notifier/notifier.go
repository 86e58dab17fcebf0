// Package notifier delivers operator-visible alert text. Sends are fire and
// forget: the control loop logs a failed delivery and moves on, it never
// blocks a trading decision on a chat API.
package notifier

// TextNotifier is intentionally minimal so components can depend on it
// without importing a concrete backend.
type TextNotifier interface {
	SendText(text string) error
}

// Func adapts a function to TextNotifier, mainly for tests.
type Func func(text string) error

func (f Func) SendText(text string) error {
	return f(text)
}

// Noop discards every message.
type Noop struct{}

func (Noop) SendText(string) error { return nil }
