// Package telegraph fans committed debate turns out to chat platforms.
// Announcements are best-effort: a failed delivery is logged by the
// caller and never blocks or rolls back a turn.
package telegraph

import "context"

// Turn is one committed persona turn, ready to announce.
type Turn struct {
	ChatID      string
	ChatTitle   string
	PersonaName string
	Content     string
}

// Notifier delivers turn announcements to one platform.
type Notifier interface {
	Announce(ctx context.Context, turn Turn) error
	Close() error
}

// Nop is a Notifier that does nothing.
type Nop struct{}

func (Nop) Announce(context.Context, Turn) error { return nil }
func (Nop) Close() error                         { return nil }

// Multi fans announcements out to several notifiers. Every notifier is
// attempted; the first error is returned.
type Multi []Notifier

func (m Multi) Announce(ctx context.Context, turn Turn) error {
	var first error
	for _, n := range m {
		if err := n.Announce(ctx, turn); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m Multi) Close() error {
	var first error
	for _, n := range m {
		if err := n.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
