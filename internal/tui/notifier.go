package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nefol/discovery/internal/session"
)

// Notifier bridges session change callbacks into the Bubble Tea loop.
// Bursts of changes coalesce into one wake-up; the model re-reads the
// controller snapshot when it wakes.
type Notifier struct {
	ch chan struct{}
}

// NewNotifier creates a Notifier. Pass its Notify method as
// session.Options.OnChange.
func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan struct{}, 1)}
}

// Notify signals a session change without blocking.
func (n *Notifier) Notify(session.Snapshot) {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

type changedMsg struct{}

func (n *Notifier) wait() tea.Cmd {
	return func() tea.Msg {
		<-n.ch
		return changedMsg{}
	}
}
