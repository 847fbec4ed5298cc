package notify

import (
	"log"
	"os/exec"
	"sync"
)

// State is one of the status transitions surfaced to the presentation layer.
type State string

const (
	Idle                 State = "idle"
	RequestingPermission State = "requesting-permission"
	Active               State = "active"
	Processing           State = "processing"
	Error                State = "error"
)

type Notifier interface {
	StatusChanged(state State, msg string)
}

// Desktop sends notify-send popups. Processing transitions happen once per
// capture cycle, so they and repeated states are not shown.
type Desktop struct {
	mu   sync.Mutex
	last State
}

func NewDesktop() *Desktop {
	return &Desktop{}
}

func (d *Desktop) StatusChanged(state State, msg string) {
	d.mu.Lock()
	repeat := state == d.last
	d.last = state
	d.mu.Unlock()

	if state == Processing || (repeat && state != Error) {
		return
	}

	args := []string{"-a", "ThirdEye"}
	if state == Error {
		args = append(args, "-u", "critical")
	}
	args = append(args, "ThirdEye", msg)

	cmd := exec.Command("notify-send", args...)
	if err := cmd.Run(); err != nil {
		log.Printf("Failed to send notification: %v", err)
	}
}

// Log writes every transition to the standard logger.
type Log struct{}

func (Log) StatusChanged(state State, msg string) {
	log.Printf("ThirdEye [%s]: %s", state, msg)
}

// Nop is a Notifier that does absolutely nothing.
// Useful in unit tests or headless builds.
type Nop struct{}

func (Nop) StatusChanged(state State, msg string) {}

// Multi fans a transition out to several notifiers in order.
type Multi []Notifier

func (m Multi) StatusChanged(state State, msg string) {
	for _, n := range m {
		if n != nil {
			n.StatusChanged(state, msg)
		}
	}
}

// FromType builds the notifier selected by notifications.type.
func FromType(enabled bool, typ string) Notifier {
	if !enabled {
		return Nop{}
	}
	switch typ {
	case "desktop":
		return NewDesktop()
	case "log":
		return Log{}
	default:
		return Nop{}
	}
}
