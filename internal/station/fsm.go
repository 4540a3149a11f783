package station

import (
	"context"

	"github.com/looplab/fsm"

	fsmutil "github.com/openv2x/openv2x/internal/pkg/util/fsm"
	"github.com/openv2x/openv2x/pkg/log"
)

// Lifecycle phases of the station process.
const (
	PhaseNew        = "New"
	PhaseConnecting = "Connecting"
	PhaseRunning    = "Running"
	PhaseStopping   = "Stopping"
	PhaseStopped    = "Stopped"
)

// Lifecycle events.
const (
	// EventConnect starts the broker connection attempt.
	EventConnect = "event_connect"
	// EventReady fires once the broker connection is up and the adapters
	// are wired.
	EventReady = "event_ready"
	// EventStop begins shutdown from any live phase.
	EventStop = "event_stop"
	// EventStopped finalizes shutdown.
	EventStopped = "event_stopped"
)

type lifecycle struct {
	*fsm.FSM
}

func newLifecycle() *lifecycle {
	l := &lifecycle{}

	events := fsm.Events{
		{Name: EventConnect, Src: []string{PhaseNew}, Dst: PhaseConnecting},
		{Name: EventReady, Src: []string{PhaseConnecting}, Dst: PhaseRunning},
		{Name: EventStop, Src: []string{PhaseConnecting, PhaseRunning}, Dst: PhaseStopping},
		{Name: EventStopped, Src: []string{PhaseStopping}, Dst: PhaseStopped},
	}

	callbacks := fsm.Callbacks{
		"enter_state": fsmutil.WrapEvent(l.logTransition),
	}

	l.FSM = fsm.NewFSM(PhaseNew, events, callbacks)
	return l
}

func (l *lifecycle) logTransition(ctx context.Context, e *fsm.Event) error {
	log.Info("Station phase changed", "from", e.Src, "to", e.Dst)
	return nil
}
