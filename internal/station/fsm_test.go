package station

import (
	"context"
	"testing"
)

func TestLifecycleHappyPath(t *testing.T) {
	l := newLifecycle()
	ctx := context.Background()

	if l.Current() != PhaseNew {
		t.Fatalf("initial phase = %q, want %q", l.Current(), PhaseNew)
	}

	steps := []struct {
		event string
		phase string
	}{
		{EventConnect, PhaseConnecting},
		{EventReady, PhaseRunning},
		{EventStop, PhaseStopping},
		{EventStopped, PhaseStopped},
	}
	for _, s := range steps {
		if err := l.Event(ctx, s.event); err != nil {
			t.Fatalf("Event(%s): %v", s.event, err)
		}
		if l.Current() != s.phase {
			t.Errorf("phase after %s = %q, want %q", s.event, l.Current(), s.phase)
		}
	}
}

func TestLifecycleRejectsInvalidTransitions(t *testing.T) {
	l := newLifecycle()
	ctx := context.Background()

	// Cannot become ready before connecting.
	if err := l.Event(ctx, EventReady); err == nil {
		t.Error("EventReady from New succeeded")
	}

	// Stop is allowed straight from Connecting.
	if err := l.Event(ctx, EventConnect); err != nil {
		t.Fatalf("EventConnect: %v", err)
	}
	if err := l.Event(ctx, EventStop); err != nil {
		t.Errorf("EventStop from Connecting: %v", err)
	}
}
