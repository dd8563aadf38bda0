package core

import (
	"context"
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustNoEvent(t *testing.T, ch <-chan *Event, wait time.Duration) {
	t.Helper()

	select {
	case ev := <-ch:
		if ev != nil {
			t.Fatalf("expected no event, got %+v", ev)
		}
	case <-time.After(wait):
	}
}

// waitRegistered polls the hub until the user maps to the wanted connection id.
func waitRegistered(t *testing.T, hub *Hub, user, connID string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for {
		if id, ok := hub.ConnectionFor(ctx, user); ok && id == connID {
			return
		}
		select {
		case <-ctx.Done():
			t.Fatalf("user %q never registered as %q", user, connID)
		case <-time.After(10 * time.Millisecond):
		}
	}
}
