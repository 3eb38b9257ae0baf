package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// verifyNoLeaks ignores the connection-opener goroutines of sibling tests'
// database pools, which stay alive for the life of the test binary, and the
// testing framework's own goroutines that park while parallel tests run.
func verifyNoLeaks(t *testing.T) {
	t.Helper()
	goleak.VerifyNone(t,
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
		goleak.IgnoreTopFunction("testing.(*testContext).waitParallel"),
		goleak.IgnoreTopFunction("testing.tRunner.func1"),
	)
}

func TestNotifierPublishAndSubscribe(t *testing.T) {
	t.Parallel()
	defer verifyNoLeaks(t)

	n := NewNotifier(4, nil)
	id, events := n.Subscribe()

	n.Publish("attempt-1", PhaseLocked, 0)
	n.Publish("attempt-1", PhaseBackingUp, 7)

	ev := <-events
	assert.Equal(t, "attempt-1", ev.AttemptID)
	assert.Equal(t, PhaseLocked, ev.Phase)

	ev = <-events
	assert.Equal(t, PhaseBackingUp, ev.Phase)
	assert.Equal(t, int64(7), ev.Measure)

	n.Unsubscribe(id)
	_, open := <-events
	assert.False(t, open)
}

func TestNotifierDropsWhenSubscriberIsFull(t *testing.T) {
	t.Parallel()
	defer verifyNoLeaks(t)

	n := NewNotifier(1, nil)
	id, events := n.Subscribe()
	defer n.Unsubscribe(id)

	// The second publish must not block even though nobody is reading.
	n.Publish("attempt-1", PhaseLocked, 0)
	n.Publish("attempt-1", PhaseBackingUp, 0)

	ev := <-events
	assert.Equal(t, PhaseLocked, ev.Phase)
	select {
	case ev := <-events:
		t.Fatalf("expected dropped event, got %v", ev)
	default:
	}
}

func TestNotifierUnsubscribeIsIdempotent(t *testing.T) {
	t.Parallel()
	defer verifyNoLeaks(t)

	n := NewNotifier(1, nil)
	id, _ := n.Subscribe()
	n.Unsubscribe(id)
	n.Unsubscribe(id)
}

func TestNotifierActiveAttempts(t *testing.T) {
	t.Parallel()
	defer verifyNoLeaks(t)

	n := NewNotifier(1, nil)
	assert.Empty(t, n.ActiveAttempts())

	n.Register("a")
	n.Register("b")
	assert.ElementsMatch(t, []string{"a", "b"}, n.ActiveAttempts())

	n.Unregister("a")
	assert.Equal(t, []string{"b"}, n.ActiveAttempts())
}

func TestNotifierShutdown(t *testing.T) {
	t.Parallel()
	defer verifyNoLeaks(t)

	n := NewNotifier(1, nil)
	_, events := n.Subscribe()
	n.Register("stale-attempt")

	n.Shutdown()

	assert.Empty(t, n.ActiveAttempts())
	_, open := <-events
	assert.False(t, open)

	// All operations after shutdown are safe no-ops.
	n.Publish("x", PhaseLocked, 0)
	n.Register("x")
	assert.Empty(t, n.ActiveAttempts())
	n.Shutdown()

	id, closed := n.Subscribe()
	_, open = <-closed
	require.False(t, open)
	n.Unsubscribe(id)
}
