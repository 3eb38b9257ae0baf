package engine

import (
	"log/slog"
	"sync"
)

// Phase names emitted by the executor and controllers.
const (
	PhaseLocked        = "locked"
	PhaseBackingUp     = "backing-up"
	PhaseSchemaApplied = "schema-applied"
	PhaseDataMigrated  = "data-migrated"
	PhaseVerified      = "verified"
	PhaseCommitted     = "committed"
	PhaseFailed        = "failed"
	PhaseRolledBack    = "rolled-back"
)

// ProgressEvent is emitted once per phase transition of an attempt.
type ProgressEvent struct {
	AttemptID string
	Phase     string
	Measure   int64 // optional phase measure, e.g. rows migrated
}

// Notifier tracks active attempts process-wide and fans phase-transition
// events out to subscribers. Publishing is fire-and-forget: a subscriber
// whose channel is full misses the event rather than blocking the engine.
type Notifier struct {
	mu          sync.Mutex
	bufferSize  int
	nextID      int
	subscribers map[int]chan ProgressEvent
	active      map[string]struct{}
	shutdown    bool
	logger      *slog.Logger
}

// NewNotifier creates a notifier whose subscriber channels hold bufferSize
// pending events.
func NewNotifier(bufferSize int, logger *slog.Logger) *Notifier {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		bufferSize:  bufferSize,
		subscribers: make(map[int]chan ProgressEvent),
		active:      make(map[string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a new subscriber and returns its id and channel.
// The channel is closed on Unsubscribe or Shutdown.
func (n *Notifier) Subscribe() (int, <-chan ProgressEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	ch := make(chan ProgressEvent, n.bufferSize)
	if n.shutdown {
		close(ch)
		return id, ch
	}
	n.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (n *Notifier) Unsubscribe(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if ch, ok := n.subscribers[id]; ok {
		delete(n.subscribers, id)
		close(ch)
	}
}

// Register adds an attempt to the process-wide active set.
func (n *Notifier) Register(attemptID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.shutdown {
		return
	}
	n.active[attemptID] = struct{}{}
}

// Unregister removes an attempt from the active set.
func (n *Notifier) Unregister(attemptID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.active, attemptID)
}

// ActiveAttempts returns the identifiers currently registered.
func (n *Notifier) ActiveAttempts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	ids := make([]string, 0, len(n.active))
	for id := range n.active {
		ids = append(ids, id)
	}
	return ids
}

// Publish emits one phase-transition event to all subscribers without
// blocking.
func (n *Notifier) Publish(attemptID, phase string, measure int64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.shutdown {
		return
	}

	event := ProgressEvent{AttemptID: attemptID, Phase: phase, Measure: measure}
	for id, ch := range n.subscribers {
		select {
		case ch <- event:
		default:
			// Slow subscriber, drop rather than block the critical path.
			n.logger.Debug("progress event dropped", "subscriber", id, "phase", phase)
		}
	}
}

// Shutdown force-clears any still-registered attempt identifiers and closes
// all subscriber channels. Registered once at process exit to prevent
// unbounded growth across repeated failed attempts.
func (n *Notifier) Shutdown() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.shutdown {
		return
	}
	n.shutdown = true

	if len(n.active) > 0 {
		n.logger.Warn("clearing active attempts at shutdown", "count", len(n.active))
	}
	n.active = make(map[string]struct{})

	for id, ch := range n.subscribers {
		delete(n.subscribers, id)
		close(ch)
	}
}
