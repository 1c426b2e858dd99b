package aggregates

// ExpansionState guards expansion idempotence for one session: a label is
// expanded at most once, and the FIFO queue drives breadth-first automatic
// growth. The queue never holds a label that is already expanded or
// already queued.
type ExpansionState struct {
	expanded map[string]bool
	queue    []string
	queued   map[string]bool
}

// NewExpansionState creates an empty expansion state
func NewExpansionState() *ExpansionState {
	return &ExpansionState{
		expanded: make(map[string]bool),
		queued:   make(map[string]bool),
	}
}

// IsExpanded reports whether label has already been expanded
func (s *ExpansionState) IsExpanded(label string) bool {
	return s.expanded[label]
}

// MarkExpanded records that label has been expanded. Expansion failures
// must not call this; the label stays eligible for a retry.
func (s *ExpansionState) MarkExpanded(label string) {
	if label == "" {
		return
	}
	s.expanded[label] = true
}

// Enqueue appends label to the auto-expand queue unless it is already
// queued or already expanded
func (s *ExpansionState) Enqueue(label string) {
	if label == "" || s.expanded[label] || s.queued[label] {
		return
	}
	s.queue = append(s.queue, label)
	s.queued[label] = true
}

// Dequeue pops the next label due for expansion, skipping any queue
// entries that were expanded after being enqueued. Returns false when the
// queue is drained.
func (s *ExpansionState) Dequeue() (string, bool) {
	for len(s.queue) > 0 {
		label := s.queue[0]
		s.queue = s.queue[1:]
		delete(s.queued, label)
		if !s.expanded[label] {
			return label, true
		}
	}
	return "", false
}

// Forget removes label from both the expanded set and the queue. Called
// when the node is removed from the graph, so a later re-add can expand
// fresh.
func (s *ExpansionState) Forget(label string) {
	delete(s.expanded, label)
	if !s.queued[label] {
		return
	}
	delete(s.queued, label)
	for i, queued := range s.queue {
		if queued == label {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			break
		}
	}
}

// QueueLen returns the number of labels waiting for expansion
func (s *ExpansionState) QueueLen() int {
	return len(s.queue)
}

// PendingQueue returns a copy of the queue in order
func (s *ExpansionState) PendingQueue() []string {
	pending := make([]string, len(s.queue))
	copy(pending, s.queue)
	return pending
}

// ExpandedCount returns how many labels have been expanded
func (s *ExpansionState) ExpandedCount() int {
	return len(s.expanded)
}
