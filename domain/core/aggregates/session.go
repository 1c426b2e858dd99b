package aggregates

import (
	"time"

	"github.com/google/uuid"

	"github.com/Anidipta/Node-Learner/domain/config"
	"github.com/Anidipta/Node-Learner/domain/core/entities"
	"github.com/Anidipta/Node-Learner/domain/core/valueobjects"
	"github.com/Anidipta/Node-Learner/domain/events"
	"github.com/Anidipta/Node-Learner/domain/tracking"
	pkgerrors "github.com/Anidipta/Node-Learner/pkg/errors"
)

// Expansion modes. Initial expansion asks the explorer about the root
// topic itself; deep expansion asks about a concept in the context of the
// root topic.
const (
	ExpandModeInitial = "initial"
	ExpandModeDeep    = "deep"
)

// Link describes one edge to ensure during an expansion merge
type Link struct {
	Source string
	Target string
	Title  string
	Weight int
}

// Session is the aggregate root for one user's active exploration. It owns
// the graph, the expansion bookkeeping, and the per-concept time tracker
// as a single unit of session-scoped state, handed to every operation
// explicitly instead of living in ambient globals. One session serves one
// strictly sequential request cycle; callers that share a session across
// goroutines serialize access (see the session registry).
type Session struct {
	id           string
	userID       string
	topic        string
	graph        *Graph
	expansion    *ExpansionState
	tracker      *tracking.Tracker
	cfg          *config.DomainConfig
	autoExpand   bool
	savedVersion int
	startedAt    time.Time
	lastActivity time.Time
	events       []events.DomainEvent
}

// NewSession starts a fresh exploration of topic. The graph starts empty;
// the root node enters it when the first exploration result is applied.
func NewSession(userID, topic string, cfg *config.DomainConfig) (*Session, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	graph, err := NewGraph(userID, topic, cfg)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s := &Session{
		id:           uuid.New().String(),
		userID:       userID,
		topic:        topic,
		graph:        graph,
		expansion:    NewExpansionState(),
		tracker:      tracking.NewTracker(),
		cfg:          cfg,
		startedAt:    now,
		lastActivity: now,
	}

	s.addEvent(events.NewSessionStarted(s.id, userID, topic, false, now))
	return s, nil
}

// ResumeSession wraps a graph reconstructed from storage in a new session.
// Every node that already has children counts as expanded, so resuming
// never re-expands work a previous session already did. Time tracking
// starts fresh; elapsed time is a per-visit measure.
func ResumeSession(userID string, graph *Graph, cfg *config.DomainConfig) (*Session, error) {
	if graph == nil {
		return nil, pkgerrors.NewValidationError("graph required to resume a session")
	}
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	expansion := NewExpansionState()
	for _, node := range graph.Nodes() {
		if len(graph.Children(node.Label())) > 0 {
			expansion.MarkExpanded(node.Label())
		}
	}

	now := time.Now()
	s := &Session{
		id:           uuid.New().String(),
		userID:       userID,
		topic:        graph.Topic(),
		graph:        graph,
		expansion:    expansion,
		tracker:      tracking.NewTracker(),
		cfg:          cfg,
		savedVersion: graph.Version(),
		startedAt:    now,
		lastActivity: now,
	}

	s.addEvent(events.NewSessionStarted(s.id, userID, s.topic, true, now))
	return s, nil
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// UserID returns the exploring user's ID
func (s *Session) UserID() string {
	return s.userID
}

// Topic returns the root topic under exploration
func (s *Session) Topic() string {
	return s.topic
}

// TreeID returns the identifier the graph is persisted under
func (s *Session) TreeID() string {
	return s.graph.ID().String()
}

// Graph returns the session's concept graph
func (s *Session) Graph() *Graph {
	return s.graph
}

// Expansion returns the session's expansion bookkeeping
func (s *Session) Expansion() *ExpansionState {
	return s.expansion
}

// Tracker returns the session's time tracker
func (s *Session) Tracker() *tracking.Tracker {
	return s.tracker
}

// StartedAt returns when the session began
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// LastActivity returns when the session last served an operation
func (s *Session) LastActivity() time.Time {
	return s.lastActivity
}

// IdleExpired reports whether the session has been inactive long enough
// for the registry to evict it
func (s *Session) IdleExpired(now time.Time) bool {
	return now.Sub(s.lastActivity) > s.cfg.SessionIdleTimeout
}

// AutoExpand reports whether queue-driven expansion is enabled
func (s *Session) AutoExpand() bool {
	return s.autoExpand
}

// SetAutoExpand toggles queue-driven expansion. The pending queue is kept
// either way, so turning the toggle back on resumes from the frontier.
func (s *Session) SetAutoExpand(enabled bool) {
	s.autoExpand = enabled
	s.touch()
}

// Dirty reports whether the graph has mutations not yet saved
func (s *Session) Dirty() bool {
	return s.graph.Version() != s.savedVersion
}

// SeedRoot inserts the root node with its explored summary. Safe to call
// when the root already exists; the summary merges in.
func (s *Session) SeedRoot(summary string) error {
	root, err := entities.NewRootNode(s.topic, summary, s.cfg)
	if err != nil {
		return err
	}
	if err := s.graph.AddNode(root); err != nil {
		return err
	}

	s.addEvent(events.NewConceptAdded(s.id, s.userID, root.Label(), string(root.Kind()), 0, "", time.Now()))
	s.touch()
	return nil
}

// ApplyExpansion merges one expansion result into the graph atomically:
// the whole batch is validated up front and nothing is applied unless all
// of it can be. New labels are queued for auto-expansion and label joins
// the expanded set; on error neither happens, so the label stays
// retryable. Expanding an already-expanded label is a no-op returning an
// empty delta.
func (s *Session) ApplyExpansion(label, mode string, nodes []*entities.Node, links []Link) ([]string, error) {
	if !s.graph.HasNode(label) {
		return nil, pkgerrors.NewConceptNotFoundError(label)
	}
	if s.expansion.IsExpanded(label) {
		return nil, nil
	}

	if err := s.validateExpansionBatch(label, nodes, links); err != nil {
		return nil, err
	}

	var newLabels []string
	now := time.Now()
	for _, node := range nodes {
		if s.graph.HasNode(node.Label()) {
			continue
		}
		if err := s.graph.AddNode(node); err != nil {
			return nil, pkgerrors.NewExpansionFailedError(label, err)
		}
		newLabels = append(newLabels, node.Label())
		s.addEvent(events.NewConceptAdded(s.id, s.userID, node.Label(), string(node.Kind()), node.Level(), node.Parent(), now))
	}

	for _, link := range links {
		if link.Source == link.Target && !s.cfg.AllowSelfLinks {
			continue
		}
		edge, err := s.graph.AddEdge(link.Source, link.Target, link.Title, link.Weight)
		if err != nil {
			return nil, pkgerrors.NewExpansionFailedError(label, err)
		}
		s.addEvent(events.NewConceptsLinked(s.id, s.userID, edge.Source(), edge.Target(), edge.Title(), edge.Weight(), now))
	}

	s.expansion.MarkExpanded(label)
	for _, newLabel := range newLabels {
		s.expansion.Enqueue(newLabel)
	}

	s.addEvent(events.NewGraphExpanded(s.id, s.userID, label, mode, newLabels, now))
	s.touch()
	return newLabels, nil
}

// validateExpansionBatch checks a whole expansion delta before any of it
// is applied. Capacity is reserved for the full batch, every new node must
// hang one level below label, and every link endpoint must resolve within
// the graph or the batch.
func (s *Session) validateExpansionBatch(label string, nodes []*entities.Node, links []Link) error {
	parent, err := s.graph.GetNode(label)
	if err != nil {
		return err
	}

	batch := make(map[string]bool, len(nodes))
	newCount := 0
	for _, node := range nodes {
		if node == nil {
			return pkgerrors.NewExpansionFailedError(label, pkgerrors.NewValidationError("nil node in expansion batch"))
		}
		batch[node.Label()] = true

		// Names already in the graph only get cross-linked; their stored
		// level and parent are left alone, so they skip the batch checks.
		if s.graph.HasNode(node.Label()) {
			continue
		}
		newCount++

		if node.Parent() != label {
			return pkgerrors.NewExpansionFailedError(label, pkgerrors.NewValidationError("expansion node '"+node.Label()+"' must descend from '"+label+"'"))
		}
		if node.Level() != parent.Level()+1 {
			return pkgerrors.NewExpansionFailedError(label, pkgerrors.NewValidationError("expansion node '"+node.Label()+"' has the wrong level"))
		}
	}

	if s.graph.NodeCount()+newCount > s.cfg.MaxNodesPerGraph {
		return pkgerrors.NewGraphLimitError("node", s.cfg.MaxNodesPerGraph)
	}
	if s.graph.EdgeCount()+len(links) > s.cfg.MaxEdgesPerGraph {
		return pkgerrors.NewGraphLimitError("edge", s.cfg.MaxEdgesPerGraph)
	}

	for _, link := range links {
		if !s.graph.HasNode(link.Source) && !batch[link.Source] {
			return pkgerrors.NewExpansionFailedError(label, pkgerrors.NewMissingEndpointError(link.Source))
		}
		if !s.graph.HasNode(link.Target) && !batch[link.Target] {
			return pkgerrors.NewExpansionFailedError(label, pkgerrors.NewMissingEndpointError(link.Target))
		}
	}

	return nil
}

// Focus moves the user's attention to label and switches time accounting
func (s *Session) Focus(label string) error {
	if !s.graph.HasNode(label) {
		return pkgerrors.NewConceptNotFoundError(label)
	}

	previous, _ := s.tracker.ActiveLabel()
	if previous == label {
		s.touch()
		return nil
	}

	s.tracker.Activate(label)
	s.addEvent(events.NewFocusChanged(s.id, s.userID, previous, label, time.Now()))
	s.touch()
	return nil
}

// FocusByNodeID resolves a node id from a click payload and focuses it
func (s *Session) FocusByNodeID(id valueobjects.NodeID) (string, error) {
	node, err := s.graph.FindByNodeID(id)
	if err != nil {
		return "", err
	}
	return node.Label(), s.Focus(node.Label())
}

// Link connects two existing concepts by hand
func (s *Session) Link(source, target, title string, weight int) (*entities.Edge, error) {
	edge, err := s.graph.AddEdge(source, target, title, weight)
	if err != nil {
		return nil, err
	}

	s.addEvent(events.NewConceptsLinked(s.id, s.userID, edge.Source(), edge.Target(), edge.Title(), edge.Weight(), time.Now()))
	s.touch()
	return edge, nil
}

// RemoveConcept removes label and its whole descendant subtree. Every
// removed label is purged from the tracker and the expansion bookkeeping
// as well. Removing an absent label is a silent no-op returning nil.
func (s *Session) RemoveConcept(label string) []string {
	removed := s.graph.RemoveNode(label)
	if len(removed) == 0 {
		return nil
	}

	for _, l := range removed {
		s.tracker.Drop(l, s.cfg.FlushBeforeDiscard)
		s.expansion.Forget(l)
	}

	s.addEvent(events.NewConceptRemoved(s.id, s.userID, label, removed, time.Now()))
	s.touch()
	return removed
}

// RemoveConceptByNodeID resolves a node id and removes its subtree
func (s *Session) RemoveConceptByNodeID(id valueobjects.NodeID) ([]string, error) {
	node, err := s.graph.FindByNodeID(id)
	if err != nil {
		return nil, err
	}
	return s.RemoveConcept(node.Label()), nil
}

// TimeSpent returns the session's cumulative active time
func (s *Session) TimeSpent() time.Duration {
	return s.tracker.TotalElapsed()
}

// MarkSaved records a successful persistence of the current graph state
func (s *Session) MarkSaved(inserted bool) {
	s.savedVersion = s.graph.Version()
	s.addEvent(events.NewTreeSaved(s.TreeID(), s.userID, s.topic, s.graph.NodeCount(), s.graph.EdgeCount(), inserted, time.Now()))
}

// MarkRecorded notes that a learning-session record was written. Totals
// are not reset; repeated recording produces cumulative snapshots.
func (s *Session) MarkRecorded() {
	s.addEvent(events.NewSessionRecorded(
		s.id, s.userID, s.topic, s.TreeID(),
		int64(s.tracker.TotalElapsed().Seconds()),
		len(s.tracker.ExploredLabels()),
		time.Now(),
	))
}

// End closes the session: the active label is flushed and the tracker
// goes idle.
func (s *Session) End() {
	s.tracker.Deactivate()
	s.addEvent(events.NewSessionEnded(
		s.id, s.userID, s.topic,
		int64(s.tracker.TotalElapsed().Seconds()),
		len(s.tracker.ExploredLabels()),
		time.Now(),
	))
}

// GetUncommittedEvents returns the events raised since the last commit
func (s *Session) GetUncommittedEvents() []events.DomainEvent {
	out := make([]events.DomainEvent, len(s.events))
	copy(out, s.events)
	return out
}

// MarkEventsAsCommitted clears the uncommitted events
func (s *Session) MarkEventsAsCommitted() {
	s.events = s.events[:0]
}

func (s *Session) addEvent(event events.DomainEvent) {
	s.events = append(s.events, event)
}

func (s *Session) touch() {
	s.lastActivity = time.Now()
}
