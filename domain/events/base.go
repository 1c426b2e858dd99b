package events

import (
	"time"
)

// SourceExploration identifies this service as the event source on the bus
const SourceExploration = "nodelearner.exploration"

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Session Events

// SessionStarted is raised when a user begins exploring a topic
type SessionStarted struct {
	BaseEvent
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Topic     string `json:"topic"`
	Resumed   bool   `json:"resumed"`
}

// NewSessionStarted creates a SessionStarted event
func NewSessionStarted(sessionID, userID, topic string, resumed bool, timestamp time.Time) SessionStarted {
	return SessionStarted{
		BaseEvent: BaseEvent{
			AggregateID: sessionID,
			EventType:   "session.started",
			Timestamp:   timestamp,
			Version:     1,
		},
		SessionID: sessionID,
		UserID:    userID,
		Topic:     topic,
		Resumed:   resumed,
	}
}

// SessionEnded is raised when an exploration session is closed
type SessionEnded struct {
	BaseEvent
	SessionID     string `json:"session_id"`
	UserID        string `json:"user_id"`
	Topic         string `json:"topic"`
	TimeSpentSecs int64  `json:"time_spent_secs"`
	NodesExplored int    `json:"nodes_explored"`
}

// NewSessionEnded creates a SessionEnded event
func NewSessionEnded(sessionID, userID, topic string, timeSpentSecs int64, nodesExplored int, timestamp time.Time) SessionEnded {
	return SessionEnded{
		BaseEvent: BaseEvent{
			AggregateID: sessionID,
			EventType:   "session.ended",
			Timestamp:   timestamp,
			Version:     1,
		},
		SessionID:     sessionID,
		UserID:        userID,
		Topic:         topic,
		TimeSpentSecs: timeSpentSecs,
		NodesExplored: nodesExplored,
	}
}

// SessionRecorded is raised when a learning-session record is written
type SessionRecorded struct {
	BaseEvent
	SessionID     string `json:"session_id"`
	UserID        string `json:"user_id"`
	Topic         string `json:"topic"`
	TreeID        string `json:"tree_id"`
	TimeSpentSecs int64  `json:"time_spent_secs"`
	NodesExplored int    `json:"nodes_explored"`
}

// NewSessionRecorded creates a SessionRecorded event
func NewSessionRecorded(sessionID, userID, topic, treeID string, timeSpentSecs int64, nodesExplored int, timestamp time.Time) SessionRecorded {
	return SessionRecorded{
		BaseEvent: BaseEvent{
			AggregateID: sessionID,
			EventType:   "session.recorded",
			Timestamp:   timestamp,
			Version:     1,
		},
		SessionID:     sessionID,
		UserID:        userID,
		Topic:         topic,
		TreeID:        treeID,
		TimeSpentSecs: timeSpentSecs,
		NodesExplored: nodesExplored,
	}
}

// Graph Events
//
// Graph events carry the owning user so consumers can route them to that
// user's live connections without resolving the session first.

// ConceptAdded is raised when a new concept node enters the graph
type ConceptAdded struct {
	BaseEvent
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Label     string `json:"label"`
	Kind      string `json:"kind"`
	Level     int    `json:"level"`
	Parent    string `json:"parent,omitempty"`
}

// NewConceptAdded creates a ConceptAdded event
func NewConceptAdded(sessionID, userID, label, kind string, level int, parent string, timestamp time.Time) ConceptAdded {
	return ConceptAdded{
		BaseEvent: BaseEvent{
			AggregateID: sessionID,
			EventType:   "concept.added",
			Timestamp:   timestamp,
			Version:     1,
		},
		SessionID: sessionID,
		UserID:    userID,
		Label:     label,
		Kind:      kind,
		Level:     level,
		Parent:    parent,
	}
}

// ConceptsLinked is raised when two concepts are connected
type ConceptsLinked struct {
	BaseEvent
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Source    string `json:"source"`
	Target    string `json:"target"`
	Relation  string `json:"relation"`
	Weight    int    `json:"weight"`
}

// NewConceptsLinked creates a ConceptsLinked event
func NewConceptsLinked(sessionID, userID, source, target, relation string, weight int, timestamp time.Time) ConceptsLinked {
	return ConceptsLinked{
		BaseEvent: BaseEvent{
			AggregateID: sessionID,
			EventType:   "concepts.linked",
			Timestamp:   timestamp,
			Version:     1,
		},
		SessionID: sessionID,
		UserID:    userID,
		Source:    source,
		Target:    target,
		Relation:  relation,
		Weight:    weight,
	}
}

// ConceptRemoved is raised when a concept and its descendants are removed
type ConceptRemoved struct {
	BaseEvent
	SessionID     string   `json:"session_id"`
	UserID        string   `json:"user_id"`
	Label         string   `json:"label"`
	RemovedLabels []string `json:"removed_labels"`
}

// NewConceptRemoved creates a ConceptRemoved event. RemovedLabels includes
// the label itself plus every cascaded descendant.
func NewConceptRemoved(sessionID, userID, label string, removedLabels []string, timestamp time.Time) ConceptRemoved {
	return ConceptRemoved{
		BaseEvent: BaseEvent{
			AggregateID: sessionID,
			EventType:   "concept.removed",
			Timestamp:   timestamp,
			Version:     1,
		},
		SessionID:     sessionID,
		UserID:        userID,
		Label:         label,
		RemovedLabels: removedLabels,
	}
}

// GraphExpanded is raised when an expansion merges new concepts into the graph
type GraphExpanded struct {
	BaseEvent
	SessionID string   `json:"session_id"`
	UserID    string   `json:"user_id"`
	Label     string   `json:"label"`
	Mode      string   `json:"mode"`
	NewLabels []string `json:"new_labels"`
}

// NewGraphExpanded creates a GraphExpanded event
func NewGraphExpanded(sessionID, userID, label, mode string, newLabels []string, timestamp time.Time) GraphExpanded {
	return GraphExpanded{
		BaseEvent: BaseEvent{
			AggregateID: sessionID,
			EventType:   "graph.expanded",
			Timestamp:   timestamp,
			Version:     1,
		},
		SessionID: sessionID,
		UserID:    userID,
		Label:     label,
		Mode:      mode,
		NewLabels: newLabels,
	}
}

// FocusChanged is raised when the user's attention moves to another concept
type FocusChanged struct {
	BaseEvent
	SessionID     string `json:"session_id"`
	UserID        string `json:"user_id"`
	PreviousLabel string `json:"previous_label,omitempty"`
	Label         string `json:"label"`
}

// NewFocusChanged creates a FocusChanged event
func NewFocusChanged(sessionID, userID, previousLabel, label string, timestamp time.Time) FocusChanged {
	return FocusChanged{
		BaseEvent: BaseEvent{
			AggregateID: sessionID,
			EventType:   "focus.changed",
			Timestamp:   timestamp,
			Version:     1,
		},
		SessionID:     sessionID,
		UserID:        userID,
		PreviousLabel: previousLabel,
		Label:         label,
	}
}

// Persistence Events

// TreeSaved is raised when the graph is written to storage
type TreeSaved struct {
	BaseEvent
	TreeID    string `json:"tree_id"`
	UserID    string `json:"user_id"`
	Topic     string `json:"topic"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
	Inserted  bool   `json:"inserted"`
}

// NewTreeSaved creates a TreeSaved event. Inserted is true for the first
// write of a (user, topic) pair and false for replacements.
func NewTreeSaved(treeID, userID, topic string, nodeCount, edgeCount int, inserted bool, timestamp time.Time) TreeSaved {
	return TreeSaved{
		BaseEvent: BaseEvent{
			AggregateID: treeID,
			EventType:   "tree.saved",
			Timestamp:   timestamp,
			Version:     1,
		},
		TreeID:    treeID,
		UserID:    userID,
		Topic:     topic,
		NodeCount: nodeCount,
		EdgeCount: edgeCount,
		Inserted:  inserted,
	}
}
