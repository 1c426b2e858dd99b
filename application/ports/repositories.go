package ports

import (
	"context"
	"time"
)

// CurrentSchemaVersion is the document layout written by this codebase.
// Documents stored under older versions are migrated on load, see
// infrastructure/persistence/schema.
const CurrentSchemaVersion = 2

// TreeDocument is the flat persisted form of an exploration tree. Nodes
// are keyed by label and edges by the underscore-joined label pair; that
// wire form exists only here and in storage, never in the in-memory graph.
type TreeDocument struct {
	TreeID        string               `json:"tree_id"`
	UserID        string               `json:"user_id"`
	Topic         string               `json:"topic"`
	Nodes         map[string]NodeAttrs `json:"nodes"`
	Edges         map[string]EdgeAttrs `json:"edges"`
	SchemaVersion int                  `json:"schema_version"`
	Version       int                  `json:"version"`
	Checksum      string               `json:"checksum"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// NodeAttrs is the stored attribute set of one concept node.
type NodeAttrs struct {
	NodeID  string `json:"node_id"`
	Kind    string `json:"type"`
	Level   int    `json:"level"`
	Parent  string `json:"parent,omitempty"`
	Summary string `json:"summary,omitempty"`
	Size    int    `json:"size"`
	Color   string `json:"color"`
}

// EdgeAttrs is the stored attribute set of one link.
type EdgeAttrs struct {
	Title  string `json:"title,omitempty"`
	Weight int    `json:"weight"`
}

// TreeSummary is the listing projection of a stored tree, used where the
// full node/edge maps are not needed.
type TreeSummary struct {
	TreeID    string    `json:"tree_id"`
	Topic     string    `json:"topic"`
	NodeCount int       `json:"node_count"`
	EdgeCount int       `json:"edge_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionRecord is one completed learning-session entry.
type SessionRecord struct {
	SessionID     string    `json:"session_id"`
	UserID        string    `json:"user_id"`
	Topic         string    `json:"topic"`
	TreeID        string    `json:"tree_id"`
	NodesExplored []string  `json:"nodes_explored"`
	TimeSpentSecs int64     `json:"time_spent_secs"`
	Timestamp     time.Time `json:"timestamp"`
}

// TreeRepository persists exploration trees as whole documents. One
// document exists per (user, topic) pair; the persistence service decides
// between InsertTree and ReplaceTree after querying, and storage never
// merges node or edge maps itself.
type TreeRepository interface {
	// GetTree retrieves the document for a (user, topic) pair. Absence is
	// reported with a not-found error, which is how the save flow learns
	// it must insert.
	GetTree(ctx context.Context, userID, topic string) (*TreeDocument, error)

	// GetTreeByID retrieves a document by its tree identifier
	GetTreeByID(ctx context.Context, treeID string) (*TreeDocument, error)

	// InsertTree writes a document for a pair that has none yet
	InsertTree(ctx context.Context, doc *TreeDocument) error

	// ReplaceTree overwrites the stored document wholesale
	ReplaceTree(ctx context.Context, doc *TreeDocument) error

	// ListTrees returns the user's saved trees, newest first. A
	// non-positive limit means no limit.
	ListTrees(ctx context.Context, userID string, limit int) ([]*TreeSummary, error)

	// SearchTopics returns the user's trees whose topic contains query,
	// case-insensitively
	SearchTopics(ctx context.Context, userID, query string) ([]*TreeSummary, error)
}

// SessionRepository persists learning-session records.
type SessionRepository interface {
	// LogSession appends one session record
	LogSession(ctx context.Context, record *SessionRecord) error

	// ListSessions returns the user's records, newest first. A
	// non-positive limit means no limit.
	ListSessions(ctx context.Context, userID string, limit int) ([]*SessionRecord, error)
}

// SaveLocker guards concurrent saves of the same (user, topic) pair.
// Deployments that accept last-write-wins run without one.
type SaveLocker interface {
	// Acquire takes the lock, returning a release function. A held lock
	// surfaces as a conflict error.
	Acquire(ctx context.Context, userID, topic string) (release func(context.Context) error, err error)
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}
