package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/ports"
	"github.com/Anidipta/Node-Learner/domain/config"
	"github.com/Anidipta/Node-Learner/domain/core/aggregates"
	pkgerrors "github.com/Anidipta/Node-Learner/pkg/errors"
)

// SaveResult reports what a save did. Exactly one of Inserted or
// Unchanged is set for writes that did not replace an existing document.
type SaveResult struct {
	TreeID    string
	Version   int
	Checksum  string
	Inserted  bool
	Unchanged bool
}

// PersistenceService owns the save and resume flows between sessions and
// the tree store. Saves follow query-then-upsert on (user, topic): the
// first save inserts, later saves replace the whole document. A save
// whose content checksum matches the stored document writes nothing.
type PersistenceService struct {
	trees  ports.TreeRepository
	locker ports.SaveLocker
	codec  *TreeCodec
	cfg    *config.DomainConfig
	logger *zap.Logger
}

// NewPersistenceService creates the persistence service. The locker is
// optional; without one, concurrent saves of the same topic stay
// last-write-wins.
func NewPersistenceService(
	trees ports.TreeRepository,
	locker ports.SaveLocker,
	codec *TreeCodec,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *PersistenceService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &PersistenceService{
		trees:  trees,
		locker: locker,
		codec:  codec,
		cfg:    cfg,
		logger: logger,
	}
}

// SaveTree persists the session's graph under its (user, topic) key.
// An empty graph is not worth a document and returns Unchanged without
// touching the store.
func (s *PersistenceService) SaveTree(ctx context.Context, session *aggregates.Session) (*SaveResult, error) {
	graph := session.Graph()
	if graph.NodeCount() == 0 {
		return &SaveResult{TreeID: session.TreeID(), Unchanged: true}, nil
	}

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, session.UserID(), session.Topic())
		if err != nil {
			// The race model for concurrent saves is last-write-wins; the
			// lock only narrows the window, so an unavailable lock store
			// does not block the save.
			s.logger.Warn("Save lock unavailable, proceeding without it",
				zap.String("userID", session.UserID()),
				zap.String("topic", session.Topic()),
				zap.Error(err),
			)
		} else {
			defer func() {
				if releaseErr := release(ctx); releaseErr != nil {
					s.logger.Warn("Failed to release save lock", zap.Error(releaseErr))
				}
			}()
		}
	}

	doc, err := s.codec.ToDocument(graph)
	if err != nil {
		return nil, err
	}
	doc.UpdatedAt = time.Now()

	existing, err := s.trees.GetTree(ctx, session.UserID(), session.Topic())
	switch {
	case err == nil:
		return s.replace(ctx, session, doc, existing)
	case pkgerrors.IsNotFound(err):
		return s.insert(ctx, session, doc)
	default:
		return nil, persistenceWrap("load", err)
	}
}

func (s *PersistenceService) insert(ctx context.Context, session *aggregates.Session, doc *ports.TreeDocument) (*SaveResult, error) {
	doc.Version = 1
	if err := s.trees.InsertTree(ctx, doc); err != nil {
		return nil, persistenceWrap("insert", err)
	}

	session.MarkSaved(true)
	s.logger.Info("Tree saved",
		zap.String("treeID", doc.TreeID),
		zap.String("userID", doc.UserID),
		zap.String("topic", doc.Topic),
		zap.Int("version", doc.Version),
		zap.Bool("inserted", true),
	)
	return &SaveResult{TreeID: doc.TreeID, Version: doc.Version, Checksum: doc.Checksum, Inserted: true}, nil
}

func (s *PersistenceService) replace(ctx context.Context, session *aggregates.Session, doc, existing *ports.TreeDocument) (*SaveResult, error) {
	if existing.Checksum != "" && existing.Checksum == doc.Checksum {
		session.MarkSaved(false)
		s.logger.Debug("Tree unchanged since last save, skipping write",
			zap.String("treeID", existing.TreeID),
			zap.String("topic", existing.Topic),
			zap.Int("version", existing.Version),
		)
		return &SaveResult{
			TreeID:    existing.TreeID,
			Version:   existing.Version,
			Checksum:  existing.Checksum,
			Unchanged: true,
		}, nil
	}

	// The stored document owns the identity for this (user, topic); a
	// fresh session re-exploring a saved topic adopts the stored id so
	// the tree keeps one id across its whole history.
	if existing.TreeID != "" && existing.TreeID != doc.TreeID {
		if err := session.Graph().BindID(aggregates.GraphID(existing.TreeID)); err != nil {
			return nil, err
		}
		doc.TreeID = existing.TreeID
	}
	doc.Version = existing.Version + 1
	doc.CreatedAt = existing.CreatedAt

	if err := s.trees.ReplaceTree(ctx, doc); err != nil {
		return nil, persistenceWrap("replace", err)
	}

	session.MarkSaved(false)
	s.logger.Info("Tree saved",
		zap.String("treeID", doc.TreeID),
		zap.String("userID", doc.UserID),
		zap.String("topic", doc.Topic),
		zap.Int("version", doc.Version),
		zap.Bool("inserted", false),
	)
	return &SaveResult{TreeID: doc.TreeID, Version: doc.Version, Checksum: doc.Checksum}, nil
}

// ResumeByTopic rebuilds a session from the stored tree for (user,
// topic). Nodes that already have children come back marked expanded.
func (s *PersistenceService) ResumeByTopic(ctx context.Context, userID, topic string) (*aggregates.Session, error) {
	doc, err := s.trees.GetTree(ctx, userID, topic)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, err
		}
		return nil, persistenceWrap("load", err)
	}
	return s.resume(userID, doc)
}

// ResumeByID rebuilds a session from a stored tree looked up by id. A
// tree belonging to a different user reads as not found.
func (s *PersistenceService) ResumeByID(ctx context.Context, userID, treeID string) (*aggregates.Session, error) {
	doc, err := s.trees.GetTreeByID(ctx, treeID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, err
		}
		return nil, persistenceWrap("load", err)
	}
	if doc.UserID != userID {
		return nil, pkgerrors.NewNotFoundError("tree")
	}
	return s.resume(userID, doc)
}

func (s *PersistenceService) resume(userID string, doc *ports.TreeDocument) (*aggregates.Session, error) {
	graph, err := s.codec.FromDocument(doc)
	if err != nil {
		return nil, err
	}

	session, err := aggregates.ResumeSession(userID, graph, s.cfg)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Exploration resumed",
		zap.String("sessionID", session.ID()),
		zap.String("treeID", doc.TreeID),
		zap.String("topic", doc.Topic),
		zap.Int("nodeCount", graph.NodeCount()),
	)
	return session, nil
}

// persistenceWrap classifies a store failure unless it already is one.
func persistenceWrap(operation string, err error) error {
	if pkgerrors.IsPersistence(err) {
		return err
	}
	return pkgerrors.NewPersistenceError(operation, err)
}
