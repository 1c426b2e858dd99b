package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/ports"
	"github.com/Anidipta/Node-Learner/application/sagas"
	"github.com/Anidipta/Node-Learner/domain/config"
	"github.com/Anidipta/Node-Learner/domain/core/aggregates"
	"github.com/Anidipta/Node-Learner/domain/core/entities"
	"github.com/Anidipta/Node-Learner/domain/core/validators"
	"github.com/Anidipta/Node-Learner/domain/core/valueobjects"
	pkgerrors "github.com/Anidipta/Node-Learner/pkg/errors"
	"github.com/Anidipta/Node-Learner/pkg/ratelimit"
)

const defaultExplorerTimeout = 30 * time.Second

// Auto-expansion stop reasons reported in StepResult.Reason.
const (
	StopDisabled     = "auto_expand_disabled"
	StopQueueDrained = "queue_drained"
	StopStepLimit    = "step_limit"
)

// ExplorationResult is the outcome of starting an exploration. KeyPoints
// come back only from deep explorations; they belong to the response, not
// the graph.
type ExplorationResult struct {
	Session   *aggregates.Session
	NewLabels []string
	KeyPoints []string
}

// StepResult reports one auto-expansion step. Either Expanded names the
// label that was just expanded, or Done is set with the stop reason.
type StepResult struct {
	Expanded  string
	NewLabels []string
	Remaining int
	Done      bool
	Reason    string
}

// ExpansionService turns explorer suggestions into graph deltas. It owns
// the explorer call policy: per-call timeout, the per-session call
// budget, and fail-closed validation of every record before it becomes a
// node. The graph mutation itself stays inside the session aggregate.
type ExpansionService struct {
	explorer ports.Explorer
	budget   ratelimit.SessionBudget
	concepts *validators.ConceptValidator
	links    *validators.LinkValidator
	topics   *validators.TopicValidator
	cfg      *config.DomainConfig
	timeout  time.Duration
	logger   *zap.Logger
}

// NewExpansionService creates the expansion service. A nil budget means
// explorer calls are not throttled; a non-positive timeout falls back to
// the default.
func NewExpansionService(
	explorer ports.Explorer,
	budget ratelimit.SessionBudget,
	cfg *config.DomainConfig,
	timeout time.Duration,
	logger *zap.Logger,
) *ExpansionService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if timeout <= 0 {
		timeout = defaultExplorerTimeout
	}
	return &ExpansionService{
		explorer: explorer,
		budget:   budget,
		concepts: validators.NewConceptValidator(cfg),
		links:    validators.NewLinkValidator(cfg),
		topics:   validators.NewTopicValidator(cfg),
		cfg:      cfg,
		timeout:  timeout,
		logger:   logger,
	}
}

// StartExploration creates a session for topic, seeds the root node with
// the exploration summary, and merges the root expansion. Depth 1 is a
// single explorer call; depth 2 and beyond runs the deep exploration
// saga. On any failure the returned session is nil and nothing should be
// registered.
func (s *ExpansionService) StartExploration(ctx context.Context, userID, topic string, depth int) (*ExplorationResult, error) {
	cleaned, err := s.topics.Normalize(topic)
	if err != nil {
		return nil, err
	}

	session, err := aggregates.NewSession(userID, cleaned, s.cfg)
	if err != nil {
		return nil, err
	}

	if depth < 1 {
		depth = 1
	}

	var result *ExplorationResult
	if depth == 1 {
		result, err = s.shallowStart(ctx, session)
	} else {
		result, err = s.deepStart(ctx, session, depth)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Exploration started",
		zap.String("sessionID", session.ID()),
		zap.String("userID", userID),
		zap.String("topic", cleaned),
		zap.Int("depth", depth),
		zap.Int("nodeCount", session.Graph().NodeCount()),
	)
	return result, nil
}

func (s *ExpansionService) shallowStart(ctx context.Context, session *aggregates.Session) (*ExplorationResult, error) {
	result, err := s.exploreTopic(ctx, session, 1)
	if err != nil {
		return nil, err
	}

	if err := session.SeedRoot(result.Summary); err != nil {
		return nil, err
	}

	root := session.Graph().Root()
	nodes, links, err := s.buildConceptBatch(root, result.Concepts, s.cfg.ShallowConceptLimit)
	if err != nil {
		return nil, err
	}

	newLabels, err := session.ApplyExpansion(root.Label(), aggregates.ExpandModeInitial, nodes, links)
	if err != nil {
		return nil, err
	}

	return &ExplorationResult{Session: session, NewLabels: newLabels, KeyPoints: result.KeyPoints}, nil
}

// deepStart orchestrates a depth >= 2 start as a saga so that a failure
// partway through unwinds every merged branch and leaves the graph where
// a single failed expansion would: untouched beyond the seeded root.
func (s *ExpansionService) deepStart(ctx context.Context, session *aggregates.Session, depth int) (*ExplorationResult, error) {
	out := &ExplorationResult{Session: session}
	var rootLabels []string
	subtopicLabels := make(map[string][]string)

	builder := sagas.NewSagaBuilder("deep-exploration", s.logger)

	builder.WithRetryableStep("explore-root", func(ctx context.Context, _ interface{}) (interface{}, error) {
		return s.exploreTopic(ctx, session, depth)
	}, 3, time.Second)

	builder.WithCompensableStep("merge-root-delta",
		func(ctx context.Context, data interface{}) (interface{}, error) {
			result := data.(*ports.TopicExploration)
			if err := session.SeedRoot(result.Summary); err != nil {
				return nil, err
			}

			root := session.Graph().Root()
			nodes, links, err := s.buildConceptBatch(root, result.Concepts, s.cfg.DeepConceptLimit)
			if err != nil {
				return nil, err
			}
			subNodes, subLinks, err := s.buildSubtopicBatch(root, result.Subtopics)
			if err != nil {
				return nil, err
			}

			added, err := session.ApplyExpansion(root.Label(), aggregates.ExpandModeInitial,
				append(nodes, subNodes...), append(links, subLinks...))
			if err != nil {
				return nil, err
			}

			rootLabels = added
			out.NewLabels = append(out.NewLabels, added...)
			out.KeyPoints = result.KeyPoints
			return result, nil
		},
		func(ctx context.Context, _ interface{}) error {
			for _, label := range rootLabels {
				session.RemoveConcept(label)
			}
			session.Expansion().Forget(session.Topic())
			return nil
		})

	builder.WithCompensableStep("expand-subtopics",
		func(ctx context.Context, data interface{}) (interface{}, error) {
			result := data.(*ports.TopicExploration)
			for _, sub := range result.Subtopics {
				name := strings.TrimSpace(sub.Name)
				parent, err := session.Graph().GetNode(name)
				if err != nil {
					// Subtopic collapsed into an existing label during the
					// root merge; nothing to hang children off.
					continue
				}

				nodes, links, err := s.buildConceptBatch(parent, sub.Concepts, s.cfg.SubtopicConceptLimit)
				if err != nil {
					return nil, err
				}

				added, err := session.ApplyExpansion(name, aggregates.ExpandModeDeep, nodes, links)
				if err != nil {
					return nil, err
				}
				subtopicLabels[name] = added
				out.NewLabels = append(out.NewLabels, added...)
			}
			return result, nil
		},
		func(ctx context.Context, _ interface{}) error {
			for name, labels := range subtopicLabels {
				for _, label := range labels {
					session.RemoveConcept(label)
				}
				session.Expansion().Forget(name)
			}
			return nil
		})

	if _, err := builder.Build().Execute(ctx, nil); err != nil {
		return nil, err
	}
	return out, nil
}

// ExpandConcept expands one node by label. Expanding an already-expanded
// label is a no-op that returns an empty delta without spending budget or
// calling the explorer.
func (s *ExpansionService) ExpandConcept(ctx context.Context, session *aggregates.Session, label string) ([]string, error) {
	node, err := session.Graph().GetNode(label)
	if err != nil {
		return nil, err
	}
	if session.Expansion().IsExpanded(label) {
		return nil, nil
	}

	if err := s.spendBudget(ctx, session); err != nil {
		return nil, err
	}

	nodes, links, err := s.suggest(ctx, session, node)
	if err != nil {
		return nil, err
	}

	newLabels, err := session.ApplyExpansion(label, aggregates.ExpandModeDeep, nodes, links)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Concept expanded",
		zap.String("sessionID", session.ID()),
		zap.String("label", label),
		zap.Int("newConcepts", len(newLabels)),
	)
	return newLabels, nil
}

// AutoExpandStep performs one step of the breadth-first auto-expansion:
// dequeue the next eligible label, expand it, and report the delta.
// Labels at or beyond the depth cap are dropped without an explorer
// call. A retryable failure puts the label back in the queue.
func (s *ExpansionService) AutoExpandStep(ctx context.Context, session *aggregates.Session) (*StepResult, error) {
	if !session.AutoExpand() {
		return &StepResult{Done: true, Reason: StopDisabled, Remaining: session.Expansion().QueueLen()}, nil
	}
	if session.Expansion().ExpandedCount() >= s.cfg.AutoExpandMaxSteps {
		return &StepResult{Done: true, Reason: StopStepLimit, Remaining: session.Expansion().QueueLen()}, nil
	}

	if err := s.spendBudget(ctx, session); err != nil {
		return nil, err
	}

	for {
		label, ok := session.Expansion().Dequeue()
		if !ok {
			return &StepResult{Done: true, Reason: StopQueueDrained}, nil
		}

		node, err := session.Graph().GetNode(label)
		if err != nil {
			// Removed after it was queued
			continue
		}
		if node.Level() >= s.cfg.AutoExpandMaxLevel {
			continue
		}

		newLabels, err := s.expandNode(ctx, session, node)
		if err != nil {
			if pkgerrors.IsRetryable(err) {
				session.Expansion().Enqueue(label)
			}
			return nil, err
		}

		s.logger.Debug("Auto-expansion step",
			zap.String("sessionID", session.ID()),
			zap.String("label", label),
			zap.Int("newConcepts", len(newLabels)),
			zap.Int("remaining", session.Expansion().QueueLen()),
		)
		return &StepResult{
			Expanded:  label,
			NewLabels: newLabels,
			Remaining: session.Expansion().QueueLen(),
		}, nil
	}
}

func (s *ExpansionService) expandNode(ctx context.Context, session *aggregates.Session, node *entities.Node) ([]string, error) {
	nodes, links, err := s.suggest(ctx, session, node)
	if err != nil {
		return nil, err
	}
	return session.ApplyExpansion(node.Label(), aggregates.ExpandModeDeep, nodes, links)
}

// suggest fetches and validates explorer output for one node. The call
// shape depends on what the node is: roots get a topic exploration,
// subtopics are explored in the context of the session topic, and plain
// concepts get related-concept suggestions.
func (s *ExpansionService) suggest(ctx context.Context, session *aggregates.Session, node *entities.Node) ([]*entities.Node, []aggregates.Link, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	label := node.Label()
	switch {
	case node.IsRoot():
		result, err := s.explorer.ExploreTopic(callCtx, label, 1)
		if err != nil {
			return nil, nil, expansionErr(label, err)
		}
		return s.buildConceptBatch(node, result.Concepts, s.cfg.ShallowConceptLimit)

	case node.Kind() == valueobjects.KindSubtopic:
		result, err := s.explorer.ExploreSubtopic(callCtx, session.Topic(), label)
		if err != nil {
			return nil, nil, expansionErr(label, err)
		}
		return s.buildConceptBatch(node, result.Concepts, s.cfg.SubtopicConceptLimit)

	default:
		records, err := s.explorer.RelatedConcepts(callCtx, label, s.cfg.ShallowConceptLimit)
		if err != nil {
			return nil, nil, expansionErr(label, err)
		}
		return s.buildConceptBatch(node, records, s.cfg.ShallowConceptLimit)
	}
}

func (s *ExpansionService) exploreTopic(ctx context.Context, session *aggregates.Session, depth int) (*ports.TopicExploration, error) {
	if err := s.spendBudget(ctx, session); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.explorer.ExploreTopic(callCtx, session.Topic(), depth)
	if err != nil {
		return nil, expansionErr(session.Topic(), err)
	}
	return result, nil
}

// buildConceptBatch converts explorer records into child nodes and links
// under parent. Records beyond limit are dropped, a record echoing the
// parent back is skipped, and any invalid record fails the whole batch.
func (s *ExpansionService) buildConceptBatch(parent *entities.Node, records []ports.RelatedConcept, limit int) ([]*entities.Node, []aggregates.Link, error) {
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	kind := parent.Kind().ChildKind()
	level := parent.Level() + 1

	nodes := make([]*entities.Node, 0, len(records))
	links := make([]aggregates.Link, 0, len(records))
	for _, record := range records {
		name := strings.TrimSpace(record.Name)
		if name == parent.Label() {
			continue
		}

		summary := strings.TrimSpace(record.Summary)
		if err := s.concepts.ValidateRecord(name, summary, parent.Label()); err != nil {
			return nil, nil, expansionErr(parent.Label(), err)
		}

		title := strings.TrimSpace(record.Relation)
		if err := s.links.ValidateRecord(parent.Label(), name, title, record.Weight); err != nil {
			return nil, nil, expansionErr(parent.Label(), err)
		}

		node, err := entities.NewNode(name, kind, level, parent.Label(), summary, s.cfg)
		if err != nil {
			return nil, nil, expansionErr(parent.Label(), err)
		}

		nodes = append(nodes, node)
		links = append(links, aggregates.Link{
			Source: parent.Label(),
			Target: name,
			Title:  title,
			Weight: record.Weight,
		})
	}
	return nodes, links, nil
}

// buildSubtopicBatch converts deep-exploration subtopics into subtopic
// nodes hanging off the root.
func (s *ExpansionService) buildSubtopicBatch(root *entities.Node, subs []ports.SubtopicExploration) ([]*entities.Node, []aggregates.Link, error) {
	if s.cfg.SubtopicLimit > 0 && len(subs) > s.cfg.SubtopicLimit {
		subs = subs[:s.cfg.SubtopicLimit]
	}

	nodes := make([]*entities.Node, 0, len(subs))
	links := make([]aggregates.Link, 0, len(subs))
	for _, sub := range subs {
		name := strings.TrimSpace(sub.Name)
		if name == root.Label() {
			continue
		}

		summary := strings.TrimSpace(sub.Summary)
		if err := s.concepts.ValidateRecord(name, summary, root.Label()); err != nil {
			return nil, nil, expansionErr(root.Label(), err)
		}

		node, err := entities.NewNode(name, valueobjects.KindSubtopic, root.Level()+1, root.Label(), summary, s.cfg)
		if err != nil {
			return nil, nil, expansionErr(root.Label(), err)
		}

		nodes = append(nodes, node)
		links = append(links, aggregates.Link{
			Source: root.Label(),
			Target: name,
			Title:  s.cfg.SubtopicRelation,
			Weight: s.cfg.DefaultEdgeWeight,
		})
	}
	return nodes, links, nil
}

// spendBudget consumes one explorer call from the session's budget. A
// budget store failure does not block the call; throttling is best
// effort while the explorer call is the expensive part.
func (s *ExpansionService) spendBudget(ctx context.Context, session *aggregates.Session) error {
	if s.budget == nil {
		return nil
	}

	allowed, err := s.budget.Allow(ctx, session.ID())
	if err != nil {
		s.logger.Warn("Expansion budget check failed",
			zap.String("sessionID", session.ID()),
			zap.Error(err),
		)
		return nil
	}
	if !allowed {
		return pkgerrors.NewRateLimitError(s.budget.GetLimit(), "minute")
	}
	return nil
}

// expansionErr wraps err as an expansion failure for label unless it
// already is one.
func expansionErr(label string, err error) error {
	if pkgerrors.IsExpansionFailed(err) {
		return err
	}
	return pkgerrors.NewExpansionFailedError(label, err)
}
