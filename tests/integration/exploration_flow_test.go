package integration

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/commands"
	"github.com/Anidipta/Node-Learner/application/commands/bus"
	"github.com/Anidipta/Node-Learner/application/ports"
	"github.com/Anidipta/Node-Learner/application/queries"
	querybus "github.com/Anidipta/Node-Learner/application/queries/bus"
	"github.com/Anidipta/Node-Learner/application/services"
	domainconfig "github.com/Anidipta/Node-Learner/domain/config"
	"github.com/Anidipta/Node-Learner/domain/events"
	"github.com/Anidipta/Node-Learner/infrastructure/di"
	pkgerrors "github.com/Anidipta/Node-Learner/pkg/errors"
	"github.com/Anidipta/Node-Learner/pkg/extensions"
	"github.com/Anidipta/Node-Learner/pkg/observability"
)

// These tests run the production bus wiring end to end: the same DI
// providers that build the deployed buses, over in-memory ports instead
// of DynamoDB and EventBridge. What they prove is the registration
// itself: that every command and query dispatched by the HTTP layer
// reaches a handler and round-trips through the service stack.

// scriptedExplorer serves canned explorations so no AI provider is
// needed. DetailedExplanation counts calls to make caching observable.
type scriptedExplorer struct {
	related      map[string][]ports.RelatedConcept
	topicCalls   int
	explainCalls int
}

func newScriptedExplorer() *scriptedExplorer {
	return &scriptedExplorer{related: make(map[string][]ports.RelatedConcept)}
}

func (s *scriptedExplorer) ExploreTopic(ctx context.Context, topic string, depth int) (*ports.TopicExploration, error) {
	s.topicCalls++
	return &ports.TopicExploration{
		Summary: "How computers schedule and isolate work",
		Concepts: []ports.RelatedConcept{
			{Name: "Processes", Summary: "Isolated running programs", Relation: "manages"},
			{Name: "Memory", Summary: "Address spaces and paging", Relation: "manages"},
			{Name: "Filesystems", Summary: "Persistent storage trees", Relation: "manages"},
		},
	}, nil
}

func (s *scriptedExplorer) ExploreSubtopic(ctx context.Context, mainTopic, subtopic string) (*ports.SubtopicExploration, error) {
	return &ports.SubtopicExploration{Name: subtopic}, nil
}

func (s *scriptedExplorer) RelatedConcepts(ctx context.Context, topic string, count int) ([]ports.RelatedConcept, error) {
	return s.related[topic], nil
}

func (s *scriptedExplorer) DetailedExplanation(ctx context.Context, topic string) (string, error) {
	s.explainCalls++
	return "A long-form walk through " + topic, nil
}

// recordingBus captures everything published to the event bus.
type recordingBus struct {
	published []events.DomainEvent
}

func (r *recordingBus) Publish(ctx context.Context, event events.DomainEvent) error {
	r.published = append(r.published, event)
	return nil
}

func (r *recordingBus) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	r.published = append(r.published, batch...)
	return nil
}

func (r *recordingBus) Subscribe(eventType string, handler ports.EventHandler) error   { return nil }
func (r *recordingBus) Unsubscribe(eventType string, handler ports.EventHandler) error { return nil }

func (r *recordingBus) eventTypes() []string {
	types := make([]string, 0, len(r.published))
	for _, event := range r.published {
		types = append(types, event.GetEventType())
	}
	return types
}

// memTreeRepo is a full in-memory TreeRepository, including the listing
// and search reads the query side needs. listCalls exposes whether a
// query was answered from the repository or a cache above it.
type memTreeRepo struct {
	docs      []*ports.TreeDocument
	listCalls int
}

func (m *memTreeRepo) find(userID, topic string) *ports.TreeDocument {
	for _, doc := range m.docs {
		if doc.UserID == userID && doc.Topic == topic {
			return doc
		}
	}
	return nil
}

func (m *memTreeRepo) GetTree(ctx context.Context, userID, topic string) (*ports.TreeDocument, error) {
	if doc := m.find(userID, topic); doc != nil {
		return doc, nil
	}
	return nil, pkgerrors.NewNotFoundError("tree")
}

func (m *memTreeRepo) GetTreeByID(ctx context.Context, treeID string) (*ports.TreeDocument, error) {
	for _, doc := range m.docs {
		if doc.TreeID == treeID {
			return doc, nil
		}
	}
	return nil, pkgerrors.NewNotFoundError("tree")
}

func (m *memTreeRepo) InsertTree(ctx context.Context, doc *ports.TreeDocument) error {
	m.docs = append(m.docs, doc)
	return nil
}

func (m *memTreeRepo) ReplaceTree(ctx context.Context, doc *ports.TreeDocument) error {
	for i, existing := range m.docs {
		if existing.UserID == doc.UserID && existing.Topic == doc.Topic {
			m.docs[i] = doc
			return nil
		}
	}
	m.docs = append(m.docs, doc)
	return nil
}

func (m *memTreeRepo) summarize(doc *ports.TreeDocument) *ports.TreeSummary {
	return &ports.TreeSummary{
		TreeID:    doc.TreeID,
		Topic:     doc.Topic,
		NodeCount: len(doc.Nodes),
		EdgeCount: len(doc.Edges),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func (m *memTreeRepo) ListTrees(ctx context.Context, userID string, limit int) ([]*ports.TreeSummary, error) {
	m.listCalls++
	var summaries []*ports.TreeSummary
	for _, doc := range m.docs {
		if doc.UserID != userID {
			continue
		}
		summaries = append(summaries, m.summarize(doc))
		if limit > 0 && len(summaries) == limit {
			break
		}
	}
	return summaries, nil
}

func (m *memTreeRepo) SearchTopics(ctx context.Context, userID, query string) ([]*ports.TreeSummary, error) {
	var summaries []*ports.TreeSummary
	for _, doc := range m.docs {
		if doc.UserID != userID {
			continue
		}
		if strings.Contains(strings.ToLower(doc.Topic), strings.ToLower(query)) {
			summaries = append(summaries, m.summarize(doc))
		}
	}
	return summaries, nil
}

// memSessionRepo appends session records in memory.
type memSessionRepo struct {
	records []*ports.SessionRecord
}

func (m *memSessionRepo) LogSession(ctx context.Context, record *ports.SessionRecord) error {
	m.records = append(m.records, record)
	return nil
}

func (m *memSessionRepo) ListSessions(ctx context.Context, userID string, limit int) ([]*ports.SessionRecord, error) {
	var out []*ports.SessionRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].UserID != userID {
			continue
		}
		out = append(out, m.records[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// stack is the full application wired the way the container wires it.
type stack struct {
	commands *bus.CommandBus
	queries  *querybus.QueryBus
	registry *services.SessionRegistry
	events   *recordingBus
	trees    *memTreeRepo
	sessions *memSessionRepo
	hooks    *extensions.HookManager
	explorer *scriptedExplorer
}

func newStack(t *testing.T) *stack {
	t.Helper()

	logger := zap.NewNop()
	cfg := domainconfig.DefaultDomainConfig()
	cfg.MinSessionDuration = 10 * time.Millisecond

	explorer := newScriptedExplorer()
	explorer.related["Processes"] = []ports.RelatedConcept{
		{Name: "Scheduling", Summary: "Deciding what runs next", Relation: "performs"},
		{Name: "Threads", Summary: "Concurrent flows inside a process", Relation: "contains"},
	}

	trees := &memTreeRepo{}
	sessions := &memSessionRepo{}
	recording := &recordingBus{}

	collector := observability.NewCollector("nodelearner")
	cache := di.ProvideCache(collector)
	hooks := di.ProvideHookManager(logger)
	publisher := di.ProvideEventPublisher(recording, hooks)

	codec := services.NewTreeCodec(cfg, logger)
	registry := services.NewSessionRegistry(cfg, logger)
	expansion := services.NewExpansionService(explorer, nil, cfg, time.Second, logger)
	persistence := services.NewPersistenceService(trees, nil, codec, cfg, logger)
	recorder := services.NewSessionRecorder(sessions, cfg, logger)
	explanations := services.NewExplanationService(explorer, cache, 60, time.Second, logger)

	return &stack{
		commands: di.ProvideCommandBus(expansion, persistence, registry, recorder, publisher, hooks, nil, logger),
		queries:  di.ProvideQueryBus(trees, sessions, registry, explanations, codec, cache, collector, logger),
		registry: registry,
		events:   recording,
		trees:    trees,
		sessions: sessions,
		hooks:    hooks,
		explorer: explorer,
	}
}

func TestExplorationLifecycle(t *testing.T) {
	st := newStack(t)
	ctx := context.Background()

	// Start exploring a topic.
	start := &commands.StartExplorationCommand{
		UserID: "learner-1",
		Topic:  "Operating Systems",
		Depth:  1,
	}
	require.NoError(t, st.commands.Send(ctx, start))
	require.NotNil(t, start.Result)
	sessionID := start.Result.SessionID
	treeID := start.Result.TreeID

	// The live graph is readable immediately.
	raw, err := st.queries.Ask(ctx, queries.GetGraphQuery{SessionID: sessionID, UserID: "learner-1"})
	require.NoError(t, err)
	graph, ok := raw.(*queries.GetGraphResult)
	require.True(t, ok, "unexpected result type %T", raw)
	assert.Equal(t, "Operating Systems", graph.Topic)
	assert.Equal(t, 4, graph.Stats.NodeCount)
	assert.Equal(t, 3, graph.Stats.EdgeCount)

	// Deepen one branch.
	expand := &commands.ExpandConceptCommand{
		SessionID: sessionID,
		UserID:    "learner-1",
		Label:     "Processes",
	}
	require.NoError(t, st.commands.Send(ctx, expand))
	require.NotNil(t, expand.Result)
	assert.Equal(t, []string{"Scheduling", "Threads"}, expand.Result.NewLabels)

	raw, err = st.queries.Ask(ctx, queries.GetGraphQuery{SessionID: sessionID, UserID: "learner-1"})
	require.NoError(t, err)
	graph = raw.(*queries.GetGraphResult)
	assert.Equal(t, 6, graph.Stats.NodeCount)

	// Persist and read the tree back through the query side.
	save := &commands.SaveTreeCommand{SessionID: sessionID, UserID: "learner-1"}
	require.NoError(t, st.commands.Send(ctx, save))
	require.NotNil(t, save.Result)
	assert.True(t, save.Result.Inserted)

	raw, err = st.queries.Ask(ctx, queries.ListTreesQuery{UserID: "learner-1", Limit: 10})
	require.NoError(t, err)
	listing := raw.(*queries.ListTreesResult)
	require.Equal(t, 1, listing.Count)
	assert.Equal(t, treeID, listing.Trees[0].TreeID)
	assert.Equal(t, 6, listing.Trees[0].NodeCount)

	raw, err = st.queries.Ask(ctx, queries.GetTreeQuery{UserID: "learner-1", TreeID: treeID})
	require.NoError(t, err)
	saved := raw.(*queries.GetTreeResult)
	assert.Equal(t, "Operating Systems", saved.Topic)
	assert.Len(t, saved.Nodes, 6)
	assert.Equal(t, 1, saved.Version)

	raw, err = st.queries.Ask(ctx, queries.SearchTopicsQuery{UserID: "learner-1", Query: "operating"})
	require.NoError(t, err)
	found := raw.(*queries.SearchTopicsResult)
	assert.Equal(t, 1, found.Count)

	// End the session and check it landed in the history.
	time.Sleep(30 * time.Millisecond) // cross the dwell threshold
	end := &commands.EndSessionCommand{SessionID: sessionID, UserID: "learner-1"}
	require.NoError(t, st.commands.Send(ctx, end))
	require.NotNil(t, end.Result)
	assert.True(t, end.Result.Recorded)
	assert.Zero(t, st.registry.Count())

	raw, err = st.queries.Ask(ctx, queries.GetHistoryQuery{UserID: "learner-1", Limit: 10})
	require.NoError(t, err)
	history := raw.(*queries.GetHistoryResult)
	require.Equal(t, 1, history.Count)
	assert.Equal(t, "Operating Systems", history.Sessions[0].Topic)

	raw, err = st.queries.Ask(ctx, queries.GetDashboardStatsQuery{UserID: "learner-1"})
	require.NoError(t, err)
	stats := raw.(*queries.GetDashboardStatsResult)
	assert.Equal(t, 1, stats.TotalTrees)
	assert.Equal(t, 6, stats.TotalNodes)
	assert.Positive(t, stats.KnowledgeScore)

	// Every mutation reached the event bus.
	types := st.events.eventTypes()
	assert.Contains(t, types, "session.started")
	assert.Contains(t, types, "graph.expanded")
	assert.Contains(t, types, "tree.saved")
	assert.Contains(t, types, "session.ended")
}

func TestCommandValidationShortCircuits(t *testing.T) {
	st := newStack(t)

	err := st.commands.Send(context.Background(), &commands.StartExplorationCommand{
		UserID: "learner-1",
		Topic:  "",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, bus.ErrValidationFailed))
	assert.Zero(t, st.explorer.topicCalls, "invalid commands must not reach the explorer")
}

func TestUnknownSessionReadsAsNotFound(t *testing.T) {
	st := newStack(t)

	_, err := st.queries.Ask(context.Background(), queries.GetGraphQuery{
		SessionID: "11111111-2222-3333-4444-555555555555",
		UserID:    "learner-1",
	})

	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestDashboardStatsAreCached(t *testing.T) {
	st := newStack(t)
	ctx := context.Background()

	start := &commands.StartExplorationCommand{UserID: "learner-1", Topic: "Compilers", Depth: 1}
	require.NoError(t, st.commands.Send(ctx, start))
	require.NoError(t, st.commands.Send(ctx, &commands.SaveTreeCommand{
		SessionID: start.Result.SessionID, UserID: "learner-1",
	}))

	first, err := st.queries.Ask(ctx, queries.GetDashboardStatsQuery{UserID: "learner-1"})
	require.NoError(t, err)
	callsAfterFirst := st.trees.listCalls

	second, err := st.queries.Ask(ctx, queries.GetDashboardStatsQuery{UserID: "learner-1"})
	require.NoError(t, err)

	assert.Equal(t, callsAfterFirst, st.trees.listCalls, "second ask must be served from cache")
	assert.Equal(t, first, second)
}

func TestExplanationFetchedOnceAcrossAsks(t *testing.T) {
	st := newStack(t)
	ctx := context.Background()
	query := queries.GetExplanationQuery{UserID: "learner-1", Topic: "Virtual Memory"}

	raw, err := st.queries.Ask(ctx, query)
	require.NoError(t, err)
	explanation := raw.(*queries.GetExplanationResult)
	assert.Equal(t, "A long-form walk through Virtual Memory", explanation.Explanation)

	_, err = st.queries.Ask(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, 1, st.explorer.explainCalls, "explanations are cached per topic")
}

func TestPublishedEventsReachHookObservers(t *testing.T) {
	st := newStack(t)
	expanded := make(chan *extensions.HookData, 8)
	st.hooks.Register(extensions.HookGraphExpanded, func(ctx context.Context, data interface{}) error {
		if hookData, ok := data.(*extensions.HookData); ok {
			expanded <- hookData
		}
		return nil
	})

	start := &commands.StartExplorationCommand{UserID: "learner-1", Topic: "Databases", Depth: 1}
	require.NoError(t, st.commands.Send(context.Background(), start))

	select {
	case data := <-expanded:
		assert.Equal(t, start.Result.SessionID, data.SessionID)
		assert.Equal(t, "graph.expanded", data.Operation)
		event, ok := data.Payload.(events.GraphExpanded)
		require.True(t, ok, "unexpected payload type %T", data.Payload)
		assert.Equal(t, "learner-1", event.UserID)
	case <-time.After(2 * time.Second):
		t.Fatal("graph.expanded never reached the hook point")
	}
}
