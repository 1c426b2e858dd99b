package handlers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/commands"
	"github.com/Anidipta/Node-Learner/application/ports"
	"github.com/Anidipta/Node-Learner/application/services"
	"github.com/Anidipta/Node-Learner/domain/config"
	"github.com/Anidipta/Node-Learner/domain/core/aggregates"
	"github.com/Anidipta/Node-Learner/domain/events"
	pkgerrors "github.com/Anidipta/Node-Learner/pkg/errors"
)

// fakeExplorer serves scripted explorations. Unscripted related-concept
// lookups return an empty batch so expansion steps can run without a
// script for every label.
type fakeExplorer struct {
	topic    *ports.TopicExploration
	topicErr error
	related  map[string][]ports.RelatedConcept
	calls    []string
}

func (f *fakeExplorer) ExploreTopic(ctx context.Context, topic string, depth int) (*ports.TopicExploration, error) {
	f.calls = append(f.calls, fmt.Sprintf("topic:%s:%d", topic, depth))
	if f.topicErr != nil {
		return nil, f.topicErr
	}
	return f.topic, nil
}

func (f *fakeExplorer) ExploreSubtopic(ctx context.Context, mainTopic, subtopic string) (*ports.SubtopicExploration, error) {
	f.calls = append(f.calls, "subtopic:"+subtopic)
	return &ports.SubtopicExploration{Name: subtopic}, nil
}

func (f *fakeExplorer) RelatedConcepts(ctx context.Context, topic string, count int) ([]ports.RelatedConcept, error) {
	f.calls = append(f.calls, "related:"+topic)
	return f.related[topic], nil
}

func (f *fakeExplorer) DetailedExplanation(ctx context.Context, topic string) (string, error) {
	f.calls = append(f.calls, "explain:"+topic)
	return "", nil
}

// fakePublisher records every published batch.
type fakePublisher struct {
	batches [][]events.DomainEvent
	err     error
}

func (f *fakePublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return f.PublishBatch(ctx, []events.DomainEvent{event})
}

func (f *fakePublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, batch)
	return nil
}

// fakeTreeRepo is an in-memory tree store keyed by (user, topic).
type fakeTreeRepo struct {
	docs map[string]*ports.TreeDocument
	byID map[string]*ports.TreeDocument
}

func newFakeTreeRepo() *fakeTreeRepo {
	return &fakeTreeRepo{
		docs: make(map[string]*ports.TreeDocument),
		byID: make(map[string]*ports.TreeDocument),
	}
}

func (f *fakeTreeRepo) key(userID, topic string) string { return userID + "|" + topic }

func (f *fakeTreeRepo) GetTree(ctx context.Context, userID, topic string) (*ports.TreeDocument, error) {
	if doc, ok := f.docs[f.key(userID, topic)]; ok {
		return doc, nil
	}
	return nil, pkgerrors.NewNotFoundError("tree")
}

func (f *fakeTreeRepo) GetTreeByID(ctx context.Context, treeID string) (*ports.TreeDocument, error) {
	if doc, ok := f.byID[treeID]; ok {
		return doc, nil
	}
	return nil, pkgerrors.NewNotFoundError("tree")
}

func (f *fakeTreeRepo) InsertTree(ctx context.Context, doc *ports.TreeDocument) error {
	f.docs[f.key(doc.UserID, doc.Topic)] = doc
	f.byID[doc.TreeID] = doc
	return nil
}

func (f *fakeTreeRepo) ReplaceTree(ctx context.Context, doc *ports.TreeDocument) error {
	f.docs[f.key(doc.UserID, doc.Topic)] = doc
	f.byID[doc.TreeID] = doc
	return nil
}

func (f *fakeTreeRepo) ListTrees(ctx context.Context, userID string, limit int) ([]*ports.TreeSummary, error) {
	return nil, nil
}

func (f *fakeTreeRepo) SearchTopics(ctx context.Context, userID, query string) ([]*ports.TreeSummary, error) {
	return nil, nil
}

// fakeSessionRepo appends session records.
type fakeSessionRepo struct {
	records []*ports.SessionRecord
	logErr  error
}

func (f *fakeSessionRepo) LogSession(ctx context.Context, record *ports.SessionRecord) error {
	if f.logErr != nil {
		return f.logErr
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeSessionRepo) ListSessions(ctx context.Context, userID string, limit int) ([]*ports.SessionRecord, error) {
	return f.records, nil
}

// fixture wires the full write-side service stack over the fakes.
type fixture struct {
	cfg       *config.DomainConfig
	explorer  *fakeExplorer
	publisher *fakePublisher
	trees     *fakeTreeRepo
	sessions  *fakeSessionRepo
	registry  *services.SessionRegistry
	expansion *services.ExpansionService
	persist   *services.PersistenceService
	recorder  *services.SessionRecorder
}

func newFixture() *fixture {
	logger := zap.NewNop()
	cfg := config.DefaultDomainConfig()
	cfg.MinSessionDuration = 10 * time.Millisecond

	explorer := &fakeExplorer{
		topic: &ports.TopicExploration{
			Summary: "The study of graphs and their properties",
			Concepts: []ports.RelatedConcept{
				{Name: "Vertices", Summary: "Fundamental units of a graph", Relation: "consists of"},
				{Name: "Edges", Summary: "Connections between vertices", Relation: "consists of"},
				{Name: "Paths", Summary: "Vertex sequences joined by edges", Relation: "traversal"},
			},
		},
		related: make(map[string][]ports.RelatedConcept),
	}
	trees := newFakeTreeRepo()
	sessions := &fakeSessionRepo{}
	codec := services.NewTreeCodec(cfg, logger)

	return &fixture{
		cfg:       cfg,
		explorer:  explorer,
		publisher: &fakePublisher{},
		trees:     trees,
		sessions:  sessions,
		registry:  services.NewSessionRegistry(cfg, logger),
		expansion: services.NewExpansionService(explorer, nil, cfg, time.Second, logger),
		persist:   services.NewPersistenceService(trees, nil, codec, cfg, logger),
		recorder:  services.NewSessionRecorder(sessions, cfg, logger),
	}
}

func (f *fixture) start(t *testing.T, autoExpand bool) *commands.StartExplorationResult {
	t.Helper()
	handler := NewStartExplorationHandler(f.expansion, f.registry, f.publisher, zap.NewNop())
	cmd := &commands.StartExplorationCommand{
		UserID:     "user-1",
		Topic:      "Graph Theory",
		Depth:      1,
		AutoExpand: autoExpand,
	}
	require.NoError(t, handler.Handle(context.Background(), cmd))
	require.NotNil(t, cmd.Result)
	return cmd.Result
}

func TestStartExplorationHandler_RegistersSessionAndFocusesRoot(t *testing.T) {
	// Arrange
	fx := newFixture()
	handler := NewStartExplorationHandler(fx.expansion, fx.registry, fx.publisher, zap.NewNop())
	cmd := &commands.StartExplorationCommand{
		UserID:     "user-1",
		Topic:      "Graph Theory",
		Depth:      1,
		AutoExpand: true,
	}

	// Act
	err := handler.Handle(context.Background(), cmd)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, cmd.Result)
	assert.NotEmpty(t, cmd.Result.SessionID)
	assert.NotEmpty(t, cmd.Result.TreeID)
	assert.Equal(t, "Graph Theory", cmd.Result.Topic)
	assert.Equal(t, []string{"Vertices", "Edges", "Paths"}, cmd.Result.NewLabels)
	assert.Equal(t, 4, cmd.Result.NodeCount)
	assert.Equal(t, 3, cmd.Result.EdgeCount)

	assert.Equal(t, 1, fx.registry.Count())
	assert.NotEmpty(t, fx.publisher.batches, "domain events should be published on start")

	withErr := fx.registry.With(cmd.Result.SessionID, "user-1", func(session *aggregates.Session) error {
		active, ok := session.Tracker().ActiveLabel()
		assert.True(t, ok)
		assert.Equal(t, "Graph Theory", active)
		assert.True(t, session.AutoExpand())
		assert.Empty(t, session.GetUncommittedEvents(), "events drain on publish")
		return nil
	})
	require.NoError(t, withErr)
}

func TestStartExplorationHandler_DepthDefaultsToShallow(t *testing.T) {
	// Arrange
	fx := newFixture()
	handler := NewStartExplorationHandler(fx.expansion, fx.registry, fx.publisher, zap.NewNop())
	cmd := &commands.StartExplorationCommand{UserID: "user-1", Topic: "Graph Theory"}

	// Act
	err := handler.Handle(context.Background(), cmd)

	// Assert
	require.NoError(t, err)
	require.NotEmpty(t, fx.explorer.calls)
	assert.Equal(t, "topic:Graph Theory:1", fx.explorer.calls[0])
}

func TestStartExplorationHandler_ExplorerFailureRegistersNothing(t *testing.T) {
	// Arrange
	fx := newFixture()
	fx.explorer.topicErr = errors.New("model unavailable")
	handler := NewStartExplorationHandler(fx.expansion, fx.registry, fx.publisher, zap.NewNop())
	cmd := &commands.StartExplorationCommand{UserID: "user-1", Topic: "Graph Theory", Depth: 1}

	// Act
	err := handler.Handle(context.Background(), cmd)

	// Assert
	require.Error(t, err)
	assert.Nil(t, cmd.Result)
	assert.Zero(t, fx.registry.Count())
}

func TestStartExplorationHandler_RejectsInvalidCommand(t *testing.T) {
	// Arrange
	fx := newFixture()
	handler := NewStartExplorationHandler(fx.expansion, fx.registry, fx.publisher, zap.NewNop())
	cmd := &commands.StartExplorationCommand{UserID: "user-1", Topic: ""}

	// Act
	err := handler.Handle(context.Background(), cmd)

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid command")
	assert.Empty(t, fx.explorer.calls, "validation failures must not reach the explorer")
}

func TestExpandConceptHandler_AppendsDelta(t *testing.T) {
	// Arrange
	fx := newFixture()
	fx.explorer.related["Vertices"] = []ports.RelatedConcept{
		{Name: "Degree", Summary: "Number of incident edges", Relation: "property"},
		{Name: "Adjacency", Summary: "Direct connection between vertices", Relation: "property"},
	}
	started := fx.start(t, false)
	handler := NewExpandConceptHandler(fx.expansion, fx.registry, fx.publisher, zap.NewNop())
	cmd := &commands.ExpandConceptCommand{
		SessionID: started.SessionID,
		UserID:    "user-1",
		Label:     "Vertices",
	}

	// Act
	err := handler.Handle(context.Background(), cmd)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, cmd.Result)
	assert.Equal(t, "Vertices", cmd.Result.Expanded)
	assert.Equal(t, []string{"Degree", "Adjacency"}, cmd.Result.NewLabels)
	assert.Equal(t, 6, cmd.Result.NodeCount)
	assert.Equal(t, 5, cmd.Result.EdgeCount)
}

func TestExpandConceptHandler_RepeatExpansionIsNoOp(t *testing.T) {
	// Arrange
	fx := newFixture()
	fx.explorer.related["Vertices"] = []ports.RelatedConcept{
		{Name: "Degree", Summary: "Number of incident edges", Relation: "property"},
	}
	started := fx.start(t, false)
	handler := NewExpandConceptHandler(fx.expansion, fx.registry, fx.publisher, zap.NewNop())
	first := &commands.ExpandConceptCommand{SessionID: started.SessionID, UserID: "user-1", Label: "Vertices"}
	require.NoError(t, handler.Handle(context.Background(), first))

	// Act
	second := &commands.ExpandConceptCommand{SessionID: started.SessionID, UserID: "user-1", Label: "Vertices"}
	err := handler.Handle(context.Background(), second)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, second.Result)
	assert.Empty(t, second.Result.NewLabels)
	assert.Equal(t, first.Result.NodeCount, second.Result.NodeCount)
}

func TestExpandConceptHandler_OwnershipReadsAsNotFound(t *testing.T) {
	// Arrange
	fx := newFixture()
	started := fx.start(t, false)
	handler := NewExpandConceptHandler(fx.expansion, fx.registry, fx.publisher, zap.NewNop())

	// Act
	wrongUser := &commands.ExpandConceptCommand{SessionID: started.SessionID, UserID: "user-2", Label: "Vertices"}
	wrongUserErr := handler.Handle(context.Background(), wrongUser)

	unknown := &commands.ExpandConceptCommand{SessionID: "missing-session", UserID: "user-1", Label: "Vertices"}
	unknownErr := handler.Handle(context.Background(), unknown)

	// Assert
	assert.True(t, pkgerrors.IsNotFound(wrongUserErr), "foreign session must not be confirmed to exist")
	assert.True(t, pkgerrors.IsNotFound(unknownErr))
}

func TestFocusConceptHandler_SwitchesActiveConcept(t *testing.T) {
	// Arrange
	fx := newFixture()
	started := fx.start(t, false)
	handler := NewFocusConceptHandler(fx.registry, fx.publisher, zap.NewNop())
	cmd := &commands.FocusConceptCommand{
		SessionID: started.SessionID,
		UserID:    "user-1",
		Label:     "Vertices",
	}

	// Act
	err := handler.Handle(context.Background(), cmd)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, cmd.Result)
	assert.Equal(t, "Vertices", cmd.Result.ActiveLabel)

	withErr := fx.registry.With(started.SessionID, "user-1", func(session *aggregates.Session) error {
		active, ok := session.Tracker().ActiveLabel()
		assert.True(t, ok)
		assert.Equal(t, "Vertices", active)
		return nil
	})
	require.NoError(t, withErr)
}

func TestFocusConceptHandler_ResolvesNodeID(t *testing.T) {
	// Arrange
	fx := newFixture()
	started := fx.start(t, false)

	var edgesNodeID string
	require.NoError(t, fx.registry.With(started.SessionID, "user-1", func(session *aggregates.Session) error {
		node, err := session.Graph().GetNode("Edges")
		require.NoError(t, err)
		edgesNodeID = node.ID().String()
		return nil
	}))

	handler := NewFocusConceptHandler(fx.registry, fx.publisher, zap.NewNop())
	cmd := &commands.FocusConceptCommand{
		SessionID: started.SessionID,
		UserID:    "user-1",
		NodeID:    edgesNodeID,
	}

	// Act
	err := handler.Handle(context.Background(), cmd)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, cmd.Result)
	assert.Equal(t, "Edges", cmd.Result.ActiveLabel)
}

func TestFocusConceptHandler_UnknownLabelFails(t *testing.T) {
	// Arrange
	fx := newFixture()
	started := fx.start(t, false)
	handler := NewFocusConceptHandler(fx.registry, fx.publisher, zap.NewNop())
	cmd := &commands.FocusConceptCommand{
		SessionID: started.SessionID,
		UserID:    "user-1",
		Label:     "Quantum Chromodynamics",
	}

	// Act
	err := handler.Handle(context.Background(), cmd)

	// Assert
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.Nil(t, cmd.Result)
}

func TestRemoveConceptHandler_CascadeRemovesSubtree(t *testing.T) {
	// Arrange
	fx := newFixture()
	fx.explorer.related["Vertices"] = []ports.RelatedConcept{
		{Name: "Degree", Summary: "Number of incident edges", Relation: "property"},
		{Name: "Adjacency", Summary: "Direct connection between vertices", Relation: "property"},
	}
	started := fx.start(t, false)
	expand := NewExpandConceptHandler(fx.expansion, fx.registry, fx.publisher, zap.NewNop())
	require.NoError(t, expand.Handle(context.Background(), &commands.ExpandConceptCommand{
		SessionID: started.SessionID, UserID: "user-1", Label: "Vertices",
	}))

	handler := NewRemoveConceptHandler(fx.registry, fx.publisher, zap.NewNop())
	cmd := &commands.RemoveConceptCommand{
		SessionID: started.SessionID,
		UserID:    "user-1",
		Label:     "Vertices",
	}

	// Act
	err := handler.Handle(context.Background(), cmd)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, cmd.Result)
	assert.ElementsMatch(t, []string{"Vertices", "Degree", "Adjacency"}, cmd.Result.RemovedLabels)
	assert.Equal(t, 3, cmd.Result.NodeCount)
	assert.Equal(t, 2, cmd.Result.EdgeCount)
}

func TestRemoveConceptHandler_AbsentLabelIsSilent(t *testing.T) {
	// Arrange
	fx := newFixture()
	started := fx.start(t, false)
	handler := NewRemoveConceptHandler(fx.registry, fx.publisher, zap.NewNop())
	cmd := &commands.RemoveConceptCommand{
		SessionID: started.SessionID,
		UserID:    "user-1",
		Label:     "Never Added",
	}

	// Act
	err := handler.Handle(context.Background(), cmd)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, cmd.Result)
	assert.Empty(t, cmd.Result.RemovedLabels)
	assert.Equal(t, 4, cmd.Result.NodeCount)
}

func TestRemoveConceptHandler_UnknownNodeIDFails(t *testing.T) {
	// Arrange
	fx := newFixture()
	started := fx.start(t, false)
	handler := NewRemoveConceptHandler(fx.registry, fx.publisher, zap.NewNop())
	cmd := &commands.RemoveConceptCommand{
		SessionID: started.SessionID,
		UserID:    "user-1",
		NodeID:    "0e8dd0bc-94d6-4b62-9ab0-2ea4f18e3e79",
	}

	// Act
	err := handler.Handle(context.Background(), cmd)

	// Assert
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestLinkConceptsHandler_LinksExistingConcepts(t *testing.T) {
	// Arrange
	fx := newFixture()
	started := fx.start(t, false)
	handler := NewLinkConceptsHandler(fx.registry, fx.publisher, zap.NewNop())
	cmd := &commands.LinkConceptsCommand{
		SessionID: started.SessionID,
		UserID:    "user-1",
		Source:    "Vertices",
		Target:    "Edges",
		Title:     "incident to",
		Weight:    2,
	}

	// Act
	err := handler.Handle(context.Background(), cmd)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, cmd.Result)
	assert.Equal(t, "Vertices", cmd.Result.Source)
	assert.Equal(t, "Edges", cmd.Result.Target)
	assert.Equal(t, "incident to", cmd.Result.Title)
	assert.Equal(t, 2, cmd.Result.Weight)
}

func TestLinkConceptsHandler_UnknownEndpointFails(t *testing.T) {
	// Arrange
	fx := newFixture()
	started := fx.start(t, false)
	handler := NewLinkConceptsHandler(fx.registry, fx.publisher, zap.NewNop())
	cmd := &commands.LinkConceptsCommand{
		SessionID: started.SessionID,
		UserID:    "user-1",
		Source:    "Vertices",
		Target:    "Not In Graph",
	}

	// Act
	err := handler.Handle(context.Background(), cmd)

	// Assert
	require.Error(t, err)
	assert.Nil(t, cmd.Result)
}

func TestSaveTreeHandler_InsertThenUnchanged(t *testing.T) {
	// Arrange
	fx := newFixture()
	started := fx.start(t, false)
	handler := NewSaveTreeHandler(fx.persist, fx.registry, fx.publisher, zap.NewNop())
	first := &commands.SaveTreeCommand{SessionID: started.SessionID, UserID: "user-1"}

	// Act
	require.NoError(t, handler.Handle(context.Background(), first))
	second := &commands.SaveTreeCommand{SessionID: started.SessionID, UserID: "user-1"}
	err := handler.Handle(context.Background(), second)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, first.Result)
	assert.True(t, first.Result.Inserted)
	assert.Equal(t, 1, first.Result.Version)

	require.NotNil(t, second.Result)
	assert.True(t, second.Result.Unchanged)
	assert.Equal(t, first.Result.Checksum, second.Result.Checksum)

	stored, getErr := fx.trees.GetTree(context.Background(), "user-1", "Graph Theory")
	require.NoError(t, getErr)
	assert.Len(t, stored.Nodes, 4)
	assert.Len(t, stored.Edges, 3)
}

func TestEndSessionHandler_RecordsAndDropsSession(t *testing.T) {
	// Arrange
	fx := newFixture()
	started := fx.start(t, false)
	time.Sleep(30 * time.Millisecond) // cross the dwell threshold on the root
	handler := NewEndSessionHandler(fx.recorder, fx.registry, fx.publisher, zap.NewNop())
	cmd := &commands.EndSessionCommand{SessionID: started.SessionID, UserID: "user-1"}

	// Act
	err := handler.Handle(context.Background(), cmd)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, cmd.Result)
	assert.True(t, cmd.Result.Recorded)
	assert.True(t, cmd.Result.Dirty, "nothing was saved before ending")

	require.Len(t, fx.sessions.records, 1)
	record := fx.sessions.records[0]
	assert.Equal(t, started.SessionID, record.SessionID)
	assert.Equal(t, "Graph Theory", record.Topic)
	assert.Contains(t, record.NodesExplored, "Graph Theory")

	assert.Zero(t, fx.registry.Count(), "ended session must leave the registry")
}

func TestEndSessionHandler_RecordFailureStillEndsSession(t *testing.T) {
	// Arrange
	fx := newFixture()
	fx.sessions.logErr = errors.New("session table unavailable")
	started := fx.start(t, false)
	time.Sleep(30 * time.Millisecond)
	handler := NewEndSessionHandler(fx.recorder, fx.registry, fx.publisher, zap.NewNop())
	cmd := &commands.EndSessionCommand{SessionID: started.SessionID, UserID: "user-1"}

	// Act
	err := handler.Handle(context.Background(), cmd)

	// Assert
	require.NoError(t, err, "a failed history write must not trap the session")
	require.NotNil(t, cmd.Result)
	assert.False(t, cmd.Result.Recorded)
	assert.Zero(t, fx.registry.Count())
}

func TestAutoExpandStepHandler_ExpandsNextQueuedLabel(t *testing.T) {
	// Arrange
	fx := newFixture()
	started := fx.start(t, true)
	handler := NewAutoExpandStepHandler(fx.expansion, fx.registry, fx.publisher, zap.NewNop())
	cmd := &commands.AutoExpandStepCommand{SessionID: started.SessionID, UserID: "user-1"}

	// Act
	err := handler.Handle(context.Background(), cmd)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, cmd.Result)
	assert.Equal(t, "Vertices", cmd.Result.Expanded, "queue drains in insertion order")
	assert.Equal(t, 2, cmd.Result.Remaining)
	assert.False(t, cmd.Result.Done)
}

func TestAutoExpandStepHandler_DisabledReportsDone(t *testing.T) {
	// Arrange
	fx := newFixture()
	started := fx.start(t, false)
	handler := NewAutoExpandStepHandler(fx.expansion, fx.registry, fx.publisher, zap.NewNop())
	cmd := &commands.AutoExpandStepCommand{SessionID: started.SessionID, UserID: "user-1"}

	// Act
	err := handler.Handle(context.Background(), cmd)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, cmd.Result)
	assert.True(t, cmd.Result.Done)
	assert.Equal(t, services.StopDisabled, cmd.Result.Reason)
	assert.Empty(t, cmd.Result.Expanded)
}

func TestResumeExplorationHandler_RebuildsSavedTree(t *testing.T) {
	// Arrange
	fx := newFixture()
	started := fx.start(t, false)
	save := NewSaveTreeHandler(fx.persist, fx.registry, fx.publisher, zap.NewNop())
	require.NoError(t, save.Handle(context.Background(), &commands.SaveTreeCommand{
		SessionID: started.SessionID, UserID: "user-1",
	}))
	fx.registry.Remove(started.SessionID)

	handler := NewResumeExplorationHandler(fx.persist, fx.registry, fx.publisher, zap.NewNop())
	cmd := &commands.ResumeExplorationCommand{UserID: "user-1", Topic: "Graph Theory"}

	// Act
	err := handler.Handle(context.Background(), cmd)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, cmd.Result)
	assert.NotEqual(t, started.SessionID, cmd.Result.SessionID, "resume mints a fresh session")
	assert.Equal(t, started.TreeID, cmd.Result.TreeID, "the stored tree identity survives")
	assert.Equal(t, 4, cmd.Result.NodeCount)
	assert.Equal(t, 3, cmd.Result.EdgeCount)
	assert.Equal(t, 1, fx.registry.Count())
}

func TestResumeExplorationHandler_UnknownTopicFails(t *testing.T) {
	// Arrange
	fx := newFixture()
	handler := NewResumeExplorationHandler(fx.persist, fx.registry, fx.publisher, zap.NewNop())
	cmd := &commands.ResumeExplorationCommand{UserID: "user-1", Topic: "Never Saved"}

	// Act
	err := handler.Handle(context.Background(), cmd)

	// Assert
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.Zero(t, fx.registry.Count())
}
