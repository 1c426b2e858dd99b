package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	pkgerrors "github.com/Anidipta/Node-Learner/pkg/errors"
)

// scriptedChat returns a fixed completion and records what was asked.
type scriptedChat struct {
	response  string
	err       error
	gotSystem string
	gotUser   string
}

func (s *scriptedChat) Complete(ctx context.Context, system, user string) (string, error) {
	s.gotSystem = system
	s.gotUser = user
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

const shallowResponse = `{
	"topic": "Graph Theory",
	"summary": "The study of graphs, which model pairwise relations between objects.",
	"related_concepts": [
		{"name": "Vertices", "relation": "consists of", "summary": "The fundamental units of a graph."},
		{"name": "Edges", "relation": "consists of", "summary": "Connections between vertices."}
	]
}`

func TestExploreTopic_ParsesShallowResponse(t *testing.T) {
	// Arrange
	chat := &scriptedChat{response: shallowResponse}
	explorer := NewExplorer(chat, zap.NewNop())

	// Act
	result, err := explorer.ExploreTopic(context.Background(), "Graph Theory", 1)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "The study of graphs, which model pairwise relations between objects.", result.Summary)
	require.Len(t, result.Concepts, 2)
	assert.Equal(t, "Vertices", result.Concepts[0].Name)
	assert.Equal(t, "consists of", result.Concepts[0].Relation)
	assert.Empty(t, result.Subtopics)
	assert.Contains(t, chat.gotUser, `"Graph Theory"`)
	assert.Contains(t, chat.gotSystem, "JSON")
}

func TestExploreTopic_StripsCodeFences(t *testing.T) {
	// Arrange
	chat := &scriptedChat{response: "```json\n" + shallowResponse + "\n```"}
	explorer := NewExplorer(chat, zap.NewNop())

	// Act
	result, err := explorer.ExploreTopic(context.Background(), "Graph Theory", 1)

	// Assert
	require.NoError(t, err)
	assert.Len(t, result.Concepts, 2)
}

func TestExploreTopic_ExtractsObjectFromProse(t *testing.T) {
	// Arrange
	chat := &scriptedChat{response: "Here is the exploration you asked for:\n" + shallowResponse + "\nLet me know if you need more."}
	explorer := NewExplorer(chat, zap.NewNop())

	// Act
	result, err := explorer.ExploreTopic(context.Background(), "Graph Theory", 1)

	// Assert
	require.NoError(t, err)
	assert.Len(t, result.Concepts, 2)
}

func TestExploreTopic_DeepFillsSubtopicsAndKeyPoints(t *testing.T) {
	// Arrange
	chat := &scriptedChat{response: `{
		"topic": "Graph Theory",
		"summary": "A detailed summary of the study of graphs.",
		"key_points": ["Graphs model relations.", "Paths connect vertices."],
		"related_concepts": [{"name": "Vertices", "relation": "consists of", "summary": "Units."}],
		"subtopics": [{"name": "Spectral Graph Theory", "summary": "Eigenvalues of graph matrices."}]
	}`}
	explorer := NewExplorer(chat, zap.NewNop())

	// Act
	result, err := explorer.ExploreTopic(context.Background(), "Graph Theory", 2)

	// Assert
	require.NoError(t, err)
	assert.Len(t, result.KeyPoints, 2)
	require.Len(t, result.Subtopics, 1)
	assert.Equal(t, "Spectral Graph Theory", result.Subtopics[0].Name)
	assert.Contains(t, chat.gotUser, "subtopics")
}

func TestExploreTopic_MalformedResponseFailsClosed(t *testing.T) {
	// Arrange
	chat := &scriptedChat{response: "I could not produce structured output for this topic."}
	explorer := NewExplorer(chat, zap.NewNop())

	// Act
	result, err := explorer.ExploreTopic(context.Background(), "Graph Theory", 1)

	// Assert
	require.Error(t, err)
	assert.Nil(t, result, "no partial data on parse failure")
	assert.True(t, pkgerrors.IsValidation(err))
	assert.False(t, pkgerrors.IsRetryable(err), "malformed output is not worth an automatic retry")
}

func TestExploreTopic_MissingSummaryFailsValidation(t *testing.T) {
	// Arrange
	chat := &scriptedChat{response: `{"topic": "Graph Theory", "related_concepts": []}`}
	explorer := NewExplorer(chat, zap.NewNop())

	// Act
	result, err := explorer.ExploreTopic(context.Background(), "Graph Theory", 1)

	// Assert
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestExploreTopic_TransportErrorPassesThrough(t *testing.T) {
	// Arrange
	transportErr := pkgerrors.NewUnavailableError("explorer")
	chat := &scriptedChat{err: transportErr}
	explorer := NewExplorer(chat, zap.NewNop())

	// Act
	_, err := explorer.ExploreTopic(context.Background(), "Graph Theory", 1)

	// Assert
	require.Error(t, err)
	assert.True(t, pkgerrors.IsRetryable(err), "a down endpoint is worth retrying")
}

func TestExploreSubtopic_FallsBackToRequestedName(t *testing.T) {
	// Arrange
	chat := &scriptedChat{response: `{
		"summary": "How spectra relate to graph structure.",
		"related_concepts": [{"name": "Laplacian Matrix", "relation": "central object", "summary": "Degree minus adjacency."}]
	}`}
	explorer := NewExplorer(chat, zap.NewNop())

	// Act
	result, err := explorer.ExploreSubtopic(context.Background(), "Graph Theory", "Spectral Graph Theory")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Spectral Graph Theory", result.Name, "missing wire name falls back to the request")
	assert.Len(t, result.Concepts, 1)
}

func TestRelatedConcepts_TrimsAndLimitsPrompt(t *testing.T) {
	// Arrange
	chat := &scriptedChat{response: `{
		"topic": "Vertices",
		"summary": "ignored for this call",
		"related_concepts": [{"name": "  Degree  ", "relation": " property ", "summary": " Number of incident edges. "}]
	}`}
	explorer := NewExplorer(chat, zap.NewNop())

	// Act
	concepts, err := explorer.RelatedConcepts(context.Background(), "Vertices", 4)

	// Assert
	require.NoError(t, err)
	require.Len(t, concepts, 1)
	assert.Equal(t, "Degree", concepts[0].Name)
	assert.Equal(t, "property", concepts[0].Relation)
	assert.Equal(t, "Number of incident edges.", concepts[0].Summary)
	assert.Contains(t, chat.gotUser, "up to 4")
}

func TestRelatedConcepts_NamelessRecordFailsClosed(t *testing.T) {
	// Arrange
	chat := &scriptedChat{response: `{
		"topic": "Vertices",
		"summary": "s",
		"related_concepts": [{"name": "", "relation": "property", "summary": "A record with no name."}]
	}`}
	explorer := NewExplorer(chat, zap.NewNop())

	// Act
	concepts, err := explorer.RelatedConcepts(context.Background(), "Vertices", 3)

	// Assert
	require.Error(t, err)
	assert.Nil(t, concepts)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestDetailedExplanation_RejectsEmptyResponse(t *testing.T) {
	// Arrange
	chat := &scriptedChat{response: "   \n  "}
	explorer := NewExplorer(chat, zap.NewNop())

	// Act
	_, err := explorer.DetailedExplanation(context.Background(), "Graph Theory")

	// Assert
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestDetailedExplanation_ReturnsMarkdown(t *testing.T) {
	// Arrange
	chat := &scriptedChat{response: "## Graph Theory\n\nA branch of mathematics."}
	explorer := NewExplorer(chat, zap.NewNop())

	// Act
	text, err := explorer.DetailedExplanation(context.Background(), "Graph Theory")

	// Assert
	require.NoError(t, err)
	assert.Contains(t, text, "## Graph Theory")
	assert.NotContains(t, chat.gotUser, "JSON", "explanations are free-form markdown")
}

func TestMockExplorer_ShapesMatchRealExplorer(t *testing.T) {
	// Arrange
	mock := NewMockExplorer()

	// Act
	shallow, err := mock.ExploreTopic(context.Background(), "Graph Theory", 1)
	require.NoError(t, err)
	deep, err := mock.ExploreTopic(context.Background(), "Graph Theory", 2)
	require.NoError(t, err)
	sub, err := mock.ExploreSubtopic(context.Background(), "Graph Theory", "Spectral Graph Theory")
	require.NoError(t, err)

	// Assert
	assert.NotEmpty(t, shallow.Summary)
	assert.Len(t, shallow.Concepts, 3)
	assert.Empty(t, shallow.Subtopics)

	assert.Len(t, deep.Concepts, 7)
	assert.Len(t, deep.Subtopics, 5)
	assert.Len(t, deep.KeyPoints, 3)

	assert.Equal(t, "Spectral Graph Theory", sub.Name)
	assert.Len(t, sub.Concepts, 4)

	for _, concept := range deep.Concepts {
		assert.NotEmpty(t, concept.Name)
		assert.NotEmpty(t, concept.Relation)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"padded", "  {\"a\": 1}  ", `{"a": 1}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, stripFences(tc.in))
		})
	}
}

func TestDecodeJSON_ErrorMentionsNothingUseful(t *testing.T) {
	// The raw completion may contain user topics; the error must not
	// echo it back into logs wholesale.
	var out topicRecord
	err := decodeJSON("complete nonsense with no braces", &out)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "nonsense")
}

var errTransport = errors.New("connection refused")

func TestExplorer_PropagatesRawTransportErrors(t *testing.T) {
	// Arrange
	chat := &scriptedChat{err: errTransport}
	explorer := NewExplorer(chat, zap.NewNop())

	// Act
	_, err := explorer.DetailedExplanation(context.Background(), "Graph Theory")

	// Assert
	require.ErrorIs(t, err, errTransport)
}
