package ai

import (
	"context"
	"fmt"

	"github.com/Anidipta/Node-Learner/application/ports"
)

// MockExplorer generates deterministic explorations from the topic text
// alone. It exists for local development and integration tests where no
// model endpoint is configured; the shapes match what the real explorer
// returns so every downstream path behaves the same.
type MockExplorer struct{}

// NewMockExplorer creates a mock explorer.
func NewMockExplorer() *MockExplorer {
	return &MockExplorer{}
}

var conceptPatterns = []struct {
	name     string
	relation string
	summary  string
}{
	{"Foundations of %s", "theoretical basis", "The core principles %s builds on."},
	{"Applications of %s", "practical use", "Where %s shows up in practice."},
	{"%s Methods", "methodology", "Common techniques used within %s."},
	{"History of %s", "background", "How %s developed into its current form."},
	{"%s Terminology", "vocabulary", "The terms needed to discuss %s precisely."},
	{"Open Problems in %s", "research frontier", "Questions %s has not settled yet."},
	{"%s Tools", "tooling", "Software and instruments used for %s."},
}

// ExploreTopic returns a canned exploration of topic.
func (m *MockExplorer) ExploreTopic(ctx context.Context, topic string, depth int) (*ports.TopicExploration, error) {
	count := 3
	exploration := &ports.TopicExploration{
		Summary:  fmt.Sprintf("%s is a field of study with its own foundations, methods, and applications.", topic),
		Concepts: m.concepts(topic, count),
	}

	if depth > 1 {
		exploration.Concepts = m.concepts(topic, 7)
		exploration.KeyPoints = []string{
			fmt.Sprintf("%s rests on a small set of core principles.", topic),
			fmt.Sprintf("Mastery of %s comes from working through examples.", topic),
			fmt.Sprintf("%s connects to several neighboring fields.", topic),
		}
		for i := 1; i <= 5; i++ {
			exploration.Subtopics = append(exploration.Subtopics, ports.SubtopicExploration{
				Name:    fmt.Sprintf("%s Area %d", topic, i),
				Summary: fmt.Sprintf("A major subdivision of %s.", topic),
			})
		}
	}
	return exploration, nil
}

// ExploreSubtopic returns a canned exploration of subtopic.
func (m *MockExplorer) ExploreSubtopic(ctx context.Context, mainTopic, subtopic string) (*ports.SubtopicExploration, error) {
	return &ports.SubtopicExploration{
		Name:     subtopic,
		Summary:  fmt.Sprintf("%s is a subdivision of %s with its own concerns.", subtopic, mainTopic),
		Concepts: m.concepts(subtopic, 4),
	}, nil
}

// RelatedConcepts returns up to count canned concepts for topic.
func (m *MockExplorer) RelatedConcepts(ctx context.Context, topic string, count int) ([]ports.RelatedConcept, error) {
	if count <= 0 {
		count = 3
	}
	return m.concepts(topic, count), nil
}

// DetailedExplanation returns a canned markdown explanation.
func (m *MockExplorer) DetailedExplanation(ctx context.Context, topic string) (string, error) {
	return fmt.Sprintf(
		"## %s\n\n%s is a field of study.\n\n### Key Concepts\n\nThe fundamentals of %s.\n\n### Applications\n\nWhere %s is used in practice.\n",
		topic, topic, topic, topic,
	), nil
}

func (m *MockExplorer) concepts(topic string, count int) []ports.RelatedConcept {
	if count > len(conceptPatterns) {
		count = len(conceptPatterns)
	}
	concepts := make([]ports.RelatedConcept, 0, count)
	for _, pattern := range conceptPatterns[:count] {
		concepts = append(concepts, ports.RelatedConcept{
			Name:     fmt.Sprintf(pattern.name, topic),
			Summary:  fmt.Sprintf(pattern.summary, topic),
			Relation: pattern.relation,
		})
	}
	return concepts
}
