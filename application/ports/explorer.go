package ports

import "context"

// RelatedConcept is one concept suggestion returned by the explorer.
// Name is required; a response record without one fails validation and
// the whole exploration fails closed.
type RelatedConcept struct {
	Name     string `json:"name" validate:"required,max=200"`
	Summary  string `json:"summary" validate:"max=2000"`
	Relation string `json:"relation" validate:"max=200"`
	Weight   int    `json:"weight" validate:"min=0"`
}

// SubtopicExploration is one named subdivision of a deeply explored topic
// together with its own concept suggestions.
type SubtopicExploration struct {
	Name     string           `json:"name" validate:"required,max=200"`
	Summary  string           `json:"summary" validate:"max=2000"`
	Concepts []RelatedConcept `json:"concepts" validate:"dive"`
}

// TopicExploration is the full result of exploring a topic. Shallow
// exploration fills Summary and Concepts; deep exploration additionally
// fills Subtopics and KeyPoints.
type TopicExploration struct {
	Summary   string                `json:"summary" validate:"required"`
	Concepts  []RelatedConcept      `json:"concepts" validate:"dive"`
	Subtopics []SubtopicExploration `json:"subtopics" validate:"dive"`
	KeyPoints []string              `json:"key_points"`
}

// Explorer produces concept suggestions for the expansion engine. Every
// call is bounded by the caller's context; implementations return typed,
// validated structs and never partially parsed data.
type Explorer interface {
	// ExploreTopic explores a root topic. Depth 1 asks for up to three
	// related concepts; depth 2 and beyond additionally asks for subtopics
	// and key points.
	ExploreTopic(ctx context.Context, topic string, depth int) (*TopicExploration, error)

	// ExploreSubtopic explores one subtopic in the context of its main
	// topic, returning up to four related concepts.
	ExploreSubtopic(ctx context.Context, mainTopic, subtopic string) (*SubtopicExploration, error)

	// RelatedConcepts returns up to count concepts related to topic. Used
	// when expanding a non-root node.
	RelatedConcepts(ctx context.Context, topic string, count int) ([]RelatedConcept, error)

	// DetailedExplanation returns a long-form explanation of a topic.
	DetailedExplanation(ctx context.Context, topic string) (string, error)
}
