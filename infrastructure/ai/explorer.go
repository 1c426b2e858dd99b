package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/ports"
	pkgerrors "github.com/Anidipta/Node-Learner/pkg/errors"
)

const (
	explorationSystemPrompt = "You are a helpful assistant that provides well-structured JSON responses for knowledge exploration."
	explanationSystemPrompt = "You are a helpful assistant that provides clear educational content."
)

// Explorer turns chat completions into validated exploration results.
// The model's output is untrusted input: responses are decoded into
// typed records and validated before anything reaches the domain, and a
// response that fails either step fails the whole call.
type Explorer struct {
	chat     ChatClient
	validate *validator.Validate
	logger   *zap.Logger
}

// NewExplorer creates an explorer over the given chat transport.
func NewExplorer(chat ChatClient, logger *zap.Logger) *Explorer {
	return &Explorer{
		chat:     chat,
		validate: validator.New(),
		logger:   logger,
	}
}

// Wire records mirror the JSON contract the prompts ask for. They stay
// private to this package; the port types are what leaves it.

type conceptRecord struct {
	Name     string `json:"name"`
	Relation string `json:"relation"`
	Summary  string `json:"summary"`
}

type subtopicRecord struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

type topicRecord struct {
	Topic           string           `json:"topic"`
	Summary         string           `json:"summary"`
	KeyPoints       []string         `json:"key_points"`
	RelatedConcepts []conceptRecord  `json:"related_concepts"`
	Subtopics       []subtopicRecord `json:"subtopics"`
}

type subtopicExplorationRecord struct {
	Subtopic        string          `json:"subtopic"`
	MainTopic       string          `json:"main_topic"`
	Summary         string          `json:"summary"`
	KeyPoints       []string        `json:"key_points"`
	RelatedConcepts []conceptRecord `json:"related_concepts"`
}

// ExploreTopic explores a root topic. Depth 1 asks for a short summary
// and a handful of related concepts; deeper asks additionally for
// subtopics and key points.
func (e *Explorer) ExploreTopic(ctx context.Context, topic string, depth int) (*ports.TopicExploration, error) {
	var prompt string
	if depth <= 1 {
		prompt = shallowTopicPrompt(topic, 3)
	} else {
		prompt = deepTopicPrompt(topic)
	}

	text, err := e.chat.Complete(ctx, explorationSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	var record topicRecord
	if err := decodeJSON(text, &record); err != nil {
		return nil, err
	}

	exploration := &ports.TopicExploration{
		Summary:   strings.TrimSpace(record.Summary),
		Concepts:  mapConcepts(record.RelatedConcepts),
		KeyPoints: record.KeyPoints,
	}
	for _, sub := range record.Subtopics {
		exploration.Subtopics = append(exploration.Subtopics, ports.SubtopicExploration{
			Name:    strings.TrimSpace(sub.Name),
			Summary: strings.TrimSpace(sub.Summary),
		})
	}

	if err := e.validate.Struct(exploration); err != nil {
		e.logger.Warn("Explorer response failed validation",
			zap.String("topic", topic),
			zap.Error(err),
		)
		return nil, pkgerrors.NewValidationError("exploration response failed validation").WithCause(err)
	}
	return exploration, nil
}

// ExploreSubtopic explores one subtopic in the context of its main topic.
func (e *Explorer) ExploreSubtopic(ctx context.Context, mainTopic, subtopic string) (*ports.SubtopicExploration, error) {
	text, err := e.chat.Complete(ctx, explorationSystemPrompt, subtopicPrompt(mainTopic, subtopic))
	if err != nil {
		return nil, err
	}

	var record subtopicExplorationRecord
	if err := decodeJSON(text, &record); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(record.Subtopic)
	if name == "" {
		name = subtopic
	}
	exploration := &ports.SubtopicExploration{
		Name:     name,
		Summary:  strings.TrimSpace(record.Summary),
		Concepts: mapConcepts(record.RelatedConcepts),
	}

	if err := e.validate.Struct(exploration); err != nil {
		e.logger.Warn("Explorer response failed validation",
			zap.String("subtopic", subtopic),
			zap.Error(err),
		)
		return nil, pkgerrors.NewValidationError("subtopic response failed validation").WithCause(err)
	}
	return exploration, nil
}

// RelatedConcepts suggests up to count concepts related to topic.
func (e *Explorer) RelatedConcepts(ctx context.Context, topic string, count int) ([]ports.RelatedConcept, error) {
	if count <= 0 {
		count = 3
	}

	text, err := e.chat.Complete(ctx, explorationSystemPrompt, shallowTopicPrompt(topic, count))
	if err != nil {
		return nil, err
	}

	var record topicRecord
	if err := decodeJSON(text, &record); err != nil {
		return nil, err
	}

	concepts := mapConcepts(record.RelatedConcepts)
	for i := range concepts {
		if err := e.validate.Struct(&concepts[i]); err != nil {
			e.logger.Warn("Explorer concept failed validation",
				zap.String("topic", topic),
				zap.Error(err),
			)
			return nil, pkgerrors.NewValidationError("concept suggestion failed validation").WithCause(err)
		}
	}
	return concepts, nil
}

// DetailedExplanation returns a long-form markdown explanation.
func (e *Explorer) DetailedExplanation(ctx context.Context, topic string) (string, error) {
	text, err := e.chat.Complete(ctx, explanationSystemPrompt, explanationPrompt(topic))
	if err != nil {
		return "", err
	}

	explanation := strings.TrimSpace(text)
	if explanation == "" {
		return "", pkgerrors.NewValidationError("explanation response was empty")
	}
	return explanation, nil
}

func mapConcepts(records []conceptRecord) []ports.RelatedConcept {
	concepts := make([]ports.RelatedConcept, 0, len(records))
	for _, record := range records {
		concepts = append(concepts, ports.RelatedConcept{
			Name:     strings.TrimSpace(record.Name),
			Summary:  strings.TrimSpace(record.Summary),
			Relation: strings.TrimSpace(record.Relation),
		})
	}
	return concepts
}

// decodeJSON parses a completion that should be a single JSON object.
// Models wrap JSON in code fences or lead with prose often enough that
// both are stripped before giving up.
func decodeJSON(text string, out interface{}) error {
	cleaned := stripFences(text)
	if err := json.Unmarshal([]byte(cleaned), out); err == nil {
		return nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), out); err == nil {
			return nil
		}
	}
	return pkgerrors.NewValidationError("exploration response is not valid JSON")
}

func stripFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = cleaned[len("```json"):]
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = cleaned[len("```"):]
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}

func shallowTopicPrompt(topic string, count int) string {
	return fmt.Sprintf(`Create a structured exploration of the topic %q. Do not include historical context.
Return a JSON object with the following structure:
{
    "topic": %q,
    "summary": "A 2-3 sentence summary of the topic",
    "related_concepts": [
        {
            "name": "Related concept 1",
            "relation": "How it relates to the main topic",
            "summary": "Brief 1-sentence explanation"
        }
    ]
}
Include up to %d related concepts.
Only return the JSON data with no additional text or explanation.`, topic, topic, count)
}

func deepTopicPrompt(topic string) string {
	return fmt.Sprintf(`Create a detailed exploration of the topic %q. Do not include historical context.
Return a JSON object with the following structure:
{
    "topic": %q,
    "summary": "A 4-5 sentence detailed explanation of the topic",
    "key_points": ["Point 1", "Point 2", "Point 3"],
    "related_concepts": [
        {
            "name": "Related concept 1",
            "relation": "How it relates to the main topic",
            "summary": "2-3 sentence explanation"
        }
    ],
    "subtopics": [
        {
            "name": "Subtopic 1",
            "summary": "Brief explanation"
        }
    ]
}
Include up to 7 related concepts and up to 5 subtopics.
Only return the JSON data with no additional text or explanation.`, topic, topic)
}

func subtopicPrompt(mainTopic, subtopic string) string {
	return fmt.Sprintf(`Create a detailed exploration of the subtopic %q related to %q.
Return a JSON object with the following structure:
{
    "subtopic": %q,
    "main_topic": %q,
    "summary": "A 3-4 sentence detailed explanation of how this subtopic relates to the main topic",
    "key_points": ["Point 1", "Point 2", "Point 3"],
    "related_concepts": [
        {
            "name": "Related concept 1",
            "relation": "How it relates to this subtopic",
            "summary": "Brief explanation"
        }
    ]
}
Include up to 4 related concepts.
Only return the JSON data with no additional text or explanation.`, subtopic, mainTopic, subtopic, mainTopic)
}

func explanationPrompt(topic string) string {
	return fmt.Sprintf(`Provide a detailed explanation of the topic %q.
Include:
- A clear definition or introduction
- Key concepts and principles
- Important applications or examples
- Historical context if relevant

Format your response in markdown for readability.`, topic)
}
