// Package validators checks concept and link records before they enter
// the graph. Expansion results come back from an external model, so every
// field is treated as untrusted input.
package validators

import (
	"regexp"
	"strings"

	"github.com/Anidipta/Node-Learner/domain/config"
	"github.com/Anidipta/Node-Learner/pkg/errors"
)

// controlChars matches characters that never belong in a label or title.
var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// ConceptValidator validates concept records before they become nodes.
type ConceptValidator struct {
	maxLabelLength   int
	maxSummaryLength int
}

// NewConceptValidator creates a concept validator with limits from cfg.
func NewConceptValidator(cfg *config.DomainConfig) *ConceptValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &ConceptValidator{
		maxLabelLength:   cfg.MaxLabelLength,
		maxSummaryLength: 2000,
	}
}

// ValidateRecord checks one parsed concept record, collecting every
// violation so a bad expansion response reports all its problems at once.
func (v *ConceptValidator) ValidateRecord(label, summary, parent string) error {
	validationErrors := errors.NewValidationErrors()

	if err := v.ValidateLabel(label); err != nil {
		if appErr := errors.GetAppError(err); appErr != nil {
			validationErrors.AddError(appErr)
		} else {
			validationErrors.Add("label", err.Error())
		}
	}

	if len(summary) > v.maxSummaryLength {
		validationErrors.Add("summary", "summary exceeds maximum length")
	}

	if parent != "" && parent == label {
		validationErrors.Add("parent", "concept cannot be its own parent")
	}

	if validationErrors.HasErrors() {
		return validationErrors
	}
	return nil
}

// ValidateLabel checks a single concept label. Labels are identities, so
// the rules here are strict: no empty strings, no control characters, and
// no leading or trailing whitespace that would make two spellings of the
// same concept collide later.
func (v *ConceptValidator) ValidateLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return errors.NewEmptyLabelError()
	}
	if label != strings.TrimSpace(label) {
		return errors.NewValidationError("label must not have surrounding whitespace").
			WithCode("LABEL_UNTRIMMED").
			WithDetails(map[string]interface{}{"field": "label", "label": label})
	}
	if len(label) > v.maxLabelLength {
		return errors.NewLabelTooLongError(label, v.maxLabelLength)
	}
	if controlChars.MatchString(label) {
		return errors.NewValidationError("label contains control characters").
			WithCode("LABEL_INVALID_CHARS").
			WithDetails(map[string]interface{}{"field": "label"})
	}
	return nil
}

// LinkValidator validates link records before they become edges.
type LinkValidator struct {
	maxTitleLength int
	allowSelfLinks bool
}

// NewLinkValidator creates a link validator with limits from cfg.
func NewLinkValidator(cfg *config.DomainConfig) *LinkValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &LinkValidator{
		maxTitleLength: 200,
		allowSelfLinks: cfg.AllowSelfLinks,
	}
}

// ValidateRecord checks one parsed link record.
func (v *LinkValidator) ValidateRecord(source, target, title string, weight int) error {
	validationErrors := errors.NewValidationErrors()

	if strings.TrimSpace(source) == "" {
		validationErrors.Add("source", "link source is required")
	}
	if strings.TrimSpace(target) == "" {
		validationErrors.Add("target", "link target is required")
	}
	if source != "" && source == target && !v.allowSelfLinks {
		validationErrors.AddError(errors.NewSelfLinkError(source))
	}
	if len(title) > v.maxTitleLength {
		validationErrors.Add("title", "link title exceeds maximum length")
	}
	if controlChars.MatchString(title) {
		validationErrors.Add("title", "link title contains control characters")
	}
	if weight < 0 {
		validationErrors.Add("weight", "link weight must not be negative")
	}

	if validationErrors.HasErrors() {
		return validationErrors
	}
	return nil
}

// TopicValidator validates user-submitted exploration topics. The topic
// becomes the root label, so it carries label rules plus its own trim
// behavior: surrounding whitespace is the user's typing, not identity.
type TopicValidator struct {
	maxLength int
}

// NewTopicValidator creates a topic validator with limits from cfg.
func NewTopicValidator(cfg *config.DomainConfig) *TopicValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &TopicValidator{maxLength: cfg.MaxLabelLength}
}

// Normalize trims a submitted topic and validates the result. It returns
// the cleaned topic that the session should be started with.
func (v *TopicValidator) Normalize(topic string) (string, error) {
	cleaned := strings.TrimSpace(topic)
	if cleaned == "" {
		return "", errors.NewValidationError("topic is required").
			WithCode("TOPIC_REQUIRED").
			WithDetails(map[string]interface{}{"field": "topic"})
	}
	if len(cleaned) > v.maxLength {
		return "", errors.NewLabelTooLongError(cleaned, v.maxLength)
	}
	if controlChars.MatchString(cleaned) {
		return "", errors.NewValidationError("topic contains control characters").
			WithCode("TOPIC_INVALID_CHARS").
			WithDetails(map[string]interface{}{"field": "topic"})
	}
	return cleaned, nil
}
