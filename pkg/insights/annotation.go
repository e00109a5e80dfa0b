package insights

import (
	"encoding/json"
	"fmt"
)

// Severity grades how serious an annotation's finding is. Bitbucket treats
// an annotation without a severity as the lowest grade.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

func (s Severity) valid() bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}

// UnmarshalJSON rejects any token that is not LOW, MEDIUM, or HIGH.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return &SchemaError{Field: "severity", Reason: "must be a string token"}
	}
	if !Severity(raw).valid() {
		return &SchemaError{Field: "severity", Reason: fmt.Sprintf("unrecognized severity %q", raw)}
	}
	*s = Severity(raw)
	return nil
}

// AnnotationType classifies the kind of finding an annotation reports.
type AnnotationType string

const (
	TypeVulnerability AnnotationType = "VULNERABILITY"
	TypeCodeSmell     AnnotationType = "CODE_SMELL"
	TypeBug           AnnotationType = "BUG"
)

func (t AnnotationType) valid() bool {
	return t == TypeVulnerability || t == TypeCodeSmell || t == TypeBug
}

// UnmarshalJSON rejects any token that is not VULNERABILITY, CODE_SMELL,
// or BUG.
func (t *AnnotationType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return &SchemaError{Field: "type", Reason: "must be a string token"}
	}
	if !AnnotationType(raw).valid() {
		return &SchemaError{Field: "type", Reason: fmt.Sprintf("unrecognized annotation type %q", raw)}
	}
	*t = AnnotationType(raw)
	return nil
}

// Annotation message and external id limits imposed by the Bitbucket API.
const (
	MaxMessageLength    = 2000
	MaxExternalIDLength = 450
)

// Annotation pins one finding to a file and line within the commit a report
// is attached to. Path is relative to the repository root, Line is 1-based,
// and Message says what was found there.
//
// Severity, Type, Link, and ExternalID are optional; their zero values are
// omitted from the serialized document. ExternalID lets the reporting tool
// address the annotation in later requests.
type Annotation struct {
	Path       string         `json:"path"`
	Line       int            `json:"line"`
	Message    string         `json:"message"`
	Severity   Severity       `json:"severity,omitempty"`
	Type       AnnotationType `json:"type,omitempty"`
	Link       string         `json:"link,omitempty"`
	ExternalID string         `json:"externalId,omitempty"`
}

// AnnotationBuilder assembles an Annotation. Setters can be chained in any
// order; Build performs all validation in one place.
type AnnotationBuilder struct {
	annotation Annotation
}

// NewAnnotation starts building an annotation for the finding described by
// message at the given path and 1-based line.
func NewAnnotation(path string, line int, message string) *AnnotationBuilder {
	return &AnnotationBuilder{annotation: Annotation{Path: path, Line: line, Message: message}}
}

// Severity sets the finding's severity grade.
func (b *AnnotationBuilder) Severity(severity Severity) *AnnotationBuilder {
	b.annotation.Severity = severity
	return b
}

// Type sets the finding's classification.
func (b *AnnotationBuilder) Type(annotationType AnnotationType) *AnnotationBuilder {
	b.annotation.Type = annotationType
	return b
}

// Link sets a URL with more detail about the finding.
func (b *AnnotationBuilder) Link(link string) *AnnotationBuilder {
	b.annotation.Link = link
	return b
}

// ExternalID sets the reporting tool's own identifier for the finding.
func (b *AnnotationBuilder) ExternalID(id string) *AnnotationBuilder {
	b.annotation.ExternalID = id
	return b
}

// Build validates the assembled annotation and returns it. It fails with a
// ValidationError naming the offending field if path, line, or message is
// missing or out of range.
func (b *AnnotationBuilder) Build() (*Annotation, error) {
	annotation := b.annotation
	if err := annotation.Validate(); err != nil {
		return nil, err
	}
	return &annotation, nil
}

// Validate checks the annotation against the schema's structural
// constraints. Annotations produced by Build have already passed it; it is
// exposed for values assembled by hand.
func (a *Annotation) Validate() error {
	if a.Path == "" {
		return &ValidationError{Field: "path", Reason: "must not be empty"}
	}
	if a.Line < 1 {
		return &ValidationError{Field: "line", Reason: fmt.Sprintf("must be a positive line number, got %d", a.Line)}
	}
	if a.Message == "" {
		return &ValidationError{Field: "message", Reason: "must not be empty"}
	}
	if len(a.Message) > MaxMessageLength {
		return lengthError("message", len(a.Message), MaxMessageLength)
	}
	if a.Severity != "" && !a.Severity.valid() {
		return &ValidationError{Field: "severity", Reason: fmt.Sprintf("unrecognized severity %q", a.Severity)}
	}
	if a.Type != "" && !a.Type.valid() {
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("unrecognized annotation type %q", a.Type)}
	}
	if len(a.ExternalID) > MaxExternalIDLength {
		return lengthError("externalId", len(a.ExternalID), MaxExternalIDLength)
	}
	return nil
}

// UnmarshalJSON decodes an annotation strictly: path, line, and message must
// be present, and every enumeration token must be a defined one. Unknown
// keys are ignored. All failures surface as a SchemaError.
func (a *Annotation) UnmarshalJSON(data []byte) error {
	var raw struct {
		Path       *string        `json:"path"`
		Line       *int           `json:"line"`
		Message    *string        `json:"message"`
		Severity   Severity       `json:"severity"`
		Type       AnnotationType `json:"type"`
		Link       string         `json:"link"`
		ExternalID string         `json:"externalId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return asSchemaError(err)
	}
	if raw.Path == nil {
		return missingKeyError("path")
	}
	if raw.Line == nil {
		return missingKeyError("line")
	}
	if raw.Message == nil {
		return missingKeyError("message")
	}
	annotation := Annotation{
		Path:       *raw.Path,
		Line:       *raw.Line,
		Message:    *raw.Message,
		Severity:   raw.Severity,
		Type:       raw.Type,
		Link:       raw.Link,
		ExternalID: raw.ExternalID,
	}
	if err := annotation.Validate(); err != nil {
		return schemaViolation(err)
	}
	*a = annotation
	return nil
}

// Annotations is the envelope the annotations endpoint exchanges: a single
// required annotations key holding the batch.
type Annotations struct {
	Annotations []Annotation `json:"annotations"`
}

// NewAnnotations wraps the given annotations in the endpoint envelope,
// validating each one. An empty batch serializes as an empty array, never
// as null.
func NewAnnotations(annotations ...Annotation) (*Annotations, error) {
	if annotations == nil {
		annotations = []Annotation{}
	}
	for i, annotation := range annotations {
		if err := annotation.Validate(); err != nil {
			ve := err.(*ValidationError)
			return nil, &ValidationError{
				Field:  fmt.Sprintf("annotations[%d].%s", i, ve.Field),
				Reason: ve.Reason,
			}
		}
	}
	return &Annotations{Annotations: annotations}, nil
}

// UnmarshalJSON decodes the envelope, requiring the annotations key and
// decoding each element strictly.
func (a *Annotations) UnmarshalJSON(data []byte) error {
	var raw struct {
		Annotations *[]Annotation `json:"annotations"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return asSchemaError(err)
	}
	if raw.Annotations == nil {
		return missingKeyError("annotations")
	}
	a.Annotations = *raw.Annotations
	return nil
}
