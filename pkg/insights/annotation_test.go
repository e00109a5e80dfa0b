package insights

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotationSerializesMinimalFinding(t *testing.T) {
	annotation, err := NewAnnotation("src/main.rs", 42, "unused variable").Build()
	require.NoError(t, err)

	encoded, err := json.Marshal(annotation)
	require.NoError(t, err)
	assert.Equal(t, `{"path":"src/main.rs","line":42,"message":"unused variable"}`, string(encoded))
}

func TestAnnotationOmitsUnsetFields(t *testing.T) {
	annotation, err := NewAnnotation("src/main.go", 7, "shadowed variable").Build()
	require.NoError(t, err)

	encoded, err := json.Marshal(annotation)
	require.NoError(t, err)

	var keys map[string]any
	require.NoError(t, json.Unmarshal(encoded, &keys))
	assert.Equal(t, map[string]any{
		"path":    "src/main.go",
		"line":    float64(7),
		"message": "shadowed variable",
	}, keys)
}

func TestAnnotationRoundTrip(t *testing.T) {
	original, err := NewAnnotation("internal/auth/token.go", 128, "hard-coded credential").
		Severity(SeverityHigh).
		Type(TypeVulnerability).
		Link("https://example.test/rules/S2068").
		ExternalID("scanner-0042").
		Build()
	require.NoError(t, err)

	encoded, err := json.Marshal(original)
	require.NoError(t, err)

	decoded, err := DecodeAnnotation(bytes.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestAnnotationBuilderValidation(t *testing.T) {
	tests := []struct {
		name      string
		build     func() (*Annotation, error)
		wantField string
	}{
		{
			name:      "empty path",
			build:     func() (*Annotation, error) { return NewAnnotation("", 1, "finding").Build() },
			wantField: "path",
		},
		{
			name:      "zero line",
			build:     func() (*Annotation, error) { return NewAnnotation("main.go", 0, "finding").Build() },
			wantField: "line",
		},
		{
			name:      "negative line",
			build:     func() (*Annotation, error) { return NewAnnotation("main.go", -5, "finding").Build() },
			wantField: "line",
		},
		{
			name:      "empty message",
			build:     func() (*Annotation, error) { return NewAnnotation("main.go", 1, "").Build() },
			wantField: "message",
		},
		{
			name: "message too long",
			build: func() (*Annotation, error) {
				return NewAnnotation("main.go", 1, strings.Repeat("m", MaxMessageLength+1)).Build()
			},
			wantField: "message",
		},
		{
			name: "external id too long",
			build: func() (*Annotation, error) {
				return NewAnnotation("main.go", 1, "finding").
					ExternalID(strings.Repeat("x", MaxExternalIDLength+1)).
					Build()
			},
			wantField: "externalId",
		},
		{
			name: "unrecognized severity",
			build: func() (*Annotation, error) {
				return NewAnnotation("main.go", 1, "finding").Severity(Severity("CRITICAL")).Build()
			},
			wantField: "severity",
		},
		{
			name: "unrecognized type",
			build: func() (*Annotation, error) {
				return NewAnnotation("main.go", 1, "finding").Type(AnnotationType("STYLE")).Build()
			},
			wantField: "type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			annotation, err := tt.build()
			assert.Nil(t, annotation)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.wantField, validationErr.Field)
		})
	}
}

func TestAnnotationLineBoundary(t *testing.T) {
	annotation, err := NewAnnotation("main.go", 1, "finding").Build()
	require.NoError(t, err)
	assert.Equal(t, 1, annotation.Line)
}

func TestSeverityTokens(t *testing.T) {
	for severity, want := range map[Severity]string{
		SeverityLow:    `"LOW"`,
		SeverityMedium: `"MEDIUM"`,
		SeverityHigh:   `"HIGH"`,
	} {
		encoded, err := json.Marshal(severity)
		require.NoError(t, err)
		assert.Equal(t, want, string(encoded))
	}

	var severity Severity
	err := json.Unmarshal([]byte(`"critical"`), &severity)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "severity", schemaErr.Field)
}

func TestAnnotationTypeTokens(t *testing.T) {
	for annotationType, want := range map[AnnotationType]string{
		TypeVulnerability: `"VULNERABILITY"`,
		TypeCodeSmell:     `"CODE_SMELL"`,
		TypeBug:           `"BUG"`,
	} {
		encoded, err := json.Marshal(annotationType)
		require.NoError(t, err)
		assert.Equal(t, want, string(encoded))
	}

	var annotationType AnnotationType
	err := json.Unmarshal([]byte(`"SMELL"`), &annotationType)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "type", schemaErr.Field)
}

func TestAnnotationDecodeIgnoresUnknownKeys(t *testing.T) {
	input := `{"path":"main.go","line":3,"message":"finding","fingerprint":"abc123"}`

	annotation, err := DecodeAnnotation(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "main.go", annotation.Path)
	assert.Equal(t, 3, annotation.Line)
}

func TestAnnotationDecodeRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantField string
	}{
		{"missing path", `{"line":1,"message":"finding"}`, "path"},
		{"missing line", `{"path":"main.go","message":"finding"}`, "line"},
		{"missing message", `{"path":"main.go","line":1}`, "message"},
		{"null path", `{"path":null,"line":1,"message":"finding"}`, "path"},
		{"empty path", `{"path":"","line":1,"message":"finding"}`, "path"},
		{"zero line", `{"path":"main.go","line":0,"message":"finding"}`, "line"},
		{"fractional line", `{"path":"main.go","line":1.5,"message":"finding"}`, "line"},
		{"line wrong type", `{"path":"main.go","line":"one","message":"finding"}`, "line"},
		{"null severity", `{"path":"main.go","line":1,"message":"finding","severity":null}`, "severity"},
		{"unrecognized severity", `{"path":"main.go","line":1,"message":"finding","severity":"BLOCKER"}`, "severity"},
		{"lowercase severity", `{"path":"main.go","line":1,"message":"finding","severity":"high"}`, "severity"},
		{"unrecognized type", `{"path":"main.go","line":1,"message":"finding","type":"STYLE"}`, "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAnnotation(strings.NewReader(tt.input))

			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, tt.wantField, schemaErr.Field)
		})
	}
}

func TestAnnotationsEnvelope(t *testing.T) {
	first, err := NewAnnotation("main.go", 3, "unused import").
		Severity(SeverityLow).
		Type(TypeCodeSmell).
		Build()
	require.NoError(t, err)
	second, err := NewAnnotation("auth.go", 17, "weak hash").
		Severity(SeverityHigh).
		Type(TypeVulnerability).
		Build()
	require.NoError(t, err)

	envelope, err := NewAnnotations(*first, *second)
	require.NoError(t, err)

	encoded, err := json.Marshal(envelope)
	require.NoError(t, err)

	decoded, err := DecodeAnnotations(bytes.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, envelope, decoded)
	require.Len(t, decoded.Annotations, 2)
	assert.Equal(t, SeverityHigh, decoded.Annotations[1].Severity)
}

func TestAnnotationsEnvelopeEmptyBatch(t *testing.T) {
	envelope, err := NewAnnotations()
	require.NoError(t, err)

	encoded, err := json.Marshal(envelope)
	require.NoError(t, err)
	assert.Equal(t, `{"annotations":[]}`, string(encoded))
}

func TestNewAnnotationsRejectsInvalidEntry(t *testing.T) {
	_, err := NewAnnotations(Annotation{Path: "main.go", Line: 0, Message: "finding"})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "annotations[0].line", validationErr.Field)
}

func TestAnnotationsEnvelopeDecodeRejectsMissingKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty object", `{}`},
		{"null batch", `{"annotations":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAnnotations(strings.NewReader(tt.input))

			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, "annotations", schemaErr.Field)
		})
	}
}

func TestAnnotationsEnvelopeDecodeRejectsInvalidEntry(t *testing.T) {
	input := `{"annotations":[{"path":"main.go","line":1,"message":"finding"},{"path":"auth.go","line":0,"message":"finding"}]}`

	_, err := DecodeAnnotations(strings.NewReader(input))

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "line", schemaErr.Field)
}
