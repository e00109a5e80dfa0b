package insights

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// DecodeReport reads a single report document from r. It fails with a
// SchemaError if the document does not match the report schema.
func DecodeReport(r io.Reader) (*Report, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read report document: %w", err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, asSchemaError(err)
	}
	return &report, nil
}

// DecodeAnnotation reads a single annotation document from r. It fails with
// a SchemaError if the document does not match the annotation schema.
func DecodeAnnotation(r io.Reader) (*Annotation, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read annotation document: %w", err)
	}
	var annotation Annotation
	if err := json.Unmarshal(data, &annotation); err != nil {
		return nil, asSchemaError(err)
	}
	return &annotation, nil
}

// DecodeAnnotations reads an annotation batch envelope from r. It fails with
// a SchemaError if the envelope or any annotation in it is malformed.
func DecodeAnnotations(r io.Reader) (*Annotations, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read annotations document: %w", err)
	}
	var annotations Annotations
	if err := json.Unmarshal(data, &annotations); err != nil {
		return nil, asSchemaError(err)
	}
	return &annotations, nil
}

// asSchemaError translates an encoding/json failure into a SchemaError.
// Errors raised by nested UnmarshalJSON implementations pass through
// untouched so the innermost field name wins.
func asSchemaError(err error) error {
	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) {
		return schemaErr
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "document"
		}
		return &SchemaError{Field: field, Reason: fmt.Sprintf("unexpected JSON %s", typeErr.Value)}
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &SchemaError{Field: "document", Reason: fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset)}
	}
	return &SchemaError{Field: "document", Reason: err.Error()}
}
