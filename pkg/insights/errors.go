package insights

import "fmt"

// ValidationError reports a constraint violated while constructing a report,
// annotation, or data field. A value that was built without a ValidationError
// always serializes to a schema-conformant document.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SchemaError reports a JSON document that does not match the Code Insights
// wire schema: a missing required key, a value of the wrong JSON type, an
// unrecognized enumeration token, or a data field value that does not match
// its declared type tag.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema violation in %s: %s", e.Field, e.Reason)
}

func lengthError(field string, length, limit int) *ValidationError {
	return &ValidationError{
		Field:  field,
		Reason: fmt.Sprintf("length %d exceeds the %d character limit", length, limit),
	}
}

func missingKeyError(field string) *SchemaError {
	return &SchemaError{Field: field, Reason: "required key is missing"}
}

// schemaViolation converts a ValidationError raised while checking a decoded
// document into the SchemaError the caller of a decode operation expects.
func schemaViolation(err error) error {
	if err == nil {
		return nil
	}
	if ve, ok := err.(*ValidationError); ok {
		return &SchemaError{Field: ve.Field, Reason: ve.Reason}
	}
	return err
}
