package insights

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeReportReaderFailure(t *testing.T) {
	_, err := DecodeReport(iotest.ErrReader(errors.New("connection reset")))

	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to read report document")

	var schemaErr *SchemaError
	assert.False(t, errors.As(err, &schemaErr))
}

func TestDecodeReportMalformedJSON(t *testing.T) {
	_, err := DecodeReport(strings.NewReader(`{"title":"Lint results"`))

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "document", schemaErr.Field)
}

func TestDecodeReportWrongTopLevelShape(t *testing.T) {
	_, err := DecodeReport(strings.NewReader(`["Lint results"]`))

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "document", schemaErr.Field)
}

func TestDecodeAnnotationReaderFailure(t *testing.T) {
	_, err := DecodeAnnotation(iotest.ErrReader(errors.New("connection reset")))

	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to read annotation document")
}

func TestDecodeAnnotationsReaderFailure(t *testing.T) {
	_, err := DecodeAnnotations(iotest.ErrReader(errors.New("connection reset")))

	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to read annotations document")
}

func TestDecodeHandlesLeadingWhitespace(t *testing.T) {
	report, err := DecodeReport(strings.NewReader("\n\t {\"title\":\"Lint results\"}"))

	require.NoError(t, err)
	assert.Equal(t, "Lint results", report.Title)
}
