// Package insights models the Bitbucket Server Code Insights wire schema:
// quality reports attached to a commit and the annotations that pin
// individual findings to files and lines.
//
// Values are assembled through validating builders and constructors, so a
// value that exists is already schema-conformant. Serialization uses
// encoding/json directly; every unset optional field is omitted from the
// output, because the API treats an absent key and an explicit null
// differently. Decoding is strict: unknown enumeration tokens, missing
// required keys, and mismatched value shapes fail with a SchemaError
// instead of producing a half-valid value.
package insights

import (
	"encoding/json"
	"fmt"
	"time"
)

// Result indicates whether the analysis behind a report passed or failed.
// A report without a result is informational.
type Result string

const (
	ResultPass Result = "PASS"
	ResultFail Result = "FAIL"
)

func (r Result) valid() bool {
	return r == ResultPass || r == ResultFail
}

// UnmarshalJSON rejects any token that is not PASS or FAIL.
func (r *Result) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return &SchemaError{Field: "result", Reason: "must be a string token"}
	}
	if !Result(s).valid() {
		return &SchemaError{Field: "result", Reason: fmt.Sprintf("unrecognized result %q", s)}
	}
	*r = Result(s)
	return nil
}

// Field limits imposed by the Bitbucket API. Violations are reported when a
// value is built, not when it is serialized.
const (
	MaxTitleLength    = 450
	MaxReporterLength = 450
	MaxDetailsLength  = 2000
	MaxDataFields     = 6
)

// Report is one analysis run's summary for a commit: a required title plus
// optional details, verdict, reporter identity, links, and up to
// MaxDataFields typed data fields.
//
// The zero value of an optional field means "unset" and is omitted from the
// serialized document. CreatedDate is milliseconds since the Unix epoch.
type Report struct {
	Title       string      `json:"title"`
	Details     string      `json:"details,omitempty"`
	Result      Result      `json:"result,omitempty"`
	Data        []DataField `json:"data,omitempty"`
	Reporter    string      `json:"reporter,omitempty"`
	Link        string      `json:"link,omitempty"`
	LogoURL     string      `json:"logoUrl,omitempty"`
	CreatedDate int64       `json:"createdDate,omitempty"`
}

// ReportBuilder assembles a Report. Setters can be chained in any order;
// Build performs all validation in one place.
type ReportBuilder struct {
	report Report
}

// NewReport starts building a report with the given title. The title is
// required and capped at MaxTitleLength characters.
func NewReport(title string) *ReportBuilder {
	return &ReportBuilder{report: Report{Title: title}}
}

// Details sets a longer description of the analysis outcome.
func (b *ReportBuilder) Details(details string) *ReportBuilder {
	b.report.Details = details
	return b
}

// Result sets the pass/fail verdict.
func (b *ReportBuilder) Result(result Result) *ReportBuilder {
	b.report.Result = result
	return b
}

// Data sets the report's data fields, replacing any set earlier. At most
// MaxDataFields fields are accepted.
func (b *ReportBuilder) Data(fields ...DataField) *ReportBuilder {
	if len(fields) == 0 {
		b.report.Data = nil
		return b
	}
	b.report.Data = fields
	return b
}

// Reporter names the tool or vendor that produced the report.
func (b *ReportBuilder) Reporter(reporter string) *ReportBuilder {
	b.report.Reporter = reporter
	return b
}

// Link sets a URL pointing at the full results outside Bitbucket.
func (b *ReportBuilder) Link(link string) *ReportBuilder {
	b.report.Link = link
	return b
}

// LogoURL sets the URL of the reporting tool's logo.
func (b *ReportBuilder) LogoURL(url string) *ReportBuilder {
	b.report.LogoURL = url
	return b
}

// CreatedAt records when the analysis ran. The zero time leaves the
// timestamp unset.
func (b *ReportBuilder) CreatedAt(t time.Time) *ReportBuilder {
	if t.IsZero() {
		b.report.CreatedDate = 0
		return b
	}
	b.report.CreatedDate = t.UnixMilli()
	return b
}

// Build validates the assembled report and returns it. It fails with a
// ValidationError naming the offending field if the title is missing or any
// limit is exceeded.
func (b *ReportBuilder) Build() (*Report, error) {
	report := b.report
	if err := report.Validate(); err != nil {
		return nil, err
	}
	return &report, nil
}

// Validate checks the report against the schema's structural constraints.
// Reports produced by Build have already passed it; it is exposed for
// values assembled by hand.
func (r *Report) Validate() error {
	if r.Title == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if len(r.Title) > MaxTitleLength {
		return lengthError("title", len(r.Title), MaxTitleLength)
	}
	if len(r.Details) > MaxDetailsLength {
		return lengthError("details", len(r.Details), MaxDetailsLength)
	}
	if r.Result != "" && !r.Result.valid() {
		return &ValidationError{Field: "result", Reason: fmt.Sprintf("unrecognized result %q", r.Result)}
	}
	if len(r.Data) > MaxDataFields {
		return &ValidationError{
			Field:  "data",
			Reason: fmt.Sprintf("at most %d data fields are allowed, got %d", MaxDataFields, len(r.Data)),
		}
	}
	for i, field := range r.Data {
		if err := field.Validate(); err != nil {
			ve := err.(*ValidationError)
			return &ValidationError{Field: fmt.Sprintf("data[%d].%s", i, ve.Field), Reason: ve.Reason}
		}
	}
	if len(r.Reporter) > MaxReporterLength {
		return lengthError("reporter", len(r.Reporter), MaxReporterLength)
	}
	if r.CreatedDate < 0 {
		return &ValidationError{Field: "createdDate", Reason: "must not precede the Unix epoch"}
	}
	return nil
}

// UnmarshalJSON decodes a report document strictly: the title key must be
// present, every enumeration token must be a defined one, and the decoded
// value must satisfy the same constraints a built report does. Unknown keys
// are ignored. All failures surface as a SchemaError.
func (r *Report) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title       *string     `json:"title"`
		Details     string      `json:"details"`
		Result      Result      `json:"result"`
		Data        []DataField `json:"data"`
		Reporter    string      `json:"reporter"`
		Link        string      `json:"link"`
		LogoURL     string      `json:"logoUrl"`
		CreatedDate int64       `json:"createdDate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return asSchemaError(err)
	}
	if raw.Title == nil {
		return missingKeyError("title")
	}
	report := Report{
		Title:       *raw.Title,
		Details:     raw.Details,
		Result:      raw.Result,
		Data:        raw.Data,
		Reporter:    raw.Reporter,
		Link:        raw.Link,
		LogoURL:     raw.LogoURL,
		CreatedDate: raw.CreatedDate,
	}
	if err := report.Validate(); err != nil {
		return schemaViolation(err)
	}
	*r = report
	return nil
}
