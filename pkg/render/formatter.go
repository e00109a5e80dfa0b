// Package render turns reports and annotations into terminal, Markdown, and
// JSON previews so a reporting tool can show what it is about to post.
package render

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/codeinsights/code-insights-go/pkg/insights"
)

type Formatter interface {
	Format(report *insights.Report, annotations []insights.Annotation) (string, error)
}

type TableFormatter struct {
	colorize bool
}

func NewTableFormatter(colorize bool) *TableFormatter {
	return &TableFormatter{colorize: colorize}
}

func (f *TableFormatter) Format(report *insights.Report, annotations []insights.Annotation) (string, error) {
	if report == nil {
		return "", fmt.Errorf("no report to format")
	}

	var output strings.Builder

	f.writeHeader(&output, report)
	f.writeDataFields(&output, report.Data)
	f.writeSeveritySummary(&output, annotations)
	f.writeAnnotations(&output, annotations)

	return output.String(), nil
}

func (f *TableFormatter) writeHeader(output *strings.Builder, report *insights.Report) {
	header := fmt.Sprintf("Code Insights Report: %s", report.Title)
	if f.colorize {
		output.WriteString(color.New(color.Bold).Sprint(header) + "\n")
	} else {
		output.WriteString(header + "\n")
	}
	output.WriteString(strings.Repeat("=", len(header)) + "\n\n")

	if report.Reporter != "" {
		fmt.Fprintf(output, "Reporter: %s\n", report.Reporter)
	}
	if report.CreatedDate > 0 {
		fmt.Fprintf(output, "Created: %s\n", humanize.Time(time.UnixMilli(report.CreatedDate)))
	}
	if report.Result != "" {
		fmt.Fprintf(output, "Result: %s\n", f.formatResult(report.Result))
	}
	if report.Link != "" {
		fmt.Fprintf(output, "Full report: %s\n", report.Link)
	}
	if report.Details != "" {
		fmt.Fprintf(output, "\n%s\n", report.Details)
	}
	output.WriteString("\n")
}

func (f *TableFormatter) formatResult(result insights.Result) string {
	if !f.colorize {
		return string(result)
	}
	switch result {
	case insights.ResultPass:
		return color.New(color.FgGreen, color.Bold).Sprint(string(result))
	case insights.ResultFail:
		return color.New(color.FgRed, color.Bold).Sprint(string(result))
	default:
		return string(result)
	}
}

func (f *TableFormatter) writeDataFields(output *strings.Builder, fields []insights.DataField) {
	if len(fields) == 0 {
		return
	}

	output.WriteString("Data\n")
	output.WriteString("----\n")
	for _, field := range fields {
		fmt.Fprintf(output, "%-24s %s\n", field.Title, FormatDataValue(field))
	}
	output.WriteString("\n")
}

func (f *TableFormatter) writeSeveritySummary(output *strings.Builder, annotations []insights.Annotation) {
	if len(annotations) == 0 {
		return
	}

	counts := make(map[insights.Severity]int)
	for _, annotation := range annotations {
		counts[annotation.Severity]++
	}

	parts := make([]string, 0, 4)
	for _, severity := range []insights.Severity{insights.SeverityHigh, insights.SeverityMedium, insights.SeverityLow} {
		if counts[severity] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[severity], strings.ToLower(string(severity))))
		}
	}
	if counts[""] > 0 {
		parts = append(parts, fmt.Sprintf("%d unclassified", counts[""]))
	}

	fmt.Fprintf(output, "Findings: %s\n\n", strings.Join(parts, ", "))
}

func (f *TableFormatter) writeAnnotations(output *strings.Builder, annotations []insights.Annotation) {
	if len(annotations) == 0 {
		return
	}

	header := fmt.Sprintf("Annotations (%d)", len(annotations))
	output.WriteString(header + "\n")
	output.WriteString(strings.Repeat("-", len(header)) + "\n")

	for _, annotation := range sortAnnotations(annotations) {
		location := fmt.Sprintf("%s:%d", annotation.Path, annotation.Line)
		if annotation.Severity != "" {
			tag := fmt.Sprintf("[%s]", annotation.Severity)
			if f.colorize {
				tag = severityColor(annotation.Severity).Sprint(tag)
			}
			fmt.Fprintf(output, "%s %s", tag, location)
		} else {
			output.WriteString(location)
		}
		if annotation.Type != "" {
			fmt.Fprintf(output, " (%s)", annotation.Type)
		}
		output.WriteString("\n")
		fmt.Fprintf(output, "    %s\n", annotation.Message)
		if annotation.Link != "" {
			fmt.Fprintf(output, "    %s\n", annotation.Link)
		}
	}
	output.WriteString("\n")
}

func severityColor(severity insights.Severity) *color.Color {
	switch severity {
	case insights.SeverityHigh:
		return color.New(color.FgRed, color.Bold)
	case insights.SeverityMedium:
		return color.New(color.FgYellow)
	case insights.SeverityLow:
		return color.New(color.FgBlue)
	default:
		return color.New(color.Reset)
	}
}

var severityRank = map[insights.Severity]int{
	insights.SeverityHigh:   0,
	insights.SeverityMedium: 1,
	insights.SeverityLow:    2,
}

// Annotations without a severity sort last, matching how the server grades them.
func sortAnnotations(annotations []insights.Annotation) []insights.Annotation {
	sorted := make([]insights.Annotation, len(annotations))
	copy(sorted, annotations)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := annotationRank(sorted[i]), annotationRank(sorted[j])
		if ri != rj {
			return ri < rj
		}
		if sorted[i].Path != sorted[j].Path {
			return sorted[i].Path < sorted[j].Path
		}
		return sorted[i].Line < sorted[j].Line
	})
	return sorted
}

func annotationRank(annotation insights.Annotation) int {
	if rank, ok := severityRank[annotation.Severity]; ok {
		return rank
	}
	return len(severityRank)
}

// FormatDataValue renders a data field's value according to its type tag.
// Values whose Go type does not match the tag fall back to fmt's default
// formatting.
func FormatDataValue(field insights.DataField) string {
	switch field.Type {
	case insights.DataBoolean:
		if v, ok := field.Value.(bool); ok {
			if v {
				return "yes"
			}
			return "no"
		}
	case insights.DataDate:
		if v, ok := field.Value.(int64); ok {
			return time.UnixMilli(v).UTC().Format("2006-01-02 15:04:05 MST")
		}
	case insights.DataDuration:
		if v, ok := field.Value.(int64); ok {
			return (time.Duration(v) * time.Millisecond).String()
		}
	case insights.DataLink:
		if v, ok := field.Value.(insights.LinkValue); ok {
			return fmt.Sprintf("%s <%s>", v.LinkText, v.Href)
		}
	case insights.DataNumber:
		if v, ok := field.Value.(float64); ok {
			return humanize.Commaf(v)
		}
	case insights.DataPercentage:
		if v, ok := field.Value.(float64); ok {
			return fmt.Sprintf("%v%%", v)
		}
	case insights.DataText:
		if v, ok := field.Value.(string); ok {
			return v
		}
	}
	return fmt.Sprintf("%v", field.Value)
}

type MarkdownFormatter struct{}

func (f *MarkdownFormatter) Format(report *insights.Report, annotations []insights.Annotation) (string, error) {
	if report == nil {
		return "", fmt.Errorf("no report to format")
	}

	var output strings.Builder

	fmt.Fprintf(&output, "# Code Insights Report: %s\n\n", report.Title)
	if report.Result != "" {
		fmt.Fprintf(&output, "%s\n\n", resultBadge(report.Result))
	}
	if report.Details != "" {
		fmt.Fprintf(&output, "%s\n\n", report.Details)
	}

	if report.Reporter != "" || report.CreatedDate > 0 || report.Link != "" {
		output.WriteString("## Summary\n\n")
		if report.Reporter != "" {
			fmt.Fprintf(&output, "- **Reporter:** %s\n", report.Reporter)
		}
		if report.CreatedDate > 0 {
			created := time.UnixMilli(report.CreatedDate).UTC().Format("2006-01-02 15:04 MST")
			fmt.Fprintf(&output, "- **Created:** %s\n", created)
		}
		if report.Link != "" {
			fmt.Fprintf(&output, "- **Full report:** %s\n", report.Link)
		}
		output.WriteString("\n")
	}

	if len(report.Data) > 0 {
		output.WriteString("## Data\n\n")
		output.WriteString("| Field | Value |\n")
		output.WriteString("|-------|-------|\n")
		for _, field := range report.Data {
			fmt.Fprintf(&output, "| %s | %s |\n", field.Title, FormatDataValue(field))
		}
		output.WriteString("\n")
	}

	if len(annotations) > 0 {
		fmt.Fprintf(&output, "## Annotations (%d)\n\n", len(annotations))
		output.WriteString("| Severity | Location | Type | Message |\n")
		output.WriteString("|----------|----------|------|---------|\n")
		for _, annotation := range sortAnnotations(annotations) {
			severity := string(annotation.Severity)
			if severity == "" {
				severity = "-"
			}
			annotationType := string(annotation.Type)
			if annotationType == "" {
				annotationType = "-"
			}
			message := annotation.Message
			if annotation.Link != "" {
				message = fmt.Sprintf("[%s](%s)", message, annotation.Link)
			}
			fmt.Fprintf(&output, "| %s | `%s:%d` | %s | %s |\n",
				severity, annotation.Path, annotation.Line, annotationType, message)
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func resultBadge(result insights.Result) string {
	switch result {
	case insights.ResultPass:
		return "✅ **PASS**"
	case insights.ResultFail:
		return "❌ **FAIL**"
	default:
		return string(result)
	}
}

// JSONFormatter renders an indented preview of the report and annotation
// documents. It is a debugging view, not the wire format.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(report *insights.Report, annotations []insights.Annotation) (string, error) {
	if report == nil {
		return "", fmt.Errorf("no report to format")
	}

	preview := struct {
		Report      *insights.Report      `json:"report"`
		Annotations []insights.Annotation `json:"annotations,omitempty"`
	}{Report: report, Annotations: annotations}

	encoded, err := json.MarshalIndent(preview, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal preview to JSON: %w", err)
	}
	return string(encoded), nil
}

// GetFormatter returns the formatter for the requested output format,
// defaulting to a table that colorizes when stdout is a terminal.
func GetFormatter(format string) Formatter {
	switch strings.ToLower(format) {
	case "json":
		return &JSONFormatter{}
	case "markdown", "md":
		return &MarkdownFormatter{}
	case "table":
		return NewTableFormatter(isTerminal())
	default:
		return NewTableFormatter(isTerminal())
	}
}

func isTerminal() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
