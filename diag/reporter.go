package diag

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/grafema-go/grafema/graph"
)

// Format selects the Reporter's output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Reporter renders a Collector's diagnostics to a writer in one of the
// three documented formats.
type Reporter struct {
	Format Format
}

// NewReporter creates a Reporter for the given format, defaulting to text
// for an unrecognized value.
func NewReporter(format Format) *Reporter {
	switch format {
	case FormatJSON, FormatCSV:
		return &Reporter{Format: format}
	default:
		return &Reporter{Format: FormatText}
	}
}

// Write renders every diagnostic in diagnostics to w.
func (r *Reporter) Write(w io.Writer, diagnostics []Diagnostic) error {
	switch r.Format {
	case FormatJSON:
		return r.writeJSON(w, diagnostics)
	case FormatCSV:
		return r.writeCSV(w, diagnostics)
	default:
		return r.writeText(w, diagnostics)
	}
}

func (r *Reporter) writeText(w io.Writer, diagnostics []Diagnostic) error {
	for _, d := range diagnostics {
		if _, err := fmt.Fprintln(w, d.String()); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reporter) writeJSON(w io.Writer, diagnostics []Diagnostic) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(diagnostics)
}

func (r *Reporter) writeCSV(w io.Writer, diagnostics []Diagnostic) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"kind", "code", "category", "message", "file", "line", "column", "plugin", "phase"}); err != nil {
		return err
	}
	for _, d := range diagnostics {
		row := []string{
			string(d.Kind),
			d.Code,
			string(d.Category()),
			d.Message,
			d.File,
			fmt.Sprint(d.Line),
			fmt.Sprint(d.Column),
			d.Plugin,
			d.Phase,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteLog persists diagnostics as diagnostics.log at path, JSON-encoded
// so later commands (report-issue) can read it back.
func WriteLog(path string, diagnostics []Diagnostic) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("diag: create %s: %w", path, err)
	}
	defer f.Close()
	return NewReporter(FormatJSON).Write(f, diagnostics)
}

// ReadLog loads a diagnostics.log written by WriteLog.
func ReadLog(path string) ([]Diagnostic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var diagnostics []Diagnostic
	if err := json.Unmarshal(data, &diagnostics); err != nil {
		return nil, fmt.Errorf("diag: parse %s: %w", path, err)
	}
	return diagnostics, nil
}

// IssueNodeID derives a stable issue:* node id for a Diagnostic that
// should also be represented as a graph node: a name-based uuid over the
// plugin, location, and message, so re-running analysis reproduces the
// same id.
func IssueNodeID(d Diagnostic) string {
	seed := fmt.Sprintf("%s|%s|%d|%d|%s", d.Plugin, d.File, d.Line, d.Column, d.Message)
	return "issue:" + string(categorySlug(d.Category())) + "#" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}

func categorySlug(c Category) Category {
	if c == "" {
		return "uncategorized"
	}
	return c
}

// IssueNode builds the optional issue:* node validators may emit
// alongside a reported Diagnostic.
func IssueNode(d Diagnostic) graph.Node {
	return graph.Node{
		Id:   IssueNodeID(d),
		Type: "issue:" + string(categorySlug(d.Category())),
		Name: d.Code,
		File: d.File,
		Line: d.Line,
		Attributes: map[string]any{
			"kind":    string(d.Kind),
			"message": d.Message,
			"plugin":  d.Plugin,
			"phase":   d.Phase,
		},
	}
}
