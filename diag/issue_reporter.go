package diag

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// IssuePayload is the structured report handed to an external issue
// tracker integration.
type IssuePayload struct {
	Title       string       `json:"title"`
	Body        string       `json:"body"`
	Labels      []string     `json:"labels"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// IssueReporter files an issue with an external tracker. The concrete
// GitHub integration lives outside this module; callers wire one in and
// authenticate it with GITHUB_TOKEN.
type IssueReporter interface {
	ReportIssue(ctx context.Context, payload IssuePayload) (url string, err error)
}

// BuildIssuePayload assembles a tracker-ready payload from a run's
// diagnostics, grouped by category.
func BuildIssuePayload(title string, diagnostics []Diagnostic) IssuePayload {
	var body strings.Builder
	labels := map[string]bool{}
	for _, d := range diagnostics {
		fmt.Fprintf(&body, "- %s\n", d.String())
		if cat := d.Category(); cat != "" {
			labels[string(cat)] = true
		}
	}
	payload := IssuePayload{Title: title, Body: body.String(), Diagnostics: diagnostics}
	for label := range labels {
		payload.Labels = append(payload.Labels, label)
	}
	sort.Strings(payload.Labels)
	return payload
}
