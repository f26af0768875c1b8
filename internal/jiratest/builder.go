// Package jiratest holds helpers for tests that talk to a Jira site or the
// in-memory mock: an issue builder, search and field assertions, polling
// waits and unique names for test fixtures.
package jiratest

import (
	"context"
	"fmt"
	"slices"

	"github.com/gi8lino/jiraas/internal/adf"
	"github.com/gi8lino/jiraas/internal/jira"
)

// DefaultLabels are put on every built issue unless replaced.
var DefaultLabels = []string{"test", "automated"}

type pendingLink struct {
	target   string
	linkType string
}

// IssueBuilder assembles issue fields fluently and creates the issue.
type IssueBuilder struct {
	svc       jira.Service
	project   string
	issueType string
	summary   string
	labels    []string
	fields    map[string]any
	links     []pendingLink
}

// NewIssueBuilder returns a builder for a Task in project.
func NewIssueBuilder(svc jira.Service, project string) *IssueBuilder {
	return &IssueBuilder{
		svc:       svc,
		project:   project,
		issueType: "Task",
		labels:    slices.Clone(DefaultLabels),
		fields:    map[string]any{},
	}
}

// WithSummary sets the summary.
func (b *IssueBuilder) WithSummary(s string) *IssueBuilder { b.summary = s; return b }

// WithType sets the issue type name.
func (b *IssueBuilder) WithType(name string) *IssueBuilder { b.issueType = name; return b }

// WithPriority sets the priority name.
func (b *IssueBuilder) WithPriority(name string) *IssueBuilder {
	b.fields["priority"] = map[string]any{"name": name}
	return b
}

// WithDescription sets a plain text description, sent as ADF.
func (b *IssueBuilder) WithDescription(text string) *IssueBuilder {
	b.fields["description"] = adf.FromText(text).Map()
	return b
}

// WithLabels replaces the labels, including the defaults.
func (b *IssueBuilder) WithLabels(labels ...string) *IssueBuilder {
	b.labels = slices.Clone(labels)
	return b
}

// AddLabels appends labels to the current set.
func (b *IssueBuilder) AddLabels(labels ...string) *IssueBuilder {
	for _, l := range labels {
		if !slices.Contains(b.labels, l) {
			b.labels = append(b.labels, l)
		}
	}
	return b
}

// WithAssignee assigns the issue to an account id.
func (b *IssueBuilder) WithAssignee(accountID string) *IssueBuilder {
	b.fields["assignee"] = map[string]any{"accountId": accountID}
	return b
}

// WithField sets any other field, e.g. a custom field.
func (b *IssueBuilder) WithField(name string, value any) *IssueBuilder {
	b.fields[name] = value
	return b
}

// LinkTo links the new issue to target once it exists.
func (b *IssueBuilder) LinkTo(target, linkType string) *IssueBuilder {
	b.links = append(b.links, pendingLink{target: target, linkType: linkType})
	return b
}

// Fields returns the create payload fields.
func (b *IssueBuilder) Fields() map[string]any {
	f := make(map[string]any, len(b.fields)+4)
	for k, v := range b.fields {
		f[k] = v
	}
	summary := b.summary
	if summary == "" {
		summary = fmt.Sprintf("[Test] %s %s", b.issueType, UniqueName("issue"))
	}
	f["summary"] = summary
	f["project"] = map[string]any{"key": b.project}
	f["issuetype"] = map[string]any{"name": b.issueType}
	f["labels"] = slices.Clone(b.labels)
	return f
}

// Build creates the issue and its links. It returns the create response.
func (b *IssueBuilder) Build(ctx context.Context) (map[string]any, error) {
	created, err := b.svc.CreateIssue(ctx, b.Fields())
	if err != nil {
		return nil, fmt.Errorf("create test issue: %w", err)
	}
	key, _ := created["key"].(string)
	for _, l := range b.links {
		if err := b.svc.CreateLink(ctx, l.linkType, key, l.target); err != nil {
			return created, fmt.Errorf("link %s to %s: %w", key, l.target, err)
		}
	}
	return created, nil
}
