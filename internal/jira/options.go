package jira

import (
	"net/url"
	"strconv"
	"strings"
)

// GetIssueOptions selects fields and expansions of a single issue.
type GetIssueOptions struct {
	Fields []string
	Expand []string
}

// SearchOptions controls a JQL search.
type SearchOptions struct {
	Fields        []string
	Expand        []string
	StartAt       int
	MaxResults    int // 0 uses the server default
	NextPageToken string
}

// TransitionOptions carries the optional parts of a transition request.
type TransitionOptions struct {
	Fields  map[string]any
	Update  map[string]any
	Comment string // converted to ADF
}

// FilterOptions are the optional attributes of a new filter.
type FilterOptions struct {
	Description      string
	Favourite        bool
	SharePermissions []map[string]any
}

// FilterUpdate is a partial filter update; nil fields are left unchanged.
type FilterUpdate struct {
	Name        *string
	JQL         *string
	Description *string
	Favourite   *bool
}

// WorklogOptions describes a worklog entry.
type WorklogOptions struct {
	TimeSpent        string // "1h 30m"
	Started          string // Jira datetime; empty means now
	Comment          string // converted to ADF
	AdjustEstimate   string // auto, new, leave, manual
	NewEstimate      string
	ReduceBy         string
	VisibilityType   string // "group" or "role"
	VisibilityValue  string
	TimeSpentSeconds int
}

// WorklogRange limits worklog reports to the days between Since and Until,
// both "YYYY-MM-DD" and inclusive. Empty bounds are open.
type WorklogRange struct {
	Since string
	Until string
}

// ExportOptions selects the columns and size of a search export.
type ExportOptions struct {
	Fields     []string // empty uses DefaultExportFields
	MaxResults int      // 0 exports every match
}

// TimeTrackingConfig is the site wide time tracking configuration.
type TimeTrackingConfig struct {
	WorkingHoursPerDay float64 `json:"workingHoursPerDay"`
	WorkingDaysPerWeek float64 `json:"workingDaysPerWeek"`
	TimeFormat         string  `json:"timeFormat"`
	DefaultUnit        string  `json:"defaultUnit"`
}

// ProjectInput describes a project to create.
type ProjectInput struct {
	Key            string
	Name           string
	ProjectTypeKey string // software, business, service_desk
	TemplateKey    string // shortcut name or full template key
	LeadAccountID  string // current user when empty
	Description    string
	AssigneeType   string
	CategoryID     int
}

// BoardOptions filters the board list.
type BoardOptions struct {
	ProjectKey string
	Type       string // scrum, kanban, simple
	Name       string
	StartAt    int
	MaxResults int
}

// SprintInput describes a sprint to create.
type SprintInput struct {
	BoardID   int
	Name      string
	Goal      string
	StartDate string
	EndDate   string
}

// RequestInput describes a service desk request to raise.
type RequestInput struct {
	ServiceDeskID string
	RequestTypeID string
	Summary       string
	Description   string
	Fields        map[string]any // extra requestFieldValues
	Participants  []string
	OnBehalfOf    string
}

// CommentVisibility filters service desk request comments.
type CommentVisibility int

const (
	CommentsAll CommentVisibility = iota
	CommentsPublic
	CommentsInternal
)

// Query returns the public/internal query flags of a visibility filter.
func (v CommentVisibility) Query() url.Values {
	q := url.Values{}
	switch v {
	case CommentsPublic:
		q.Set("public", "true")
		q.Set("internal", "false")
	case CommentsInternal:
		q.Set("public", "false")
		q.Set("internal", "true")
	}
	return q
}

// Match reports whether a comment with the given public flag passes.
func (v CommentVisibility) Match(public bool) bool {
	switch v {
	case CommentsPublic:
		return public
	case CommentsInternal:
		return !public
	default:
		return true
	}
}

// page returns startAt/maxResults query values, skipping zeroes.
func page(startAt, maxResults int) url.Values {
	q := url.Values{}
	if startAt > 0 {
		q.Set("startAt", strconv.Itoa(startAt))
	}
	if maxResults > 0 {
		q.Set("maxResults", strconv.Itoa(maxResults))
	}
	return q
}

// jsmPage returns start/limit query values used by the servicedesk API.
func jsmPage(start, limit int) url.Values {
	q := url.Values{}
	if start > 0 {
		q.Set("start", strconv.Itoa(start))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

// setList sets key to the comma joined values when any are given.
func setList(q url.Values, key string, values []string) {
	if len(values) > 0 {
		q.Set(key, strings.Join(values, ","))
	}
}
