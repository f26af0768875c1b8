package compliance

import "strings"

// API families a category belongs to.
const (
	APIPlatform = "platform"
	APIAgile    = "agile"
	APIJSM      = "jsm"
	APIAssets   = "assets"
)

// rule assigns a category when all of its conditions hold. Empty conditions
// are ignored.
type rule struct {
	endpoint string // substring of the endpoint
	name     string // substring of the lower-cased method name
	category string
}

// first returns the category of the first matching rule, or def.
func first(endpoint, name string, rules []rule, def string) string {
	for _, r := range rules {
		if r.endpoint != "" && !strings.Contains(endpoint, r.endpoint) {
			continue
		}
		if r.name != "" && !strings.Contains(name, r.name) {
			continue
		}
		return r.category
	}
	return def
}

var jsmRules = []rule{
	{name: "customer", category: "JSM Customers"},
	{name: "organization", category: "JSM Organizations"},
	{name: "queue", category: "JSM Queues"},
	{name: "sla", category: "JSM SLAs"},
	{name: "approval", category: "JSM Approvals"},
	{name: "participant", category: "JSM Participants"},
	{name: "comment", endpoint: "request", category: "JSM Comments"},
	{name: "knowledge", category: "JSM Knowledge Base"},
	{name: "request", category: "JSM Requests"},
}

var agileRules = []rule{
	{name: "sprint", category: "Agile Sprints"},
	{name: "board", category: "Agile Boards"},
	{name: "backlog", category: "Agile Backlog"},
	{name: "epic", category: "Agile Epics"},
	{name: "rank", category: "Agile Ranking"},
}

var issueRules = []rule{
	{name: "comment", category: "Issue Comments"},
	{name: "worklog", category: "Time Tracking"},
	{name: "time", category: "Time Tracking"},
	{name: "transition", category: "Issue Transitions"},
	{name: "link", category: "Issue Links"},
	{name: "attach", category: "Attachments"},
	{name: "upload", category: "Attachments"},
	{name: "changelog", category: "Issue Changelog"},
	{name: "watcher", category: "Issue Watchers"},
	{name: "notify", category: "Notifications"},
}

var projectRules = []rule{
	{endpoint: "version", category: "Versions"},
	{endpoint: "component", category: "Components"},
	{endpoint: "status", category: "Project Statuses"},
	{endpoint: "avatar", category: "Project Avatars"},
	{name: "category", category: "Project Categories"},
	{name: "type", category: "Project Types"},
	{name: "role", category: "Project Roles"},
}

var platformRules = []rule{
	{endpoint: "jql", name: "search", category: "Search"},
	{endpoint: "filter", category: "Filters"},
	{name: "filter", category: "Filters"},
	{endpoint: "jql", category: "JQL"},
}

var otherRules = []rule{
	{endpoint: "group", category: "Groups"},
	{endpoint: "version", category: "Versions"},
	{endpoint: "component", category: "Components"},
	{endpoint: "workflow", name: "scheme", category: "Workflow Schemes"},
	{endpoint: "workflow", category: "Workflows"},
	{name: "workflow", category: "Workflows"},
	{endpoint: "status", category: "Statuses"},
	{name: "notification", category: "Notification Schemes"},
	{endpoint: "notificationscheme", category: "Notification Schemes"},
	{endpoint: "screen", name: "scheme", category: "Screen Schemes"},
	{endpoint: "screen", category: "Screens"},
	{name: "screen", category: "Screens"},
	{endpoint: "issuetype", name: "scheme", category: "Issue Type Schemes"},
	{endpoint: "issuetype", category: "Issue Types"},
	{endpoint: "priority", category: "Priorities"},
	{endpoint: "field", category: "Fields"},
	{endpoint: "permission", category: "Permission Schemes"},
	{name: "permission", category: "Permission Schemes"},
	{endpoint: "myself", category: "Current User"},
	{endpoint: "serverinfo", category: "Server Info"},
	{endpoint: "task", category: "Async Tasks"},
}

// Categorize assigns a report category from the endpoint and method name.
func Categorize(m Method) string {
	endpoint := strings.ToLower(m.Endpoint)
	name := strings.ToLower(m.Name)

	switch {
	case strings.Contains(endpoint, "servicedeskapi") || strings.Contains(name, "servicedesk") || strings.Contains(name, "request"):
		return first(endpoint, name, jsmRules, "JSM Service Desks")
	case strings.Contains(endpoint, "insight") || strings.Contains(name, "asset"):
		return "Assets/Insight"
	case strings.Contains(endpoint, "agile"):
		return first(endpoint, name, agileRules, "Agile General")
	case strings.Contains(endpoint, "/issue/") || strings.HasSuffix(endpoint, "/issue"):
		return first(endpoint, name, issueRules, "Issue Management")
	}

	if c := first(endpoint, name, platformRules, ""); c != "" {
		return c
	}
	if strings.Contains(endpoint, "project") {
		return first(endpoint, name, projectRules, "Projects")
	}
	if strings.Contains(endpoint, "user") || strings.Contains(name, "user") {
		if strings.Contains(name, "group") {
			return "User Groups"
		}
		return "Users"
	}
	return first(endpoint, name, otherRules, "Other")
}

// APIOf maps a category to its API family.
func APIOf(category string) string {
	switch {
	case strings.HasPrefix(category, "JSM") || strings.Contains(category, "Service"):
		return APIJSM
	case strings.HasPrefix(category, "Agile"):
		return APIAgile
	case strings.Contains(category, "Asset") || strings.Contains(category, "Insight"):
		return APIAssets
	}
	return APIPlatform
}
