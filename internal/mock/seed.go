package mock

import "fmt"

// Account id of the user the mock authenticates as.
const currentUserID = "abc123"

const seedTimestamp = "2025-01-08T10:00:00.000+0000"

// Seed tables are built by functions so every client gets its own copy.

func seedUsers(base string) map[string]map[string]any {
	user := func(id, name, email string) map[string]any {
		return map[string]any{
			"accountId":    id,
			"accountType":  "atlassian",
			"displayName":  name,
			"emailAddress": email,
			"active":       true,
			"timeZone":     "Europe/Zurich",
			"self":         base + "/rest/api/3/user?accountId=" + id,
		}
	}
	return map[string]map[string]any{
		"abc123": user("abc123", "Jason Krueger", "jason@example.com"),
		"def456": user("def456", "Jane Manager", "jane@example.com"),
	}
}

// userOrder fixes the listing order of the user table.
var userOrder = []string{"abc123", "def456"}

func seedGroups() map[string][]any {
	return map[string][]any{
		"abc123": {
			map[string]any{"name": "jira-software-users", "groupId": "g-1"},
			map[string]any{"name": "jira-administrators", "groupId": "g-2"},
		},
		"def456": {
			map[string]any{"name": "jira-software-users", "groupId": "g-1"},
		},
	}
}

func seedProjects(base string) []map[string]any {
	return []map[string]any{
		{
			"id":             "10000",
			"key":            "DEMO",
			"name":           "Demo Project",
			"projectTypeKey": "software",
			"style":          "next-gen",
			"self":           base + "/rest/api/3/project/10000",
			"leadAccountId":  currentUserID,
			"components": []any{
				map[string]any{"id": "10000", "name": "Backend"},
				map[string]any{"id": "10001", "name": "Frontend"},
				map[string]any{"id": "10002", "name": "API"},
			},
			"versions": []any{
				map[string]any{"id": "10000", "name": "1.0.0", "released": true, "releaseDate": "2024-12-01"},
				map[string]any{"id": "10001", "name": "1.1.0", "released": false},
				map[string]any{"id": "10002", "name": "2.0.0", "released": false},
			},
		},
		{
			"id":             "10001",
			"key":            "DEMOSD",
			"name":           "Demo Service Desk",
			"projectTypeKey": "service_desk",
			"style":          "next-gen",
			"self":           base + "/rest/api/3/project/10001",
			"leadAccountId":  currentUserID,
			"components": []any{
				map[string]any{"id": "10100", "name": "IT Support"},
				map[string]any{"id": "10101", "name": "Hardware"},
			},
			"versions": []any{},
		},
	}
}

var (
	statusToDo       = map[string]any{"id": "10000", "name": "To Do", "statusCategory": map[string]any{"key": "new", "name": "To Do"}}
	statusInProgress = map[string]any{"id": "10001", "name": "In Progress", "statusCategory": map[string]any{"key": "indeterminate", "name": "In Progress"}}
	statusDone       = map[string]any{"id": "10002", "name": "Done", "statusCategory": map[string]any{"key": "done", "name": "Done"}}
)

// transitions available on ordinary issues.
func seedTransitions() []map[string]any {
	return []map[string]any{
		{"id": "11", "name": "To Do", "to": statusToDo},
		{"id": "21", "name": "In Progress", "to": statusInProgress},
		{"id": "31", "name": "Done", "to": statusDone},
	}
}

// transitions available on service desk requests.
func seedDeskTransitions() []map[string]any {
	return []map[string]any{
		{"id": "11", "name": "Waiting for support"},
		{"id": "21", "name": "In Progress"},
		{"id": "31", "name": "Pending"},
		{"id": "41", "name": "Resolved"},
	}
}

func seedIssueTypes() []map[string]any {
	return []map[string]any{
		{"id": "10000", "name": "Epic", "subtask": false, "hierarchyLevel": 1},
		{"id": "10001", "name": "Story", "subtask": false, "hierarchyLevel": 0},
		{"id": "10002", "name": "Bug", "subtask": false, "hierarchyLevel": 0},
		{"id": "10003", "name": "Task", "subtask": false, "hierarchyLevel": 0},
		{"id": "10004", "name": "Subtask", "subtask": true, "hierarchyLevel": -1},
	}
}

func seedPriorities() []map[string]any {
	return []map[string]any{
		{"id": "1", "name": "Highest"},
		{"id": "2", "name": "High"},
		{"id": "3", "name": "Medium"},
		{"id": "4", "name": "Low"},
		{"id": "5", "name": "Lowest"},
	}
}

func seedFields() []map[string]any {
	field := func(id, name string, custom bool, schema string) map[string]any {
		return map[string]any{
			"id":         id,
			"key":        id,
			"name":       name,
			"custom":     custom,
			"orderable":  true,
			"navigable":  true,
			"searchable": true,
			"schema":     map[string]any{"type": schema},
		}
	}
	return []map[string]any{
		field("summary", "Summary", false, "string"),
		field("description", "Description", false, "string"),
		field("issuetype", "Issue Type", false, "issuetype"),
		field("status", "Status", false, "status"),
		field("priority", "Priority", false, "priority"),
		field("assignee", "Assignee", false, "user"),
		field("reporter", "Reporter", false, "user"),
		field("labels", "Labels", false, "array"),
		field("components", "Components", false, "array"),
		field("timetracking", "Time tracking", false, "timetracking"),
		field("customfield_10011", "Epic Name", true, "string"),
		field("customfield_10014", "Epic Link", true, "any"),
		field("customfield_10016", "Story Points", true, "number"),
		field("customfield_10020", "Sprint", true, "array"),
	}
}

func seedLinkTypes(base string) []map[string]any {
	lt := func(id, name, inward, outward string) map[string]any {
		return map[string]any{
			"id":      id,
			"name":    name,
			"inward":  inward,
			"outward": outward,
			"self":    base + "/rest/api/3/issueLinkType/" + id,
		}
	}
	return []map[string]any{
		lt("10000", "Blocks", "is blocked by", "blocks"),
		lt("10001", "Cloners", "is cloned by", "clones"),
		lt("10002", "Duplicate", "is duplicated by", "duplicates"),
		lt("10003", "Relates", "relates to", "relates to"),
	}
}

// seedIssue builds a stored issue record.
func seedIssue(base, key, id, project, summary, typ string, status map[string]any, priority string, assignee, reporter map[string]any, created string, labels ...string) map[string]any {
	ls := make([]any, 0, len(labels))
	for _, l := range labels {
		ls = append(ls, l)
	}
	var asg any
	if assignee != nil {
		asg = assignee
	}
	return map[string]any{
		"id":   id,
		"key":  key,
		"self": base + "/rest/api/3/issue/" + id,
		"fields": map[string]any{
			"summary":     summary,
			"description": textDoc(summary + " details"),
			"issuetype":   map[string]any{"name": typ},
			"status":      status,
			"priority":    map[string]any{"name": priority},
			"assignee":    asg,
			"reporter":    reporter,
			"labels":      ls,
			"project":     map[string]any{"key": project},
			"created":     created,
			"updated":     created,
			"issuelinks":  []any{},
		},
	}
}

func seedIssues(base string, users map[string]map[string]any) []map[string]any {
	jason, jane := users["abc123"], users["def456"]
	day := func(d int) string { return fmt.Sprintf("2025-01-%02dT10:00:00.000+0000", d) }

	issues := []map[string]any{
		seedIssue(base, "DEMO-84", "10084", "DEMO", "Product Launch", "Epic", statusInProgress, "High", jason, jason, day(1), "launch"),
		seedIssue(base, "DEMO-85", "10085", "DEMO", "User Authentication", "Story", statusToDo, "Medium", jason, jane, day(2), "auth"),
		seedIssue(base, "DEMO-86", "10086", "DEMO", "Login fails on Safari", "Bug", statusToDo, "High", jane, jason, day(3), "bug", "browser"),
		seedIssue(base, "DEMO-87", "10087", "DEMO", "Update documentation", "Task", statusToDo, "Low", nil, jane, day(4)),
		seedIssue(base, "DEMOSD-1", "20001", "DEMOSD", "Cannot connect to VPN", "IT help", map[string]any{"id": "10100", "name": "Waiting for support"}, "High", nil, jason, day(5)),
		seedIssue(base, "DEMOSD-2", "20002", "DEMOSD", "New laptop request", "Computer support", map[string]any{"id": "10101", "name": "In Progress"}, "Medium", jane, jason, day(6)),
	}
	issues[0]["fields"].(map[string]any)["timetracking"] = map[string]any{
		"originalEstimate":         "2w",
		"remainingEstimate":        "1w",
		"originalEstimateSeconds":  288000,
		"remainingEstimateSeconds": 144000,
	}

	issues[4]["requestTypeId"] = "1"
	issues[4]["serviceDeskId"] = "1"
	issues[4]["currentStatus"] = map[string]any{"status": "Waiting for support", "statusCategory": "new"}
	issues[5]["requestTypeId"] = "2"
	issues[5]["serviceDeskId"] = "1"
	issues[5]["currentStatus"] = map[string]any{"status": "In Progress", "statusCategory": "indeterminate"}
	return issues
}

func seedFilters(base string, owner map[string]any) []map[string]any {
	filter := func(id, name, jql string, fav bool) map[string]any {
		return map[string]any{
			"id":               id,
			"name":             name,
			"jql":              jql,
			"description":      "",
			"owner":            owner,
			"favourite":        fav,
			"self":             base + "/rest/api/3/filter/" + id,
			"viewUrl":          base + "/issues/?filter=" + id,
			"sharePermissions": []any{},
		}
	}
	return []map[string]any{
		filter("10000", "My Open Issues", "assignee = currentUser() AND resolution = Unresolved", true),
		filter("10001", "Open Bugs", "project = DEMO AND issuetype = Bug AND status != Done", false),
	}
}

func seedBoards() []map[string]any {
	return []map[string]any{
		{
			"id":       1,
			"name":     "DEMO board",
			"type":     "scrum",
			"location": map[string]any{"projectKey": "DEMO", "projectId": "10000"},
		},
	}
}

func seedSprints() []map[string]any {
	return []map[string]any{
		{"id": 1, "name": "DEMO Sprint 1", "state": "active", "originBoardId": 1, "goal": "Ship the login flow", "startDate": "2025-01-06T09:00:00.000Z", "endDate": "2025-01-20T17:00:00.000Z"},
		{"id": 2, "name": "DEMO Sprint 2", "state": "future", "originBoardId": 1},
	}
}

func seedServiceDesks() []map[string]any {
	return []map[string]any{
		{"id": "1", "projectId": "10001", "projectName": "Demo Service Desk", "projectKey": "DEMOSD"},
	}
}

func seedRequestTypes() map[string][]map[string]any {
	rt := func(id, name, desc string) map[string]any {
		return map[string]any{"id": id, "name": name, "description": desc, "serviceDeskId": "1"}
	}
	return map[string][]map[string]any{
		"1": {
			rt("1", "IT help", "Get help from IT"),
			rt("2", "Computer support", "Computer hardware/software issues"),
			rt("3", "New employee", "Onboard a new team member"),
			rt("4", "Travel request", "Request travel approval"),
			rt("5", "Purchase over $100", "Purchase request over $100"),
		},
	}
}

func seedQueues() map[string][]map[string]any {
	return map[string][]map[string]any{
		"1": {
			{"id": "1", "name": "All open", "jql": "project = DEMOSD AND resolution = Unresolved"},
			{"id": "2", "name": "Assigned to me", "jql": "project = DEMOSD AND assignee = currentUser()"},
			{"id": "3", "name": "Unassigned", "jql": "project = DEMOSD AND assignee IS EMPTY"},
		},
	}
}

func seedSLAs() []map[string]any {
	sla := func(id, name, breach string, millis int, friendly string) map[string]any {
		return map[string]any{
			"id":              id,
			"name":            name,
			"completedCycles": []any{},
			"ongoingCycle": map[string]any{
				"startTime":     map[string]any{"iso8601": "2025-01-01T10:00:00+0000"},
				"breachTime":    map[string]any{"iso8601": breach},
				"remainingTime": map[string]any{"millis": millis, "friendly": friendly},
				"breached":      false,
			},
		}
	}
	return []map[string]any{
		sla("1", "Time to first response", "2025-01-02T10:00:00+0000", 86400000, "24h"),
		sla("2", "Time to resolution", "2025-01-08T10:00:00+0000", 604800000, "7d"),
	}
}

func seedOrganizations(base string) []map[string]any {
	org := func(id, name string) map[string]any {
		return map[string]any{
			"id":    id,
			"name":  name,
			"links": map[string]any{"self": base + "/rest/servicedeskapi/organization/" + id},
		}
	}
	return []map[string]any{org("1", "Acme Corp"), org("2", "Demo Org")}
}
