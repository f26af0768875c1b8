package mock

import (
	"slices"
	"time"
)

// Number of the first issue created at runtime minus one.
const firstIssueCounter = 100

const defaultPageSize = 50

// state is the data owned by one client. Domain files operate on it through
// the client; nothing here is shared between clients.
type state struct {
	base string
	now  func() time.Time

	users    map[string]map[string]any
	groups   map[string][]any
	projects []map[string]any

	issues   map[string]map[string]any
	order    []string // issue keys in creation order
	counter  int
	comments map[string][]map[string]any
	worklogs map[string][]map[string]any
	watchers map[string][]string

	filters      []map[string]any
	nextFilterID int

	linkTypes   []map[string]any
	nextLinkID  int
	remoteLinks map[string][]map[string]any

	attachments  map[string][]byte // content URL -> bytes
	nextUploadID int
	nextLogID    int

	boards       []map[string]any
	sprints      []map[string]any
	sprintIssues map[int][]string

	timeTracking map[string]any

	deskTransitions []map[string]any
	serviceDesks    []map[string]any
	requestTypes    map[string][]map[string]any
	queues          map[string][]map[string]any
	slas            []map[string]any
	organizations   []map[string]any
}

func newState(base string) *state {
	users := seedUsers(base)
	st := &state{
		base:         base,
		now:          time.Now,
		users:        users,
		groups:       seedGroups(),
		projects:     copyAll(seedProjects(base)),
		issues:       map[string]map[string]any{},
		counter:      firstIssueCounter,
		comments:     map[string][]map[string]any{},
		worklogs:     map[string][]map[string]any{},
		watchers:     map[string][]string{},
		filters:      copyAll(seedFilters(base, users[currentUserID])),
		nextFilterID: 10002,
		linkTypes:    seedLinkTypes(base),
		nextLinkID:   10100,
		remoteLinks:  map[string][]map[string]any{},
		attachments:  map[string][]byte{},
		nextUploadID: 10000,
		nextLogID:    10000,
		boards:       seedBoards(),
		sprints:      seedSprints(),
		sprintIssues: map[int][]string{1: {"DEMO-85", "DEMO-86"}},
		timeTracking: map[string]any{
			"workingHoursPerDay": 8.0,
			"workingDaysPerWeek": 5.0,
			"timeFormat":         "pretty",
			"defaultUnit":        "minute",
		},
		deskTransitions: seedDeskTransitions(),
		serviceDesks:    seedServiceDesks(),
		requestTypes:    seedRequestTypes(),
		queues:          seedQueues(),
		slas:            seedSLAs(),
		organizations:   seedOrganizations(base),
	}
	for _, is := range seedIssues(base, users) {
		st.put(deepCopy(is))
	}
	st.watchers["DEMO-84"] = []string{currentUserID}
	return st
}

// put stores an issue, keeping creation order for new keys.
func (s *state) put(issue map[string]any) {
	key, _ := issue["key"].(string)
	if _, ok := s.issues[key]; !ok {
		s.order = append(s.order, key)
	}
	s.issues[key] = issue
}

// remove deletes an issue and everything attached to it.
func (s *state) remove(key string) {
	delete(s.issues, key)
	delete(s.comments, key)
	delete(s.worklogs, key)
	delete(s.watchers, key)
	delete(s.remoteLinks, key)
	s.order = slices.DeleteFunc(s.order, func(k string) bool { return k == key })
	for id, keys := range s.sprintIssues {
		s.sprintIssues[id] = slices.DeleteFunc(keys, func(k string) bool { return k == key })
	}
}

// ordered returns the stored issues in creation order.
func (s *state) ordered() []map[string]any {
	out := make([]map[string]any, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.issues[k])
	}
	return out
}

// deepCopy copies JSON shaped values. Slices of strings and maps become
// []any so stored data looks like decoded JSON.
func deepCopy(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return copyValue(m).(map[string]any)
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = copyValue(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = copyValue(val)
		}
		return s
	case []map[string]any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = copyValue(val)
		}
		return s
	case []string:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = val
		}
		return s
	default:
		return v
	}
}

func copyAll(items []map[string]any) []map[string]any {
	out := make([]map[string]any, len(items))
	for i, it := range items {
		out[i] = deepCopy(it)
	}
	return out
}

// window returns the items of one page.
func window(items []map[string]any, start, limit int) []map[string]any {
	if limit <= 0 {
		limit = defaultPageSize
	}
	start = max(start, 0)
	if start >= len(items) {
		return []map[string]any{}
	}
	return items[start:min(start+limit, len(items))]
}

// listOf converts items to a copied []any.
func listOf(items []map[string]any) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = deepCopy(it)
	}
	return out
}

// platformPage builds a platform API page envelope holding items under key.
func platformPage(items []map[string]any, key string, startAt, maxResults int) map[string]any {
	if maxResults <= 0 {
		maxResults = defaultPageSize
	}
	page := window(items, startAt, maxResults)
	return map[string]any{
		"startAt":    startAt,
		"maxResults": maxResults,
		"total":      len(items),
		"isLast":     startAt+len(page) >= len(items),
		key:          listOf(page),
	}
}

// deskPage builds a servicedeskapi page envelope.
func deskPage(items []map[string]any, start, limit int) map[string]any {
	if limit <= 0 {
		limit = defaultPageSize
	}
	page := window(items, start, limit)
	return map[string]any{
		"size":       len(page),
		"start":      start,
		"limit":      limit,
		"isLastPage": start+len(page) >= len(items),
		"values":     listOf(page),
	}
}

// copyList copies items for returning to a caller.
func copyList(items []map[string]any) []map[string]any {
	if items == nil {
		return []map[string]any{}
	}
	return copyAll(items)
}
