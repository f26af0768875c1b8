package mock

import (
	"context"
	"slices"
	"strings"

	"github.com/gi8lino/jiraas/internal/jira"
	"github.com/gi8lino/jiraas/internal/jiraerr"
)

const sprintField = "customfield_10020"

// GetBoards lists boards matching the given filters.
func (c *Client) GetBoards(ctx context.Context, opts jira.BoardOptions) (map[string]any, error) {
	var out []map[string]any
	for _, b := range c.st.boards {
		if opts.ProjectKey != "" && !strings.EqualFold(opts.ProjectKey, boardProject(b)) {
			continue
		}
		if opts.Type != "" && b["type"] != opts.Type {
			continue
		}
		if name, _ := b["name"].(string); opts.Name != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(opts.Name)) {
			continue
		}
		out = append(out, b)
	}
	return platformPage(out, "values", opts.StartAt, opts.MaxResults), nil
}

// GetBoard returns one board.
func (c *Client) GetBoard(ctx context.Context, id int) (map[string]any, error) {
	b, err := c.board(id)
	if err != nil {
		return nil, err
	}
	return deepCopy(b), nil
}

// GetSprints lists the sprints of a board, optionally filtered by state.
func (c *Client) GetSprints(ctx context.Context, boardID int, state string) (map[string]any, error) {
	if _, err := c.board(boardID); err != nil {
		return nil, err
	}
	var out []map[string]any
	for _, s := range c.st.sprints {
		if asInt(s["originBoardId"]) != boardID {
			continue
		}
		st, _ := s["state"].(string)
		if state != "" && !slices.Contains(strings.Split(state, ","), st) {
			continue
		}
		out = append(out, s)
	}
	return platformPage(out, "values", 0, defaultPageSize), nil
}

// GetSprint returns one sprint.
func (c *Client) GetSprint(ctx context.Context, id int) (map[string]any, error) {
	s, err := c.sprint(id)
	if err != nil {
		return nil, err
	}
	return deepCopy(s), nil
}

// CreateSprint adds a future sprint to a board.
func (c *Client) CreateSprint(ctx context.Context, in jira.SprintInput) (map[string]any, error) {
	if in.Name == "" || in.BoardID <= 0 {
		return nil, jiraerr.Validation("sprint name and board id are required")
	}
	if _, err := c.board(in.BoardID); err != nil {
		return nil, err
	}
	id := 1
	for _, s := range c.st.sprints {
		id = max(id, asInt(s["id"])+1)
	}
	s := map[string]any{
		"id":            id,
		"name":          in.Name,
		"state":         "future",
		"originBoardId": in.BoardID,
	}
	for k, v := range map[string]string{"goal": in.Goal, "startDate": in.StartDate, "endDate": in.EndDate} {
		if v != "" {
			s[k] = v
		}
	}
	c.st.sprints = append(c.st.sprints, s)
	return deepCopy(s), nil
}

// UpdateSprint merges fields into a sprint.
func (c *Client) UpdateSprint(ctx context.Context, id int, fields map[string]any) (map[string]any, error) {
	s, err := c.sprint(id)
	if err != nil {
		return nil, err
	}
	for k, v := range fields {
		if k == "id" || k == "originBoardId" {
			continue
		}
		s[k] = copyValue(v)
	}
	return deepCopy(s), nil
}

// MoveIssuesToSprint moves issues into a sprint, taking them out of any
// other sprint.
func (c *Client) MoveIssuesToSprint(ctx context.Context, sprintID int, keys []string) error {
	s, err := c.sprint(sprintID)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return jiraerr.Validation("no issues to move")
	}
	for _, k := range keys {
		if _, err := c.issue(k); err != nil {
			return err
		}
	}
	for id, members := range c.st.sprintIssues {
		c.st.sprintIssues[id] = slices.DeleteFunc(members, func(k string) bool { return slices.Contains(keys, k) })
	}
	c.st.sprintIssues[sprintID] = append(c.st.sprintIssues[sprintID], keys...)
	for _, k := range keys {
		fieldsOf(c.st.issues[k])[sprintField] = []any{map[string]any{
			"id":    sprintID,
			"name":  s["name"],
			"state": s["state"],
		}}
	}
	return nil
}

// GetBoardBacklog returns the board project's issues that are in no sprint.
func (c *Client) GetBoardBacklog(ctx context.Context, boardID, startAt, maxResults int) (map[string]any, error) {
	b, err := c.board(boardID)
	if err != nil {
		return nil, err
	}
	project := boardProject(b)
	var backlog []map[string]any
	for _, is := range c.st.ordered() {
		key, _ := is["key"].(string)
		if !strings.EqualFold(projectKeyOf(is), project) || c.inSprint(key) {
			continue
		}
		backlog = append(backlog, is)
	}
	return platformPage(backlog, "issues", startAt, maxResults), nil
}

func (c *Client) board(id int) (map[string]any, error) {
	for _, b := range c.st.boards {
		if asInt(b["id"]) == id {
			return b, nil
		}
	}
	return nil, jiraerr.NotFound("board %d not found", id)
}

func (c *Client) sprint(id int) (map[string]any, error) {
	for _, s := range c.st.sprints {
		if asInt(s["id"]) == id {
			return s, nil
		}
	}
	return nil, jiraerr.NotFound("sprint %d not found", id)
}

func (c *Client) inSprint(key string) bool {
	for _, members := range c.st.sprintIssues {
		if slices.Contains(members, key) {
			return true
		}
	}
	return false
}

func boardProject(b map[string]any) string {
	loc, _ := b["location"].(map[string]any)
	key, _ := loc["projectKey"].(string)
	return key
}
