package jira

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gi8lino/jiraas/internal/jiraerr"
)

func itoa(i int) string { return strconv.Itoa(i) }

// GetBoards lists agile boards.
func (c *Client) GetBoards(ctx context.Context, opts BoardOptions) (map[string]any, error) {
	q := page(opts.StartAt, opts.MaxResults)
	if opts.ProjectKey != "" {
		q.Set("projectKeyOrId", opts.ProjectKey)
	}
	if opts.Type != "" {
		q.Set("type", opts.Type)
	}
	if opts.Name != "" {
		q.Set("name", opts.Name)
	}
	var out map[string]any
	err := c.call(ctx, http.MethodGet, agilePath+"/board", q, nil, "get boards", &out)
	return out, err
}

// GetBoard returns one board.
func (c *Client) GetBoard(ctx context.Context, id int) (map[string]any, error) {
	var out map[string]any
	err := c.call(ctx, http.MethodGet, agilePath+"/board/"+itoa(id), nil, nil, label("get board %d", id), &out)
	return out, err
}

// GetSprints lists sprints of a board, optionally filtered by state.
func (c *Client) GetSprints(ctx context.Context, boardID int, state string) (map[string]any, error) {
	q := url.Values{}
	if state != "" {
		q.Set("state", state)
	}
	var out map[string]any
	err := c.call(ctx, http.MethodGet, agilePath+"/board/"+itoa(boardID)+"/sprint", q, nil, label("get sprints of board %d", boardID), &out)
	return out, err
}

// GetSprint returns one sprint.
func (c *Client) GetSprint(ctx context.Context, id int) (map[string]any, error) {
	var out map[string]any
	err := c.call(ctx, http.MethodGet, agilePath+"/sprint/"+itoa(id), nil, nil, label("get sprint %d", id), &out)
	return out, err
}

// CreateSprint creates a future sprint on a board.
func (c *Client) CreateSprint(ctx context.Context, in SprintInput) (map[string]any, error) {
	if in.Name == "" || in.BoardID <= 0 {
		return nil, jiraerr.Validation("sprint name and board id are required")
	}
	body := map[string]any{"name": in.Name, "originBoardId": in.BoardID}
	if in.Goal != "" {
		body["goal"] = in.Goal
	}
	if in.StartDate != "" {
		body["startDate"] = in.StartDate
	}
	if in.EndDate != "" {
		body["endDate"] = in.EndDate
	}
	var out map[string]any
	err := c.call(ctx, http.MethodPost, agilePath+"/sprint", nil, body, label("create sprint %q", in.Name), &out)
	return out, err
}

// UpdateSprint partially updates a sprint (name, goal, state, dates).
func (c *Client) UpdateSprint(ctx context.Context, id int, fields map[string]any) (map[string]any, error) {
	var out map[string]any
	err := c.call(ctx, http.MethodPost, agilePath+"/sprint/"+itoa(id), nil, fields, label("update sprint %d", id), &out)
	return out, err
}

// MoveIssuesToSprint moves up to 50 issues into a sprint.
func (c *Client) MoveIssuesToSprint(ctx context.Context, sprintID int, keys []string) error {
	return c.call(ctx, http.MethodPost, agilePath+"/sprint/"+itoa(sprintID)+"/issue", nil, map[string]any{"issues": keys}, label("move issues to sprint %d", sprintID), nil)
}

// GetBoardBacklog returns the backlog issues of a board.
func (c *Client) GetBoardBacklog(ctx context.Context, boardID, startAt, maxResults int) (map[string]any, error) {
	var out map[string]any
	err := c.call(ctx, http.MethodGet, agilePath+"/board/"+itoa(boardID)+"/backlog", page(startAt, maxResults), nil, label("get backlog of board %d", boardID), &out)
	return out, err
}
