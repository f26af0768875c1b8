package mock

import "context"

// GetDevelopmentStatus reports an issue with no linked development work.
func (c *Client) GetDevelopmentStatus(ctx context.Context, key string) (map[string]any, error) {
	if _, err := c.issue(key); err != nil {
		return nil, err
	}
	empty := func() map[string]any {
		return map[string]any{"overall": map[string]any{"count": 0}, "byInstanceType": map[string]any{}}
	}
	return map[string]any{
		"errors": []any{},
		"summary": map[string]any{
			"branch":      empty(),
			"pullrequest": empty(),
			"repository":  empty(),
		},
	}, nil
}
