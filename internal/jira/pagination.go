package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// PageParams names the paging parameters and response counters of an
// endpoint family.
type PageParams struct {
	ReqStart   string // request parameter carrying the offset
	ReqLimit   string // request parameter carrying the page size
	StartField string // response counter: offset of this page
	LimitField string // response counter: page size
	TotalField string // response counter: total items, may be absent
	LastField  string // response flag: true on the last page
	ItemsKey   string // array holding the items
	LimitPages int    // stop after this many pages, 0 is unlimited
}

// PlatformPages pages platform and agile endpoints returning "values".
var PlatformPages = PageParams{
	ReqStart:   "startAt",
	ReqLimit:   "maxResults",
	StartField: "startAt",
	LimitField: "maxResults",
	TotalField: "total",
	LastField:  "isLast",
	ItemsKey:   "values",
}

// ServiceDeskPages pages servicedeskapi endpoints.
var ServiceDeskPages = PageParams{
	ReqStart:   "start",
	ReqLimit:   "limit",
	StartField: "start",
	LimitField: "limit",
	LastField:  "isLastPage",
	ItemsKey:   "values",
}

// CollectPages follows an offset paginated endpoint and returns the items of
// every page. Items seen before are skipped and a page that adds nothing
// new ends the walk.
func (c *Client) CollectPages(ctx context.Context, path string, query url.Values, p PageParams) ([]map[string]any, error) {
	var (
		items []map[string]any
		seen  = map[string]struct{}{}
		pages int
		q     = cloneValues(query)
	)

	for {
		page, err := c.Get(ctx, path, q)
		if err != nil {
			return items, err
		}
		pages++

		added := 0
		raw, _ := page[p.ItemsKey].([]any)
		for _, it := range raw {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			id := itemIdentity(m)
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			items = append(items, m)
			added++
		}

		next, limit, ok := nextPageParams(p, page, len(raw), pages)
		if !ok || added == 0 {
			return items, nil
		}
		q.Set(p.ReqStart, strconv.Itoa(next))
		if p.ReqLimit != "" {
			q.Set(p.ReqLimit, strconv.Itoa(limit))
		}
	}
}

// nextPageParams computes the next offset and whether to continue.
func nextPageParams(p PageParams, last map[string]any, count, seenPages int) (nextStart, nextLimit int, ok bool) {
	if p.LimitPages > 0 && seenPages >= p.LimitPages {
		return 0, 0, false
	}
	if done, _ := last[p.LastField].(bool); done {
		return 0, 0, false
	}
	if count == 0 {
		return 0, 0, false
	}

	start := asInt(last[p.StartField])
	limit := asInt(last[p.LimitField])
	if limit <= 0 {
		limit = count
	}
	next := start + count

	if total := asInt(last[p.TotalField]); total > 0 && next >= total {
		return 0, 0, false
	}
	// without total or isLast a short page is the last one
	if _, hasLast := last[p.LastField]; !hasLast && asInt(last[p.TotalField]) == 0 && count < limit {
		return 0, 0, false
	}
	return next, limit, true
}

// itemIdentity returns the id or key of an item, or its JSON encoding.
func itemIdentity(m map[string]any) string {
	for _, k := range []string{"id", "key", "accountId"} {
		if v, ok := m[k]; ok && v != nil {
			return k + ":" + fmt.Sprint(v)
		}
	}
	b, _ := json.Marshal(m)
	return string(b)
}

// asInt converts JSON numbers and numeric strings to int.
func asInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case int64:
		return int(t)
	case json.Number:
		n, _ := t.Int64()
		return int(n)
	case string:
		n, _ := strconv.Atoi(t)
		return n
	default:
		return 0
	}
}

func cloneValues(q url.Values) url.Values {
	out := url.Values{}
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}
