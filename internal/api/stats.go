package api

import (
	"context"
	"strconv"
)

var statsFields = []string{"links", "stats"}

func statsParams(criteria *SearchCriteria) Params {
	data := NewParams("action", "stats")
	if criteria != nil {
		data = data.Set("filter", optional(criteria.Filter))
		data = data.Set("limit", criteria.Limit)
		data = data.Set("start", criteria.Start)
	}
	return data
}

// Stats fetches totals for the whole installation, plus the links selected
// by criteria. criteria may be nil.
func (c *Client) Stats(ctx context.Context, criteria *SearchCriteria) (*StatsResult, Response, error) {
	result, resp, err := c.dispatcher.Do(ctx, statsParams(criteria), statsFields)
	if err != nil {
		return nil, resp, err
	}
	if err := responseError(resp); err != nil {
		return nil, resp, err
	}
	var out StatsResult
	if err := decodeResult(normalizeStatsResult(result), &out); err != nil {
		return nil, resp, err
	}
	return &out, resp, nil
}

// StatsAsync is the callback form of Stats. The links field of result is
// normalized to a slice ordered by link number.
func (c *Client) StatsAsync(ctx context.Context, criteria *SearchCriteria, cb Callback) error {
	return c.dispatcher.Send(ctx, statsParams(criteria), statsFields, func(result any, resp Response, err error) {
		if cb != nil {
			cb(normalizeStatsResult(result), resp, err)
		}
	})
}

func normalizeStatsResult(result any) any {
	m, ok := result.(map[string]any)
	if !ok {
		return result
	}
	if links, ok := m["links"]; ok {
		m["links"] = NormalizeLinks(links)
	}
	return m
}

// NormalizeLinks turns the "links" object returned by the stats action,
// keyed link_1 to link_n, into a slice in link order. Reading stops at the
// first missing or null link_<i>, so other keys are ignored. Values that are
// already slices are returned unchanged.
func NormalizeLinks(links any) any {
	m, ok := links.(map[string]any)
	if !ok {
		return links
	}
	out := make([]any, 0, len(m))
	for i := 1; ; i++ {
		link, ok := m["link_"+strconv.Itoa(i)]
		if !ok || link == nil {
			break
		}
		out = append(out, link)
	}
	return out
}
