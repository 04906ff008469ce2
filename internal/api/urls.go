package api

import "context"

var (
	expandFields   = []string{"keyword", "longurl", "shorturl"}
	urlStatsFields = []string{"link"}
)

// URLHandle addresses one short URL on the connected server.
type URLHandle struct {
	client   *Client
	shortURL string
}

// URL returns a handle for shortURL, which may be a full short URL or just
// its keyword. It returns nil when shortURL is empty.
func (c *Client) URL(shortURL string) *URLHandle {
	if shortURL == "" {
		return nil
	}
	return &URLHandle{client: c, shortURL: shortURL}
}

// ShortURL is the short URL or keyword the handle was created with.
func (u *URLHandle) ShortURL() string {
	return u.shortURL
}

func (u *URLHandle) params(action string) Params {
	return NewParams("action", action, "shorturl", u.shortURL)
}

// Expand resolves the short URL to the long URL it points at.
func (u *URLHandle) Expand(ctx context.Context) (*ExpandResult, Response, error) {
	result, resp, err := u.client.dispatcher.Do(ctx, u.params("expand"), expandFields)
	if err != nil {
		return nil, resp, err
	}
	if err := responseError(resp); err != nil {
		return nil, resp, err
	}
	var out ExpandResult
	if err := decodeResult(result, &out); err != nil {
		return nil, resp, err
	}
	return &out, resp, nil
}

// ExpandAsync is the callback form of Expand.
func (u *URLHandle) ExpandAsync(ctx context.Context, cb Callback) error {
	return u.client.dispatcher.Send(ctx, u.params("expand"), expandFields, cb)
}

// Stats fetches the statistics of the short URL.
func (u *URLHandle) Stats(ctx context.Context) (*Link, Response, error) {
	result, resp, err := u.client.dispatcher.Do(ctx, u.params("url-stats"), urlStatsFields)
	if err != nil {
		return nil, resp, err
	}
	if err := responseError(resp); err != nil {
		return nil, resp, err
	}
	if result == nil {
		return nil, resp, nil
	}
	var out Link
	if err := decodeResult(result, &out); err != nil {
		return nil, resp, err
	}
	return &out, resp, nil
}

// StatsAsync is the callback form of Stats. result is the raw link object.
func (u *URLHandle) StatsAsync(ctx context.Context, cb Callback) error {
	return u.client.dispatcher.Send(ctx, u.params("url-stats"), urlStatsFields, cb)
}
