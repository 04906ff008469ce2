package api

import "context"

var shortenFields = []string{"shorturl", "title", "url"}

func shortenParams(longURL string, desc *URLDescriptor) Params {
	data := NewParams("action", "shorturl", "url", longURL)
	if desc != nil {
		data = data.Set("keyword", optional(desc.Keyword)).Set("title", optional(desc.Title))
	}
	return data
}

// Shorten creates a short URL for longURL. desc may be nil.
//
// When the keyword is taken or longURL is already stored the server still
// answers, with "status":"fail" in the response and no error.
func (c *Client) Shorten(ctx context.Context, longURL string, desc *URLDescriptor) (*ShortenResult, Response, error) {
	result, resp, err := c.dispatcher.Do(ctx, shortenParams(longURL, desc), shortenFields)
	if err != nil {
		return nil, resp, err
	}
	if err := responseError(resp); err != nil {
		return nil, resp, err
	}
	var out ShortenResult
	if err := decodeResult(result, &out); err != nil {
		return nil, resp, err
	}
	return &out, resp, nil
}

// ShortenAsync is the callback form of Shorten. result is a map holding the
// shorturl, title and url fields that were present in the response.
func (c *Client) ShortenAsync(ctx context.Context, longURL string, desc *URLDescriptor, cb Callback) error {
	return c.dispatcher.Send(ctx, shortenParams(longURL, desc), shortenFields, cb)
}
