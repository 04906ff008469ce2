package api

import "context"

var dbStatsFields = []string{"db-stats"}

// DBHandle groups the database-wide actions.
type DBHandle struct {
	client *Client
}

// DB returns the database handle.
func (c *Client) DB() *DBHandle {
	return &DBHandle{client: c}
}

// Stats fetches total links and clicks for the installation.
func (d *DBHandle) Stats(ctx context.Context) (*DBStats, Response, error) {
	result, resp, err := d.client.dispatcher.Do(ctx, NewParams("action", "db-stats"), dbStatsFields)
	if err != nil {
		return nil, resp, err
	}
	if err := responseError(resp); err != nil {
		return nil, resp, err
	}
	if result == nil {
		return nil, resp, nil
	}
	var out DBStats
	if err := decodeResult(result, &out); err != nil {
		return nil, resp, err
	}
	return &out, resp, nil
}

// StatsAsync is the callback form of Stats.
func (d *DBHandle) StatsAsync(ctx context.Context, cb Callback) error {
	return d.client.dispatcher.Send(ctx, NewParams("action", "db-stats"), dbStatsFields, cb)
}
