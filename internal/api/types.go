package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexInt handles JSON numbers that may come as strings or integers.
// YOURLS sends most counters as strings.
type FlexInt int

func (fi *FlexInt) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var i int
	if err := json.Unmarshal(data, &i); err == nil {
		*fi = FlexInt(i)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			*fi = 0
			return nil
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		*fi = FlexInt(i)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into FlexInt", data)
}

// FlexString handles JSON values that may come as strings or numbers
// and stores them as strings.
type FlexString string

func (fs *FlexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*fs = FlexString(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		if f == float64(int64(f)) {
			*fs = FlexString(strconv.FormatInt(int64(f), 10))
		} else {
			*fs = FlexString(strconv.FormatFloat(f, 'f', -1, 64))
		}
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into FlexString", data)
}

// String returns the string value
func (fs FlexString) String() string {
	return string(fs)
}

// URLDescriptor optionally names the short URL being created.
// If Keyword is taken the server generates one instead.
type URLDescriptor struct {
	Keyword string `json:"keyword,omitempty"`
	Title   string `json:"title,omitempty"`
}

// ShortenedURL describes a newly stored link.
type ShortenedURL struct {
	Keyword FlexString `json:"keyword"`
	URL     string     `json:"url"`
	Title   string     `json:"title"`
	Date    string     `json:"date"`
	IP      string     `json:"ip"`
}

// ShortenResult is the result of Client.Shorten.
type ShortenResult struct {
	ShortURL string        `json:"shorturl,omitempty"`
	Title    string        `json:"title,omitempty"`
	URL      *ShortenedURL `json:"url,omitempty"`
}

// ExpandResult is the result of URLHandle.Expand.
type ExpandResult struct {
	Keyword  FlexString `json:"keyword,omitempty"`
	LongURL  string     `json:"longurl,omitempty"`
	ShortURL string     `json:"shorturl,omitempty"`
}

// Link holds the statistics of a single short URL.
type Link struct {
	ShortURL  string     `json:"shorturl"`
	URL       string     `json:"url"`
	Title     string     `json:"title"`
	Timestamp string     `json:"timestamp"`
	IP        string     `json:"ip"`
	Clicks    FlexInt    `json:"clicks"`
	Keyword   FlexString `json:"keyword,omitempty"`
}

// Stats holds totals across all links.
type Stats struct {
	TotalLinks  FlexInt `json:"total_links"`
	TotalClicks FlexInt `json:"total_clicks"`
}

// StatsResult is the result of Client.Stats.
type StatsResult struct {
	Links []Link `json:"links,omitempty"`
	Stats *Stats `json:"stats,omitempty"`
}

// VersionResult is the result of Client.Version.
type VersionResult struct {
	Version   string `json:"version,omitempty"`
	DBVersion string `json:"db_version,omitempty"`
}

// SearchCriteria refines the links included in Client.Stats.
// No links are returned unless Limit is greater than zero. Limit and Start
// are sent whenever they are non-nil, an explicit 0 included.
type SearchCriteria struct {
	// Filter is one of "top", "bottom", "rand" or "last".
	Filter string
	Limit  *int
	Start  *int
}

// Int returns a pointer to n, for the optional fields of SearchCriteria.
func Int(n int) *int {
	return &n
}

// Stats filters accepted by the YOURLS API.
var StatsFilters = []string{"top", "bottom", "rand", "last"}

// decodeResult converts a projected result into dst. A nil result leaves dst
// untouched.
func decodeResult(result any, dst any) error {
	if result == nil {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unexpected API response format (JSON decode failed): %w", err)
	}
	return nil
}

// responseError returns an *APIError when resp reports a failure status.
// The API uses "statusCode" for request errors and "errorCode" for
// authentication failures.
func responseError(resp Response) error {
	if resp == nil {
		return nil
	}
	status := intField(resp, "statusCode")
	if status < 400 {
		status = intField(resp, "errorCode")
	}
	if status < 400 {
		return nil
	}
	return &APIError{
		StatusCode: status,
		Code:       stringField(resp, "code"),
		Message:    stringField(resp, "message"),
	}
}

func intField(resp Response, key string) int {
	switch v := resp[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}

func stringField(resp Response, key string) string {
	switch v := resp[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// DBStats holds the totals returned by the db-stats action.
type DBStats = Stats
