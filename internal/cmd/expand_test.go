package cmd

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const expandSuccess = `{
	"keyword": "ex",
	"shorturl": "https://sho.rt/ex",
	"longurl": "https://example.com/long",
	"title": "Example",
	"message": "success",
	"statusCode": 200
}`

func TestExpand_PrintsLongURL(t *testing.T) {
	fake := newFakeYOURLS().On("expand", jsonResponse(200, expandSuccess))
	setupTestEnv(t, fake)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"expand", "ex"}))
	})

	assert.Equal(t, "https://example.com/long\n", output)
	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "ex", reqs[0].Params.Get("shorturl"))
}

func TestExpand_UsesCache(t *testing.T) {
	fake := newFakeYOURLS().On("expand", jsonResponse(200, expandSuccess))
	setupTestEnv(t, fake)

	for range 2 {
		_ = captureStdout(t, func() {
			require.NoError(t, Execute(context.Background(), []string{"expand", "https://sho.rt/ex"}))
		})
	}
	assert.Equal(t, 1, fake.Count("expand"), "second lookup should come from the cache")

	_ = captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"expand", "https://sho.rt/ex", "--refresh"}))
	})
	assert.Equal(t, 2, fake.Count("expand"), "--refresh must ask the server")
}

func TestExpand_NoCacheEnv(t *testing.T) {
	fake := newFakeYOURLS().On("expand", jsonResponse(200, expandSuccess))
	setupTestEnv(t, fake)
	t.Setenv("YOURLS_NO_CACHE", "1")

	for range 2 {
		_ = captureStdout(t, func() {
			require.NoError(t, Execute(context.Background(), []string{"expand", "ex"}))
		})
	}
	assert.Equal(t, 2, fake.Count("expand"))
}

func TestExpand_JSONWithQuery(t *testing.T) {
	fake := newFakeYOURLS().On("expand", jsonResponse(200, expandSuccess))
	setupTestEnv(t, fake)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"expand", "ex", "--jq", ".keyword"}))
	})

	var keyword string
	require.NoError(t, json.Unmarshal([]byte(output), &keyword))
	assert.Equal(t, "ex", keyword)
}

func TestExpand_NotFound(t *testing.T) {
	fake := newFakeYOURLS().On("expand", jsonResponse(200, `{
		"code": "error:url",
		"message": "Error: short URL not found",
		"statusCode": 404
	}`))
	setupTestEnv(t, fake)

	var err error
	stderr := captureStderr(t, func() {
		err = Execute(context.Background(), []string{"expand", "nope"})
	})

	require.Error(t, err)
	assert.Equal(t, exitNotFound, ExitCode(err))
	assert.Contains(t, stderr, "short URL not found")
	assert.Contains(t, stderr, "links find")
}

func TestExpand_JSONErrorOnStderr(t *testing.T) {
	fake := newFakeYOURLS().On("expand", jsonResponse(200, `{"message":"Error: short URL not found","statusCode":404}`))
	setupTestEnv(t, fake)

	var err error
	stderr := captureStderr(t, func() {
		_ = captureStdout(t, func() {
			err = Execute(context.Background(), []string{"expand", "nope", "--json"})
		})
	})

	require.Error(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(stderr), &payload))
	assert.Equal(t, "not_found", payload["code"])
}

func TestURLStats_Table(t *testing.T) {
	fake := newFakeYOURLS().On("url-stats", jsonResponse(200, `{
		"statusCode": 200,
		"message": "success",
		"link": {
			"shorturl": "https://sho.rt/ex",
			"url": "https://example.com/long",
			"title": "Example",
			"timestamp": "2024-01-02 10:00:00",
			"ip": "127.0.0.1",
			"clicks": "42"
		}
	}`))
	setupTestEnv(t, fake)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"url-stats", "ex"}))
	})

	assert.Contains(t, output, "https://example.com/long")
	assert.Contains(t, output, "Clicks:")
	assert.Contains(t, output, "42")
	assert.Contains(t, output, "127.0.0.1")
}

func TestURLStats_JSON(t *testing.T) {
	fake := newFakeYOURLS().On("url-stats", jsonResponse(200, `{
		"statusCode": 200,
		"link": {"shorturl": "https://sho.rt/ex", "url": "https://example.com/long", "clicks": 7}
	}`))
	setupTestEnv(t, fake)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"url-stats", "ex", "-o", "json", "--jq", ".clicks"}))
	})
	assert.Equal(t, "7\n", output)
}

func TestURLStats_RequiresArgument(t *testing.T) {
	setupTestEnv(t, newFakeYOURLS())

	var err error
	_ = captureStderr(t, func() {
		err = Execute(context.Background(), []string{"url-stats"})
	})
	require.Error(t, err)
	assert.Equal(t, exitUsage, ExitCode(err))
}
