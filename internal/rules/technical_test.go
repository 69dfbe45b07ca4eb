package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankwell/siteaudit/internal/domain"
)

func TestCheckHTTPSEnabled(t *testing.T) {
	t.Run("all pages https", func(t *testing.T) {
		ctx := &Context{Pages: []*domain.PageSnapshot{
			htmlPage("https://example.com/", "<html></html>"),
			htmlPage("https://example.com/about", "<html></html>"),
		}}

		outcome, err := checkHTTPSEnabled(ctx)
		require.NoError(t, err)
		assert.True(t, outcome.Passed)
		assert.Equal(t, 5.0, outcome.Score)
	})

	t.Run("plain http page fails", func(t *testing.T) {
		ctx := &Context{Pages: []*domain.PageSnapshot{
			htmlPage("https://example.com/", "<html></html>"),
			htmlPage("http://example.com/legacy", "<html></html>"),
		}}

		outcome, err := checkHTTPSEnabled(ctx)
		require.NoError(t, err)
		assert.False(t, outcome.Passed)
		assert.Zero(t, outcome.Score)
		require.Len(t, outcome.Issues, 1)
		assert.Equal(t, domain.SeverityCritical, outcome.Issues[0].Severity)
	})

	t.Run("non-html probes are ignored", func(t *testing.T) {
		ctx := &Context{Pages: []*domain.PageSnapshot{
			htmlPage("https://example.com/", "<html></html>"),
			{URL: "http://example.com/robots.txt", StatusCode: 200, ContentType: "text/plain"},
		}}

		outcome, err := checkHTTPSEnabled(ctx)
		require.NoError(t, err)
		assert.True(t, outcome.Passed)
	})
}

func TestCheckRobotsTxt(t *testing.T) {
	t.Run("probe found", func(t *testing.T) {
		ctx := &Context{Pages: []*domain.PageSnapshot{
			{URL: "https://example.com/robots.txt", StatusCode: 200, ContentType: "text/plain"},
		}}

		outcome, err := checkRobotsTxt(ctx)
		require.NoError(t, err)
		assert.True(t, outcome.Passed)
		assert.Equal(t, 3.0, outcome.Score)
	})

	t.Run("probe missing", func(t *testing.T) {
		outcome, err := checkRobotsTxt(&Context{})
		require.NoError(t, err)
		assert.False(t, outcome.Passed)
		require.Len(t, outcome.Issues, 1)
	})

	t.Run("soft 404 html body does not count", func(t *testing.T) {
		ctx := &Context{Pages: []*domain.PageSnapshot{
			{URL: "https://example.com/robots.txt", StatusCode: 200, ContentType: "text/html", HTML: "<html>not found</html>"},
		}}

		outcome, err := checkRobotsTxt(ctx)
		require.NoError(t, err)
		assert.False(t, outcome.Passed)
	})
}

func TestCheckSitemapXML(t *testing.T) {
	ctx := &Context{Pages: []*domain.PageSnapshot{
		{URL: "https://example.com/sitemap.xml", StatusCode: 200, ContentType: "application/xml"},
	}}

	outcome, err := checkSitemapXML(ctx)
	require.NoError(t, err)
	assert.True(t, outcome.Passed)
	assert.Equal(t, 3.0, outcome.Score)
}

func TestCheckCanonicalTag(t *testing.T) {
	page := htmlPage("https://example.com/", "<html></html>")
	page.Facts.Canonical = "https://example.com/"

	outcome, err := checkCanonicalTag(&Context{Page: page})
	require.NoError(t, err)
	assert.True(t, outcome.Passed)

	outcome, err = checkCanonicalTag(&Context{Page: htmlPage("https://example.com/x", "")})
	require.NoError(t, err)
	assert.False(t, outcome.Passed)
	assert.Zero(t, outcome.Score)
}

func TestCheckNoindexAbsent(t *testing.T) {
	page := htmlPage("https://example.com/", "<html></html>")
	page.Facts.MetaRobots = "NOINDEX, nofollow"

	outcome, err := checkNoindexAbsent(&Context{Page: page})
	require.NoError(t, err)
	assert.False(t, outcome.Passed)
	require.Len(t, outcome.Issues, 1)
	assert.Equal(t, domain.SeverityCritical, outcome.Issues[0].Severity)

	page.Facts.MetaRobots = "index, follow"
	outcome, err = checkNoindexAbsent(&Context{Page: page})
	require.NoError(t, err)
	assert.True(t, outcome.Passed)
}

func TestCheckConsoleErrors(t *testing.T) {
	page := htmlPage("https://example.com/", "<html></html>")

	outcome, err := checkConsoleErrors(&Context{Page: page})
	require.NoError(t, err)
	assert.True(t, outcome.Passed)

	page.Facts.ConsoleErrors = []string{"TypeError: x is undefined"}
	outcome, err = checkConsoleErrors(&Context{Page: page})
	require.NoError(t, err)
	assert.False(t, outcome.Passed)
	require.Len(t, outcome.Issues, 1)
	assert.Equal(t, domain.JSONBMap{"console_errors": []string{"TypeError: x is undefined"}}, outcome.Issues[0].Metadata)
}
