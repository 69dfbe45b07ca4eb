package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankwell/siteaudit/internal/domain"
)

func TestCheckLocalBusinessSchema(t *testing.T) {
	ctx := &Context{Pages: []*domain.PageSnapshot{
		pageWithSchema("https://example.com/", `{"@type":"LocalBusiness","name":"Example Shop"}`),
	}}

	outcome, err := checkLocalBusinessSchema(ctx)
	require.NoError(t, err)
	assert.True(t, outcome.Passed)
	assert.Equal(t, 6.0, outcome.Score)

	outcome, err = checkLocalBusinessSchema(&Context{})
	require.NoError(t, err)
	assert.False(t, outcome.Passed)
}

func TestCheckNAP(t *testing.T) {
	t.Run("address and phone pass", func(t *testing.T) {
		ctx := &Context{Pages: []*domain.PageSnapshot{
			pageWithSchema("https://example.com/",
				`{"@type":"LocalBusiness","address":{"streetAddress":"1 Main St"},"telephone":"+1-555-0100"}`),
		}}

		outcome, err := checkNAP(ctx)
		require.NoError(t, err)
		assert.True(t, outcome.Passed)
		assert.Equal(t, 5.0, outcome.Score)
	})

	t.Run("missing phone earns partial credit", func(t *testing.T) {
		ctx := &Context{Pages: []*domain.PageSnapshot{
			pageWithSchema("https://example.com/",
				`{"@type":"LocalBusiness","address":{"streetAddress":"1 Main St"}}`),
		}}

		outcome, err := checkNAP(ctx)
		require.NoError(t, err)
		assert.False(t, outcome.Passed)
		assert.Equal(t, 2.5, outcome.Score)
		require.Len(t, outcome.Issues, 1)
		assert.Contains(t, outcome.Issues[0].Message, "telephone")
	})

	t.Run("fields found inside graph container", func(t *testing.T) {
		ctx := &Context{Pages: []*domain.PageSnapshot{
			pageWithSchema("https://example.com/",
				`{"@graph":[{"@type":"LocalBusiness","address":"1 Main St","telephone":"555"}]}`),
		}}

		outcome, err := checkNAP(ctx)
		require.NoError(t, err)
		assert.True(t, outcome.Passed)
	})

	t.Run("fields split across pages", func(t *testing.T) {
		ctx := &Context{Pages: []*domain.PageSnapshot{
			pageWithSchema("https://example.com/", `{"address":"1 Main St"}`),
			pageWithSchema("https://example.com/contact", `{"telephone":"555"}`),
		}}

		outcome, err := checkNAP(ctx)
		require.NoError(t, err)
		assert.True(t, outcome.Passed)
	})

	t.Run("neither field fails", func(t *testing.T) {
		outcome, err := checkNAP(&Context{})
		require.NoError(t, err)
		assert.False(t, outcome.Passed)
		assert.Zero(t, outcome.Score)
	})
}

func TestCheckGeoMeta(t *testing.T) {
	page := htmlPage("https://example.com/", "<html></html>")
	page.Facts.GeoMeta = true

	outcome, err := checkGeoMeta(&Context{Pages: []*domain.PageSnapshot{page}})
	require.NoError(t, err)
	assert.True(t, outcome.Passed)
	assert.Equal(t, 4.0, outcome.Score)

	outcome, err = checkGeoMeta(&Context{})
	require.NoError(t, err)
	assert.False(t, outcome.Passed)
	require.Len(t, outcome.Issues, 1)
	assert.Equal(t, domain.SeverityInfo, outcome.Issues[0].Severity)
}
