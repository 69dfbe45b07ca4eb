package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankwell/siteaudit/internal/domain"
)

func pageWithFacts(url string, facts domain.PageFacts) *domain.PageSnapshot {
	p := htmlPage(url, "<html></html>")
	p.Facts = facts
	return p
}

func TestCheckTitleTag(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		wantScore float64
		wantPass  bool
	}{
		{"good title", "A perfectly reasonable page title", 5, true},
		{"missing title", "", 0, false},
		{"too short", "Short", 2.5, false},
		{"too long", strings.Repeat("long ", 20), 2.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := pageWithFacts("https://example.com/", domain.PageFacts{Title: tt.title})

			outcome, err := checkTitleTag(&Context{Page: page})
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, outcome.Score)
			assert.Equal(t, tt.wantPass, outcome.Passed)
		})
	}
}

func TestCheckDuplicateTitles(t *testing.T) {
	t.Run("unique titles pass", func(t *testing.T) {
		ctx := &Context{Pages: []*domain.PageSnapshot{
			pageWithFacts("https://example.com/", domain.PageFacts{Title: "Home"}),
			pageWithFacts("https://example.com/about", domain.PageFacts{Title: "About"}),
		}}

		outcome, err := checkDuplicateTitles(ctx)
		require.NoError(t, err)
		assert.True(t, outcome.Passed)
		assert.Equal(t, 4.0, outcome.Score)
	})

	t.Run("duplicates earn partial credit", func(t *testing.T) {
		ctx := &Context{Pages: []*domain.PageSnapshot{
			pageWithFacts("https://example.com/a", domain.PageFacts{Title: "Same"}),
			pageWithFacts("https://example.com/b", domain.PageFacts{Title: "same"}),
			pageWithFacts("https://example.com/c", domain.PageFacts{Title: "Unique"}),
			pageWithFacts("https://example.com/d", domain.PageFacts{Title: "Also unique"}),
		}}

		outcome, err := checkDuplicateTitles(ctx)
		require.NoError(t, err)
		assert.False(t, outcome.Passed)
		// 2 of 4 titled pages are unique.
		assert.InDelta(t, 2.0, outcome.Score, 0.0001)
		require.Len(t, outcome.Issues, 1)
		assert.Contains(t, outcome.Issues[0].Message, "2 pages share the title")
	})

	t.Run("no titled pages passes", func(t *testing.T) {
		ctx := &Context{Pages: []*domain.PageSnapshot{
			pageWithFacts("https://example.com/", domain.PageFacts{}),
		}}

		outcome, err := checkDuplicateTitles(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4.0, outcome.Score)
	})
}

func TestCheckMetaDescription(t *testing.T) {
	good := strings.Repeat("descriptive words ", 5)

	outcome, err := checkMetaDescription(&Context{Page: pageWithFacts("https://example.com/",
		domain.PageFacts{MetaDescription: good})})
	require.NoError(t, err)
	assert.True(t, outcome.Passed)
	assert.Equal(t, 4.0, outcome.Score)

	outcome, err = checkMetaDescription(&Context{Page: pageWithFacts("https://example.com/",
		domain.PageFacts{MetaDescription: "too short"})})
	require.NoError(t, err)
	assert.False(t, outcome.Passed)
	assert.Equal(t, 2.0, outcome.Score)

	outcome, err = checkMetaDescription(&Context{Page: pageWithFacts("https://example.com/",
		domain.PageFacts{})})
	require.NoError(t, err)
	assert.Zero(t, outcome.Score)
}

func TestCheckSingleH1(t *testing.T) {
	tests := []struct {
		h1Count   int
		wantScore float64
		wantPass  bool
	}{
		{1, 4, true},
		{0, 0, false},
		{3, 2, false},
	}

	for _, tt := range tests {
		page := pageWithFacts("https://example.com/", domain.PageFacts{H1Count: tt.h1Count})

		outcome, err := checkSingleH1(&Context{Page: page})
		require.NoError(t, err)
		assert.Equal(t, tt.wantScore, outcome.Score, "h1 count %d", tt.h1Count)
		assert.Equal(t, tt.wantPass, outcome.Passed, "h1 count %d", tt.h1Count)
	}
}

func TestCheckImageAlt(t *testing.T) {
	t.Run("no images passes", func(t *testing.T) {
		outcome, err := checkImageAlt(&Context{Page: pageWithFacts("https://example.com/", domain.PageFacts{})})
		require.NoError(t, err)
		assert.True(t, outcome.Passed)
		assert.Equal(t, 3.0, outcome.Score)
	})

	t.Run("partial alt coverage scales", func(t *testing.T) {
		page := pageWithFacts("https://example.com/", domain.PageFacts{ImageCount: 4, ImagesWithAlt: 3})

		outcome, err := checkImageAlt(&Context{Page: page})
		require.NoError(t, err)
		assert.False(t, outcome.Passed)
		assert.InDelta(t, 2.25, outcome.Score, 0.0001)
		require.Len(t, outcome.Issues, 1)
		assert.Contains(t, outcome.Issues[0].Message, "1 of 4 images")
	})
}

func TestCheckContentLength(t *testing.T) {
	tests := []struct {
		words     int
		wantScore float64
	}{
		{500, 3},
		{150, 1.5},
		{20, 0},
	}

	for _, tt := range tests {
		page := pageWithFacts("https://example.com/", domain.PageFacts{WordCount: tt.words})

		outcome, err := checkContentLength(&Context{Page: page})
		require.NoError(t, err)
		assert.Equal(t, tt.wantScore, outcome.Score, "word count %d", tt.words)
	}
}
