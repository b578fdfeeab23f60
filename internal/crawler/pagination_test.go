package crawler

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPageForMatchesDivMod(t *testing.T) {
	t.Parallel()

	for i := 0; i < 200; i++ {
		page, offset := PageFor(i, 15)
		require.Equal(t, i/15+1, page, "index %d", i)
		require.Equal(t, i%15, offset, "index %d", i)
	}
}

func TestPageForBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		index      int
		wantPage   int
		wantOffset int
	}{
		{index: 0, wantPage: 1, wantOffset: 0},
		{index: 14, wantPage: 1, wantOffset: 14},
		{index: 15, wantPage: 2, wantOffset: 0},
		{index: 16, wantPage: 2, wantOffset: 1},
		{index: 44, wantPage: 3, wantOffset: 14},
	}
	for _, tc := range tests {
		page, offset := PageFor(tc.index, DefaultPageSize)
		require.Equal(t, tc.wantPage, page, "index %d", tc.index)
		require.Equal(t, tc.wantOffset, offset, "index %d", tc.index)
	}
}

func TestPageForFallsBackToDefaultPageSize(t *testing.T) {
	t.Parallel()

	page, offset := PageFor(31, 0)
	require.Equal(t, 3, page)
	require.Equal(t, 1, offset)
}

func TestWithPageKeepsExistingQuery(t *testing.T) {
	t.Parallel()

	got, err := withPage("https://example.com/category/cars?sort=new", "page", 3)
	require.NoError(t, err)
	require.Equal(t, "https://example.com/category/cars?page=3&sort=new", got)
}

func TestResolveHrefDropsFragment(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("https://example.com/category/cars")
	require.NoError(t, err)
	got, err := resolveHref(base, "/item/42#reviews")
	require.NoError(t, err)
	require.Equal(t, "https://example.com/item/42", got.String())
}
