package httphandler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecentlyViewedCodec(t *testing.T) {
	viewedAt := time.UnixMilli(1717243200000)
	l := domain.RecentlyViewed{{
		ID:       "p1",
		Slug:     "tee",
		Name:     "Tee; \"classic\", 100% cotton",
		Price:    "$19.99",
		ViewedAt: viewedAt,
	}}

	value, err := encodeRecentlyViewed(l)
	require.NoError(t, err)
	assert.NotContains(t, value, " ")
	assert.NotContains(t, value, ";")
	assert.NotContains(t, value, "+")

	got, err := decodeRecentlyViewed(value)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, l[0].Name, got[0].Name)
	assert.True(t, viewedAt.Equal(got[0].ViewedAt))

	_, err = decodeRecentlyViewed("%zz")
	require.Error(t, err)

	got, err = decodeRecentlyViewed(`%5B%7B%22slug%22%3A%22no-id%22%7D%5D`)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecentlyViewedCookies(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cookies := RecentlyViewedCookies{now: func() time.Time { return now }}

	requestWith := func(t *testing.T, l domain.RecentlyViewed) *http.Request {
		t.Helper()
		value, err := encodeRecentlyViewed(l)
		require.NoError(t, err)
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: RecentlyViewedCookie, Value: value})
		return r
	}

	t.Run("Missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		l := cookies.Read(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Empty(t, l)
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("Malformed", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: RecentlyViewedCookie, Value: "not-json"})
		l := cookies.Read(httptest.NewRecorder(), r)
		assert.Empty(t, l)
	})

	t.Run("FreshIsNotRewritten", func(t *testing.T) {
		r := requestWith(t, domain.RecentlyViewed{{ID: "p1", ViewedAt: now.Add(-time.Hour)}})
		rec := httptest.NewRecorder()

		l := cookies.Read(rec, r)
		assert.Len(t, l, 1)
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("PruneRewrites", func(t *testing.T) {
		r := requestWith(t, domain.RecentlyViewed{
			{ID: "old", ViewedAt: now.Add(-31 * 24 * time.Hour)},
			{ID: "p1", ViewedAt: now.Add(-time.Hour)},
		})
		rec := httptest.NewRecorder()

		l := cookies.Read(rec, r)
		require.Len(t, l, 1)
		assert.Equal(t, "p1", l[0].ID)

		cs := rec.Result().Cookies()
		require.Len(t, cs, 1)
		rewritten, err := decodeRecentlyViewed(cs[0].Value)
		require.NoError(t, err)
		assert.False(t, rewritten.Contains("old"))
	})

	t.Run("AddCapsList", func(t *testing.T) {
		var l domain.RecentlyViewed
		for i := range domain.RecentlyViewedMax {
			l = append(l, domain.ViewedProduct{
				ID:       fmt.Sprint(i),
				ViewedAt: now.Add(-time.Duration(i+1) * time.Minute),
			})
		}
		rec := httptest.NewRecorder()

		got := cookies.Add(rec, requestWith(t, l), domain.ViewedProduct{ID: "new"})
		require.Len(t, got, domain.RecentlyViewedMax)
		assert.Equal(t, "new", got[0].ID)
		assert.False(t, got.Contains(fmt.Sprint(domain.RecentlyViewedMax-1)))

		header := rec.Header().Values("Set-Cookie")
		require.Len(t, header, 1)
		assert.True(t, strings.Contains(header[0], "SameSite=Lax"))
	})

	t.Run("AddAfterPruneWritesOnce", func(t *testing.T) {
		r := requestWith(t, domain.RecentlyViewed{
			{ID: "old", ViewedAt: now.Add(-31 * 24 * time.Hour)},
			{ID: "p1", ViewedAt: now.Add(-time.Hour)},
		})
		rec := httptest.NewRecorder()

		got := cookies.Add(rec, r, domain.ViewedProduct{ID: "p2"})
		require.Len(t, got, 2)
		assert.Equal(t, "p2", got[0].ID)

		cs := rec.Result().Cookies()
		require.Len(t, cs, 1)
		written, err := decodeRecentlyViewed(cs[0].Value)
		require.NoError(t, err)
		assert.True(t, written.Contains("p2"))
		assert.False(t, written.Contains("old"))
	})
}
