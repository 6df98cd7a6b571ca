package httphandler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
)

const RecentlyViewedCookie = "storefront_recently_viewed"

// RecentlyViewedCookies reads and writes the recently viewed list
// kept in the browser.
type RecentlyViewedCookies struct {
	now func() time.Time
}

func NewRecentlyViewedCookies() RecentlyViewedCookies {
	return RecentlyViewedCookies{now: time.Now}
}

// Read returns the pruned list. A missing or malformed cookie reads as
// empty. The cookie is rewritten when pruning dropped entries.
func (c RecentlyViewedCookies) Read(w http.ResponseWriter, r *http.Request) domain.RecentlyViewed {
	pruned, changed := c.load(r)
	if changed {
		c.Write(w, pruned)
	}
	return pruned
}

// Add puts p at the front of the list and writes the cookie once.
func (c RecentlyViewedCookies) Add(
	w http.ResponseWriter, r *http.Request, p domain.ViewedProduct,
) domain.RecentlyViewed {
	l, _ := c.load(r)
	l = l.Add(p, c.now())
	c.Write(w, l)
	return l
}

// load decodes and prunes the cookie list and reports whether
// pruning dropped entries.
func (c RecentlyViewedCookies) load(r *http.Request) (domain.RecentlyViewed, bool) {
	const op = "RecentlyViewedCookies.load"

	cookie, err := r.Cookie(RecentlyViewedCookie)
	if err != nil {
		return domain.RecentlyViewed{}, false
	}

	l, err := decodeRecentlyViewed(cookie.Value)
	if err != nil {
		slog.With("op", op).Debug("malformed cookie", "err", err)
		return domain.RecentlyViewed{}, false
	}

	pruned := l.Prune(c.now())
	return pruned, len(pruned) != len(l)
}

func (c RecentlyViewedCookies) Write(w http.ResponseWriter, l domain.RecentlyViewed) {
	const op = "RecentlyViewedCookies.Write"

	value, err := encodeRecentlyViewed(l)
	if err != nil {
		slog.With("op", op).Error("failed to encode cookie", "err", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     RecentlyViewedCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   int(domain.RecentlyViewedTTL / time.Second),
		SameSite: http.SameSiteLaxMode,
	})
}

func (c RecentlyViewedCookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RecentlyViewedCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
	})
}

// encodeRecentlyViewed escapes like encodeURIComponent so browser
// scripts can read the cookie.
func encodeRecentlyViewed(l domain.RecentlyViewed) (string, error) {
	data, err := json.Marshal(toViewed(l))
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(url.QueryEscape(string(data)), "+", "%20"), nil
}

func decodeRecentlyViewed(value string) (domain.RecentlyViewed, error) {
	raw, err := url.PathUnescape(value)
	if err != nil {
		return nil, err
	}
	var vs []ViewedProduct
	if err := json.Unmarshal([]byte(raw), &vs); err != nil {
		return nil, err
	}
	return fromViewed(vs), nil
}

type RecentlyViewedHandler struct {
	cookies RecentlyViewedCookies
}

func (h RecentlyViewedHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, toViewed(h.cookies.Read(w, r)))
}

func (h RecentlyViewedHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}
