// Package purge handles PURGE requests: refreshing one cached upstream
// response, or dropping the whole offline cache.
package purge

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/codec"
	httpx "github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/http"
	"github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/offline"
	"github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/remote"
)

const purgeTimestampHeader = "X-Purge-Timestamp"

var errFresh = errors.New("entry is newer than purge")

type Handler struct {
	Cache    *offline.Service
	Upstream *remote.Client
	Log      logrus.FieldLogger
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p := httpx.NormalizePath(r.URL.Path)
	if p == "/*" {
		if err := h.Cache.ClearAll(r.Context()); err != nil {
			h.Log.WithError(err).Error("purge all failed")
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if !strings.HasPrefix(p, "/api/") {
		http.Error(w, "only /api/ paths can be purged", http.StatusBadRequest)
		return
	}

	var purgeTime time.Time
	if ts := strings.TrimSpace(r.Header.Get(purgeTimestampHeader)); ts != "" {
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			http.Error(w, "invalid purge timestamp", http.StatusBadRequest)
			return
		}
		purgeTime = t
	}

	query := httpx.CanonicalQuery(r.URL.Query())
	key := httpx.ProxyKey(p, query)
	if err := h.refresh(r.Context(), key, p, query, purgeTime); err != nil {
		h.Log.WithError(err).WithField("key", key).Warn("purge failed")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// refresh replaces the entry for key with a fresh upstream copy. Without an
// upstream the entry is just removed. Entries cached after purgeTime are
// left alone.
func (h *Handler) refresh(ctx context.Context, key, p, query string, purgeTime time.Time) error {
	if h.Upstream == nil {
		return h.Cache.RemoveItem(ctx, key)
	}

	_, err := offline.Update(ctx, h.Cache, key, func(codec.RawMessage, bool) (codec.RawMessage, error) {
		if !purgeTime.IsZero() {
			meta, err := h.Cache.GetMetadata(ctx, key)
			if err != nil {
				return nil, err
			}
			if meta != nil && meta.CachedAt().After(purgeTime) {
				return nil, errFresh
			}
		}
		return h.Upstream.FetchJSON(ctx, p, query, http.Header{})
	})
	if err == nil || errors.Is(err, errFresh) {
		return nil
	}

	var se *remote.StatusError
	if errors.As(err, &se) && se.Response.Status < http.StatusInternalServerError {
		return h.Cache.RemoveItem(ctx, key)
	}
	return err
}
