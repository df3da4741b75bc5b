package httpx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/codec"
	"github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/offline"
	"github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/remote"
)

const (
	cacheHeader  = "X-Offcache"
	maxBodyBytes = 8 << 20
)

type Handler struct {
	Cache    *offline.Service
	Upstream *remote.Client
	Proxy    *httputil.ReverseProxy
	Log      logrus.FieldLogger
	mux      *http.ServeMux
}

// NewHandler wires the cache API and, when upstreamURL is set, the
// offline-first /api/ proxy.
func NewHandler(svc *offline.Service, upstreamURL string, upstream *remote.Client, log logrus.FieldLogger) (*Handler, error) {
	h := &Handler{
		Cache:    svc,
		Upstream: upstream,
		Log:      log,
	}
	if upstreamURL != "" {
		u, err := url.Parse(upstreamURL)
		if err != nil {
			return nil, err
		}
		h.Proxy = httputil.NewSingleHostReverseProxy(u)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /cache/{key...}", h.getItem)
	mux.HandleFunc("PUT /cache/{key...}", h.setItem)
	mux.HandleFunc("DELETE /cache/{key...}", h.removeItem)
	mux.HandleFunc("DELETE /cache", h.clearAll)
	mux.HandleFunc("GET /meta/{key...}", h.getMetadata)
	mux.HandleFunc("GET /token", h.getToken)
	mux.HandleFunc("PUT /token", h.setToken)
	mux.HandleFunc("DELETE /token", h.removeToken)
	mux.HandleFunc(apiPrefix, h.serveAPI)
	h.mux = mux
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	var raw codec.RawMessage
	ok, err := h.Cache.GetItem(r.Context(), key, &raw, readOptions(r)...)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !ok {
		w.Header().Set(cacheHeader, "MISS")
		http.Error(w, "not cached", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, raw, "HIT")
}

func (h *Handler) setItem(w http.ResponseWriter, r *http.Request) {
	opts, err := writeOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	if !codec.Valid(body) {
		http.Error(w, "body must be JSON", http.StatusBadRequest)
		return
	}
	if err := h.Cache.SetItem(r.Context(), r.PathValue("key"), codec.RawMessage(body), opts...); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	if err := h.Cache.RemoveItem(r.Context(), r.PathValue("key")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.Cache.ClearAll(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getMetadata(w http.ResponseWriter, r *http.Request) {
	meta, err := h.Cache.GetMetadata(r.Context(), r.PathValue("key"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if meta == nil {
		http.Error(w, "not cached", http.StatusNotFound)
		return
	}
	h.writeValue(w, meta)
}

func (h *Handler) getToken(w http.ResponseWriter, r *http.Request) {
	tok, err := h.Cache.GetCachedTokenData(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if tok == nil {
		http.Error(w, "no token cached", http.StatusNotFound)
		return
	}
	h.writeValue(w, tok)
}

func (h *Handler) setToken(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	var tok offline.TokenData
	if err := codec.Unmarshal(body, &tok); err != nil {
		http.Error(w, "invalid token payload", http.StatusBadRequest)
		return
	}
	if err := h.Cache.CacheTokenData(r.Context(), tok); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeToken(w http.ResponseWriter, r *http.Request) {
	if err := h.Cache.RemoveTokenData(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// serveAPI answers upstream API reads from the cache, fetching and caching
// on a miss. Everything it cannot cache goes straight to the upstream.
func (h *Handler) serveAPI(w http.ResponseWriter, r *http.Request) {
	if h.Proxy == nil || h.Upstream == nil {
		http.Error(w, "no upstream configured", http.StatusServiceUnavailable)
		return
	}
	info := ClassifyRequest(r)
	if !info.Cacheable {
		h.Proxy.ServeHTTP(w, r)
		return
	}

	body, hit, err := offline.Load[codec.RawMessage](r.Context(), h.Cache, info.Key, func(ctx context.Context) (codec.RawMessage, error) {
		return h.Upstream.FetchJSON(ctx, info.Path, info.RawQuery, http.Header{})
	})
	if err == nil {
		status := "MISS"
		if hit {
			status = "HIT"
		}
		writeJSON(w, http.StatusOK, body, status)
		return
	}

	var se *remote.StatusError
	if errors.As(err, &se) {
		writeUpstream(w, se.Response)
		return
	}
	h.Log.WithError(err).WithField("key", info.Key).Warn("offline-first fetch failed, proxying")
	// fallback to the upstream
	h.Proxy.ServeHTTP(w, r)
}

func (h *Handler) writeValue(w http.ResponseWriter, v any) {
	b, err := codec.Marshal(v)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b, "")
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, offline.ErrEmptyKey), errors.Is(err, offline.ErrEmptyToken),
		errors.Is(err, offline.ErrSerialization):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.Log.WithError(err).Error("cache operation failed")
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	}
}

func readOptions(r *http.Request) []offline.ItemOption {
	if v := r.URL.Query().Get("version"); v != "" {
		return []offline.ItemOption{offline.WithVersion(v)}
	}
	return nil
}

// writeOptions reads ?ttl=<duration>|none and ?version=.
func writeOptions(r *http.Request) ([]offline.ItemOption, error) {
	opts := readOptions(r)
	switch ttl := strings.TrimSpace(r.URL.Query().Get("ttl")); ttl {
	case "":
	case "none", "0":
		opts = append(opts, offline.NoExpiry())
	default:
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, errors.New("invalid ttl")
		}
		opts = append(opts, offline.WithExpiry(d))
	}
	return opts, nil
}

func writeJSON(w http.ResponseWriter, status int, body []byte, cacheStatus string) {
	w.Header().Set("Content-Type", "application/json")
	if cacheStatus != "" {
		w.Header().Set(cacheHeader, cacheStatus)
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeUpstream(w http.ResponseWriter, upstream *remote.Response) {
	for k, vv := range upstream.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(upstream.Status)
	_, _ = w.Write(upstream.Body)
}
