package httpx

import (
	"net/http"
	"net/url"
	"path"
	"strings"
)

const apiPrefix = "/api/"

type RequestInfo struct {
	Cacheable bool
	Key       string
	Path      string
	RawQuery  string
	Reason    string
}

// ClassifyRequest decides whether an upstream API request may be answered
// from the shared offline cache.
func ClassifyRequest(r *http.Request) RequestInfo {
	if r.Method != http.MethodGet {
		return RequestInfo{Cacheable: false, Reason: "method-not-get"}
	}
	if r.Header.Get("Authorization") != "" {
		return RequestInfo{Cacheable: false, Reason: "authorized"}
	}

	p := NormalizePath(r.URL.Path)
	if p == "/api" {
		return RequestInfo{Cacheable: false, Reason: "empty-path"}
	}
	if !strings.HasPrefix(p, apiPrefix) {
		return RequestInfo{Cacheable: false, Reason: "not-api"}
	}
	query := CanonicalQuery(r.URL.Query())
	return RequestInfo{
		Cacheable: true,
		Key:       ProxyKey(p, query),
		Path:      p,
		RawQuery:  query,
	}
}

// ProxyKey is the cache key of a proxied GET. rawQuery must already be in
// canonical (sorted) form.
func ProxyKey(p, rawQuery string) string {
	if rawQuery == "" {
		return "api:" + p
	}
	return "api:" + p + "?" + rawQuery
}

func NormalizePath(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}
	return path.Clean("/" + decoded)
}

// CanonicalQuery drops tracking parameters and returns the rest sorted by
// key, so equivalent URLs share one cache entry. q is modified.
func CanonicalQuery(q url.Values) string {
	for key := range q {
		if strings.HasPrefix(strings.ToLower(key), "utm_") {
			q.Del(key)
		}
	}
	return q.Encode()
}
