// Package remote fetches live data from the upstream API when the offline
// cache has nothing usable.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/codec"
)

const DefaultTimeout = 10 * time.Second

var ErrNotJSON = errors.New("upstream response is not JSON")

type Client struct {
	baseURL string
	http    *resty.Client
}

type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// StatusError is returned by FetchJSON for any non-200 response. The full
// response is kept so callers can pass it through.
type StatusError struct {
	Response *Response
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Response.Status)
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
	}
}

func (c *Client) Fetch(ctx context.Context, path string, rawQuery string, headers http.Header) (*Response, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = rawQuery

	req := c.http.R().SetContext(ctx)
	copyHeaders(req.Header, headers)

	resp, err := req.Get(u.String())
	if err != nil {
		return nil, err
	}
	return &Response{
		Status: resp.StatusCode(),
		Header: resp.Header().Clone(),
		Body:   resp.Body(),
	}, nil
}

// FetchJSON returns the body of a 200 response, which must be valid JSON.
func (c *Client) FetchJSON(ctx context.Context, path string, rawQuery string, headers http.Header) (codec.RawMessage, error) {
	resp, err := c.Fetch(ctx, path, rawQuery, headers)
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusOK {
		return nil, &StatusError{Response: resp}
	}
	if !codec.Valid(resp.Body) {
		return nil, fmt.Errorf("%w: %s", ErrNotJSON, path)
	}
	return codec.RawMessage(resp.Body), nil
}

func copyHeaders(dst, src http.Header) {
	for k, vv := range src {
		if len(vv) == 0 {
			continue
		}
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}
