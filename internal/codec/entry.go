// Package codec converts cache entries to and from the flat text stored in
// a kv.Store.
package codec

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var (
	ErrSerialization = errors.New("cache entry cannot be serialized")
	ErrDecode        = errors.New("cache entry cannot be decoded")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RawMessage holds an undecoded payload.
type RawMessage = jsoniter.RawMessage

// Entry is one stored value plus its metadata. Timestamp and Expiry are
// epoch milliseconds; a nil Expiry never expires by time.
type Entry[T any] struct {
	Data      T      `json:"data"`
	Timestamp int64  `json:"timestamp"`
	Expiry    *int64 `json:"expiry"`
	Version   string `json:"version"`
}

// ExpiredAt reports whether the entry is past its expiry at now (ms).
func (e Entry[T]) ExpiredAt(now int64) bool {
	return e.Expiry != nil && now > *e.Expiry
}

// Encode serializes all four fields of e.
func Encode[T any](e Entry[T]) (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	return string(b), nil
}

// header is decoded first so foreign data is rejected before Data is touched.
type header struct {
	Timestamp *int64     `json:"timestamp"`
	Expiry    *int64     `json:"expiry"`
	Version   *string    `json:"version"`
	Data      RawMessage `json:"data"`
}

// Decode parses raw into an entry. Anything that is not an object written by
// Encode fails with ErrDecode.
func Decode[T any](raw string) (Entry[T], error) {
	var h header
	if err := json.UnmarshalFromString(raw, &h); err != nil {
		return Entry[T]{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if h.Timestamp == nil {
		return Entry[T]{}, fmt.Errorf("%w: missing timestamp", ErrDecode)
	}
	if h.Version == nil {
		return Entry[T]{}, fmt.Errorf("%w: missing version", ErrDecode)
	}

	e := Entry[T]{
		Timestamp: *h.Timestamp,
		Expiry:    h.Expiry,
		Version:   *h.Version,
	}
	if len(h.Data) > 0 {
		if err := json.Unmarshal(h.Data, &e.Data); err != nil {
			return Entry[T]{}, fmt.Errorf("%w: data: %w", ErrDecode, err)
		}
	}
	return e, nil
}

// Unmarshal decodes a payload previously split out by Decode into dest.
func Unmarshal(data []byte, dest any) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: data: %w", ErrDecode, err)
	}
	return nil
}

// Valid reports whether data is well-formed JSON.
func Valid(data []byte) bool {
	return json.Valid(data)
}

// Marshal encodes v with the same settings used for entries.
func Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	return b, nil
}
