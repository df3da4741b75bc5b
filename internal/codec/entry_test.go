package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profile struct {
	Name   string   `json:"name"`
	Scores []int    `json:"scores"`
	Tags   []string `json:"tags,omitempty"`
}

func TestEncodeDecodeStruct(t *testing.T) {
	exp := int64(2_000)
	in := Entry[profile]{
		Data:      profile{Name: "Amina", Scores: []int{12, 17}},
		Timestamp: 1_000,
		Expiry:    &exp,
		Version:   "1.0",
	}
	raw, err := Encode(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"name":"Amina","scores":[12,17]},"timestamp":1000,"expiry":2000,"version":"1.0"}`, raw)

	out, err := Decode[profile](raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEncodeNullExpiry(t *testing.T) {
	raw, err := Encode(Entry[[]string]{Data: []string{"bac", "bepc"}, Timestamp: 5, Version: "2"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":["bac","bepc"],"timestamp":5,"expiry":null,"version":"2"}`, raw)

	out, err := Decode[[]string](raw)
	require.NoError(t, err)
	assert.Nil(t, out.Expiry)
	assert.False(t, out.ExpiredAt(1<<62))
}

func TestEncodeIsDeterministic(t *testing.T) {
	e := Entry[map[string]int]{Data: map[string]int{"b": 2, "a": 1, "c": 3}, Timestamp: 9, Version: "1.0"}
	first, err := Encode(e)
	require.NoError(t, err)
	for range 10 {
		again, err := Encode(e)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestEncodeUnsupportedValue(t *testing.T) {
	_, err := Encode(Entry[any]{Data: map[string]any{"ch": make(chan int)}, Timestamp: 1, Version: "1.0"})
	require.ErrorIs(t, err, ErrSerialization)

	_, err = Encode(Entry[any]{Data: func() {}, Timestamp: 1, Version: "1.0"})
	require.ErrorIs(t, err, ErrSerialization)
}

func TestDecodeMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":             ``,
		"truncated":         `{"data":`,
		"plain string":      `"hello"`,
		"array":             `[1,2,3]`,
		"null":              `null`,
		"missing timestamp": `{"data":1,"expiry":null,"version":"1.0"}`,
		"null timestamp":    `{"data":1,"timestamp":null,"expiry":null,"version":"1.0"}`,
		"missing version":   `{"data":1,"timestamp":10,"expiry":null}`,
		"wrong data shape":  `{"data":"not-a-profile","timestamp":10,"expiry":null,"version":"1.0"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode[profile](raw)
			require.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestDecodeRawPayload(t *testing.T) {
	out, err := Decode[RawMessage](`{"data":{"a":[1,2]},"timestamp":3,"expiry":null,"version":"1.0"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":[1,2]}`, string(out.Data))

	var dest map[string][]int
	require.NoError(t, Unmarshal(out.Data, &dest))
	assert.Equal(t, []int{1, 2}, dest["a"])

	var wrong []string
	require.ErrorIs(t, Unmarshal(out.Data, &wrong), ErrDecode)
}

func TestExpiredAtBoundary(t *testing.T) {
	exp := int64(100)
	e := Entry[int]{Timestamp: 50, Expiry: &exp}
	assert.False(t, e.ExpiredAt(99))
	assert.False(t, e.ExpiredAt(100))
	assert.True(t, e.ExpiredAt(101))
}

func TestDecodeEpochTimestamp(t *testing.T) {
	raw, err := Encode(Entry[string]{Data: "x", Timestamp: 0, Version: "1.0"})
	require.NoError(t, err)

	out, err := Decode[string](raw)
	require.NoError(t, err)
	assert.Equal(t, int64(0), out.Timestamp)
	assert.Equal(t, "x", out.Data)
}
