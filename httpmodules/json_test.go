package httpmodules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	res, err := flow(t, ParseJSON(), []byte(`{"a":1,"b":"x"}`))
	require.NoError(t, err)
	m, ok := res.Value().(map[string]any)
	require.True(t, ok, "expected map, got %T", res.Value())
	assert.Equal(t, float64(1), m["a"])
	assert.Equal(t, "x", m["b"])
}

func TestParseJSON_Array(t *testing.T) {
	res, err := flow(t, ParseJSON(), []byte(`[1,2]`))
	require.NoError(t, err)
	assert.Len(t, res.Value(), 2)
}

func TestParseJSON_Invalid(t *testing.T) {
	res, err := flow(t, ParseJSON(), []byte(`{`))
	require.NoError(t, err)
	require.True(t, res.IsFailed())
	assert.Contains(t, res.Err().Error(), "parsejson")
}

func TestParseJSONTo(t *testing.T) {
	type T struct {
		A int    `json:"a"`
		B string `json:"b"`
	}
	res, err := flow(t, ParseJSONTo[T](), []byte(`{"a":1,"b":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, &T{A: 1, B: "x"}, res.Value())
}
