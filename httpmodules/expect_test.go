package httpmodules

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpect(t *testing.T) {
	m := Expect(func(v map[string]any) error {
		if v["status"] != "ok" {
			return errors.New("status not ok")
		}
		return nil
	})
	in := map[string]any{"status": "ok"}
	res, err := flow(t, m, in)
	require.NoError(t, err)
	assert.Equal(t, in, res.Value())
}

func TestExpect_Fail(t *testing.T) {
	nope := errors.New("nope")
	res, err := flow(t, Expect(func(any) error { return nope }), nil)
	require.NoError(t, err)
	require.True(t, res.IsFailed())
	assert.ErrorIs(t, res.Err(), nope)
}

func TestExpect_NilPredicatePanics(t *testing.T) {
	assert.Panics(t, func() { Expect[int](nil) })
}

func TestExpectEqual(t *testing.T) {
	res, err := flow[any, any](t, ExpectEqual[any](map[string]any{"a": float64(1)}), map[string]any{"a": float64(1)})
	require.NoError(t, err)
	assert.True(t, res.Succeeded())

	res2, err := flow(t, ExpectEqual("expected"), "other")
	require.NoError(t, err)
	require.True(t, res2.IsFailed())
	assert.Contains(t, res2.Err().Error(), "got other, want expected")
}
