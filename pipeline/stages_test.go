package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flow runs m against in and waits for its Result.
func flow[I, O any](t *testing.T, m Module[I, O], in I) Result[O] {
	t.Helper()
	r, err := m.Flow(context.Background(), in).Get()
	require.NoError(t, err)
	return r
}

func TestIdentity(t *testing.T) {
	for _, in := range []interface{}{nil, 42, "hello"} {
		r := flow(t, Identity[interface{}](), in)
		require.True(t, r.Succeeded())
		assert.Equal(t, in, r.Value())
	}

	type payload struct{ n int }
	p := &payload{n: 1}
	r := flow(t, Identity[*payload](), p)
	assert.Same(t, p, r.Value())
}

func TestTap(t *testing.T) {
	ctx := context.WithValue(context.Background(), struct{}{}, "marker")
	var seenCtx context.Context
	var seen string
	m := Tap(func(c context.Context, v string) {
		seenCtx = c
		seen = v
	})

	r, err := m.Flow(ctx, "tapped").Get()
	require.NoError(t, err)
	assert.Equal(t, "tapped", r.Value())
	assert.Equal(t, "tapped", seen)
	assert.Equal(t, ctx, seenCtx)
}

func TestValidate_Pass(t *testing.T) {
	r := flow(t, Validate(func(n int) bool { return n > 0 }, "must be positive"), 42)
	assert.Equal(t, 42, r.Value())
}

func TestValidate_Fail(t *testing.T) {
	r := flow(t, Validate(func(n int) bool { return n > 0 }, "must be positive"), 0)
	require.True(t, r.IsFailed())
	assert.EqualError(t, r.Err(), "must be positive")
}

func TestValidate_DefaultErrMsg(t *testing.T) {
	r := flow(t, Validate(func(int) bool { return false }, ""), 1)
	require.True(t, r.IsFailed())
	assert.EqualError(t, r.Err(), "validation failed")
}

func TestConstant(t *testing.T) {
	m := Constant[interface{}]("fixed")
	for _, in := range []interface{}{nil, 0, "ignored"} {
		assert.Equal(t, "fixed", flow(t, m, in).Value())
	}
}

func TestMapSlice(t *testing.T) {
	m := MapSlice(func(_ context.Context, n int) (string, error) { return fmt.Sprintf("%d", n), nil })
	r := flow(t, m, []int{1, 2, 3})
	assert.Equal(t, []string{"1", "2", "3"}, r.Value())
}

func TestMapSlice_ConvertError(t *testing.T) {
	convertErr := errors.New("convert failed")
	m := MapSlice(func(_ context.Context, n int) (string, error) {
		if n == 2 {
			return "", convertErr
		}
		return fmt.Sprintf("%d", n), nil
	})
	r := flow(t, m, []int{1, 2, 3})
	require.True(t, r.IsFailed())
	assert.ErrorIs(t, r.Err(), convertErr)
	assert.Contains(t, r.Err().Error(), "mapslice[1]")
}

func TestFilterSlice(t *testing.T) {
	r := flow(t, FilterSlice(Filter[int](func(n int) bool { return n%2 == 0 })), []int{1, 2, 3, 4, 5})
	assert.Equal(t, []int{2, 4}, r.Value())
}

func TestFilterSlice_Empty(t *testing.T) {
	r := flow(t, FilterSlice(Filter[int](func(int) bool { return true })), nil)
	assert.Empty(t, r.Value())
}
