package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	even     Filter[int] = func(n int) bool { return n%2 == 0 }
	negative Filter[int] = func(n int) bool { return n < 0 }
)

func TestFilter_Combinators(t *testing.T) {
	cases := []struct {
		name   string
		filter Filter[int]
		in     int
		want   bool
	}{
		{"and both", even.And(negative), -2, true},
		{"and one", even.And(negative), 2, false},
		{"or one", even.Or(negative), -3, true},
		{"or none", even.Or(negative), 3, false},
		{"xor one", even.Xor(negative), 4, true},
		{"xor both", even.Xor(negative), -4, false},
		{"xor none", even.Xor(negative), 5, false},
		{"not", negative.Not(), 1, true},
		{"even and not negative", even.And(negative.Not()), 14, true},
		{"even and not negative rejects odd", even.And(negative.Not()), 15, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.filter.Allow(tc.in))
		})
	}
}

func TestFilter_CombinatorsEvaluateBothSides(t *testing.T) {
	calls := 0
	counting := Filter[int](func(int) bool { calls++; return true })
	Filter[int](func(int) bool { return false }).And(counting).Allow(1)
	Filter[int](func(int) bool { return true }).Or(counting).Allow(1)
	assert.Equal(t, 2, calls)
}

func TestFilter_NilAllows(t *testing.T) {
	var f Filter[string]
	assert.True(t, f.Allow("anything"))
	assert.False(t, f.Not().Allow("anything"))
}

func TestNonNil(t *testing.T) {
	var nilPtr *int
	var nilMap map[string]int
	one := 1

	assert.False(t, NonNil[*int]().Allow(nilPtr))
	assert.True(t, NonNil[*int]().Allow(&one))
	assert.False(t, NonNil[map[string]int]().Allow(nilMap))
	assert.False(t, NonNil[interface{}]().Allow(nil))
	assert.True(t, NonNil[interface{}]().Allow(0))
	assert.True(t, NonNil[int]().Allow(0))
}

func TestNonZero(t *testing.T) {
	assert.False(t, NonZero[string]().Allow(""))
	assert.True(t, NonZero[string]().Allow("x"))
	assert.False(t, NonZero[int]().Allow(0))
}
