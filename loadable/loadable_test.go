package loadable

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcshock/sewer/future"
	"github.com/dcshock/sewer/pipeline"
)

func greetSystem(t *testing.T, pumps *atomic.Int32, gate <-chan struct{}) *pipeline.System[string, string] {
	t.Helper()
	greet := pipeline.NewPipe("greet", pipeline.Async(future.Goroutine, func(_ context.Context, name string) (string, error) {
		pumps.Add(1)
		if gate != nil {
			<-gate
		}
		return fmt.Sprintf("Hello, %s!", name), nil
	})).MustBuild()
	return pipeline.NewSystem[string, string](greet).MustBuild()
}

func TestLoadable_GetOrLoad(t *testing.T) {
	ctx := context.Background()
	var pumps atomic.Int32
	l := New(greetSystem(t, &pumps, nil), "Anton")

	assert.False(t, l.IsLoaded())
	assert.Equal(t, Unloaded, l.State())
	_, ok := l.GetIfPresent()
	assert.False(t, ok)
	assert.Equal(t, int32(0), pumps.Load(), "peeking must not trigger a load")

	v, err := l.GetOrLoad(ctx).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Hello, Anton!", v.OrElse(""))
	assert.True(t, l.IsLoaded())

	got, ok := l.GetIfPresent()
	assert.True(t, ok)
	assert.Equal(t, "Hello, Anton!", got)

	_, err = l.GetOrLoad(ctx).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), pumps.Load())
}

func TestLoadable_ConcurrentCallersShareOnePump(t *testing.T) {
	ctx := context.Background()
	var pumps atomic.Int32
	gate := make(chan struct{})
	l := New(greetSystem(t, &pumps, gate), "Anton")

	const callers = 2
	results := make([]string, callers)
	var wg sync.WaitGroup
	futures := make([]*future.Future[Optional[string]], callers)
	for i := 0; i < callers; i++ {
		futures[i] = l.GetOrLoad(ctx)
	}
	assert.Equal(t, Loading, l.State())
	close(gate)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := futures[i].Await(ctx)
			assert.NoError(t, err)
			results[i], _ = v.Get()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), pumps.Load())
	assert.Equal(t, results[0], results[1])
	assert.Equal(t, "Hello, Anton!", results[0])
}

func TestLoadable_FailureSurfacesToAllWaiters(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("no greeting")
	fail := pipeline.NewPipe("greet", pipeline.Transform(func(context.Context, string) (string, error) {
		return "", boom
	})).MustBuild()

	for _, handled := range []bool{false, true} {
		b := pipeline.NewSystem[string, string](fail)
		if handled {
			b.OnFailure(func(context.Context, pipeline.Result[any]) {})
		}
		l := New(b.MustBuild(), "Anton")

		for i := 0; i < 2; i++ {
			_, err := l.GetOrLoad(ctx).Await(ctx)
			se, ok := pipeline.AsStageError(err)
			require.True(t, ok, "handled=%v", handled)
			assert.Equal(t, "greet", se.Stage)
			assert.ErrorIs(t, err, boom)
		}
		r, ok := l.ResultIfPresent()
		require.True(t, ok)
		assert.True(t, r.IsFailed())
		assert.Equal(t, "greet", r.Name())
		_, ok = l.GetIfPresent()
		assert.False(t, ok)
	}
}

func TestLoadable_FilteredYieldsEmpty(t *testing.T) {
	ctx := context.Background()
	reject := pipeline.NewPipe("reject", pipeline.Identity[string]()).
		PreFilter(pipeline.NonZero[string]()).
		MustBuild()
	l := New(pipeline.NewSystem[string, string](reject).MustBuild(), "")

	v, err := l.GetOrLoad(ctx).Await(ctx)
	require.NoError(t, err)
	assert.False(t, v.IsPresent())
	assert.Equal(t, "fallback", v.OrElse("fallback"))
	assert.True(t, l.IsLoaded())
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	var pumps atomic.Int32
	greeting := New(greetSystem(t, &pumps, nil), "Anton")
	lowercase := pipeline.NewSystem[string, string](
		pipeline.NewPipe("lowercase", pipeline.Map(strings.ToLower)).MustBuild(),
	).MustBuild()
	lower := Chain(lowercase, greeting)

	v, err := lower.GetOrLoad(ctx).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello, anton!", v.OrElse(""))
	assert.True(t, greeting.IsLoaded())

	// The source is shared, not re-pumped.
	got, err := greeting.GetOrLoad(ctx).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Hello, Anton!", got.OrElse(""))
	assert.Equal(t, int32(1), pumps.Load())
}

func TestChain_EmptySource(t *testing.T) {
	ctx := context.Background()
	reject := pipeline.NewPipe("reject", pipeline.Filtering(pipeline.NonZero[string]())).MustBuild()
	source := New(pipeline.NewSystem[string, string](reject).MustBuild(), "")
	upper := pipeline.NewSystem[string, string](pipeline.NewPipe("upper", pipeline.Map(strings.ToUpper)).MustBuild()).MustBuild()

	r, err := Chain(upper, source).LoadResult(ctx).Await(ctx)
	require.NoError(t, err)
	assert.True(t, r.IsFilteredBefore())
}

func TestLoadable_CancelledCallerDoesNotPoisonLoad(t *testing.T) {
	var pumps atomic.Int32
	gate := make(chan struct{})
	l := New(greetSystem(t, &pumps, gate), "Anton")

	ctx, cancel := context.WithCancel(context.Background())
	f := l.GetOrLoad(ctx)
	cancel()
	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	close(gate)
	v, err := l.GetOrLoad(context.Background()).Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Hello, Anton!", v.OrElse(""))
	assert.Equal(t, int32(1), pumps.Load())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unloaded", Unloaded.String())
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "loaded", Loaded.String())
	assert.Equal(t, "hello", Some("hello").OrElse(""))
}
