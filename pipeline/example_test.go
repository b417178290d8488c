package pipeline_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcshock/sewer/pipeline"
)

// Example: simulate `ls` | `grep pattern`
// The input is the "directory"; the ls pipe lists fake files and the grep pipe
// keeps the names containing the pattern.

// ls simulates `ls dir`: input is a directory path, output is a list of names.
var ls = pipeline.Map(func(dir string) []string {
	_ = dir // a real implementation would read the directory
	return []string{"main.go", "pipeline.go", "doc.go", "README.md", "go.sum", "go.mod"}
})

// grep returns a module keeping the lines that contain pattern.
func grep(pattern string) pipeline.Module[[]string, []string] {
	return pipeline.FilterSlice(pipeline.Filter[string](func(line string) bool {
		return strings.Contains(line, pattern)
	}))
}

func TestExampleLSGrepSystem(t *testing.T) {
	ctx := context.Background()

	// Equivalent to: ls . | grep go
	sys := pipeline.NewSystem[string, []string](pipeline.NewPipe("ls", ls).MustBuild()).
		Append(pipeline.NewPipe("grep", grep("go")).MustBuild()).
		MustBuild()

	res, err := sys.Pump(ctx, ".").Await(ctx)
	require.NoError(t, err)
	require.True(t, res.Succeeded())

	files := res.Value()
	assert.Len(t, files, 5)
	for _, f := range files {
		assert.Contains(t, f, "go")
	}
	t.Logf("ls . | grep go => %v", files)
}

// Example: a pipe changing the value's type (struct A -> struct B)

// RawResult is the output of the first pipe.
type RawResult struct {
	Lines []string
}

// ProcessedResult is the output of the conversion and input to the last pipe.
type ProcessedResult struct {
	Count int
	First string
}

func transformRawToProcessed(_ context.Context, r RawResult) (ProcessedResult, error) {
	first := ""
	if len(r.Lines) > 0 {
		first = r.Lines[0]
	}
	return ProcessedResult{Count: len(r.Lines), First: first}, nil
}

func TestExampleTransformPipe(t *testing.T) {
	ctx := context.Background()

	produce := pipeline.NewPipe("produce", pipeline.Constant[struct{}](RawResult{Lines: []string{"a", "b", "c"}})).MustBuild()
	convert := pipeline.Via(
		pipeline.NewPipe("convert", pipeline.Transform(transformRawToProcessed)),
		pipeline.Map(func(p ProcessedResult) int { return p.Count + len(p.First) }),
	).MustBuild()

	sys := pipeline.Then(
		pipeline.NewSystem[struct{}, RawResult](produce),
		pipeline.Stage[RawResult, int](convert),
	).MustBuild()

	res, err := sys.Pump(ctx, struct{}{}).Await(ctx)
	require.NoError(t, err)
	// count + len(first) = 3 + 1
	assert.Equal(t, 4, res.Value())
	assert.Equal(t, "convert", res.Name())
}

func ExampleSystem_Pump() {
	ctx := context.Background()

	multiply := pipeline.NewPipe("multiply", pipeline.Map(func(x int) int { return x * 7 })).MustBuild()
	below := pipeline.NewPipe("max", pipeline.Identity[int]()).
		PreFilter(func(x int) bool { return x < 10000 }).
		MustBuild()
	modulo := pipeline.NewPipe("modulo", pipeline.Map(func(x int) int { return x % 3 })).MustBuild()

	sys := pipeline.NewSystem[int, int](multiply).Append(below).Append(modulo).MustBuild()

	for _, in := range []int{123, 5000} {
		res, err := sys.Pump(ctx, in).Await(ctx)
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		fmt.Println(res)
	}
	// Output:
	// success(modulo): 0
	// filtered-before(max)
}

func ExampleNest() {
	ctx := context.Background()

	triple := pipeline.NewPipe("triple", pipeline.Transform(func(_ context.Context, x int) (int, error) {
		if x < 0 {
			return 0, fmt.Errorf("cannot triple %d", x)
		}
		return x * 3, nil
	})).MustBuild()
	square := pipeline.NewPipe("square", pipeline.Map(func(x int) int { return x * x })).MustBuild()
	inner := pipeline.NewSystem[int, int](triple).Append(square).MustBuild()

	outer := pipeline.NewSystem[int, int](pipeline.Nest("outer", inner)).MustBuild()

	_, err := outer.Pump(ctx, -1).Await(ctx)
	fmt.Println(err)
	// Output:
	// stage "outer: triple": cannot triple -1
}
