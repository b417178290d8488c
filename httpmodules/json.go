package httpmodules

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/dcshock/sewer/pipeline"
)

// ParseJSON returns a module that unmarshals its input from JSON into a value.
// Output is the decoded value (e.g. map[string]any for objects).
func ParseJSON() pipeline.Module[[]byte, any] {
	return pipeline.Transform(func(_ context.Context, raw []byte) (any, error) {
		var out any
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, errors.Wrap(err, "parsejson")
		}
		return out, nil
	})
}

// ParseJSONTo returns a module that unmarshals its input from JSON into a value of type T.
// Output is *T.
func ParseJSONTo[T any]() pipeline.Module[[]byte, *T] {
	return pipeline.Transform(func(_ context.Context, raw []byte) (*T, error) {
		var out T
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, errors.Wrap(err, "parsejsonto")
		}
		return &out, nil
	})
}
