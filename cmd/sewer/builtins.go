package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/dcshock/sewer/config"
	"github.com/dcshock/sewer/future"
	"github.com/dcshock/sewer/httpmodules"
	"github.com/dcshock/sewer/internal/appconfig"
	"github.com/dcshock/sewer/logger"
	"github.com/dcshock/sewer/observer"
	"github.com/dcshock/sewer/pipeline"
)

// builtins registers the modules, filters, handlers and observers a systems
// file may name.
func builtins(cfg *appconfig.Config, rec *observer.Recorder) (*config.Registry, error) {
	reg := config.NewRegistry()

	reg.Register("trim", pipeline.Erase(pipeline.Map(strings.TrimSpace)))
	reg.Register("lower", pipeline.Erase(pipeline.Map(strings.ToLower)))
	reg.Register("upper", pipeline.Erase(pipeline.Map(strings.ToUpper)))
	reg.Register("exclaim", pipeline.Erase(pipeline.Map(func(s string) string { return s + "!" })))
	reg.Register("greet", pipeline.Erase(pipeline.Map(func(s string) string { return "Hello, " + s })))
	reg.Register("length", pipeline.Erase(pipeline.Map(func(s string) int { return len(s) })))
	reg.Register("identity", pipeline.Identity[any]())
	reg.Register("require-string", pipeline.Erase(pipeline.Validate(
		func(s string) bool { return s != "" }, "empty string")))

	var opts []httpmodules.Option
	if cfg.Workers > 0 {
		opts = append(opts, httpmodules.WithExecutor(future.NewBounded(cfg.Workers)))
	}
	client := &http.Client{Timeout: cfg.HTTP.ReadTimeout}
	reg.Register("fetch", pipeline.Erase(httpmodules.Fetch(client, opts...)))
	reg.Register("parse-json", pipeline.Erase(httpmodules.ParseJSON()))

	reg.RegisterFilter("non-nil", pipeline.NonNil[any]())
	reg.RegisterFilter("empty", empty)
	reg.RegisterFilter("string", func(v any) bool {
		_, ok := v.(string)
		return ok
	})

	reg.RegisterHandler("log", logFailure)

	reg.RegisterObserver("logging", observer.NewLogging(nil))
	reg.RegisterObserver("recorder", rec)
	reg.RegisterObserver("tracing", observer.NewTracing(cfg.Service))
	metrics, err := observer.NewMetrics(nil)
	if err != nil {
		return nil, errors.Wrap(err, "metrics observer")
	}
	reg.RegisterObserver("metrics", metrics)
	return reg, nil
}

// empty accepts nil and zero-length strings, slices and maps.
func empty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []byte:
		return len(t) == 0
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

func logFailure(ctx context.Context, failed pipeline.Result[any]) {
	fields := logger.Fields(
		logger.FieldStage, failed.Name(),
		logger.FieldError, failed.Err().Error(),
	)
	if info, ok := pipeline.RunInfoFromContext(ctx); ok {
		fields[logger.FieldRunID] = info.RunID
		fields[logger.FieldSystem] = info.System
	}
	logger.Warn("stage failed", fields)
}
