package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/dcshock/sewer/config"
	"github.com/dcshock/sewer/internal/appconfig"
	"github.com/dcshock/sewer/internal/telemetry"
	"github.com/dcshock/sewer/logger"
	"github.com/dcshock/sewer/observer"
	"github.com/dcshock/sewer/pipeline"
)

// app is everything a command needs: settings, the registry and the systems
// built from the systems file.
type app struct {
	cfg       *appconfig.Config
	registry  *config.Registry
	recorder  *observer.Recorder
	multi     *config.MultiSystemConfig
	systems   map[string]*pipeline.System[any, any]
	providers *telemetry.Providers
}

func setup(ctx context.Context) (*app, error) {
	var opts []appconfig.Option
	if configFile != "" {
		opts = append(opts, appconfig.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, appconfig.WithEnvFile(envFile))
	}
	cfg, err := appconfig.Load(opts...)
	if err != nil {
		return nil, err
	}
	if systemsFile != "" {
		cfg.Systems = systemsFile
	}
	logger.Init(cfg.Log, cfg.Service)

	providers, err := telemetry.Init(ctx, cfg.Service, cfg.Telemetry)
	if err != nil {
		return nil, errors.Wrap(err, "init telemetry")
	}

	a := &app{
		cfg:       cfg,
		recorder:  observer.NewRecorder(cfg.Recorder.Limit),
		providers: providers,
	}
	a.registry, err = builtins(cfg, a.recorder)
	if err != nil {
		_ = providers.Shutdown(ctx)
		return nil, err
	}

	a.multi, err = config.LoadFile(cfg.Systems)
	if err != nil {
		_ = providers.Shutdown(ctx)
		return nil, err
	}
	a.systems, err = config.BuildAllSystems(a.registry, a.multi, nil)
	if err != nil {
		_ = providers.Shutdown(ctx)
		return nil, errors.Wrapf(err, "build %s", cfg.Systems)
	}
	logger.WithComponent("cli").Debug("systems built", logger.Fields(
		"file", cfg.Systems,
		"systems", len(a.systems),
	))
	return a, nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), telemetry.ShutdownTimeout)
	defer cancel()
	if err := a.providers.Shutdown(ctx); err != nil {
		logger.Warn("telemetry shutdown", logger.Fields(logger.FieldError, err.Error()))
	}
}

func (a *app) system(name string) (*pipeline.System[any, any], error) {
	sys, ok := a.systems[name]
	if !ok {
		return nil, errors.Errorf("system %q not defined in %s", name, a.cfg.Systems)
	}
	return sys, nil
}
