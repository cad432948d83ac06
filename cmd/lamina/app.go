package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/hupe1980/lamina"
	"github.com/hupe1980/lamina/calllog"
	"github.com/hupe1980/lamina/internal/config"
	"github.com/hupe1980/lamina/internal/tracing"
	"github.com/hupe1980/lamina/logging"
	"github.com/hupe1980/lamina/model"
	"github.com/hupe1980/lamina/model/anthropic"
	"github.com/hupe1980/lamina/model/openai"
	"github.com/hupe1980/lamina/orchestrator"
)

// app bundles everything a command needs and what must be released afterwards.
type app struct {
	cfg     *config.Config
	logger  *logging.RouterLogger
	lamina  *lamina.Lamina
	closers []io.Closer
	tracing func(context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config, logOut io.Writer) (*app, error) {
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: logOut,
	})

	a := &app{cfg: cfg, logger: logger}

	shutdown, err := tracing.Setup(ctx, tracing.Config{
		Enabled:  cfg.Tracing.Enabled,
		Exporter: cfg.Tracing.Exporter,
		Writer:   os.Stderr,
	})
	if err != nil {
		return nil, err
	}
	a.tracing = shutdown

	store, closer, err := calllog.Open(cfg.CallLog.Backend, cfg.CallLog.Path)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.closers = append(a.closers, closer)

	mode, err := orchestrator.ParseExecutorMode(cfg.Executor.Mode)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	l, err := lamina.New(func(o *lamina.Options) {
		o.ClassifierModel = newModel(cfg, cfg.Models.Classifier)
		o.PlannerModel = newModel(cfg, cfg.Models.Planner)
		o.AgentModel = newModel(cfg, cfg.Models.Agents)
		o.CallLog = store
		o.MaxModelCalls = cfg.Dispatch.MaxModelCalls
		o.MaxConcurrentDispatches = cfg.Dispatch.MaxConcurrent
		o.ExecutorMode = mode
		o.Logger = logger
	})
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.lamina = l

	return a, nil
}

// newModel builds the provider adapter for name.
func newModel(cfg *config.Config, name string) model.Model {
	if cfg.Provider == "anthropic" {
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(name)
			o.Temperature = cfg.Temperature
			o.APIKey = cfg.Anthropic.APIKey
		})
	}

	return openai.NewModel(func(o *openai.Options) {
		o.Model = name
		o.Temperature = cfg.Temperature
		o.APIKey = cfg.OpenAI.APIKey
	})
}

func (a *app) Close(ctx context.Context) error {
	var errs []error

	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close call log: %w", err))
		}
	}

	if a.tracing != nil {
		if err := a.tracing(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
		}
	}

	return errors.Join(errs...)
}
