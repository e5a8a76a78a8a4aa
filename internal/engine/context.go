package engine

import (
	"context"

	"github.com/alexisbeaulieu97/ovhkit/internal/config"
	"github.com/alexisbeaulieu97/ovhkit/internal/logger"
	"github.com/alexisbeaulieu97/ovhkit/internal/model"
	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi"
)

// ExecutionContext contains runtime state shared across executor workers.
type ExecutionContext struct {
	Config          *config.Config
	DryRun          bool
	Verbose         bool
	ContinueOnError bool
	WorkerPool      chan struct{}
	Results         map[string]*model.StepResult
	Logger          *logger.Logger
	Context         context.Context
	// Client is made available to modules through ovhapi.FromContext.
	Client *ovhapi.Client
	// OnStart, when set, is called once a step holds a worker slot.
	OnStart func(stepID string)
	// OnResult, when set, is called as soon as each step finishes.
	OnResult func(model.StepResult)
}

func (e *ExecutionContext) baseContext() context.Context {
	ctx := e.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if e.Client != nil {
		ctx = ovhapi.NewContext(ctx, e.Client)
	}
	if e.Config != nil {
		ctx = config.WithDir(ctx, e.Config.Dir)
	}
	return ctx
}
