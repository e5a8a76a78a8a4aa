package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/alexisbeaulieu97/ovhkit/internal/config"
	"github.com/alexisbeaulieu97/ovhkit/internal/logger"
	"github.com/alexisbeaulieu97/ovhkit/internal/model"
	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi"
)

const defaultParallel = 4

// RunOptions configures one playbook run.
type RunOptions struct {
	DryRun   bool
	Client   *ovhapi.Client
	Logger   *logger.Logger
	OnStart  func(stepID string)
	OnResult func(model.StepResult)
}

// RunReport summarizes an apply run.
type RunReport struct {
	Results     []model.StepResult
	StepCount   int
	Changed     int
	FailedSteps []string
	Duration    time.Duration
}

// Summary renders a one line description of the run.
func (r *RunReport) Summary() string {
	if len(r.FailedSteps) > 0 {
		return fmt.Sprintf("%d of %d steps failed: %v", len(r.FailedSteps), r.StepCount, r.FailedSteps)
	}
	return fmt.Sprintf("%d steps, %d changed", r.StepCount, r.Changed)
}

// NewExecutionContext builds the shared execution state for cfg.
func NewExecutionContext(ctx context.Context, cfg *config.Config, opts RunOptions) *ExecutionContext {
	parallel := cfg.Settings.Parallel
	if parallel <= 0 {
		parallel = defaultParallel
	}

	return &ExecutionContext{
		Config:          cfg,
		DryRun:          opts.DryRun || cfg.Settings.DryRun,
		Verbose:         cfg.Settings.Verbose,
		ContinueOnError: cfg.Settings.ContinueOnError,
		WorkerPool:      make(chan struct{}, parallel),
		Results:         make(map[string]*model.StepResult),
		Logger:          opts.Logger,
		Context:         ctx,
		Client:          opts.Client,
		OnStart:         opts.OnStart,
		OnResult:        opts.OnResult,
	}
}

// Run builds the plan of cfg and executes it.
func Run(ctx context.Context, cfg *config.Config, opts RunOptions) (*RunReport, error) {
	start := time.Now()

	graph, err := BuildDAG(cfg.Steps)
	if err != nil {
		return nil, err
	}
	plan, err := GeneratePlan(graph)
	if err != nil {
		return nil, err
	}

	execCtx := NewExecutionContext(ctx, cfg, opts)
	results, execErr := Execute(execCtx, plan)

	report := &RunReport{
		Results:   results,
		StepCount: plan.StepCount(),
		Duration:  time.Since(start),
	}
	for _, res := range results {
		if res.Changed {
			report.Changed++
		}
		if res.Status == model.StatusFailed {
			report.FailedSteps = append(report.FailedSteps, res.StepID)
		}
	}

	return report, execErr
}

// ExecStep evaluates a single step and applies it unless dryRun is set.
func ExecStep(ctx context.Context, step *config.Step, opts RunOptions) (*model.StepResult, error) {
	execCtx := &ExecutionContext{
		Config:  &config.Config{Steps: []config.Step{*step}},
		DryRun:  opts.DryRun,
		Logger:  opts.Logger,
		Context: ctx,
		Client:  opts.Client,
	}
	return executeStep(execCtx.baseContext(), execCtx, step, 0)
}
