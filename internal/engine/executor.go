package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alexisbeaulieu97/ovhkit/internal/config"
	"github.com/alexisbeaulieu97/ovhkit/internal/logger"
	"github.com/alexisbeaulieu97/ovhkit/internal/model"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugin"
	ovherrors "github.com/alexisbeaulieu97/ovhkit/pkg/errors"
)

// Execute runs the execution plan and returns step results in plan order.
// Levels run one after the other; steps within a level run concurrently,
// bounded by the worker pool.
func Execute(execCtx *ExecutionContext, plan *ExecutionPlan) ([]model.StepResult, error) {
	if execCtx == nil {
		return nil, ovherrors.NewExecutionError("", fmt.Errorf("execution context is nil"))
	}
	if execCtx.Config == nil {
		return nil, ovherrors.NewExecutionError("", fmt.Errorf("execution context config is nil"))
	}
	if plan == nil {
		return nil, ovherrors.NewExecutionError("", fmt.Errorf("execution plan is nil"))
	}

	ctx, cancel := context.WithCancel(execCtx.baseContext())
	defer cancel()

	timeout := time.Duration(execCtx.Config.Settings.Timeout) * time.Second

	stepLookup := make(map[string]*config.Step, len(execCtx.Config.Steps))
	for i := range execCtx.Config.Steps {
		step := &execCtx.Config.Steps[i]
		stepLookup[step.ID] = step
	}

	if execCtx.Results == nil {
		execCtx.Results = make(map[string]*model.StepResult)
	}

	var (
		resultsMu  sync.Mutex
		allResults []model.StepResult
		firstErr   error
	)

	for _, level := range plan.Levels {
		levelResults := make([]*model.StepResult, len(level.StepIDs))
		var (
			levelErr error
			once     sync.Once
			wg       sync.WaitGroup
		)

		for idx, stepID := range level.StepIDs {
			step, ok := stepLookup[stepID]
			if !ok {
				return allResults, ovherrors.NewExecutionError(stepID, fmt.Errorf("step not found"))
			}

			resultsMu.Lock()
			blockedBy := failedDependency(execCtx.Results, step)
			resultsMu.Unlock()

			wg.Add(1)
			go func(idx int, step *config.Step) {
				defer wg.Done()

				var (
					res *model.StepResult
					err error
				)
				if blockedBy != "" {
					res = &model.StepResult{
						StepID:    step.ID,
						Status:    model.StatusSkipped,
						Message:   fmt.Sprintf("dependency %s did not succeed", blockedBy),
						Timestamp: time.Now(),
					}
				} else {
					res, err = executeStep(ctx, execCtx, step, timeout)
				}

				if res != nil {
					levelResults[idx] = res
					resultsMu.Lock()
					execCtx.Results[step.ID] = res
					resultsMu.Unlock()
					if execCtx.OnResult != nil {
						execCtx.OnResult(*res)
					}
				}

				if err != nil {
					once.Do(func() {
						levelErr = err
						if !execCtx.ContinueOnError {
							cancel()
						}
					})
				}
			}(idx, step)
		}

		wg.Wait()

		for _, res := range levelResults {
			if res != nil {
				allResults = append(allResults, *res)
			}
		}

		if levelErr != nil {
			if firstErr == nil {
				firstErr = levelErr
			}
			if !execCtx.ContinueOnError {
				return allResults, levelErr
			}
		}
	}

	return allResults, firstErr
}

// failedDependency returns the first dependency of step that failed or was
// itself skipped because of a failure.
func failedDependency(results map[string]*model.StepResult, step *config.Step) string {
	for _, dep := range step.DependsOn {
		res, ok := results[dep]
		if !ok {
			continue
		}
		if res.Status == model.StatusFailed || (res.Status == model.StatusSkipped && strings.HasPrefix(res.Message, "dependency ")) {
			return dep
		}
	}
	return ""
}

func executeStep(ctx context.Context, execCtx *ExecutionContext, step *config.Step, timeout time.Duration) (*model.StepResult, error) {
	if ctx.Err() != nil {
		return nil, ovherrors.NewExecutionError(step.ID, ctx.Err())
	}

	stepCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if execCtx.WorkerPool != nil {
		select {
		case execCtx.WorkerPool <- struct{}{}:
			defer func() { <-execCtx.WorkerPool }()
		case <-stepCtx.Done():
			return timeoutResult(step.ID, stepCtx.Err())
		}
	}

	if execCtx.OnStart != nil {
		execCtx.OnStart(step.ID)
	}

	log := execCtx.Logger.WithFields(map[string]any{"step_id": step.ID, "type": step.Type})

	impl, err := plugin.GetPlugin(step.Type)
	if err != nil {
		return finalizeFailure(&model.StepResult{StepID: step.ID, Timestamp: time.Now()}, stepCtx, step.ID, err)
	}

	start := time.Now()
	evalResult, err := impl.Evaluate(stepCtx, step)
	if err != nil {
		log.Error(err, "evaluation failed")
		return finalizeFailure(&model.StepResult{StepID: step.ID, Duration: time.Since(start), Timestamp: time.Now()}, stepCtx, step.ID, err)
	}

	var result *model.StepResult
	switch {
	case !evalResult.RequiresAction:
		result = &model.StepResult{StepID: step.ID, Status: model.StatusSkipped, Message: evalResult.Message}
	case execCtx.DryRun:
		status := model.StatusWouldUpdate
		if evalResult.CurrentState == model.StatusMissing {
			status = model.StatusWouldCreate
		}
		// Changed is the prediction of a real run. Wait modules never change anything.
		result = &model.StepResult{
			StepID:  step.ID,
			Status:  status,
			Changed: !impl.PluginMetadata().Waits,
			Message: evalResult.Message,
		}
		if evalResult.Diff != "" {
			result.Data = evalResult.Diff
		}
	default:
		log.Debug("applying changes: " + evalResult.Message)
		result, err = impl.Apply(stepCtx, evalResult, step)
	}

	if result == nil {
		result = &model.StepResult{StepID: step.ID}
	}
	if result.StepID == "" {
		result.StepID = step.ID
	}
	result.Duration = time.Since(start)
	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now()
	}

	if err != nil {
		log.Error(err, "apply failed")
		return finalizeFailure(result, stepCtx, step.ID, err)
	}

	if result.Status == "" {
		result.Status = model.StatusSuccess
	}
	if result.Message == "" {
		result.Message = "completed"
	}

	log.WithFields(map[string]any{"status": result.Status, "changed": result.Changed}).Info(result.Message)
	return result, nil
}

func finalizeFailure(result *model.StepResult, stepCtx context.Context, stepID string, err error) (*model.StepResult, error) {
	result.Status = model.StatusFailed
	result.Changed = false
	if result.Error == nil {
		result.Error = err
	}
	result.Message = err.Error()

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(stepCtx.Err(), context.DeadlineExceeded) {
		result.Message = "timeout exceeded"
	}

	return result, ovherrors.NewExecutionError(stepID, err)
}

func timeoutResult(stepID string, err error) (*model.StepResult, error) {
	if err == nil {
		err = context.DeadlineExceeded
	}
	res := &model.StepResult{
		StepID:    stepID,
		Status:    model.StatusFailed,
		Message:   "timeout exceeded",
		Error:     err,
		Timestamp: time.Now(),
	}
	return res, ovherrors.NewExecutionError(stepID, err)
}

// Executor runs read-only verification of a playbook.
type Executor struct {
	logger *logger.Logger
}

// NewExecutor creates a new executor instance.
func NewExecutor(log *logger.Logger) *Executor {
	return &Executor{logger: log}
}

// VerifySteps evaluates every enabled step without applying anything.
// A step whose dependency is not satisfied is reported blocked, since its
// evaluation would depend on resources that do not exist yet.
func (e *Executor) VerifySteps(execCtx *ExecutionContext, steps []config.Step, defaultTimeout time.Duration) (*model.VerificationSummary, error) {
	start := time.Now()

	graph, err := BuildDAG(steps)
	if err != nil {
		return nil, err
	}

	if defaultTimeout <= 0 {
		defaultTimeout = 30 * time.Second
	}
	ctx := execCtx.baseContext()

	summary := &model.VerificationSummary{TotalSteps: len(graph.Nodes)}
	resultsByID := make(map[string]*model.VerificationResult, len(graph.Nodes))

	for _, stepID := range graph.Order() {
		step := graph.Nodes[stepID].Step

		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}

		result := e.verifyStep(ctx, step, resultsByID, defaultTimeout)
		if result.Error != nil && result.Status == "" {
			summary.Duration = time.Since(start)
			return summary, result.Error
		}

		summary.Add(result)
		resultsByID[step.ID] = result
	}

	summary.Duration = time.Since(start)
	return summary, nil
}

func (e *Executor) verifyStep(ctx context.Context, step *config.Step, done map[string]*model.VerificationResult, timeout time.Duration) *model.VerificationResult {
	var unsatisfied []string
	for _, depID := range step.DependsOn {
		dep, ok := done[depID]
		if ok && dep.Status != model.StatusSatisfied {
			unsatisfied = append(unsatisfied, fmt.Sprintf("%s (%s)", depID, dep.Status))
		}
	}
	if len(unsatisfied) > 0 {
		reason := "dependencies not satisfied: " + strings.Join(unsatisfied, ", ")
		return &model.VerificationResult{
			StepID:    step.ID,
			Status:    model.StatusBlocked,
			Message:   "blocked: " + reason,
			Error:     errors.New(reason),
			Timestamp: time.Now(),
		}
	}

	impl, err := plugin.GetPlugin(step.Type)
	if err != nil {
		return &model.VerificationResult{
			StepID:    step.ID,
			Status:    model.StatusBlocked,
			Message:   fmt.Sprintf("no module registered for type %s", step.Type),
			Error:     err,
			Timestamp: time.Now(),
		}
	}

	stepStart := time.Now()
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	evalResult, err := impl.Evaluate(stepCtx, step)
	cancel()

	if err != nil {
		var stateErr *plugin.StateError
		if errors.As(err, &stateErr) {
			e.logger.With("step_id", step.ID).Warn(err.Error())
			return &model.VerificationResult{
				StepID:    step.ID,
				Status:    model.StatusUnknown,
				Message:   stateErr.Error(),
				Error:     stateErr.Unwrap(),
				Duration:  time.Since(stepStart),
				Timestamp: time.Now(),
			}
		}
		// Validation and API failures abort verification.
		if _, ok := plugin.AsPluginError(err); !ok {
			err = ovherrors.NewExecutionError(step.ID, err)
		}
		return &model.VerificationResult{StepID: step.ID, Error: err}
	}

	return &model.VerificationResult{
		StepID:    step.ID,
		Status:    evalResult.CurrentState,
		Message:   evalResult.Message,
		Details:   evalResult.Diff,
		Duration:  time.Since(stepStart),
		Timestamp: time.Now(),
	}
}
