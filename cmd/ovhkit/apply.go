package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/ovhkit/internal/engine"
	"github.com/alexisbeaulieu97/ovhkit/internal/logger"
	"github.com/alexisbeaulieu97/ovhkit/internal/model"
	"github.com/alexisbeaulieu97/ovhkit/internal/tui"
)

type applyOptions struct {
	ConfigPath  string
	DryRun      bool
	Verbose     bool
	Interactive bool
}

func newApplyCmd(root *rootFlags) *cobra.Command {
	opts := applyOptions{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Converge the resources of a playbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.DryRun = root.dryRun
			opts.Verbose = root.verbose
			opts.Interactive = isTerminalFunc()

			if err := validateConfigPath(opts.ConfigPath); err != nil {
				return err
			}
			return runApply(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to the playbook")
	cmd.MarkFlagRequired("config") //nolint:errcheck

	return cmd
}

func runApply(ctx context.Context, out io.Writer, opts applyOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := parseConfigFunc(opts.ConfigPath)
	if err != nil {
		return err
	}

	graph, err := engine.BuildDAG(cfg.Steps)
	if err != nil {
		return err
	}
	plan, err := engine.GeneratePlan(graph)
	if err != nil {
		return err
	}

	dryRun := opts.DryRun || cfg.Settings.DryRun
	verbose := opts.Verbose || cfg.Settings.Verbose

	level := logLevel(verbose)
	if opts.Interactive && !verbose {
		// Log lines would tear the live view.
		level = "error"
	}
	log, err := newLoggerFunc(logger.Options{Level: level, HumanReadable: true})
	if err != nil {
		return err
	}

	client, err := newClientFunc(cfg.Settings.Credentials, log)
	if err != nil {
		return err
	}

	view := newApplyView(out, tui.NewModel(cfg, plan, dryRun), opts.Interactive)
	view.start(ctx, cancel)

	log.WithFields(map[string]any{
		"playbook": opts.ConfigPath,
		"steps":    plan.StepCount(),
		"dry_run":  dryRun,
	}).Info("starting apply")

	report, execErr := engine.Run(ctx, cfg, engine.RunOptions{
		DryRun: dryRun,
		Client: client,
		Logger: log,
		OnStart: func(id string) {
			view.send(tui.StepStartMsg{ID: id, Time: time.Now()})
		},
		OnResult: func(res model.StepResult) {
			view.send(tui.StepCompleteMsg{Result: res})
		},
	})

	if err := view.finish(execErr); err != nil {
		return err
	}
	if report != nil {
		fmt.Fprintln(out, report.Summary())
	}

	if execErr != nil {
		return execErr
	}
	if len(report.FailedSteps) > 0 {
		return &exitError{code: 1, err: fmt.Errorf("apply failed: %s", report.Summary())}
	}
	return nil
}

// applyView feeds step results either to a running bubbletea program or,
// without a terminal, to a model rendered once at the end.
type applyView struct {
	out         io.Writer
	interactive bool

	mu      sync.Mutex
	state   tui.Model
	program *tea.Program
	done    chan struct{}
	final   tea.Model
	runErr  error
}

func newApplyView(out io.Writer, state tui.Model, interactive bool) *applyView {
	return &applyView{out: out, state: state, interactive: interactive}
}

func (v *applyView) start(ctx context.Context, cancel context.CancelFunc) {
	if !v.interactive {
		return
	}
	v.program = tea.NewProgram(v.state, tea.WithOutput(v.out), tea.WithContext(ctx))
	v.done = make(chan struct{})
	go func() {
		defer close(v.done)
		v.final, v.runErr = v.program.Run()
		if m, ok := v.final.(tui.Model); ok && m.Cancelled() {
			cancel()
		}
	}()
}

func (v *applyView) send(msg tea.Msg) {
	if v.interactive {
		v.program.Send(msg)
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	updated, _ := v.state.Update(msg)
	if m, ok := updated.(tui.Model); ok {
		v.state = m
	}
}

func (v *applyView) finish(runErr error) error {
	v.send(tui.RunFinishedMsg{Err: runErr})
	if !v.interactive {
		fmt.Fprintln(v.out, v.state.View())
		return nil
	}

	<-v.done
	if m, ok := v.final.(tui.Model); ok && m.Cancelled() {
		return fmt.Errorf("apply cancelled")
	}
	if v.runErr != nil && v.runErr != tea.ErrProgramKilled {
		return v.runErr
	}
	return nil
}
