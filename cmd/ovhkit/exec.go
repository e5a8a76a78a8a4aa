package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/ovhkit/internal/config"
	"github.com/alexisbeaulieu97/ovhkit/internal/engine"
	"github.com/alexisbeaulieu97/ovhkit/internal/logger"
	"github.com/alexisbeaulieu97/ovhkit/internal/model"
)

type execOptions struct {
	Module     string
	Params     []string
	ParamsFile string
	DryRun     bool
	Verbose    bool
}

// execResult is the document printed by exec. Callers read changed and msg.
type execResult struct {
	Changed bool   `json:"changed"`
	Failed  bool   `json:"failed,omitempty"`
	Status  string `json:"status,omitempty"`
	Msg     string `json:"msg"`
	Diff    string `json:"diff,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func newExecCmd(root *rootFlags) *cobra.Command {
	opts := execOptions{}

	cmd := &cobra.Command{
		Use:   "exec <module>",
		Short: "Run a single module and print its result as JSON",
		Long: `Exec reconciles one resource without a playbook. Parameters come from a
YAML or JSON file (--params-file, "-" for stdin) and from repeated
--param key=value flags, which take precedence. Values are parsed as YAML
scalars, so 3600 is a number and true a boolean.

Credentials are read from ovh.conf or the OVH_* environment variables.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Module = args[0]
			opts.DryRun = root.dryRun
			opts.Verbose = root.verbose
			return runExec(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "Module parameter as key=value (repeatable)")
	cmd.Flags().StringVarP(&opts.ParamsFile, "params-file", "f", "", "YAML or JSON file holding the module parameters")

	return cmd
}

func runExec(ctx context.Context, in io.Reader, out io.Writer, opts execOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	params, err := collectParams(in, opts)
	if err != nil {
		return err
	}

	step := &config.Step{ID: "exec", Type: opts.Module, Enabled: true}
	if err := config.ValidateStep(*step); err != nil {
		return fmt.Errorf("unknown module %q: %w", opts.Module, err)
	}
	if err := step.SetConfig(params); err != nil {
		return err
	}

	log, err := newLoggerFunc(logger.Options{Level: logLevel(opts.Verbose), HumanReadable: true})
	if err != nil {
		return err
	}
	client, err := newClientFunc(config.Credentials{}, log)
	if err != nil {
		return err
	}

	res, runErr := engine.ExecStep(ctx, step, engine.RunOptions{DryRun: opts.DryRun, Client: client, Logger: log})
	doc := toExecResult(res, runErr)

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return err
	}
	if doc.Failed {
		return &exitError{code: 1}
	}
	return nil
}

func toExecResult(res *model.StepResult, err error) execResult {
	if res == nil {
		if err == nil {
			err = fmt.Errorf("module returned no result")
		}
		return execResult{Failed: true, Msg: err.Error()}
	}

	doc := execResult{
		Changed: res.Changed,
		Status:  string(res.Status),
		Msg:     res.Message,
		Data:    res.Data,
		Failed:  err != nil || res.Status == model.StatusFailed,
	}
	if res.Status == model.StatusWouldCreate || res.Status == model.StatusWouldUpdate {
		if diff, ok := res.Data.(string); ok {
			doc.Diff, doc.Data = diff, nil
		}
	}
	if doc.Failed {
		doc.Changed = false
		if doc.Msg == "" && err != nil {
			doc.Msg = err.Error()
		}
	}
	return doc
}

func collectParams(in io.Reader, opts execOptions) (map[string]any, error) {
	params := make(map[string]any)

	if opts.ParamsFile != "" {
		var (
			data []byte
			err  error
		)
		if opts.ParamsFile == "-" {
			data, err = io.ReadAll(in)
		} else {
			data, err = os.ReadFile(opts.ParamsFile)
		}
		if err != nil {
			return nil, fmt.Errorf("read params: %w", err)
		}
		// YAML is a superset of JSON.
		if err := yaml.Unmarshal(data, &params); err != nil {
			return nil, fmt.Errorf("parse params %s: %w", opts.ParamsFile, err)
		}
		if params == nil {
			params = make(map[string]any)
		}
	}

	for _, kv := range opts.Params {
		key, raw, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --param %q, expected key=value", kv)
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", key, err)
		}
		params[strings.TrimSpace(key)] = value
	}

	return params, nil
}
