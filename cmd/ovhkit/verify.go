package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/ovhkit/internal/engine"
	"github.com/alexisbeaulieu97/ovhkit/internal/logger"
	"github.com/alexisbeaulieu97/ovhkit/internal/model"
	ovherrors "github.com/alexisbeaulieu97/ovhkit/pkg/errors"
)

// Exit statuses of verify.
const (
	verifyConverged   = 0
	verifyNeedsApply  = 1
	verifyConfigError = 2
	verifyRunError    = 3
)

var (
	stdoutWriter io.Writer = os.Stdout
	stderrWriter io.Writer = os.Stderr
)

type verifyOptions struct {
	ConfigPath string
	Verbose    bool
	JSON       bool
	Timeout    time.Duration
}

func newVerifyCmd(root *rootFlags) *cobra.Command {
	opts := verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify <playbook>",
		Short: "Check that remote resources match a playbook without changing anything",
		Long: `Verify evaluates every step with read-only API calls. It exits with 0 when
every step is satisfied, 1 when an apply is needed, 2 on a playbook error
and 3 on any other failure.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ConfigPath = args[0]
			opts.Verbose = root.verbose

			code, err := runVerifyInternal(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if code != verifyConverged {
				return &exitError{code: code}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output results in JSON format")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "Timeout per step, as a Go duration (e.g. 60s)")

	return cmd
}

func runVerifyInternal(ctx context.Context, opts verifyOptions) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := parseConfigFunc(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(stderrWriter, "Error parsing configuration: %v\n", err)
		return verifyConfigError, nil
	}

	log, err := newLoggerFunc(logger.Options{Level: logLevel(opts.Verbose), HumanReadable: !opts.JSON, Writer: stderrWriter})
	if err != nil {
		fmt.Fprintf(stderrWriter, "Error creating logger: %v\n", err)
		return verifyRunError, nil
	}

	client, err := newClientFunc(cfg.Settings.Credentials, log)
	if err != nil {
		fmt.Fprintf(stderrWriter, "Error creating API client: %v\n", err)
		return verifyConfigError, nil
	}

	if opts.Timeout > 0 {
		steps := max(len(cfg.Steps), 1)
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout*time.Duration(steps))
		defer cancel()
	}

	log.WithFields(map[string]any{
		"playbook": opts.ConfigPath,
		"steps":    len(cfg.Steps),
	}).Info("starting verification")

	execCtx := engine.NewExecutionContext(ctx, cfg, engine.RunOptions{Client: client, Logger: log})
	summary, err := engine.NewExecutor(log).VerifySteps(execCtx, cfg.Steps, opts.Timeout)
	if err != nil {
		if ovherrors.IsConfiguration(err) {
			fmt.Fprintf(stderrWriter, "Configuration error: %v\n", err)
			return verifyConfigError, nil
		}
		fmt.Fprintf(stderrWriter, "Verification error: %v\n", err)
		return verifyRunError, nil
	}

	log.WithFields(map[string]any{
		"total":     summary.TotalSteps,
		"satisfied": summary.Satisfied,
		"missing":   summary.Missing,
		"drifted":   summary.Drifted,
		"blocked":   summary.Blocked,
		"unknown":   summary.Unknown,
		"duration":  summary.Duration.String(),
	}).Info("verification complete")

	switch {
	case opts.JSON:
		if err := printJSONOutput(stdoutWriter, summary, opts.ConfigPath); err != nil {
			return verifyRunError, err
		}
	case opts.Verbose:
		printVerboseOutput(stdoutWriter, summary)
	default:
		printTableOutput(stdoutWriter, summary)
	}

	return summary.ExitCode(), nil
}

func printTableOutput(w io.Writer, summary *model.VerificationSummary) {
	fmt.Fprintln(w, "\nVerification Results:")
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintf(w, "%-40s %-12s %-8s %s\n", "Step ID", "Status", "Duration", "Message")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, result := range summary.Results {
		fmt.Fprintf(w, "%-40s %-12s %-8s %s\n",
			truncateString(result.StepID, 40),
			fmt.Sprintf("%s %s", getStatusSymbol(result.Status), result.Status),
			fmt.Sprintf("%.2fs", result.Duration.Seconds()),
			truncateString(result.Message, 40),
		)
	}

	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintf(w, "\nSummary:\n")
	fmt.Fprintf(w, "  Total:       %d\n", summary.TotalSteps)
	fmt.Fprintf(w, "  ✔ Satisfied: %d\n", summary.Satisfied)
	fmt.Fprintf(w, "  ✖ Missing:   %d\n", summary.Missing)
	fmt.Fprintf(w, "  ⚠ Drifted:   %d\n", summary.Drifted)
	fmt.Fprintf(w, "  ⊘ Blocked:   %d\n", summary.Blocked)
	fmt.Fprintf(w, "  ? Unknown:   %d\n", summary.Unknown)
	fmt.Fprintf(w, "  Duration:    %s\n", summary.Duration.String())

	if summary.AllSatisfied() {
		fmt.Fprintln(w, "\nAll steps satisfied, no changes needed")
	} else {
		fmt.Fprintln(w, "\nChanges needed, run 'ovhkit apply' to converge")
	}
}

func printVerboseOutput(w io.Writer, summary *model.VerificationSummary) {
	printTableOutput(w, summary)

	hasDetails := false
	for _, result := range summary.Results {
		if result.Status == model.StatusDrifted && result.Details != "" {
			if !hasDetails {
				fmt.Fprintln(w, "\nDetailed Diff Output:")
				fmt.Fprintln(w, strings.Repeat("=", 80))
				hasDetails = true
			}
			fmt.Fprintf(w, "\n--- Step: %s ---\n", result.StepID)
			fmt.Fprintln(w, result.Details)
		}
		if result.Status == model.StatusBlocked && result.Error != nil {
			if !hasDetails {
				fmt.Fprintln(w, "\nError Details:")
				fmt.Fprintln(w, strings.Repeat("=", 80))
				hasDetails = true
			}
			fmt.Fprintf(w, "\n--- Step: %s ---\n", result.StepID)
			fmt.Fprintf(w, "Error: %v\n", result.Error)
		}
	}
}

type jsonVerifyResult struct {
	StepID    string  `json:"step_id"`
	Status    string  `json:"status"`
	Message   string  `json:"message"`
	Details   string  `json:"details,omitempty"`
	Error     string  `json:"error,omitempty"`
	Duration  float64 `json:"duration_seconds"`
	Timestamp string  `json:"timestamp"`
}

type jsonVerifySummary struct {
	TotalSteps int     `json:"total_steps"`
	Satisfied  int     `json:"satisfied"`
	Missing    int     `json:"missing"`
	Drifted    int     `json:"drifted"`
	Blocked    int     `json:"blocked"`
	Unknown    int     `json:"unknown"`
	Duration   float64 `json:"duration_seconds"`
}

type jsonVerifyOutput struct {
	ConfigFile string             `json:"config_file"`
	Summary    jsonVerifySummary  `json:"summary"`
	Results    []jsonVerifyResult `json:"results"`
}

func printJSONOutput(w io.Writer, summary *model.VerificationSummary, configPath string) error {
	output := jsonVerifyOutput{
		ConfigFile: configPath,
		Summary: jsonVerifySummary{
			TotalSteps: summary.TotalSteps,
			Satisfied:  summary.Satisfied,
			Missing:    summary.Missing,
			Drifted:    summary.Drifted,
			Blocked:    summary.Blocked,
			Unknown:    summary.Unknown,
			Duration:   summary.Duration.Seconds(),
		},
		Results: make([]jsonVerifyResult, len(summary.Results)),
	}

	for i, result := range summary.Results {
		entry := jsonVerifyResult{
			StepID:    result.StepID,
			Status:    string(result.Status),
			Message:   result.Message,
			Details:   result.Details,
			Duration:  result.Duration.Seconds(),
			Timestamp: result.Timestamp.Format(time.RFC3339),
		}
		if result.Error != nil {
			entry.Error = result.Error.Error()
		}
		output.Results[i] = entry
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func getStatusSymbol(status model.VerificationStatus) string {
	switch status {
	case model.StatusSatisfied:
		return "✔"
	case model.StatusMissing:
		return "✖"
	case model.StatusDrifted:
		return "⚠"
	case model.StatusBlocked:
		return "⊘"
	default:
		return "?"
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
