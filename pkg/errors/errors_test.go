package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseErrorWrapsUnderlying(t *testing.T) {
	t.Parallel()

	underlying := fmt.Errorf("did not find expected key")
	err := NewParseError("playbook.yaml", 7, underlying)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "playbook.yaml", parseErr.Path)
	require.Equal(t, 7, parseErr.Line)
	require.True(t, stdErrors.Is(err, underlying))
	require.Equal(t, "parse error: playbook.yaml:7: did not find expected key", err.Error())
}

func TestParseErrorWithoutLine(t *testing.T) {
	t.Parallel()

	err := NewParseError("template.yaml", 0, stdErrors.New("no such file"))
	require.Equal(t, "parse error: template.yaml: no such file", err.Error())
}

func TestValidationErrorCarriesField(t *testing.T) {
	t.Parallel()

	err := NewValidationError("steps[2].record_type", "must be one of A AAAA TXT", nil)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "steps[2].record_type", validationErr.Field)
	require.Contains(t, err.Error(), "must be one of")
}

func TestExecutionErrorIncludesStepContext(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("reboot refused")
	err := NewExecutionError("reboot_ns1", underlying)

	var executionErr *ExecutionError
	require.ErrorAs(t, err, &executionErr)
	require.Equal(t, "reboot_ns1", executionErr.StepID)
	require.True(t, stdErrors.Is(err, underlying))
	require.Contains(t, err.Error(), "reboot_ns1")
}

func TestPluginErrorIncludesModuleName(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("no plugin registered")
	err := NewPluginError("dns_record", underlying)

	var pluginErr *PluginError
	require.ErrorAs(t, err, &pluginErr)
	require.Equal(t, "dns_record", pluginErr.Plugin)
	require.True(t, stdErrors.Is(err, underlying))
	require.Equal(t, "module error [dns_record]: no plugin registered", err.Error())
}

func TestNilReceiversAreSafe(t *testing.T) {
	t.Parallel()

	var parseErr *ParseError
	var validationErr *ValidationError
	var executionErr *ExecutionError
	var pluginErr *PluginError

	require.Empty(t, parseErr.Error())
	require.Empty(t, validationErr.Error())
	require.Empty(t, executionErr.Error())
	require.Empty(t, pluginErr.Error())
	require.NoError(t, executionErr.Unwrap())
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		kind   Kind
		config bool
	}{
		{name: "nil", err: nil, kind: KindUnknown},
		{name: "plain", err: stdErrors.New("boom"), kind: KindUnknown},
		{name: "parse", err: NewParseError("p.yaml", 1, stdErrors.New("bad")), kind: KindParse, config: true},
		{name: "validation", err: NewValidationError("steps", "required", nil), kind: KindValidation, config: true},
		{name: "module", err: NewPluginError("dns_record", stdErrors.New("missing")), kind: KindModule, config: true},
		{name: "execution", err: NewExecutionError("www", stdErrors.New("403")), kind: KindExecution},
		{name: "wrapped", err: fmt.Errorf("run: %w", NewValidationError("", "x", nil)), kind: KindValidation, config: true},
		{name: "outermost wins", err: NewExecutionError("www", NewValidationError("", "x", nil)), kind: KindExecution},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.kind, KindOf(tc.err))
			require.Equal(t, tc.config, IsConfiguration(tc.err))
		})
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "parse", KindParse.String())
	require.Equal(t, "execution", KindExecution.String())
	require.Equal(t, "unknown", Kind(42).String())
}
