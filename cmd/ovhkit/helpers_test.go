package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/ovhkit/internal/config"
	"github.com/alexisbeaulieu97/ovhkit/internal/logger"
	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi"
	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi/ovhapitest"
)

// useFake routes every API client built by the commands to an in-memory fake
// and silences logging.
func useFake(t *testing.T) *ovhapitest.Fake {
	t.Helper()

	fake := ovhapitest.New()
	origClient, origLogger, origTerminal := newClientFunc, newLoggerFunc, isTerminalFunc
	origStdout, origStderr := stdoutWriter, stderrWriter
	t.Cleanup(func() {
		newClientFunc, newLoggerFunc, isTerminalFunc = origClient, origLogger, origTerminal
		stdoutWriter, stderrWriter = origStdout, origStderr
	})

	newClientFunc = func(config.Credentials, *logger.Logger) (*ovhapi.Client, error) {
		return fake.Client(), nil
	}
	newLoggerFunc = func(logger.Options) (*logger.Logger, error) {
		return logger.Nop(), nil
	}
	isTerminalFunc = func() bool { return false }
	return fake
}

// zoneFake serves an empty zone for www.example.com that records creations.
func zoneFake(fake *ovhapitest.Fake) {
	var ids []int64
	fake.Handle("GET", "/domain/zone/example.com/record", func(ovhapitest.Call) (any, error) {
		return append([]int64{}, ids...), nil
	})
	fake.Handle("POST", "/domain/zone/example.com/record", func(call ovhapitest.Call) (any, error) {
		ids = append(ids, 101)
		return map[string]any{"id": 101}, nil
	})
	fake.Handle("GET", "/domain/zone/example.com/record/101", func(ovhapitest.Call) (any, error) {
		return map[string]any{"id": 101, "subDomain": "www", "fieldType": "A", "target": "192.0.2.10", "ttl": 0}, nil
	})
	fake.Respond("POST", "/domain/zone/example.com/refresh", nil)
}

func writePlaybook(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "playbook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const wwwPlaybook = `version: "1.0"
name: www
settings:
  parallel: 1
steps:
  - id: www_record
    type: dns_record
    domain: example.com
    name: www
    value: 192.0.2.10
`

func executeCommand(root *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}
