package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/ovhkit/internal/config"
)

func TestModulesCommandListsEveryModule(t *testing.T) {
	output, err := executeCommand(newRootCmd(), "modules", "--json")
	require.NoError(t, err)

	var infos []moduleInfo
	require.NoError(t, json.Unmarshal([]byte(output), &infos))

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
		require.NotEmpty(t, info.Description)
	}
	require.ElementsMatch(t, config.ModuleTypes, names)
}

func TestModulesCommandText(t *testing.T) {
	output, err := executeCommand(newRootCmd(), "modules")
	require.NoError(t, err)
	require.Contains(t, output, "dns_record")
	require.Contains(t, output, "cloud_instance_wait")
}
