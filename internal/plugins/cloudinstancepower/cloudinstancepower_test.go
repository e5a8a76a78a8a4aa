package cloudinstancepowerplugin

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi/ovhapitest"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugin"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugins/plugintest"
)

const instancePath = "/cloud/project/p1/instance/i-1"

func newFake(status string) *ovhapitest.Fake {
	fake := ovhapitest.New()
	fake.Respond(http.MethodGet, instancePath, map[string]any{"id": "i-1", "status": status})
	for _, action := range []string{"start", "stop", "shelve", "unshelve", "reboot"} {
		fake.Respond(http.MethodPost, instancePath+"/"+action, nil)
	}
	return fake
}

func TestPower_Transitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status string
		state  string
		call   string
	}{
		{name: "start stopped", status: "SHUTOFF", state: "on", call: "start"},
		{name: "start shelved", status: "SHELVED_OFFLOADED", state: "on", call: "unshelve"},
		{name: "already on", status: "ACTIVE", state: "on"},
		{name: "stop active", status: "ACTIVE", state: "off", call: "stop"},
		{name: "already off", status: "SHUTOFF", state: "off"},
		{name: "shelved counts as off", status: "SHELVED", state: "off"},
		{name: "shelve active", status: "ACTIVE", state: "shelved", call: "shelve"},
		{name: "shelve stopped", status: "SHUTOFF", state: "shelved", call: "shelve"},
		{name: "already shelved", status: "SHELVED", state: "shelved"},
		{name: "unshelve", status: "SHELVED", state: "unshelved", call: "unshelve"},
		{name: "not shelved", status: "ACTIVE", state: "unshelved"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fake := newFake(tc.status)
			step := plugintest.Step(t, moduleType, map[string]any{"service_name": "p1", "instance_id": "i-1", "state": tc.state})

			res := plugintest.MustRun(t, fake, New(), step)
			if tc.call == "" {
				require.False(t, res.Changed)
				require.Empty(t, fake.Mutations())
				return
			}
			require.True(t, res.Changed)
			mutations := fake.Mutations()
			require.Len(t, mutations, 1)
			require.Equal(t, "POST "+instancePath+"/"+tc.call, mutations[0].Key())
		})
	}
}

func TestPower_RebootAlwaysChanges(t *testing.T) {
	t.Parallel()

	fake := newFake("ACTIVE")
	step := plugintest.Step(t, moduleType, map[string]any{
		"service_name": "p1", "instance_id": "i-1", "state": "rebooted", "reboot_type": "hard",
	})

	for range 2 {
		require.True(t, plugintest.MustRun(t, fake, New(), step).Changed)
	}
	reboots := fake.CallsTo(http.MethodPost, instancePath+"/reboot")
	require.Len(t, reboots, 2)
	require.Equal(t, map[string]any{"type": "hard"}, reboots[0].BodyMap())
}

func TestPower_RefusesDuringTransition(t *testing.T) {
	t.Parallel()

	fake := newFake("BUILD")
	step := plugintest.Step(t, moduleType, map[string]any{"service_name": "p1", "instance_id": "i-1", "state": "off"})

	_, err := plugintest.Evaluate(t, fake, New(), step)
	require.ErrorIs(t, err, &plugin.StateError{})
	require.Contains(t, err.Error(), "instance i-1 is BUILD")
}

func TestPower_StateRequired(t *testing.T) {
	t.Parallel()

	fake := newFake("ACTIVE")
	step := plugintest.Step(t, moduleType, map[string]any{"service_name": "p1", "instance_id": "i-1"})

	_, err := plugintest.Evaluate(t, fake, New(), step)
	require.ErrorIs(t, err, &plugin.ValidationError{})
}
