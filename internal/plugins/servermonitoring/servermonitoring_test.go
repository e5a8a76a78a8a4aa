package servermonitoringplugin

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi/ovhapitest"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugins/plugintest"
)

const serverPath = "/dedicated/server/ns1.example.net"

func newFake(monitoring bool) *ovhapitest.Fake {
	fake := ovhapitest.New()
	fake.Handle(http.MethodGet, serverPath, func(ovhapitest.Call) (any, error) {
		return map[string]any{"name": "ns1.example.net", "monitoring": monitoring}, nil
	})
	fake.Handle(http.MethodPut, serverPath, func(call ovhapitest.Call) (any, error) {
		monitoring = call.BodyMap()["monitoring"].(bool)
		return nil, nil
	})
	return fake
}

func TestMonitoring(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		current bool
		state   string
		changed bool
	}{
		{"enable", false, "present", true},
		{"already enabled", true, "", false},
		{"disable", true, "absent", true},
		{"already disabled", false, "absent", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fake := newFake(tt.current)
			params := map[string]any{"service_name": "ns1.example.net"}
			if tt.state != "" {
				params["state"] = tt.state
			}
			step := plugintest.Step(t, moduleType, params)

			res := plugintest.MustRun(t, fake, New(), step)
			require.Equal(t, tt.changed, res.Changed)
			if tt.changed {
				require.Len(t, fake.Mutations(), 1)
				require.Equal(t, tt.state == "present", fake.Mutations()[0].BodyMap()["monitoring"])
			} else {
				require.Empty(t, fake.Mutations())
			}

			fake.Reset()
			require.False(t, plugintest.MustRun(t, fake, New(), step).Changed)
			require.Empty(t, fake.Mutations())
		})
	}
}
