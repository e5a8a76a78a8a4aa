package servervrackplugin

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi/ovhapitest"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugin"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugins/plugintest"
)

const (
	server     = "ns1.example.net"
	vrack      = "pn-12345"
	ifacesPath = "/dedicated/server/ns1.example.net/virtualNetworkInterface"
)

func newGeneration(fake *ovhapitest.Fake, registered bool) {
	fake.Respond(http.MethodGet, ifacesPath+"?mode=vrack", []string{"7b1c-iface"})
	details := []interfaceDetails{{DedicatedServer: "ns2.example.net", DedicatedServerInterface: "other"}}
	if registered {
		details = append(details, interfaceDetails{DedicatedServer: server, DedicatedServerInterface: "7b1c-iface"})
	}
	fake.Respond(http.MethodGet, "/vrack/pn-12345/dedicatedServerInterfaceDetails", details)
	fake.Respond(http.MethodPost, "/vrack/pn-12345/dedicatedServerInterface", map[string]any{"id": 1})
	fake.Respond(http.MethodDelete, "/vrack/pn-12345/dedicatedServerInterface/7b1c-iface", map[string]any{"id": 2})
}

func oldGeneration(fake *ovhapitest.Fake, registered bool) {
	fake.Respond(http.MethodGet, ifacesPath+"?mode=vrack", []string{})
	fake.Respond(http.MethodGet, ifacesPath+"?mode=vrack_aggregation", []string{})
	servers := []string{"ns2.example.net"}
	if registered {
		servers = append(servers, server)
	}
	fake.Respond(http.MethodGet, "/vrack/pn-12345/dedicatedServer", servers)
	fake.Respond(http.MethodPost, "/vrack/pn-12345/dedicatedServer", map[string]any{"id": 1})
	fake.Respond(http.MethodDelete, "/vrack/pn-12345/dedicatedServer/ns1.example.net", map[string]any{"id": 2})
}

func run(t *testing.T, fake *ovhapitest.Fake, state string) (bool, string) {
	t.Helper()
	step := plugintest.Step(t, moduleType, map[string]any{"service_name": server, "vrack": vrack, "state": state})
	res := plugintest.MustRun(t, fake, New(), step)
	return res.Changed, res.Message
}

func TestVrack_NewGeneration(t *testing.T) {
	t.Parallel()

	t.Run("adds interface", func(t *testing.T) {
		t.Parallel()
		fake := ovhapitest.New()
		newGeneration(fake, false)

		changed, msg := run(t, fake, "present")
		require.True(t, changed)
		require.Equal(t, "ns1.example.net has been added to new pn-12345", msg)
		posts := fake.CallsTo(http.MethodPost, "/vrack/pn-12345/dedicatedServerInterface")
		require.Len(t, posts, 1)
		require.Equal(t, map[string]any{"dedicatedServerInterface": "7b1c-iface"}, posts[0].BodyMap())
	})

	t.Run("already registered", func(t *testing.T) {
		t.Parallel()
		fake := ovhapitest.New()
		newGeneration(fake, true)

		changed, msg := run(t, fake, "present")
		require.False(t, changed)
		require.Equal(t, "ns1.example.net is already registered on new pn-12345", msg)
		require.Empty(t, fake.Mutations())
	})

	t.Run("removes interface", func(t *testing.T) {
		t.Parallel()
		fake := ovhapitest.New()
		newGeneration(fake, true)

		changed, msg := run(t, fake, "absent")
		require.True(t, changed)
		require.Equal(t, "ns1.example.net has been deleted from new pn-12345", msg)
		require.Len(t, fake.CallsTo(http.MethodDelete, "/vrack/pn-12345/dedicatedServerInterface/7b1c-iface"), 1)
	})

	t.Run("absent and not registered", func(t *testing.T) {
		t.Parallel()
		fake := ovhapitest.New()
		newGeneration(fake, false)

		changed, msg := run(t, fake, "absent")
		require.False(t, changed)
		require.Equal(t, "ns1.example.net is not present on new pn-12345, don't remove it", msg)
		require.Empty(t, fake.Mutations())
	})
}

func TestVrack_AggregatedLinks(t *testing.T) {
	t.Parallel()

	fake := ovhapitest.New()
	newGeneration(fake, false)
	fake.Respond(http.MethodGet, ifacesPath+"?mode=vrack", []string{})
	fake.Respond(http.MethodGet, ifacesPath+"?mode=vrack_aggregation", []string{"agg-iface"})

	changed, _ := run(t, fake, "present")
	require.True(t, changed)
	posts := fake.CallsTo(http.MethodPost, "/vrack/pn-12345/dedicatedServerInterface")
	require.Len(t, posts, 1)
	require.Equal(t, "agg-iface", posts[0].BodyMap()["dedicatedServerInterface"])
}

func TestVrack_MultipleInterfacesFail(t *testing.T) {
	t.Parallel()

	fake := ovhapitest.New()
	newGeneration(fake, false)
	fake.Respond(http.MethodGet, ifacesPath+"?mode=vrack", []string{"a", "b"})

	step := plugintest.Step(t, moduleType, map[string]any{"service_name": server, "vrack": vrack})
	_, err := plugintest.Evaluate(t, fake, New(), step)
	require.ErrorIs(t, err, &plugin.StateError{})
}

func TestVrack_OldGeneration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		registered bool
		state      string
		changed    bool
		msg        string
		mutation   string
	}{
		{"adds server", false, "present", true, "ns1.example.net has been added to old pn-12345", "POST /vrack/pn-12345/dedicatedServer"},
		{"already registered", true, "present", false, "ns1.example.net is already registered on old pn-12345", ""},
		{"removes server", true, "absent", true, "ns1.example.net has been deleted from old pn-12345", "DELETE /vrack/pn-12345/dedicatedServer/ns1.example.net"},
		{"not registered", false, "absent", false, "ns1.example.net is not present on old pn-12345, don't remove it", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fake := ovhapitest.New()
			oldGeneration(fake, tt.registered)

			changed, msg := run(t, fake, tt.state)
			require.Equal(t, tt.changed, changed)
			require.Equal(t, tt.msg, msg)
			if tt.mutation == "" {
				require.Empty(t, fake.Mutations())
				return
			}
			require.Len(t, fake.Mutations(), 1)
			require.Equal(t, tt.mutation, fake.Mutations()[0].Key())
		})
	}
}
