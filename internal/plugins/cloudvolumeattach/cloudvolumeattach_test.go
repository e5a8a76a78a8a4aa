package cloudvolumeattachplugin

import (
	"net/http"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi/ovhapitest"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugin"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugins/plugintest"
)

const volumePath = "/cloud/project/p1/volume/v-1"

func newFake(attachedTo ...string) *ovhapitest.Fake {
	fake := ovhapitest.New()
	fake.Handle(http.MethodGet, volumePath, func(ovhapitest.Call) (any, error) {
		return volume{ID: "v-1", AttachedTo: attachedTo}, nil
	})
	fake.Handle(http.MethodPost, volumePath+"/attach", func(call ovhapitest.Call) (any, error) {
		attachedTo = append(attachedTo, call.BodyMap()["instanceId"].(string))
		return nil, nil
	})
	fake.Handle(http.MethodPost, volumePath+"/detach", func(call ovhapitest.Call) (any, error) {
		attachedTo = slices.DeleteFunc(attachedTo, func(id string) bool { return id == call.BodyMap()["instanceId"] })
		return nil, nil
	})
	return fake
}

func TestAttachment_AttachThenDetach(t *testing.T) {
	t.Parallel()

	fake := newFake()
	attach := plugintest.Step(t, moduleType, map[string]any{"service_name": "p1", "volume_id": "v-1", "instance_id": "i-1"})
	detach := plugintest.Step(t, moduleType, map[string]any{"service_name": "p1", "volume_id": "v-1", "instance_id": "i-1", "state": "absent"})

	res := plugintest.MustRun(t, fake, New(), attach)
	require.True(t, res.Changed)
	require.Equal(t, "volume v-1 attached to i-1", res.Message)
	require.Equal(t, map[string]any{"instanceId": "i-1"}, fake.CallsTo(http.MethodPost, volumePath+"/attach")[0].BodyMap())

	require.False(t, plugintest.MustRun(t, fake, New(), attach).Changed)

	require.True(t, plugintest.MustRun(t, fake, New(), detach).Changed)
	require.False(t, plugintest.MustRun(t, fake, New(), detach).Changed)
	require.Len(t, fake.Mutations(), 2)
}

func TestAttachment_RefusesWhenAttachedElsewhere(t *testing.T) {
	t.Parallel()

	fake := newFake("i-2")
	step := plugintest.Step(t, moduleType, map[string]any{"service_name": "p1", "volume_id": "v-1", "instance_id": "i-1"})

	_, err := plugintest.Evaluate(t, fake, New(), step)
	require.ErrorIs(t, err, &plugin.StateError{})
	require.Contains(t, err.Error(), "attached to i-2")
}

func TestAttachment_ByName(t *testing.T) {
	t.Parallel()

	fake := newFake()
	fake.Respond(http.MethodGet, "/cloud/project/p1/volume", []any{
		map[string]any{"id": "v-1", "name": "web-1-data", "region": "GRA11"},
	})
	fake.Respond(http.MethodGet, "/cloud/project/p1/instance", []any{
		map[string]any{"id": "i-1", "name": "web-1", "region": "GRA11", "status": "ACTIVE"},
	})
	step := plugintest.Step(t, moduleType, map[string]any{
		"service_name": "p1", "volume_name": "web-1-data", "instance_name": "web-1", "region": "GRA11",
	})

	res := plugintest.MustRun(t, fake, New(), step)
	require.True(t, res.Changed)
	require.Equal(t, "volume web-1-data attached to web-1", res.Message)
	require.Equal(t, map[string]any{"instanceId": "i-1"}, fake.CallsTo(http.MethodPost, volumePath+"/attach")[0].BodyMap())

	require.False(t, plugintest.MustRun(t, fake, New(), step).Changed)
}

func TestAttachment_AmbiguousInstanceName(t *testing.T) {
	t.Parallel()

	fake := newFake()
	fake.Respond(http.MethodGet, "/cloud/project/p1/instance", []any{
		map[string]any{"id": "i-1", "name": "web-1", "region": "GRA11"},
		map[string]any{"id": "i-2", "name": "web-1", "region": "GRA11"},
	})
	step := plugintest.Step(t, moduleType, map[string]any{
		"service_name": "p1", "volume_id": "v-1", "instance_name": "web-1", "region": "GRA11",
	})

	_, err := plugintest.Evaluate(t, fake, New(), step)
	require.ErrorIs(t, err, &plugin.StateError{})
	require.Empty(t, fake.Mutations())
}

func TestAttachment_NameNeedsRegion(t *testing.T) {
	t.Parallel()

	fake := newFake()
	step := plugintest.Step(t, moduleType, map[string]any{"service_name": "p1", "volume_name": "web-1-data", "instance_id": "i-1"})

	_, err := plugintest.Evaluate(t, fake, New(), step)
	require.ErrorIs(t, err, &plugin.ValidationError{})
	require.Empty(t, fake.Calls())
}
