package cloudvolumesnapshotplugin

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi/ovhapitest"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugin"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugins/plugintest"
)

const snapshotsPath = "/cloud/project/p1/volume/snapshot"

func newFake(existing ...snapshot) *ovhapitest.Fake {
	snapshots := append([]snapshot{}, existing...)

	fake := ovhapitest.New()
	fake.Handle(http.MethodGet, snapshotsPath, func(ovhapitest.Call) (any, error) {
		return append([]snapshot{}, snapshots...), nil
	})
	fake.Handle(http.MethodPost, "/cloud/project/p1/volume/v-1/snapshot", func(call ovhapitest.Call) (any, error) {
		s := snapshot{ID: "s-new", Name: call.BodyMap()["name"].(string), VolumeID: "v-1", Region: "GRA11", Status: "creating"}
		snapshots = append(snapshots, s)
		return s, nil
	})
	fake.Handle(http.MethodDelete, snapshotsPath+"/s-1", func(ovhapitest.Call) (any, error) {
		snapshots = nil
		return nil, nil
	})
	return fake
}

func TestSnapshot_Take(t *testing.T) {
	t.Parallel()

	// Same name on another volume does not count.
	fake := newFake(snapshot{ID: "s-9", Name: "before-upgrade", VolumeID: "v-2"})
	step := plugintest.Step(t, moduleType, map[string]any{"service_name": "p1", "volume_id": "v-1", "name": "before-upgrade", "description": "pre 2.0"})

	res := plugintest.MustRun(t, fake, New(), step)
	require.True(t, res.Changed)
	require.Equal(t, "snapshot before-upgrade of volume v-1 requested", res.Message)
	require.Equal(t, map[string]any{"name": "before-upgrade", "description": "pre 2.0"},
		fake.CallsTo(http.MethodPost, "/cloud/project/p1/volume/v-1/snapshot")[0].BodyMap())

	fake.Reset()
	require.False(t, plugintest.MustRun(t, fake, New(), step).Changed)
	require.Empty(t, fake.Mutations())
}

func TestSnapshot_ByVolumeName(t *testing.T) {
	t.Parallel()

	fake := newFake()
	fake.Respond(http.MethodGet, "/cloud/project/p1/volume", []any{
		map[string]any{"id": "v-1", "name": "web-1-data", "region": "GRA11"},
	})
	step := plugintest.Step(t, moduleType, map[string]any{"service_name": "p1", "volume_name": "web-1-data", "region": "GRA11", "name": "nightly"})

	res := plugintest.MustRun(t, fake, New(), step)
	require.True(t, res.Changed)
	require.Equal(t, "snapshot nightly of volume web-1-data requested", res.Message)
}

func TestSnapshot_Delete(t *testing.T) {
	t.Parallel()

	fake := newFake(snapshot{ID: "s-1", Name: "nightly", VolumeID: "v-1"})
	step := plugintest.Step(t, moduleType, map[string]any{"service_name": "p1", "volume_id": "v-1", "name": "nightly", "state": "absent"})

	require.True(t, plugintest.MustRun(t, fake, New(), step).Changed)
	require.False(t, plugintest.MustRun(t, fake, New(), step).Changed)
	require.Len(t, fake.CallsTo(http.MethodDelete, snapshotsPath+"/s-1"), 1)
}

func TestSnapshot_Ambiguous(t *testing.T) {
	t.Parallel()

	fake := newFake(
		snapshot{ID: "s-1", Name: "nightly", VolumeID: "v-1"},
		snapshot{ID: "s-2", Name: "nightly", VolumeID: "v-1"},
	)
	step := plugintest.Step(t, moduleType, map[string]any{"service_name": "p1", "volume_id": "v-1", "name": "nightly", "state": "absent"})

	_, err := plugintest.Evaluate(t, fake, New(), step)
	require.ErrorIs(t, err, &plugin.StateError{})
	require.Empty(t, fake.Mutations())
}
