package dnszonerefreshplugin

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi/ovhapitest"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugins/plugintest"
)

func TestZoneRefresh_AlwaysRefreshes(t *testing.T) {
	t.Parallel()

	fake := ovhapitest.New()
	fake.Respond(http.MethodPost, "/domain/zone/example.com/refresh", nil)
	step := plugintest.Step(t, moduleType, map[string]any{"domain": "example.com"})

	for range 2 {
		res := plugintest.MustRun(t, fake, New(), step)
		require.True(t, res.Changed)
		require.Equal(t, "zone example.com refreshed", res.Message)
	}
	require.Len(t, fake.Mutations(), 2)
}

func TestZoneRefresh_EvaluateIsReadOnly(t *testing.T) {
	t.Parallel()

	fake := ovhapitest.New()
	step := plugintest.Step(t, moduleType, map[string]any{"domain": "example.com"})

	eval, err := plugintest.Evaluate(t, fake, New(), step)
	require.NoError(t, err)
	require.True(t, eval.RequiresAction)
	require.Empty(t, fake.Calls())
}
