package pluginutil

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi/ovhapitest"
	"github.com/alexisbeaulieu97/ovhkit/internal/reconcile"
)

func instancesFake() *ovhapitest.Fake {
	fake := ovhapitest.New()
	fake.Respond(http.MethodGet, "/cloud/project/p1/instance", []any{
		map[string]any{"id": "i-1", "name": "web-1", "region": "GRA11", "status": "ACTIVE"},
		map[string]any{"id": "i-2", "name": "web-1", "region": "SBG5", "status": "ACTIVE"},
		map[string]any{"id": "i-3", "name": "db", "region": "GRA11", "status": "BUILD"},
		map[string]any{"id": "i-4", "name": "db", "region": "GRA11", "status": "ACTIVE"},
	})
	return fake
}

func TestResolveCloudID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("id is used as is", func(t *testing.T) {
		t.Parallel()
		fake := instancesFake()
		id, err := ResolveCloudID(ctx, fake.Client(), "p1", "instance", CloudRef{ID: "i-9"})
		require.NoError(t, err)
		require.Equal(t, "i-9", id)
		require.Empty(t, fake.Calls())
	})

	t.Run("name and region", func(t *testing.T) {
		t.Parallel()
		fake := instancesFake()
		id, err := ResolveCloudID(ctx, fake.Client(), "p1", "instance", CloudRef{Name: "web-1", Region: "SBG5"})
		require.NoError(t, err)
		require.Equal(t, "i-2", id)
		require.Equal(t, "region=SBG5", fake.Calls()[0].Query)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		_, err := ResolveCloudID(ctx, instancesFake().Client(), "p1", "instance", CloudRef{Name: "web-2", Region: "GRA11"})
		var notFound *CloudNotFoundError
		require.ErrorAs(t, err, &notFound)
		require.EqualError(t, err, "instance web-2 in GRA11 not found")
	})

	t.Run("ambiguous", func(t *testing.T) {
		t.Parallel()
		_, err := ResolveCloudID(ctx, instancesFake().Client(), "p1", "instance", CloudRef{Name: "db", Region: "GRA11"})
		var ambiguous *reconcile.AmbiguousError
		require.ErrorAs(t, err, &ambiguous)
		require.Equal(t, 2, ambiguous.Count)
	})
}

func TestCloudRef_Label(t *testing.T) {
	t.Parallel()

	require.Equal(t, "web-1", CloudRef{Name: "web-1", Region: "GRA11"}.Label())
	require.Equal(t, "i-1", CloudRef{ID: "i-1"}.Label())
}
