package clouduserplugin

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi/ovhapitest"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugin"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugins/plugintest"
)

const listPath = "/cloud/project/p1/user"

func newFake(users ...user) *ovhapitest.Fake {
	fake := ovhapitest.New()
	fake.Handle(http.MethodGet, listPath, func(ovhapitest.Call) (any, error) {
		return append([]user{}, users...), nil
	})
	fake.Handle(http.MethodPost, listPath, func(call ovhapitest.Call) (any, error) {
		u := user{ID: 42, Username: "user-abc", Description: call.BodyMap()["description"].(string), Password: "s3cret"}
		users = append(users, user{ID: u.ID, Username: u.Username, Description: u.Description})
		return u, nil
	})
	fake.Handle(http.MethodDelete, listPath+"/7", func(ovhapitest.Call) (any, error) {
		users = nil
		return nil, nil
	})
	return fake
}

func TestUser_CreateReturnsCredentials(t *testing.T) {
	t.Parallel()

	fake := newFake()
	step := plugintest.Step(t, moduleType, map[string]any{
		"service_name": "p1", "description": "backup agent", "roles": []any{"objectstore_operator"},
	})

	res := plugintest.MustRun(t, fake, New(), step)
	require.True(t, res.Changed)
	require.Equal(t, map[string]any{
		"description": "backup agent",
		"roles":       []any{"objectstore_operator"},
	}, fake.CallsTo(http.MethodPost, listPath)[0].BodyMap())

	data, ok := res.Data.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "s3cret", data["password"])

	fake.Reset()
	require.False(t, plugintest.MustRun(t, fake, New(), step).Changed)
	require.Empty(t, fake.Mutations())
}

func TestUser_DeleteByIDOrDescription(t *testing.T) {
	t.Parallel()

	for name, extra := range map[string]map[string]any{
		"by id":          {"user_id": 7},
		"by description": {"description": "ci"},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			fake := newFake(user{ID: 7, Username: "user-ci", Description: "ci"})
			params := map[string]any{"service_name": "p1", "state": "absent"}
			for k, v := range extra {
				params[k] = v
			}
			step := plugintest.Step(t, moduleType, params)

			require.True(t, plugintest.MustRun(t, fake, New(), step).Changed)
			require.Len(t, fake.CallsTo(http.MethodDelete, listPath+"/7"), 1)
			require.False(t, plugintest.MustRun(t, fake, New(), step).Changed)
		})
	}
}

func TestUser_AmbiguousDescription(t *testing.T) {
	t.Parallel()

	fake := newFake(user{ID: 1, Description: "ci"}, user{ID: 2, Description: "ci"})
	step := plugintest.Step(t, moduleType, map[string]any{"service_name": "p1", "description": "ci", "state": "absent"})

	_, err := plugintest.Evaluate(t, fake, New(), step)
	require.ErrorIs(t, err, &plugin.StateError{})
}

func TestUser_Validation(t *testing.T) {
	t.Parallel()

	for name, params := range map[string]map[string]any{
		"present without description": {"service_name": "p1"},
		"absent without selector":     {"service_name": "p1", "state": "absent"},
		"role and roles":              {"service_name": "p1", "description": "x", "role": "admin", "roles": []any{"admin"}},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := plugintest.Evaluate(t, newFake(), New(), plugintest.Step(t, moduleType, params))
			require.ErrorIs(t, err, &plugin.ValidationError{})
		})
	}
}
