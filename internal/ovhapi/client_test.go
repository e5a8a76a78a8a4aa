package ovhapi_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/ovhkit/internal/logger"
	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi"
	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi/ovhapitest"
)

func TestCall_EncodesQueryForGet(t *testing.T) {
	fake := ovhapitest.New()
	fake.Respond(http.MethodGet, "/domain/zone/example.com/record", []int{42})

	var ids []int
	err := fake.Client().Get(context.Background(), "/domain/zone/example.com/record", ovhapi.Params{
		"subDomain": "www",
		"fieldType": "A",
		"ignored":   nil,
	}, &ids)
	require.NoError(t, err)
	require.Equal(t, []int{42}, ids)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, "fieldType=A&subDomain=www", calls[0].Query)
}

func TestCall_LowercasesBooleans(t *testing.T) {
	fake := ovhapitest.New()
	fake.Respond(http.MethodDelete, "/cloud/project/p/storage/c", nil)

	err := fake.Client().Call(context.Background(), http.MethodDelete, "/cloud/project/p/storage/c", ovhapi.Params{"recursive": true}, nil)
	require.NoError(t, err)
	require.Equal(t, "recursive=true", fake.Calls()[0].Query)
}

func TestCall_SendsJSONBodyForPost(t *testing.T) {
	fake := ovhapitest.New()
	fake.Handle(http.MethodPost, "/domain/zone/example.com/record", func(call ovhapitest.Call) (any, error) {
		return map[string]any{"id": 7, "target": call.BodyMap()["target"]}, nil
	})

	var created struct {
		ID     int    `json:"id"`
		Target string `json:"target"`
	}
	err := fake.Client().Post(context.Background(), "/domain/zone/example.com/record", map[string]any{
		"fieldType": "A",
		"target":    "203.0.113.5",
	}, &created)
	require.NoError(t, err)
	require.Equal(t, 7, created.ID)
	require.Equal(t, "203.0.113.5", created.Target)
	require.Empty(t, fake.Calls()[0].Query)
}

func TestCall_RejectsNonParamsQuery(t *testing.T) {
	fake := ovhapitest.New()
	err := fake.Client().Call(context.Background(), http.MethodGet, "/me", map[string]any{"a": 1}, nil)
	require.ErrorIs(t, err, ovhapi.ErrBadParameters)
	require.Empty(t, fake.Calls())
}

func TestCall_CategorizesErrors(t *testing.T) {
	cases := []struct {
		name    string
		code    int
		message string
		want    error
	}{
		{name: "not found", code: 404, message: "The requested object does not exist", want: ovhapi.ErrNotFound},
		{name: "bad parameters", code: 400, message: "Invalid value for fieldType", want: ovhapi.ErrBadParameters},
		{name: "invalid key", code: 403, message: "Invalid application key", want: ovhapi.ErrInvalidCredentials},
		{name: "invalid credential", code: 403, message: "This credential is not valid", want: ovhapi.ErrInvalidCredentials},
		{name: "invalid signature", code: 400, message: "Invalid signature", want: ovhapi.ErrBadParameters},
		{name: "not granted", code: 403, message: "This call has not been granted", want: ovhapi.ErrPermissionDenied},
		{name: "unauthorized", code: 401, message: "You must login first", want: ovhapi.ErrPermissionDenied},
		{name: "server error", code: 500, message: "Internal server error", want: ovhapi.ErrAPI},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := ovhapitest.New()
			fake.RespondError(http.MethodGet, "/dedicated/server/ns1", tc.code, tc.message)

			err := fake.Client().Get(context.Background(), "/dedicated/server/ns1", nil, nil)
			require.ErrorIs(t, err, tc.want)
			require.ErrorContains(t, err, "GET [fake] /dedicated/server/ns1")
			require.ErrorContains(t, err, tc.message)
		})
	}
}

func TestCall_TransportErrorIsAPIError(t *testing.T) {
	fake := ovhapitest.New()
	fake.Handle(http.MethodGet, "/me", func(ovhapitest.Call) (any, error) {
		return nil, errors.New("connection reset by peer")
	})

	err := fake.Client().Get(context.Background(), "/me", nil, nil)
	require.ErrorIs(t, err, ovhapi.ErrAPI)
	require.ErrorContains(t, err, "connection reset by peer")
}

func TestCall_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ovhapitest.New().Client().Get(ctx, "/me", nil, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLookup(t *testing.T) {
	type reverse struct {
		Reverse string `json:"reverse"`
	}

	fake := ovhapitest.New()
	fake.Respond(http.MethodGet, "/ip/1.2.3.4/reverse/1.2.3.4", reverse{Reverse: "host.example.com."})
	fake.RespondError(http.MethodGet, "/ip/1.2.3.5/reverse/1.2.3.5", 403, "This call has not been granted")
	client := fake.Client()
	ctx := context.Background()

	found, err := ovhapi.Lookup[reverse](ctx, client, "/ip/1.2.3.4/reverse/1.2.3.4", nil)
	require.NoError(t, err)
	require.True(t, found.Found)
	require.Equal(t, "host.example.com.", found.Value.Reverse)

	absent, err := ovhapi.Lookup[reverse](ctx, client, "/ip/1.2.3.6/reverse/1.2.3.6", nil)
	require.NoError(t, err)
	require.False(t, absent.Found)

	_, err = ovhapi.Lookup[reverse](ctx, client, "/ip/1.2.3.5/reverse/1.2.3.5", nil)
	require.ErrorIs(t, err, ovhapi.ErrPermissionDenied)
}

func TestPath_EscapesSegments(t *testing.T) {
	require.Equal(t, "/ip/1.2.3.0%2F24/reverse/1.2.3.4", ovhapi.Path("/ip/%s/reverse/%s", "1.2.3.0/24", "1.2.3.4"))
	require.Equal(t, "/me/installationTemplate/my%20template", ovhapi.Path("/me/installationTemplate/%s", "my template"))
}

func TestContext(t *testing.T) {
	_, err := ovhapi.FromContext(context.Background())
	require.ErrorIs(t, err, ovhapi.ErrConfiguration)

	client := ovhapitest.New().Client()
	got, err := ovhapi.FromContext(ovhapi.NewContext(context.Background(), client))
	require.NoError(t, err)
	require.Same(t, client, got)
}

func TestNew_PartialCredentials(t *testing.T) {
	_, err := ovhapi.New(ovhapi.Credentials{Endpoint: "ovh-eu", ApplicationKey: "ak"}, nil)
	require.ErrorIs(t, err, ovhapi.ErrConfiguration)
}

func TestNew_ExplicitCredentials(t *testing.T) {
	client, err := ovhapi.New(ovhapi.Credentials{
		Endpoint:          "ovh-eu",
		ApplicationKey:    "ak",
		ApplicationSecret: "as",
		ConsumerKey:       "ck",
	}, nil)
	require.NoError(t, err)
	require.Equal(t, "ovh-eu", client.Endpoint())
}

func TestCall_LogsFailures(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := logger.New(logger.Options{Level: "info", Writer: buf})
	require.NoError(t, err)

	fake := ovhapitest.New()
	fake.RespondError(http.MethodPost, "/dedicated/server/ns1/reboot", http.StatusForbidden, "This call has not been granted")
	client := ovhapi.NewWithCaller(fake, "ovh-eu", log)

	require.Error(t, client.Post(context.Background(), "/dedicated/server/ns1/reboot", nil, nil))
	require.ErrorIs(t, client.Get(context.Background(), "/dedicated/server/ns2", nil, nil), ovhapi.ErrNotFound)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "not found is logged at debug level")
	require.Contains(t, lines[0], "ovh api call failed")
	require.Contains(t, lines[0], "/dedicated/server/ns1/reboot")
	require.Contains(t, lines[0], `"duration"`)
}
