package reconcile

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/ovhkit/internal/model"
	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi"
	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi/ovhapitest"
)

func TestParseState(t *testing.T) {
	s, err := ParseState("", Present)
	require.NoError(t, err)
	require.Equal(t, Present, s)

	s, err = ParseState("absent", Present)
	require.NoError(t, err)
	require.Equal(t, Absent, s)

	_, err = ParseState("modified", Present)
	require.Error(t, err)

	s, err = ParseState("modified", Present, Present, Absent, Modified)
	require.NoError(t, err)
	require.Equal(t, Modified, s)
}

func TestRequireUnique(t *testing.T) {
	require.NoError(t, RequireUnique("www.example.com A", []int{}))
	require.NoError(t, RequireUnique("www.example.com A", []int{1}))

	err := RequireUnique("www.example.com A", []int{1, 2})
	var ambiguous *AmbiguousError
	require.ErrorAs(t, err, &ambiguous)
	require.Equal(t, 2, ambiguous.Count)
	require.Contains(t, err.Error(), "www.example.com A")
}

func TestFieldDiff(t *testing.T) {
	observed := map[string]any{"target": "203.0.113.1", "ttl": float64(3600), "subDomain": "www"}

	require.Empty(t, FieldDiff(observed, map[string]any{"target": "203.0.113.1", "ttl": 3600}))
	require.Equal(t,
		map[string]any{"ttl": 60},
		FieldDiff(observed, map[string]any{"target": "203.0.113.1", "ttl": 60}),
	)
	require.Equal(t,
		map[string]any{"zone": "example.com"},
		FieldDiff(observed, map[string]any{"zone": "example.com"}),
	)
}

func TestSetDiff(t *testing.T) {
	cases := []struct {
		name       string
		observed   []string
		desired    []string
		appendOnly bool
		create     []string
		remove     []string
	}{
		{name: "converged", observed: []string{"a", "b"}, desired: []string{"b", "a"}},
		{name: "create missing", observed: []string{"a"}, desired: []string{"a", "b", "c"}, create: []string{"b", "c"}},
		{name: "replace", observed: []string{"a", "x"}, desired: []string{"a", "b"}, create: []string{"b"}, remove: []string{"x"}},
		{name: "append keeps extras", observed: []string{"a", "x"}, desired: []string{"b"}, appendOnly: true, create: []string{"b"}},
		{name: "duplicates collapse", observed: []string{"x", "x"}, desired: []string{"b", "b"}, create: []string{"b"}, remove: []string{"x"}},
		{name: "empty desired removes all", observed: []string{"a", "b"}, remove: []string{"a", "b"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			create, remove := SetDiff(tc.observed, tc.desired, tc.appendOnly)
			require.Equal(t, tc.create, create)
			require.Equal(t, tc.remove, remove)
		})
	}
}

func TestRenderDiff(t *testing.T) {
	out := RenderDiff(map[string]any{"bootId": 1}, map[string]any{"bootId": 1122})
	require.Contains(t, out, "-bootId: 1")
	require.Contains(t, out, "+bootId: 1122")
	require.Empty(t, RenderDiff(map[string]any{"a": 1}, map[string]any{"a": 1}))
}

func TestPlanEvaluation(t *testing.T) {
	var empty Plan
	empty.Converged = "already set"
	eval := empty.Evaluation("boot")
	require.False(t, eval.RequiresAction)
	require.Equal(t, model.StatusSatisfied, eval.CurrentState)
	require.Equal(t, "already set", eval.Message)

	plan := &Plan{Status: model.StatusMissing}
	plan.Add(http.MethodPost, "/x", nil, "create x")
	plan.Add(http.MethodPut, "/y", nil, "update y")
	eval = plan.Evaluation("boot")
	require.True(t, eval.RequiresAction)
	require.Equal(t, model.StatusMissing, eval.CurrentState)
	require.Equal(t, "create x; update y", eval.Message)

	got, ok := PlanFrom(eval)
	require.True(t, ok)
	require.Same(t, plan, got)

	_, ok = PlanFrom(&model.EvaluationResult{})
	require.False(t, ok)
}

func TestApply_RunsCallsThenCommit(t *testing.T) {
	fake := ovhapitest.New()
	fake.Respond(http.MethodPost, "/domain/zone/example.com/record", map[string]any{"id": 1})
	fake.Respond(http.MethodPost, "/domain/zone/example.com/refresh", nil)

	plan := &Plan{}
	plan.Add(http.MethodPost, "/domain/zone/example.com/record", map[string]any{"target": "203.0.113.1"}, "create record")
	plan.AddCommit(http.MethodPost, "/domain/zone/example.com/refresh", nil, "refresh zone")

	outcome, err := Apply(context.Background(), fake.Client(), plan)
	require.NoError(t, err)
	require.True(t, outcome.Changed)
	require.Equal(t, "create record", outcome.Message)
	require.Equal(t, map[string]any{"id": float64(1)}, outcome.Data)

	calls := fake.Calls()
	require.Len(t, calls, 2)
	require.Equal(t, "POST /domain/zone/example.com/record", calls[0].Key())
	require.Equal(t, "POST /domain/zone/example.com/refresh", calls[1].Key())
}

func TestApply_EmptyPlanSkipsCommit(t *testing.T) {
	fake := ovhapitest.New()
	plan := &Plan{Converged: "nothing to do", Data: map[string]any{"id": 3}}
	plan.AddCommit(http.MethodPost, "/domain/zone/example.com/refresh", nil, "refresh zone")

	outcome, err := Apply(context.Background(), fake.Client(), plan)
	require.NoError(t, err)
	require.False(t, outcome.Changed)
	require.Equal(t, "nothing to do", outcome.Message)
	require.Empty(t, fake.Calls())
}

func TestApply_StopsAtFirstError(t *testing.T) {
	fake := ovhapitest.New()
	fake.RespondError(http.MethodPost, "/a", 400, "Invalid value")
	fake.Respond(http.MethodPost, "/b", nil)

	plan := &Plan{}
	plan.Add(http.MethodPost, "/a", nil, "a")
	plan.Add(http.MethodPost, "/b", nil, "b")

	_, err := Apply(context.Background(), fake.Client(), plan)
	require.ErrorIs(t, err, ovhapi.ErrBadParameters)
	require.Len(t, fake.Calls(), 1)
}

func TestPoller_ExactlyMaxRetryChecks(t *testing.T) {
	checks := 0
	status, err := Poller{MaxRetry: 3, Sleep: time.Millisecond}.Until(context.Background(), func(context.Context, int) (bool, string, error) {
		checks++
		return false, "doing", nil
	})

	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	require.Equal(t, 3, checks)
	require.Equal(t, "doing", status)
	require.Contains(t, err.Error(), "3 checks")
	require.Contains(t, err.Error(), "1ms")
}

func TestPoller_ResumeCountsPriorChecks(t *testing.T) {
	var attempts []int
	status, err := Poller{MaxRetry: 3}.Resume(context.Background(), 1, "init", func(_ context.Context, attempt int) (bool, string, error) {
		attempts = append(attempts, attempt)
		return false, "doing", nil
	})

	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	require.Equal(t, []int{2, 3}, attempts)
	require.Equal(t, "doing", status)
	require.Contains(t, err.Error(), "after 3 checks")

	// Nothing left to check once the budget is spent.
	status, err = Poller{MaxRetry: 1}.Resume(context.Background(), 1, "init", func(context.Context, int) (bool, string, error) {
		t.Fatal("check must not run")
		return false, "", nil
	})
	require.ErrorAs(t, err, &timeout)
	require.Equal(t, "init", status)
	require.Contains(t, err.Error(), "last status: init")
}

func TestPoller_StopsOnTerminal(t *testing.T) {
	checks := 0
	status, err := Poller{MaxRetry: 10}.Until(context.Background(), func(_ context.Context, attempt int) (bool, string, error) {
		checks++
		return attempt == 2, "done", nil
	})
	require.NoError(t, err)
	require.Equal(t, "done", status)
	require.Equal(t, 2, checks)
}

func TestPoller_CheckErrorStops(t *testing.T) {
	checks := 0
	_, err := Poller{MaxRetry: 5}.Until(context.Background(), func(context.Context, int) (bool, string, error) {
		checks++
		return false, "ovhError", context.DeadlineExceeded
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 1, checks)
}

func TestPoller_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	checks := 0
	_, err := Poller{MaxRetry: 5, Sleep: time.Hour}.Until(ctx, func(context.Context, int) (bool, string, error) {
		checks++
		cancel()
		return false, "doing", nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, checks)
}
