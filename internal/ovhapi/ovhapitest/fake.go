// Package ovhapitest provides an in-memory stand-in for the OVHcloud API that
// records every call.
package ovhapitest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/ovh/go-ovh/ovh"

	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi"
)

// Call is one recorded request.
type Call struct {
	Method string
	Path   string
	Query  string
	// Body is the JSON request body decoded into generic values.
	Body any
}

// Key returns "METHOD path".
func (c Call) Key() string {
	return c.Method + " " + c.Path
}

// BodyMap returns Body as a map, or nil.
func (c Call) BodyMap() map[string]any {
	m, _ := c.Body.(map[string]any)
	return m
}

// Handler computes the response of a route.
type Handler func(call Call) (any, error)

// Fake implements ovhapi.Caller.
type Fake struct {
	mu     sync.Mutex
	routes map[string]Handler
	calls  []Call
}

// New returns an empty fake. Unrouted requests answer 404.
func New() *Fake {
	return &Fake{routes: make(map[string]Handler)}
}

// Client wraps the fake in an ovhapi.Client.
func (f *Fake) Client() *ovhapi.Client {
	return ovhapi.NewWithCaller(f, "fake", nil)
}

// Context returns ctx carrying a client backed by the fake.
func (f *Fake) Context(ctx context.Context) context.Context {
	return ovhapi.NewContext(ctx, f.Client())
}

// Handle routes method and path to h. path may include a query string to
// match only that exact query.
func (f *Fake) Handle(method, path string, h Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = h
}

// Respond routes method and path to a fixed response.
func (f *Fake) Respond(method, path string, response any) {
	f.Handle(method, path, func(Call) (any, error) { return response, nil })
}

// RespondSequence answers successive calls with successive responses,
// repeating the last one once exhausted.
func (f *Fake) RespondSequence(method, path string, responses ...any) {
	var (
		mu   sync.Mutex
		next int
	)
	f.Handle(method, path, func(Call) (any, error) {
		mu.Lock()
		defer mu.Unlock()
		idx := next
		if idx >= len(responses) {
			idx = len(responses) - 1
		}
		next++
		return responses[idx], nil
	})
}

// RespondError routes method and path to an API error.
func (f *Fake) RespondError(method, path string, code int, message string) {
	f.Handle(method, path, func(Call) (any, error) { return nil, APIError(code, message) })
}

// APIError builds the error type returned by go-ovh.
func APIError(code int, message string) error {
	return &ovh.APIError{Code: code, Message: message}
}

// CallAPIWithContext records the call and dispatches it.
func (f *Fake) CallAPIWithContext(ctx context.Context, method, path string, reqBody, resType any, _ bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	route, query, _ := strings.Cut(path, "?")
	call := Call{Method: method, Path: route, Query: query}
	if reqBody != nil {
		raw, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &call.Body); err != nil {
			return err
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	h, ok := f.routes[method+" "+path]
	if !ok {
		h, ok = f.routes[method+" "+route]
	}
	f.mu.Unlock()

	if !ok {
		return APIError(http.StatusNotFound, fmt.Sprintf("The requested object (%s) does not exist", route))
	}

	response, err := h(call)
	if err != nil {
		return err
	}
	if resType == nil || response == nil {
		return nil
	}

	raw, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, resType)
}

// Calls returns every recorded call in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Mutations returns the recorded POST, PUT and DELETE calls.
func (f *Fake) Mutations() []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Method != http.MethodGet {
			out = append(out, c)
		}
	}
	return out
}

// CallsTo returns the recorded calls matching method and route.
func (f *Fake) CallsTo(method, path string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls but keeps routes.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
