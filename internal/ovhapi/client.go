// Package ovhapi wraps the OVHcloud REST client with query encoding, error
// categorization and call logging shared by every module.
package ovhapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ovh/go-ovh/ovh"

	"github.com/alexisbeaulieu97/ovhkit/internal/logger"
)

// Caller is the subset of *ovh.Client used by Client.
type Caller interface {
	CallAPIWithContext(ctx context.Context, method, path string, reqBody, resType any, needAuth bool) error
}

// Credentials selects the endpoint and application keys. Either all four
// fields are set or none, in which case ovh.conf and OVH_* variables apply.
type Credentials struct {
	Endpoint          string
	ApplicationKey    string
	ApplicationSecret string
	ConsumerKey       string
}

func (c Credentials) count() int {
	n := 0
	for _, v := range []string{c.Endpoint, c.ApplicationKey, c.ApplicationSecret, c.ConsumerKey} {
		if v != "" {
			n++
		}
	}
	return n
}

// Params are encoded in the query string for GET and DELETE.
type Params map[string]any

// Client issues authenticated calls against one API endpoint.
type Client struct {
	caller   Caller
	endpoint string
	log      *logger.Logger
}

// New builds a client from explicit credentials, or from the default
// configuration sources when creds is empty.
func New(creds Credentials, log *logger.Logger) (*Client, error) {
	var (
		c   *ovh.Client
		err error
	)

	switch creds.count() {
	case 0:
		c, err = ovh.NewDefaultClient()
	case 4:
		c, err = ovh.NewClient(creds.Endpoint, creds.ApplicationKey, creds.ApplicationSecret, creds.ConsumerKey)
	default:
		return nil, fmt.Errorf("%w: endpoint, application key, application secret and consumer key must be set together", ErrConfiguration)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	endpoint := creds.Endpoint
	if endpoint == "" {
		endpoint = "default"
	}
	return NewWithCaller(c, endpoint, log), nil
}

// NewWithCaller wraps an arbitrary Caller. Tests pass the in-memory fake.
func NewWithCaller(caller Caller, endpoint string, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{caller: caller, endpoint: endpoint, log: log}
}

// Call issues method on path. params go to the query string for GET and
// DELETE (they must then be Params) and to the JSON body otherwise. When
// out is non-nil the response is decoded into it.
func (c *Client) Call(ctx context.Context, method, path string, params, out any) error {
	target := path
	var body any

	switch method {
	case http.MethodGet, http.MethodDelete:
		if params != nil {
			query, ok := params.(Params)
			if !ok {
				return fmt.Errorf("%w: %s %s: query parameters must be ovhapi.Params, got %T", ErrBadParameters, method, path, params)
			}
			if encoded := encodeQuery(query); encoded != "" {
				target = path + "?" + encoded
			}
		}
	default:
		body = params
	}

	log := c.log.WithFields(map[string]any{
		"method":   method,
		"path":     target,
		"endpoint": c.endpoint,
	})
	started := time.Now()

	if err := c.caller.CallAPIWithContext(ctx, method, target, body, out, true); err != nil {
		err = categorize(method, c.endpoint, target, err)
		log = log.With("duration", time.Since(started).String())
		if errors.Is(err, ErrNotFound) {
			log.Debug("ovh api call: not found")
		} else {
			log.Error(err, "ovh api call failed")
		}
		return err
	}
	log.With("duration", time.Since(started).String()).Debug("ovh api call")
	return nil
}

// Get reads path into out.
func (c *Client) Get(ctx context.Context, path string, params Params, out any) error {
	if params == nil {
		return c.Call(ctx, http.MethodGet, path, nil, out)
	}
	return c.Call(ctx, http.MethodGet, path, params, out)
}

// Post sends body to path.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Call(ctx, http.MethodPost, path, body, out)
}

// Put sends body to path.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Call(ctx, http.MethodPut, path, body, out)
}

// Delete removes path.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Call(ctx, http.MethodDelete, path, nil, out)
}

// Endpoint returns the configured endpoint name.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Path formats an API path, escaping every user supplied segment.
// Path("/ip/%s/reverse", "1.2.3.0/24") yields "/ip/1.2.3.0%2F24/reverse".
func Path(format string, segments ...string) string {
	escaped := make([]any, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return fmt.Sprintf(format, escaped...)
}

func encodeQuery(params Params) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == nil {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(formatValue(params[k])))
	}
	return strings.Join(parts, "&")
}

func formatValue(v any) string {
	switch val := v.(type) {
	case bool:
		return strconv.FormatBool(val)
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

func categorize(method, endpoint, path string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s [%s] %s: %w", method, endpoint, path, err)
	}

	var apiErr *ovh.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s [%s] %s: %w", ErrAPI, method, endpoint, path, err)
	}

	kind := ErrAPI
	switch apiErr.Code {
	case http.StatusNotFound:
		kind = ErrNotFound
	case http.StatusBadRequest:
		kind = ErrBadParameters
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = ErrPermissionDenied
		if isCredentialFailure(apiErr) {
			kind = ErrInvalidCredentials
		}
	}

	return fmt.Errorf("%w: %s [%s] %s: %w", kind, method, endpoint, path, err)
}

var credentialMarkers = []string{
	"invalid key",
	"invalid application key",
	"invalid credential",
	"this credential is not valid",
	"invalid signature",
	"not_credential",
	"invalid_credential",
	"invalid_key",
	"invalid_signature",
}

func isCredentialFailure(apiErr *ovh.APIError) bool {
	text := strings.ToLower(apiErr.Message + " " + apiErr.Class)
	for _, marker := range credentialMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
