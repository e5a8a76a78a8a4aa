package ovhapi

import (
	"context"
	"errors"
)

// Observed is the result of reading a single resource.
type Observed[T any] struct {
	Found bool
	Value T
}

// Lookup GETs path. A 404 yields Observed{Found: false}; any other error is returned.
func Lookup[T any](ctx context.Context, c *Client, path string, params Params) (Observed[T], error) {
	var value T
	if err := c.Get(ctx, path, params, &value); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Observed[T]{}, nil
		}
		return Observed[T]{}, err
	}
	return Observed[T]{Found: true, Value: value}, nil
}
