package ovhapi

import (
	"context"
	"fmt"
)

type clientKey struct{}

// NewContext returns a context carrying c.
func NewContext(ctx context.Context, c *Client) context.Context {
	return context.WithValue(ctx, clientKey{}, c)
}

// FromContext returns the client carried by ctx, or ErrConfiguration.
func FromContext(ctx context.Context) (*Client, error) {
	c, ok := ctx.Value(clientKey{}).(*Client)
	if !ok || c == nil {
		return nil, fmt.Errorf("%w: no api client in context", ErrConfiguration)
	}
	return c, nil
}
