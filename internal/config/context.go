package config

import (
	"context"
	"path/filepath"
)

type dirKey struct{}

// WithDir returns ctx carrying the directory that relative file paths in
// step parameters resolve against.
func WithDir(ctx context.Context, dir string) context.Context {
	if dir == "" {
		return ctx
	}
	return context.WithValue(ctx, dirKey{}, dir)
}

// ResolvePath joins a relative path to the directory carried by ctx. Absolute
// paths, and any path when ctx carries no directory, are returned unchanged.
func ResolvePath(ctx context.Context, path string) string {
	dir, ok := ctx.Value(dirKey{}).(string)
	if !ok || path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
