package media

import (
	"context"
	"io"
)

// Storage persists media objects and resolves their public URLs back to keys.
type Storage interface {
	Save(ctx context.Context, key string, r io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
	KeyForURL(url string) (string, bool)
}
