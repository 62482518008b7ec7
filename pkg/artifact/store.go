package artifact

import "context"

// Store persists rendered report files and returns the URL clients
// download them from.
type Store interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}
