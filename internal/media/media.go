package media

import (
	"context"
	"time"
)

// PublicPrefix is prepended to object keys to form the paths recorded on
// message rows, e.g. /p/storage/images/<id>.jpg
const PublicPrefix = "/p/storage/"

// Store saves media blobs extracted from inbound messages
type Store interface {
	// Save writes the object and returns the public path recorded in the database
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// PresignedURL returns a temporary download URL for an object
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
