package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Store errors
var (
	// ErrObjectNotFound is returned when the referenced object does not
	// exist or has expired.
	ErrObjectNotFound = errors.New("object not found")
)

// Object is a stored image together with the metadata the API validates.
type Object struct {
	Key         string
	ContentType string
	Data        []byte
}

// ObjectStore is the persistence boundary for uploaded meal photos. Only the
// contract matters here; the backing technology is an implementation detail.
type ObjectStore interface {
	// Put stores data under key, overwriting any previous object.
	Put(ctx context.Context, key, contentType string, data []byte) error

	// Get retrieves the object stored under key.
	// Returns ErrObjectNotFound if no object exists.
	Get(ctx context.Context, key string) (*Object, error)
}

// UploadKind labels whether a photo was taken before or after eating. It
// only affects key namespacing, never limits.
type UploadKind string

const (
	UploadKindBefore UploadKind = "before"
	UploadKindAfter  UploadKind = "after"
)

// IsValid reports whether the kind is one of the known values.
func (k UploadKind) IsValid() bool {
	return k == UploadKindBefore || k == UploadKindAfter
}

// NewKey mints a fresh storage key for one upload. The key embeds the owning
// user's ID, which is what the ownership check on later verification calls
// inspects, and a random UUID so identical bytes uploaded twice still get
// distinct keys.
func NewKey(userID uuid.UUID, kind UploadKind) string {
	return fmt.Sprintf("meals/%s/%s/%s.jpg", userID, kind, uuid.New())
}

// KeyBelongsTo reports whether the storage key is namespaced under the given
// user.
func KeyBelongsTo(key string, userID uuid.UUID) bool {
	return len(key) > 6 && key[:6] == "meals/" &&
		len(key) >= 6+36 && key[6:6+36] == userID.String()
}
