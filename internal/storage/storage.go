// Package storage contains the working-directory abstraction used to stage uploads
// and conversion artifacts. Keys are slash-separated paths relative to the root,
// the first segment being the workspace (document) id.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrObjectNotFound is returned by Get when no object exists under the key.
	ErrObjectNotFound = errors.New("object not found")
	// ErrInvalidKey is returned for empty, absolute or root-escaping keys.
	ErrInvalidKey = errors.New("invalid object key")
)

// PutObjectOptions define optional parameters for storing objects.
// Size is informational; -1 means unknown. ContentType is inferred from the
// key extension when empty.
type PutObjectOptions struct {
	Size        int64
	ContentType string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Storage is the working directory shared by the upload handler, the converters
// and the download responder.
type Storage interface {
	// Put stores the reader's content under key, replacing any existing object.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object, or a whole subtree when key names a directory.
	Delete(ctx context.Context, key string) error
	// Path returns the filesystem path for key, creating its parent directory.
	// External converters read and write through these paths.
	Path(key string) (string, error)
}

// Probe verifies that s accepts writes by storing and removing a marker object.
// Markers live at the root, outside any workspace.
func Probe(ctx context.Context, s Storage) error {
	key := ".probe-" + uuid.NewString()
	if _, err := s.Put(ctx, key, strings.NewReader("ok"), PutObjectOptions{Size: 2}); err != nil {
		return fmt.Errorf("work dir not writable: %w", err)
	}
	return s.Delete(ctx, key)
}
