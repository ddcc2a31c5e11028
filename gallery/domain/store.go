package domain

import (
	"context"
	"io"
)

// MediaStore is the capability a saver strategy provides. Scoped and legacy storage
// are the two implementations; which one is used is decided once at startup.
type MediaStore interface {
	// Name identifies the strategy in logs.
	Name() string

	// Exists reports whether displayName is already present under relativePath.
	Exists(ctx context.Context, relativePath, displayName string) (bool, error)

	// CreateDestination allocates the target for a new save.
	CreateDestination(ctx context.Context, req *DestinationRequest) (*MediaDestination, error)

	// OpenWriter opens a writable sink for dest. The caller must close it.
	OpenWriter(ctx context.Context, dest *MediaDestination) (io.WriteCloser, error)

	// NotifyIndexer makes a fully written destination visible to gallery consumers.
	NotifyIndexer(ctx context.Context, dest *MediaDestination) error

	// Discard removes whatever CreateDestination left behind after a failed save.
	Discard(ctx context.Context, dest *MediaDestination) error
}

// DestinationRequest is the resolved input to MediaStore.CreateDestination.
type DestinationRequest struct {
	Kind         CollectionKind
	DisplayName  string
	RelativePath string
	MimeType     string
}

// Scanner is asked to index a file written outside the managed store.
type Scanner interface {
	ScanFile(ctx context.Context, path string, mimeType string) error
}
