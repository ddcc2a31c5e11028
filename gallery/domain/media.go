package domain

import (
	"context"
	"strings"
	"time"
)

// CollectionKind is the logical media collection an entry is filed under.
type CollectionKind int

const (
	CollectionGeneric CollectionKind = iota
	CollectionImage
	CollectionVideo
	CollectionAudio
)

func (k CollectionKind) String() string {
	switch k {
	case CollectionImage:
		return "images"
	case CollectionVideo:
		return "video"
	case CollectionAudio:
		return "audio"
	default:
		return "downloads"
	}
}

// ParseCollectionKind is the inverse of CollectionKind.String. Unknown names map to
// CollectionGeneric.
func ParseCollectionKind(s string) CollectionKind {
	switch s {
	case "images":
		return CollectionImage
	case "video":
		return CollectionVideo
	case "audio":
		return CollectionAudio
	default:
		return CollectionGeneric
	}
}

// CollectionForMimeType files video/ and audio/ types under their collections,
// image/ under images and everything else, including "", under downloads.
func CollectionForMimeType(mimeType string) CollectionKind {
	switch {
	case strings.HasPrefix(mimeType, "video/"):
		return CollectionVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return CollectionAudio
	case strings.HasPrefix(mimeType, "image/"):
		return CollectionImage
	default:
		return CollectionGeneric
	}
}

// MediaDestination is where a single save lands. It is created by a MediaStore and
// owned by the saver for the duration of one request.
type MediaDestination struct {
	Kind         CollectionKind
	DisplayName  string
	RelativePath string
	MimeType     string

	// URI identifies the destination to callers, e.g. content://... or file://...
	URI string

	// Handle is the store-specific location backing the destination (an entry id for
	// the managed store, the staging file path for the legacy store).
	Handle string
}

// MediaEntry is a row of the media index as seen by gallery consumers.
type MediaEntry struct {
	ID           string
	DisplayName  string
	RelativePath string
	MimeType     string
	Collection   CollectionKind
	DataPath     string
	Size         int64
	Pending      bool
	DateAdded    time.Time
	DateModified time.Time
}

// NewEntry carries what is needed to insert a pending entry into the index.
type NewEntry struct {
	DisplayName  string
	RelativePath string
	MimeType     string
	Collection   CollectionKind
}

// MediaIndex is the managed store's query/insert surface.
type MediaIndex interface {
	// Exists reports whether a published entry named displayName lives under a relative
	// path containing relativePath.
	Exists(ctx context.Context, relativePath, displayName string) (bool, error)

	// Insert creates a pending entry. The stored display name may differ from the one
	// requested when it collides with an existing entry.
	Insert(ctx context.Context, e *NewEntry, dataPathFor func(displayName string) string) (*MediaEntry, error)

	// Publish clears the pending flag and records the final size.
	Publish(ctx context.Context, id string, size int64) error

	// Upsert records an entry discovered by a scan, keyed by its data path.
	Upsert(ctx context.Context, e *MediaEntry) error

	Get(ctx context.Context, id string) (*MediaEntry, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, relativePath string, limit int, offset int) ([]*MediaEntry, error)
}
