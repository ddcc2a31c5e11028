package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dfryer1193/savergallery/gallery/domain"
	"github.com/dfryer1193/savergallery/shared/db"
)

var _ domain.MediaStore = (*ScopedStore)(nil)

// ScopedStore is managed media storage: callers never touch paths, they insert
// entries into the media index and write through the handle they get back. Blobs
// live under root, laid out by relative path.
type ScopedStore struct {
	root  string
	db    *sql.DB
	index *SQLiteMediaRepository
}

// NewScopedStore creates the store rooted at root, creating the directory if needed.
func NewScopedStore(root string, sqlDB *sql.DB) (*ScopedStore, error) {
	absRoot, err := prepareRoot(root)
	if err != nil {
		return nil, err
	}

	return &ScopedStore{
		root:  absRoot,
		db:    sqlDB,
		index: NewMediaRepository(sqlDB),
	}, nil
}

func (s *ScopedStore) Name() string {
	return "scoped"
}

// Index exposes the media index backing the store.
func (s *ScopedStore) Index() domain.MediaIndex {
	return s.index
}

func (s *ScopedStore) Exists(ctx context.Context, relativePath, displayName string) (bool, error) {
	return s.index.Exists(ctx, relativePath, displayName)
}

// CreateDestination inserts a pending entry. The entry stays invisible to Exists
// and List until NotifyIndexer publishes it.
func (s *ScopedStore) CreateDestination(ctx context.Context, req *domain.DestinationRequest) (*domain.MediaDestination, error) {
	if err := validateDisplayName(req.DisplayName); err != nil {
		return nil, err
	}
	rel, err := normalizeRelativePath(req.RelativePath)
	if err != nil {
		return nil, err
	}

	entry, err := s.index.Insert(ctx, &domain.NewEntry{
		DisplayName:  req.DisplayName,
		RelativePath: rel,
		MimeType:     req.MimeType,
		Collection:   req.Kind,
	}, func(displayName string) string {
		return joinUnder(s.root, rel, displayName)
	})
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(entry.DataPath), 0755); err != nil {
		if delErr := s.index.Delete(ctx, entry.ID); delErr != nil {
			return nil, fmt.Errorf("failed to create media directory: %w (cleanup: %v)", err, delErr)
		}
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}

	return &domain.MediaDestination{
		Kind:         req.Kind,
		DisplayName:  entry.DisplayName,
		RelativePath: rel,
		MimeType:     req.MimeType,
		URI:          contentURI(req.Kind, entry.ID),
		Handle:       entry.ID,
	}, nil
}

func (s *ScopedStore) OpenWriter(ctx context.Context, dest *domain.MediaDestination) (io.WriteCloser, error) {
	entry, err := s.index.Get(ctx, dest.Handle)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(entry.DataPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open media file: %w", err)
	}
	return f, nil
}

// NotifyIndexer publishes the entry with its final size.
func (s *ScopedStore) NotifyIndexer(ctx context.Context, dest *domain.MediaDestination) error {
	entry, err := s.index.Get(ctx, dest.Handle)
	if err != nil {
		return err
	}

	info, err := os.Stat(entry.DataPath)
	if err != nil {
		return fmt.Errorf("failed to stat media file: %w", err)
	}

	return s.index.Publish(ctx, entry.ID, info.Size())
}

// Discard removes the index row and its blob within one transaction.
func (s *ScopedStore) Discard(ctx context.Context, dest *domain.MediaDestination) error {
	return db.RunInTransaction(ctx, s.db, func(txCtx context.Context) error {
		entry, err := s.index.Get(txCtx, dest.Handle)
		if err != nil {
			return err
		}

		if err := s.index.Delete(txCtx, entry.ID); err != nil {
			return err
		}

		if err := os.Remove(entry.DataPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove media file: %w", err)
		}

		return nil
	})
}

// contentURI builds the URI handed back for a managed entry.
func contentURI(kind domain.CollectionKind, id string) string {
	return fmt.Sprintf("content://media/external/%s/media/%s", kind, id)
}

func prepareRoot(root string) (string, error) {
	if root == "" {
		return "", fmt.Errorf("storage root cannot be empty")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", fmt.Errorf("create storage root %q: %w", root, err)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve storage root: %w", err)
	}
	return absRoot, nil
}
