package persistence

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dfryer1193/savergallery/gallery/domain"
	"github.com/google/uuid"
)

var _ domain.MediaStore = (*LegacyStore)(nil)

// LegacyStore writes into a public directory tree. Nothing indexes those
// files on its own, so every completed write is handed to the scanner.
type LegacyStore struct {
	root    string
	scanner domain.Scanner
}

func NewLegacyStore(root string, scanner domain.Scanner) (*LegacyStore, error) {
	absRoot, err := prepareRoot(root)
	if err != nil {
		return nil, err
	}

	return &LegacyStore{
		root:    absRoot,
		scanner: scanner,
	}, nil
}

func (s *LegacyStore) Name() string {
	return "legacy"
}

// Root is the public storage root files are written under.
func (s *LegacyStore) Root() string {
	return s.root
}

// Exists stats <root>/<relativePath>/<displayName>.
func (s *LegacyStore) Exists(_ context.Context, relativePath, displayName string) (bool, error) {
	if err := validateDisplayName(displayName); err != nil {
		return false, err
	}
	rel, err := normalizeRelativePath(relativePath)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(joinUnder(s.root, rel, displayName))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", displayName, err)
}

// CreateDestination creates the target directory, parents included. Bytes are staged
// in a hidden temp file next to the target; the target itself is only replaced when
// NotifyIndexer commits the write.
func (s *LegacyStore) CreateDestination(_ context.Context, req *domain.DestinationRequest) (*domain.MediaDestination, error) {
	if err := validateDisplayName(req.DisplayName); err != nil {
		return nil, err
	}
	rel, err := normalizeRelativePath(req.RelativePath)
	if err != nil {
		return nil, err
	}

	dir := joinUnder(s.root, rel, "")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	path := joinUnder(s.root, rel, req.DisplayName)
	return &domain.MediaDestination{
		Kind:         req.Kind,
		DisplayName:  req.DisplayName,
		RelativePath: rel,
		MimeType:     req.MimeType,
		URI:          "file://" + path,
		Handle:       joinUnder(s.root, rel, stagingName(req.DisplayName)),
	}, nil
}

func (s *LegacyStore) OpenWriter(_ context.Context, dest *domain.MediaDestination) (io.WriteCloser, error) {
	f, err := os.OpenFile(dest.Handle, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dest.Handle, err)
	}
	return f, nil
}

// NotifyIndexer moves the staged file over the target and asks the scanner to pick
// it up.
func (s *LegacyStore) NotifyIndexer(ctx context.Context, dest *domain.MediaDestination) error {
	target := s.targetPath(dest)
	if err := os.Rename(dest.Handle, target); err != nil {
		return fmt.Errorf("rename to %s: %w", target, err)
	}

	if s.scanner == nil {
		return nil
	}
	return s.scanner.ScanFile(ctx, target, dest.MimeType)
}

// Discard removes the staged file. A target already in place is never touched.
func (s *LegacyStore) Discard(_ context.Context, dest *domain.MediaDestination) error {
	if err := os.Remove(dest.Handle); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", dest.Handle, err)
	}
	return nil
}

func (s *LegacyStore) targetPath(dest *domain.MediaDestination) string {
	return joinUnder(s.root, dest.RelativePath, dest.DisplayName)
}

// stagingName is hidden and unique per save so concurrent writers never share it.
func stagingName(displayName string) string {
	return "." + displayName + "." + uuid.NewString() + ".tmp"
}
