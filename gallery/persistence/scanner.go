package persistence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dfryer1193/savergallery/gallery/domain"
	"github.com/rs/zerolog/log"
)

var _ domain.Scanner = (*MediaScanner)(nil)

// MediaScanner indexes files that were written directly to disk below root.
type MediaScanner struct {
	root  string
	index domain.MediaIndex
}

func NewMediaScanner(root string, index domain.MediaIndex) (*MediaScanner, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve scan root: %w", err)
	}
	return &MediaScanner{root: absRoot, index: index}, nil
}

// ScanFile records path in the index as a published entry.
func (m *MediaScanner) ScanFile(ctx context.Context, path string, mimeType string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	rel, err := filepath.Rel(m.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%s is outside the scan root %s", path, m.root)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("failed to stat scanned file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	relDir, err := normalizeRelativePath(filepath.ToSlash(filepath.Dir(rel)))
	if err != nil {
		return err
	}

	entry := &domain.MediaEntry{
		DisplayName:  filepath.Base(abs),
		RelativePath: relDir,
		MimeType:     mimeType,
		Collection:   domain.CollectionForMimeType(mimeType),
		DataPath:     abs,
		Size:         info.Size(),
		DateModified: info.ModTime().UTC(),
	}
	if err := m.index.Upsert(ctx, entry); err != nil {
		return err
	}

	log.Debug().Str("path", abs).Str("mimeType", mimeType).Msg("Scanned media file")
	return nil
}
