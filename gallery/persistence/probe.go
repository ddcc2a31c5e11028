package persistence

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/dfryer1193/savergallery/gallery/domain"
	"github.com/rs/zerolog/log"
)

// Mode selects the storage strategy.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeScoped Mode = "scoped"
	ModeLegacy Mode = "legacy"
)

// ScopedStorageAPILevel is the first platform API level with managed media storage.
const ScopedStorageAPILevel = 29

// SelectMode resolves the configured mode. Auto picks scoped storage when the
// platform API level supports it.
func SelectMode(mode string, apiLevel int) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(mode))) {
	case ModeScoped:
		return ModeScoped, nil
	case ModeLegacy:
		return ModeLegacy, nil
	case ModeAuto, "":
		if apiLevel >= ScopedStorageAPILevel {
			return ModeScoped, nil
		}
		return ModeLegacy, nil
	default:
		return "", fmt.Errorf("unknown storage mode %q", mode)
	}
}

// NewMediaStore builds the store for mode. Both strategies share the media index
// in sqlDB: the scoped store writes through it, the legacy store feeds it via the
// scanner.
func NewMediaStore(mode Mode, root string, sqlDB *sql.DB) (domain.MediaStore, error) {
	var (
		store domain.MediaStore
		err   error
	)

	switch mode {
	case ModeScoped:
		store, err = NewScopedStore(root, sqlDB)
	case ModeLegacy:
		var scanner *MediaScanner
		scanner, err = NewMediaScanner(root, NewMediaRepository(sqlDB))
		if err == nil {
			store, err = NewLegacyStore(root, scanner)
		}
	default:
		err = fmt.Errorf("unsupported storage mode %q", mode)
	}
	if err != nil {
		return nil, err
	}

	log.Info().Str("mode", string(mode)).Str("root", root).Msg("Media store ready")
	return store, nil
}
