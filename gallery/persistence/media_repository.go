package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dfryer1193/savergallery/gallery/domain"
	"github.com/dfryer1193/savergallery/shared/db"
	"github.com/google/uuid"
)

var _ domain.MediaIndex = (*SQLiteMediaRepository)(nil)

// ErrEntryNotFound is returned when no index row has the requested id.
var ErrEntryNotFound = errors.New("media entry not found")

// maxRenameAttempts bounds the "name (n).ext" probing done on display name collisions.
const maxRenameAttempts = 100

// SQLiteMediaRepository implements domain.MediaIndex on the media table.
// Every method runs on the transaction carried by ctx when there is one.
type SQLiteMediaRepository struct {
	db *sql.DB
}

// NewMediaRepository creates a new SQLiteMediaRepository from a standard sql.DB
func NewMediaRepository(sqlDB *sql.DB) *SQLiteMediaRepository {
	return &SQLiteMediaRepository{
		db: sqlDB,
	}
}

const existsQuery = `
	SELECT id
	FROM media
	WHERE instr(relative_path, ?) > 0
		AND display_name = ?
		AND is_pending = 0
	ORDER BY display_name ASC
	LIMIT 1
`

// Exists matches relativePath as a case-sensitive substring of the stored path.
func (r *SQLiteMediaRepository) Exists(ctx context.Context, relativePath, displayName string) (bool, error) {
	var id string
	err := db.GetExecutor(ctx, r.db).QueryRowContext(ctx, existsQuery, relativePath, displayName).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query media entry: %w", err)
	}
	return true, nil
}

const insertMediaQuery = `
	INSERT INTO media (id, display_name, relative_path, mime_type, collection, data_path, size, is_pending, date_added)
	VALUES (?, ?, ?, ?, ?, ?, 0, 1, ?)
`

// Insert adds a pending entry. A display name already taken in the same relative
// path is retried as "name (1).ext", "name (2).ext" and so on.
func (r *SQLiteMediaRepository) Insert(ctx context.Context, e *domain.NewEntry, dataPathFor func(displayName string) string) (*domain.MediaEntry, error) {
	if e == nil {
		return nil, fmt.Errorf("media entry cannot be nil")
	}
	if e.DisplayName == "" {
		return nil, fmt.Errorf("display name cannot be empty")
	}

	executor := db.GetExecutor(ctx, r.db)
	now := time.Now().UTC()

	for attempt := 0; attempt < maxRenameAttempts; attempt++ {
		entry := &domain.MediaEntry{
			ID:           uuid.NewString(),
			DisplayName:  numberedName(e.DisplayName, attempt),
			RelativePath: e.RelativePath,
			MimeType:     e.MimeType,
			Collection:   e.Collection,
			Pending:      true,
			DateAdded:    now,
		}
		entry.DataPath = dataPathFor(entry.DisplayName)

		_, err := executor.ExecContext(ctx, insertMediaQuery,
			entry.ID,
			entry.DisplayName,
			entry.RelativePath,
			nullString(entry.MimeType),
			entry.Collection.String(),
			entry.DataPath,
			entry.DateAdded,
		)
		if err == nil {
			return entry, nil
		}
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("failed to insert media entry: %w", err)
		}
	}

	return nil, fmt.Errorf("no free display name for %q in %q", e.DisplayName, e.RelativePath)
}

const publishMediaQuery = `
	UPDATE media
	SET is_pending = 0, size = ?, date_modified = ?
	WHERE id = ?
`

func (r *SQLiteMediaRepository) Publish(ctx context.Context, id string, size int64) error {
	res, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, publishMediaQuery, size, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to publish media entry: %w", err)
	}
	return requireRow(res, id)
}

const upsertMediaQuery = `
	INSERT INTO media (id, display_name, relative_path, mime_type, collection, data_path, size, is_pending, date_added, date_modified)
	VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	ON CONFLICT(data_path) DO UPDATE SET
		mime_type = excluded.mime_type,
		collection = excluded.collection,
		size = excluded.size,
		is_pending = 0,
		date_modified = excluded.date_modified
`

// Upsert records a scanned file keyed by its data path, refreshing an existing row.
func (r *SQLiteMediaRepository) Upsert(ctx context.Context, e *domain.MediaEntry) error {
	if e == nil {
		return fmt.Errorf("media entry cannot be nil")
	}
	if e.DataPath == "" {
		return fmt.Errorf("media data path cannot be empty")
	}

	id := e.ID
	if id == "" {
		id = uuid.NewString()
	}

	now := time.Now().UTC()
	dateAdded := e.DateAdded
	if dateAdded.IsZero() {
		dateAdded = now
	}
	dateModified := e.DateModified
	if dateModified.IsZero() {
		dateModified = now
	}

	_, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, upsertMediaQuery,
		id,
		e.DisplayName,
		e.RelativePath,
		nullString(e.MimeType),
		e.Collection.String(),
		e.DataPath,
		e.Size,
		dateAdded,
		dateModified,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert media entry: %w", err)
	}
	return nil
}

const getMediaQuery = `
	SELECT id, display_name, relative_path, mime_type, collection, data_path, size, is_pending, date_added, date_modified
	FROM media
	WHERE id = ?
`

// Get retrieves a single entry, pending or not.
func (r *SQLiteMediaRepository) Get(ctx context.Context, id string) (*domain.MediaEntry, error) {
	if id == "" {
		return nil, fmt.Errorf("media id cannot be empty")
	}

	var row mediaRow
	err := row.scan(db.GetExecutor(ctx, r.db).QueryRowContext(ctx, getMediaQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get media entry: %w", err)
	}

	return row.toDomain(), nil
}

const deleteMediaQuery = `
	DELETE FROM media WHERE id = ?
`

func (r *SQLiteMediaRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("media id cannot be empty")
	}

	_, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, deleteMediaQuery, id)
	if err != nil {
		return fmt.Errorf("failed to delete media entry: %w", err)
	}
	return nil
}

const listMediaQuery = `
	SELECT id, display_name, relative_path, mime_type, collection, data_path, size, is_pending, date_added, date_modified
	FROM media
	WHERE is_pending = 0
		AND instr(relative_path, ?) > 0
	ORDER BY date_modified DESC, display_name ASC
	LIMIT ? OFFSET ?
`

// List returns published entries whose relative path contains relativePath, newest first.
func (r *SQLiteMediaRepository) List(ctx context.Context, relativePath string, limit int, offset int) ([]*domain.MediaEntry, error) {
	rows, err := db.GetExecutor(ctx, r.db).QueryContext(ctx, listMediaQuery, relativePath, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list media entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.MediaEntry
	for rows.Next() {
		var row mediaRow
		if err := row.scan(rows); err != nil {
			return nil, fmt.Errorf("failed to scan media entry: %w", err)
		}
		entries = append(entries, row.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating media entries: %w", err)
	}

	return entries, nil
}

// mediaRow is a private struct used to scan database rows
type mediaRow struct {
	ID           string         `db:"id"`
	DisplayName  string         `db:"display_name"`
	RelativePath string         `db:"relative_path"`
	MimeType     sql.NullString `db:"mime_type"`
	Collection   string         `db:"collection"`
	DataPath     string         `db:"data_path"`
	Size         int64          `db:"size"`
	Pending      bool           `db:"is_pending"`
	DateAdded    sql.NullTime   `db:"date_added"`
	DateModified sql.NullTime   `db:"date_modified"`
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (mr *mediaRow) scan(s rowScanner) error {
	return s.Scan(
		&mr.ID,
		&mr.DisplayName,
		&mr.RelativePath,
		&mr.MimeType,
		&mr.Collection,
		&mr.DataPath,
		&mr.Size,
		&mr.Pending,
		&mr.DateAdded,
		&mr.DateModified,
	)
}

// toDomain converts a mediaRow to a domain.MediaEntry, handling nullable columns
func (mr *mediaRow) toDomain() *domain.MediaEntry {
	e := &domain.MediaEntry{
		ID:           mr.ID,
		DisplayName:  mr.DisplayName,
		RelativePath: mr.RelativePath,
		Collection:   domain.ParseCollectionKind(mr.Collection),
		DataPath:     mr.DataPath,
		Size:         mr.Size,
		Pending:      mr.Pending,
	}

	if mr.MimeType.Valid {
		e.MimeType = mr.MimeType.String
	}
	if mr.DateAdded.Valid {
		e.DateAdded = mr.DateAdded.Time
	}
	if mr.DateModified.Valid {
		e.DateModified = mr.DateModified.Time
	}

	return e
}

// numberedName returns name for n == 0 and "base (n).ext" otherwise.
func numberedName(name string, n int) string {
	if n == 0 {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), n, ext)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	return nil
}
