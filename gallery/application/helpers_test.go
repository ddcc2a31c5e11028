package application

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/dfryer1193/savergallery/gallery/domain"
	"github.com/dfryer1193/savergallery/gallery/persistence"
	"github.com/dfryer1193/savergallery/shared/db/sqlite"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for x := 0; x < 8; x++ {
		for y := 0; y < 6; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 40), B: 200, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage()); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func gifBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := gif.Encode(&buf, testImage(), nil); err != nil {
		t.Fatalf("gif.Encode() error = %v", err)
	}
	return buf.Bytes()
}

// spyStore counts calls into the wrapped store and can inject failures.
type spyStore struct {
	domain.MediaStore

	exists   atomic.Int32
	creates  atomic.Int32
	writes   atomic.Int32
	notifies atomic.Int32
	discards atomic.Int32

	createErr error
	openErr   error
	notifyErr error
	onCreate  func()
}

func (s *spyStore) Exists(ctx context.Context, relativePath, displayName string) (bool, error) {
	s.exists.Add(1)
	return s.MediaStore.Exists(ctx, relativePath, displayName)
}

func (s *spyStore) CreateDestination(ctx context.Context, req *domain.DestinationRequest) (*domain.MediaDestination, error) {
	s.creates.Add(1)
	if s.onCreate != nil {
		s.onCreate()
	}
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.MediaStore.CreateDestination(ctx, req)
}

func (s *spyStore) OpenWriter(ctx context.Context, dest *domain.MediaDestination) (io.WriteCloser, error) {
	s.writes.Add(1)
	if s.openErr != nil {
		return nil, s.openErr
	}
	return s.MediaStore.OpenWriter(ctx, dest)
}

func (s *spyStore) NotifyIndexer(ctx context.Context, dest *domain.MediaDestination) error {
	s.notifies.Add(1)
	if s.notifyErr != nil {
		return s.notifyErr
	}
	return s.MediaStore.NotifyIndexer(ctx, dest)
}

func (s *spyStore) Discard(ctx context.Context, dest *domain.MediaDestination) error {
	s.discards.Add(1)
	return s.MediaStore.Discard(ctx, dest)
}

type testGallery struct {
	root  string
	index *persistence.SQLiteMediaRepository
	store *spyStore
}

func newTestGallery(t *testing.T, mode persistence.Mode) *testGallery {
	t.Helper()

	database := sqlite.NewSQLiteDB(&sqlite.SQLiteConfig{Path: filepath.Join(t.TempDir(), "media.db")})
	if err := database.Connect(); err != nil {
		t.Fatalf("Failed to connect database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	root := filepath.Join(t.TempDir(), "storage")
	store, err := persistence.NewMediaStore(mode, root, database.DB())
	if err != nil {
		t.Fatalf("NewMediaStore() error = %v", err)
	}

	return &testGallery{
		root:  root,
		index: persistence.NewMediaRepository(database.DB()),
		store: &spyStore{MediaStore: store},
	}
}

func (g *testGallery) entries(t *testing.T) []*domain.MediaEntry {
	t.Helper()
	entries, err := g.index.List(context.Background(), "", 100, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	return entries
}

func (g *testGallery) path(parts ...string) string {
	return filepath.Join(append([]string{g.root}, parts...)...)
}
