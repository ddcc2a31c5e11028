package application

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dfryer1193/savergallery/gallery/domain"
	"github.com/dfryer1193/savergallery/gallery/persistence"
	"github.com/gabriel-vasile/mimetype"
)

var storeModes = []persistence.Mode{persistence.ModeScoped, persistence.ModeLegacy}

func TestSaver_SaveImage(t *testing.T) {
	tests := []struct {
		name      string
		req       func(t *testing.T) *domain.SaveImageRequest
		wantFile  []string
		wantMime  string
		wantBytes func(t *testing.T) []byte
	}{
		{
			name: "png stays png",
			req: func(t *testing.T) *domain.SaveImageRequest {
				return &domain.SaveImageRequest{Image: pngBytes(t), Quality: 100, Name: "a", Extension: "png", RelativePath: "Pictures/App"}
			},
			wantFile: []string{"Pictures", "App", "a.png"},
			wantMime: "image/png",
		},
		{
			name: "other extensions become jpeg",
			req: func(t *testing.T) *domain.SaveImageRequest {
				return &domain.SaveImageRequest{Image: pngBytes(t), Quality: 40, Name: "photo.jpg", Extension: "jpg", RelativePath: "Pictures"}
			},
			wantFile: []string{"Pictures", "photo.jpg"},
			wantMime: "image/jpeg",
		},
		{
			name: "gif is copied verbatim",
			req: func(t *testing.T) *domain.SaveImageRequest {
				return &domain.SaveImageRequest{Image: gifBytes(t), Quality: 1, Name: "anim", Extension: "gif", RelativePath: "Pictures/Gifs"}
			},
			wantFile:  []string{"Pictures", "Gifs", "anim.gif"},
			wantMime:  "image/gif",
			wantBytes: gifBytes,
		},
		{
			name: "empty relative path defaults to pictures",
			req: func(t *testing.T) *domain.SaveImageRequest {
				return &domain.SaveImageRequest{Image: pngBytes(t), Quality: 100, Name: "b", Extension: "png"}
			},
			wantFile: []string{"Pictures", "b.png"},
			wantMime: "image/png",
		},
	}

	for _, mode := range storeModes {
		for _, tt := range tests {
			t.Run(string(mode)+"/"+tt.name, func(t *testing.T) {
				g := newTestGallery(t, mode)
				saver := NewSaver(g.store)

				outcome := saver.SaveImage(context.Background(), tt.req(t))
				if !outcome.IsSuccess {
					t.Fatalf("SaveImage() failed: %s", outcome.Message())
				}
				if outcome.ErrorMessage != nil {
					t.Errorf("ErrorMessage = %q, want nil", *outcome.ErrorMessage)
				}
				if outcome.FilePath == "" {
					t.Error("expected FilePath to be set")
				}

				written, err := os.ReadFile(g.path(tt.wantFile...))
				if err != nil {
					t.Fatalf("Failed to read saved image: %v", err)
				}
				if got := mimetype.Detect(written).String(); got != tt.wantMime {
					t.Errorf("saved image detected as %q, want %q", got, tt.wantMime)
				}
				if tt.wantBytes != nil && !bytes.Equal(written, tt.wantBytes(t)) {
					t.Error("saved bytes differ from the payload")
				}

				entries := g.entries(t)
				if len(entries) != 1 {
					t.Fatalf("index has %d entries, want 1", len(entries))
				}
				if entries[0].MimeType != tt.wantMime {
					t.Errorf("indexed MimeType = %q, want %q", entries[0].MimeType, tt.wantMime)
				}
				if entries[0].Collection != domain.CollectionImage {
					t.Errorf("indexed Collection = %v, want %v", entries[0].Collection, domain.CollectionImage)
				}
			})
		}
	}
}

func TestSaver_SkipIfExists(t *testing.T) {
	for _, mode := range storeModes {
		t.Run(string(mode), func(t *testing.T) {
			g := newTestGallery(t, mode)
			saver := NewSaver(g.store)
			ctx := context.Background()

			req := &domain.SaveImageRequest{Image: pngBytes(t), Quality: 100, Name: "a.png", Extension: "png", RelativePath: "Pictures/App"}
			if outcome := saver.SaveImage(ctx, req); !outcome.IsSuccess {
				t.Fatalf("first SaveImage() failed: %s", outcome.Message())
			}
			if got := g.store.writes.Load(); got != 1 {
				t.Fatalf("writes after first save = %d, want 1", got)
			}

			req.SkipIfExists = true
			outcome := saver.SaveImage(ctx, req)
			if !outcome.IsSuccess || outcome.ErrorMessage != nil {
				t.Fatalf("second SaveImage() = %+v, want success without message", outcome)
			}
			if got := g.store.writes.Load(); got != 1 {
				t.Errorf("writes after skipped save = %d, want 1", got)
			}
			if got := g.store.creates.Load(); got != 1 {
				t.Errorf("destinations after skipped save = %d, want 1", got)
			}
			if got := len(g.entries(t)); got != 1 {
				t.Errorf("index has %d entries, want 1", got)
			}
		})
	}
}

func TestSaver_SkipIfExistsMissesDifferentFolder(t *testing.T) {
	g := newTestGallery(t, persistence.ModeScoped)
	saver := NewSaver(g.store)
	ctx := context.Background()

	first := &domain.SaveImageRequest{Image: pngBytes(t), Quality: 100, Name: "a", Extension: "png", RelativePath: "Pictures/App"}
	if outcome := saver.SaveImage(ctx, first); !outcome.IsSuccess {
		t.Fatalf("SaveImage() failed: %s", outcome.Message())
	}

	second := &domain.SaveImageRequest{Image: pngBytes(t), Quality: 100, Name: "a", Extension: "png", RelativePath: "Pictures/Other", SkipIfExists: true}
	if outcome := saver.SaveImage(ctx, second); !outcome.IsSuccess {
		t.Fatalf("SaveImage() failed: %s", outcome.Message())
	}
	if got := g.store.writes.Load(); got != 2 {
		t.Errorf("writes = %d, want 2", got)
	}
}

func TestSaver_ExistsErrorFallsThrough(t *testing.T) {
	g := newTestGallery(t, persistence.ModeScoped)
	saver := NewSaver(existsFails{g.store})

	req := &domain.SaveImageRequest{Image: pngBytes(t), Quality: 100, Name: "a", Extension: "png", RelativePath: "Pictures", SkipIfExists: true}
	if outcome := saver.SaveImage(context.Background(), req); !outcome.IsSuccess {
		t.Fatalf("SaveImage() failed: %s", outcome.Message())
	}
	if got := g.store.writes.Load(); got != 1 {
		t.Errorf("writes = %d, want 1", got)
	}
}

type existsFails struct {
	domain.MediaStore
}

func (existsFails) Exists(context.Context, string, string) (bool, error) {
	return false, errors.New("index unavailable")
}

func TestSaver_SaveImageFailures(t *testing.T) {
	tests := []struct {
		name        string
		payload     func(t *testing.T) []byte
		configure   func(s *spyStore)
		wantKind    domain.ErrorKind
		wantMessage string
		wantDiscard int32
	}{
		{
			name:        "payload is not an image",
			payload:     func(*testing.T) []byte { return []byte("plain text, not pixels") },
			wantKind:    domain.KindWriteFailed,
			wantMessage: "Couldn't save the image",
			wantDiscard: 1,
		},
		{
			name:        "destination cannot be created",
			payload:     pngBytes,
			configure:   func(s *spyStore) { s.createErr = errors.New("volume missing") },
			wantKind:    domain.KindDestinationCreateFailed,
			wantMessage: "Couldn't create the image a.png",
		},
		{
			name:        "destination cannot be opened",
			payload:     pngBytes,
			configure:   func(s *spyStore) { s.openErr = errors.New("permission denied") },
			wantKind:    domain.KindDestinationCreateFailed,
			wantMessage: "permission denied",
			wantDiscard: 1,
		},
		{
			name:        "indexer rejects the entry",
			payload:     pngBytes,
			configure:   func(s *spyStore) { s.notifyErr = errors.New("scanner offline") },
			wantKind:    domain.KindWriteFailed,
			wantMessage: "scanner offline",
			wantDiscard: 1,
		},
	}

	for _, mode := range storeModes {
		for _, tt := range tests {
			t.Run(string(mode)+"/"+tt.name, func(t *testing.T) {
				g := newTestGallery(t, mode)
				if tt.configure != nil {
					tt.configure(g.store)
				}
				saver := NewSaver(g.store)

				req := &domain.SaveImageRequest{Image: tt.payload(t), Quality: 100, Name: "a", Extension: "png", RelativePath: "Pictures"}
				outcome := saver.SaveImage(context.Background(), req)
				if outcome.IsSuccess {
					t.Fatal("expected SaveImage() to fail")
				}
				if outcome.Kind != tt.wantKind {
					t.Errorf("Kind = %v, want %v", outcome.Kind, tt.wantKind)
				}
				if !strings.Contains(outcome.Message(), tt.wantMessage) {
					t.Errorf("message %q does not contain %q", outcome.Message(), tt.wantMessage)
				}
				if got := g.store.discards.Load(); got != tt.wantDiscard {
					t.Errorf("discards = %d, want %d", got, tt.wantDiscard)
				}
				if got := len(g.entries(t)); got != 0 {
					t.Errorf("index has %d entries after failure, want 0", got)
				}
				if _, err := os.Stat(g.path("Pictures", "a.png")); !os.IsNotExist(err) {
					t.Errorf("partial file left behind: %v", err)
				}
			})
		}
	}
}

func TestSaver_SaveFile(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		req      domain.SaveFileRequest
		wantFile []string
		wantKind domain.CollectionKind
	}{
		{
			name:     "video defaults to movies",
			source:   "clip.mp4",
			wantFile: []string{"Movies", "clip.mp4"},
			wantKind: domain.CollectionVideo,
		},
		{
			name:     "audio defaults to music",
			source:   "song.mp3",
			wantFile: []string{"Music", "song.mp3"},
			wantKind: domain.CollectionAudio,
		},
		{
			name:     "documents default to download",
			source:   "report.pdf",
			wantFile: []string{"Download", "report.pdf"},
			wantKind: domain.CollectionGeneric,
		},
		{
			name:     "explicit name and folder",
			source:   "IMG_0001.jpg",
			req:      domain.SaveFileRequest{Name: "holiday", RelativePath: "Pictures/Trips"},
			wantFile: []string{"Pictures", "Trips", "holiday.jpg"},
			wantKind: domain.CollectionImage,
		},
	}

	for _, mode := range storeModes {
		for _, tt := range tests {
			t.Run(string(mode)+"/"+tt.name, func(t *testing.T) {
				g := newTestGallery(t, mode)
				saver := NewSaver(g.store)

				// larger than one copy chunk
				content := bytes.Repeat([]byte("gallery-"), 4*1024)
				src := filepath.Join(t.TempDir(), tt.source)
				if err := os.WriteFile(src, content, 0o644); err != nil {
					t.Fatalf("Failed to write source: %v", err)
				}

				req := tt.req
				req.Path = src
				outcome := saver.SaveFile(context.Background(), &req)
				if !outcome.IsSuccess {
					t.Fatalf("SaveFile() failed: %s", outcome.Message())
				}

				written, err := os.ReadFile(g.path(tt.wantFile...))
				if err != nil {
					t.Fatalf("Failed to read saved file: %v", err)
				}
				if !bytes.Equal(written, content) {
					t.Error("saved bytes differ from the source")
				}

				entries := g.entries(t)
				if len(entries) != 1 {
					t.Fatalf("index has %d entries, want 1", len(entries))
				}
				if entries[0].Collection != tt.wantKind {
					t.Errorf("indexed Collection = %v, want %v", entries[0].Collection, tt.wantKind)
				}
				if entries[0].Size != int64(len(content)) {
					t.Errorf("indexed Size = %d, want %d", entries[0].Size, len(content))
				}
			})
		}
	}
}

func TestSaver_SaveFileFailures(t *testing.T) {
	dir := t.TempDir()
	unknown := filepath.Join(dir, "data.zzz")
	if err := os.WriteFile(unknown, []byte("?"), 0o644); err != nil {
		t.Fatalf("Failed to write source: %v", err)
	}
	missing := filepath.Join(dir, "gone.mp4")

	tests := []struct {
		name     string
		path     string
		wantKind domain.ErrorKind
		wantMsg  string
	}{
		{name: "unknown extension", path: unknown, wantKind: domain.KindUnsupportedFileType, wantMsg: "Unsupported file: " + unknown},
		{name: "no extension", path: filepath.Join(dir, "README"), wantKind: domain.KindUnsupportedFileType, wantMsg: "Unsupported file"},
		{name: "missing source", path: missing, wantKind: domain.KindWriteFailed, wantMsg: missing},
	}

	for _, mode := range storeModes {
		for _, tt := range tests {
			t.Run(string(mode)+"/"+tt.name, func(t *testing.T) {
				g := newTestGallery(t, mode)
				saver := NewSaver(g.store)

				outcome := saver.SaveFile(context.Background(), &domain.SaveFileRequest{Path: tt.path})
				if outcome.IsSuccess {
					t.Fatal("expected SaveFile() to fail")
				}
				if outcome.Kind != tt.wantKind {
					t.Errorf("Kind = %v, want %v", outcome.Kind, tt.wantKind)
				}
				if !strings.Contains(outcome.Message(), tt.wantMsg) {
					t.Errorf("message %q does not contain %q", outcome.Message(), tt.wantMsg)
				}
				if got := g.store.creates.Load(); got != 0 {
					t.Errorf("destinations created = %d, want 0", got)
				}
				if got := len(g.entries(t)); got != 0 {
					t.Errorf("index has %d entries, want 0", got)
				}
			})
		}
	}
}

func TestSaver_ConcurrentSavesWithoutSingleFlight(t *testing.T) {
	g := newTestGallery(t, persistence.ModeScoped)
	saver := NewSaver(g.store)
	payload := pngBytes(t)

	var wg sync.WaitGroup
	outcomes := make([]*domain.SaveOutcome, 4)
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := &domain.SaveImageRequest{Image: payload, Quality: 100, Name: "a", Extension: "png", RelativePath: "Pictures", SkipIfExists: true}
			outcomes[i] = saver.SaveImage(context.Background(), req)
		}(i)
	}
	wg.Wait()

	for i, o := range outcomes {
		if !o.IsSuccess {
			t.Errorf("save %d failed: %s", i, o.Message())
		}
	}

	// every racing save lands in its own entry or was skipped; nothing collides
	entries := g.entries(t)
	names := map[string]bool{}
	for _, e := range entries {
		if names[e.DisplayName] {
			t.Errorf("duplicate display name %q", e.DisplayName)
		}
		names[e.DisplayName] = true
	}
	if !names["a.png"] {
		t.Errorf("expected a.png among %v", names)
	}
	if int(g.store.writes.Load()) != len(entries) {
		t.Errorf("writes = %d, entries = %d", g.store.writes.Load(), len(entries))
	}
}

func TestSaver_SingleFlight(t *testing.T) {
	g := newTestGallery(t, persistence.ModeScoped)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	g.store.onCreate = func() {
		once.Do(func() { close(entered) })
		<-release
	}
	saver := NewSaver(g.store, WithSingleFlight())

	payload := pngBytes(t)
	save := func() *domain.SaveOutcome {
		req := &domain.SaveImageRequest{Image: payload, Quality: 100, Name: "a", Extension: "png", RelativePath: "Pictures"}
		return saver.SaveImage(context.Background(), req)
	}

	first := make(chan *domain.SaveOutcome, 1)
	go func() { first <- save() }()
	<-entered

	second := make(chan *domain.SaveOutcome, 1)
	go func() { second <- save() }()
	// give the second save time to join the in-flight call
	time.Sleep(100 * time.Millisecond)
	close(release)

	a, b := <-first, <-second
	if !a.IsSuccess || !b.IsSuccess {
		t.Fatalf("outcomes = %+v, %+v", a, b)
	}
	if a.FilePath != b.FilePath {
		t.Errorf("FilePath = %q and %q, want the shared outcome", a.FilePath, b.FilePath)
	}
	if a == b {
		t.Error("joined callers must get their own outcome copy")
	}
	if got := g.store.writes.Load(); got != 1 {
		t.Errorf("writes = %d, want 1", got)
	}
	if got := len(g.entries(t)); got != 1 {
		t.Errorf("index has %d entries, want 1", got)
	}
}

func TestWithExtension(t *testing.T) {
	tests := []struct {
		name, ext, want string
	}{
		{"a", "png", "a.png"},
		{"a.png", "png", "a.png"},
		{"a.jpeg", "jpg", "a.jpeg"},
		{"a", "", "a"},
		{"IMG 2024.01.05", "png", "IMG 2024.01.05.png"},
		{"report.v2", "pdf", "report.v2.pdf"},
	}
	for _, tt := range tests {
		if got := withExtension(tt.name, tt.ext); got != tt.want {
			t.Errorf("withExtension(%q, %q) = %q, want %q", tt.name, tt.ext, got, tt.want)
		}
	}
}

func TestImageDisplayName(t *testing.T) {
	tests := []struct {
		name, ext string
		want      string
	}{
		{"a", "png", "a.png"},
		{"a.png", "png", "a.png"},
		{"a.jpg", "png", "a.png"},
		{"a.png", "jpg", "a.jpg"},
		{"a.jpeg", "jpg", "a.jpeg"},
		{"a.webp", "jpg", "a.webp"},
		{"anim.png", "gif", "anim.gif"},
		{"IMG 2024.01.05", "png", "IMG 2024.01.05.png"},
	}
	for _, tt := range tests {
		got := imageDisplayName(tt.name, tt.ext, ImageFormatFor(tt.ext))
		if got != tt.want {
			t.Errorf("imageDisplayName(%q, %q) = %q, want %q", tt.name, tt.ext, got, tt.want)
		}
	}
}

func TestSaver_SaveImageNameFollowsWrittenFormat(t *testing.T) {
	g := newTestGallery(t, persistence.ModeScoped)
	saver := NewSaver(g.store)

	req := &domain.SaveImageRequest{Image: pngBytes(t), Quality: 100, Name: "a.jpg", Extension: "png", RelativePath: "Pictures"}
	if outcome := saver.SaveImage(context.Background(), req); !outcome.IsSuccess {
		t.Fatalf("SaveImage() failed: %s", outcome.Message())
	}

	written, err := os.ReadFile(g.path("Pictures", "a.png"))
	if err != nil {
		t.Fatalf("Failed to read saved image: %v", err)
	}
	if got := mimetype.Detect(written).String(); got != "image/png" {
		t.Errorf("saved image detected as %q, want image/png", got)
	}
	entries := g.entries(t)
	if len(entries) != 1 || entries[0].DisplayName != "a.png" || entries[0].MimeType != "image/png" {
		t.Errorf("index = %+v", entries)
	}
}

func TestSaver_FailedOverwriteKeepsExistingEntry(t *testing.T) {
	for _, mode := range storeModes {
		t.Run(string(mode), func(t *testing.T) {
			g := newTestGallery(t, mode)
			saver := NewSaver(g.store)
			ctx := context.Background()

			original := pngBytes(t)
			req := &domain.SaveImageRequest{Image: original, Quality: 100, Name: "a", Extension: "png", RelativePath: "Pictures"}
			if outcome := saver.SaveImage(ctx, req); !outcome.IsSuccess {
				t.Fatalf("first SaveImage() failed: %s", outcome.Message())
			}
			before, err := os.ReadFile(g.path("Pictures", "a.png"))
			if err != nil {
				t.Fatalf("Failed to read saved image: %v", err)
			}

			req.Image = []byte("%PDF-1.7 definitely not pixels")
			if outcome := saver.SaveImage(ctx, req); outcome.IsSuccess {
				t.Fatal("expected the overwrite to fail")
			}

			after, err := os.ReadFile(g.path("Pictures", "a.png"))
			if err != nil {
				t.Fatalf("existing image lost: %v", err)
			}
			if !bytes.Equal(before, after) {
				t.Error("existing image was modified by a failed save")
			}

			entries := g.entries(t)
			if len(entries) != 1 {
				t.Fatalf("index has %d entries, want 1", len(entries))
			}
			if _, err := os.Stat(entries[0].DataPath); err != nil {
				t.Errorf("indexed file missing: %v", err)
			}

			des, err := os.ReadDir(g.path("Pictures"))
			if err != nil {
				t.Fatalf("ReadDir() error = %v", err)
			}
			if len(des) != 1 {
				t.Errorf("Pictures holds %d files, want only a.png", len(des))
			}
		})
	}
}
