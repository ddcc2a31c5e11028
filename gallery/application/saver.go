package application

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dfryer1193/savergallery/gallery/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// fileCopyBufferSize is the chunk size used when streaming a source file.
const fileCopyBufferSize = 10 * 1024

// Saver runs the save algorithm against whichever MediaStore it was built with.
// It never returns an error: every failure is folded into a SaveOutcome.
type Saver struct {
	store domain.MediaStore

	// inflight collapses concurrent saves to the same destination; nil when disabled.
	inflight *singleflight.Group
}

type SaverOption func(*Saver)

// WithSingleFlight makes concurrent saves of the same name into the same relative
// path share one write and one outcome.
func WithSingleFlight() SaverOption {
	return func(s *Saver) {
		s.inflight = &singleflight.Group{}
	}
}

func NewSaver(store domain.MediaStore, opts ...SaverOption) *Saver {
	s := &Saver{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the strategy backing this saver.
func (s *Saver) Store() domain.MediaStore {
	return s.store
}

// payload is the source side of a save, opened before the destination exists.
type payload interface {
	io.WriterTo
	io.Closer
}

type imagePayload struct {
	data    []byte
	format  ImageFormat
	quality int
}

func (p *imagePayload) WriteTo(w io.Writer) (int64, error) {
	return WriteImage(w, p.data, p.format, p.quality)
}

func (p *imagePayload) Close() error { return nil }

type filePayload struct {
	f *os.File
}

func (p *filePayload) WriteTo(w io.Writer) (int64, error) {
	// hide ReaderFrom/WriterTo so the copy goes through the fixed-size buffer
	return io.CopyBuffer(struct{ io.Writer }{w}, struct{ io.Reader }{p.f}, make([]byte, fileCopyBufferSize))
}

func (p *filePayload) Close() error {
	return p.f.Close()
}

type saveJob struct {
	noun         string
	dest         domain.DestinationRequest
	skipIfExists bool
	open         func() (payload, error)
}

// SaveImage stores encoded image bytes. GIFs are written verbatim, PNGs are
// re-encoded as PNG and anything else as JPEG at the requested quality.
func (s *Saver) SaveImage(ctx context.Context, req *domain.SaveImageRequest) *domain.SaveOutcome {
	format := ImageFormatFor(req.Extension)
	ext := NormalizeExtension(req.Extension)
	if ext == "" {
		ext = defaultExtension(format)
	}

	quality := ClampQuality(req.Quality)
	data := req.Image

	job := &saveJob{
		noun: "image",
		dest: domain.DestinationRequest{
			Kind:         domain.CollectionImage,
			DisplayName:  imageDisplayName(req.Name, ext, format),
			RelativePath: orDefault(req.RelativePath, DefaultDirectory(domain.CollectionImage)),
			MimeType:     format.MimeType(),
		},
		skipIfExists: req.SkipIfExists,
		open: func() (payload, error) {
			return &imagePayload{data: data, format: format, quality: quality}, nil
		},
	}

	return s.dedupe(ctx, job)
}

// SaveFile copies an existing file into the gallery. The collection is chosen from
// the source file's extension, which must map to a known MIME type.
func (s *Saver) SaveFile(ctx context.Context, req *domain.SaveFileRequest) *domain.SaveOutcome {
	ext := ExtensionOf(req.Path)
	mimeType, kind := Resolve(ext)
	if mimeType == "" {
		log.Warn().Str("path", req.Path).Str("extension", ext).Msg("Refusing to save file with unknown type")
		return domain.Failed(domain.KindUnsupportedFileType, fmt.Sprintf("Unsupported file: %s", req.Path))
	}

	name := req.Name
	if name == "" {
		name = filepath.Base(req.Path)
	}

	path := req.Path
	job := &saveJob{
		noun: "file",
		dest: domain.DestinationRequest{
			Kind:         kind,
			DisplayName:  withExtension(name, ext),
			RelativePath: orDefault(req.RelativePath, DefaultDirectory(kind)),
			MimeType:     mimeType,
		},
		skipIfExists: req.SkipIfExists,
		open: func() (payload, error) {
			f, err := os.Open(path)
			if err != nil {
				return nil, fmt.Errorf("failed to open source file %s: %w", path, err)
			}
			return &filePayload{f: f}, nil
		},
	}

	return s.dedupe(ctx, job)
}

func (s *Saver) dedupe(ctx context.Context, job *saveJob) *domain.SaveOutcome {
	if s.inflight == nil {
		return s.run(ctx, job)
	}

	key := job.noun + "\x00" + job.dest.RelativePath + "\x00" + job.dest.DisplayName
	v, _, shared := s.inflight.Do(key, func() (any, error) {
		return s.run(ctx, job), nil
	})

	outcome := *v.(*domain.SaveOutcome)
	if shared {
		log.Debug().Str("name", job.dest.DisplayName).Msg("Joined in-flight save")
	}
	return &outcome
}

func (s *Saver) run(ctx context.Context, job *saveJob) *domain.SaveOutcome {
	logger := log.With().
		Str("store", s.store.Name()).
		Str("name", job.dest.DisplayName).
		Str("relativePath", job.dest.RelativePath).
		Logger()

	if job.skipIfExists {
		exists, err := s.store.Exists(ctx, job.dest.RelativePath, job.dest.DisplayName)
		if err != nil {
			logger.Warn().Err(err).Msg("Existence check failed, saving anyway")
		} else if exists {
			logger.Debug().Msg("Entry already exists, skipping save")
			return domain.Skipped()
		}
	}

	src, err := job.open()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open payload")
		return domain.Failed(domain.KindWriteFailed, err.Error())
	}
	defer src.Close()

	dest, err := s.store.CreateDestination(ctx, &job.dest)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create destination")
		return domain.Failed(domain.KindDestinationCreateFailed,
			fmt.Sprintf("Couldn't create the %s %s: %v", job.noun, job.dest.DisplayName, err))
	}

	w, err := s.store.OpenWriter(ctx, dest)
	if err != nil {
		s.discard(ctx, dest)
		logger.Error().Err(err).Str("uri", dest.URI).Msg("Failed to open destination")
		return domain.Failed(domain.KindDestinationCreateFailed,
			fmt.Sprintf("Couldn't open the %s\n%s: %v", job.noun, dest.URI, err))
	}

	n, err := src.WriteTo(w)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = s.store.NotifyIndexer(ctx, dest)
	}
	if err != nil {
		s.discard(ctx, dest)
		logger.Error().Err(err).Str("uri", dest.URI).Msg("Failed to save")
		return domain.Failed(domain.KindWriteFailed,
			fmt.Sprintf("Couldn't save the %s\n%s: %v", job.noun, dest.URI, err))
	}

	logger.Info().Str("uri", dest.URI).Int64("bytes", n).Msg("Saved to gallery")
	return domain.Succeeded(dest.URI)
}

func (s *Saver) discard(ctx context.Context, dest *domain.MediaDestination) {
	if err := s.store.Discard(ctx, dest); err != nil {
		log.Error().Err(err).Str("uri", dest.URI).Msg("Failed to discard destination")
	}
}

func defaultExtension(f ImageFormat) string {
	if f == FormatJPEG {
		return "jpg"
	}
	return f.String()
}

// withExtension appends .ext to name unless name already ends in a known extension.
// "IMG 2024.01.05" gets one, "a.jpeg" does not.
func withExtension(name, ext string) string {
	if ext == "" || MimeTypeFor(ExtensionOf(name)) != "" {
		return name
	}
	return name + "." + ext
}

// imageDisplayName is withExtension for images, except that a known extension on
// name which would be written in another format is replaced by ext.
func imageDisplayName(name, ext string, format ImageFormat) string {
	named := ExtensionOf(name)
	if MimeTypeFor(named) != "" && ImageFormatFor(named) != format {
		return strings.TrimSuffix(name, filepath.Ext(name)) + "." + ext
	}
	return withExtension(name, ext)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
