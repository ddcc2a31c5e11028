package application

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/valyala/bytebufferpool"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrNotAnImage is returned when a payload handed to the image path does not sniff
// as an image.
var ErrNotAnImage = errors.New("payload is not an image")

// ImageFormat is the format an image payload is written in.
type ImageFormat int

const (
	FormatJPEG ImageFormat = iota
	FormatPNG
	FormatGIF
)

// ImageFormatFor picks the output format for an extension: gif is kept as-is, png is
// re-encoded as PNG and everything else becomes JPEG.
func ImageFormatFor(ext string) ImageFormat {
	switch NormalizeExtension(ext) {
	case "gif":
		return FormatGIF
	case "png":
		return FormatPNG
	default:
		return FormatJPEG
	}
}

func (f ImageFormat) MimeType() string {
	switch f {
	case FormatGIF:
		return "image/gif"
	case FormatPNG:
		return "image/png"
	default:
		return "image/jpeg"
	}
}

func (f ImageFormat) String() string {
	switch f {
	case FormatGIF:
		return "gif"
	case FormatPNG:
		return "png"
	default:
		return "jpeg"
	}
}

const (
	MinQuality = 0
	MaxQuality = 100
)

// ClampQuality pins q into [MinQuality, MaxQuality].
func ClampQuality(q int) int {
	if q < MinQuality {
		return MinQuality
	}
	if q > MaxQuality {
		return MaxQuality
	}
	return q
}

type bufferPool interface {
	Get() *bytebufferpool.ByteBuffer
	Put(b *bytebufferpool.ByteBuffer)
}

// encodeBuffers holds the scratch buffers re-encoded images are staged in.
var encodeBuffers bufferPool = new(bytebufferpool.Pool)

// WriteImage writes payload to dst in the given format. GIF payloads are copied
// verbatim; everything else is decoded and re-encoded at quality.
func WriteImage(dst io.Writer, payload []byte, format ImageFormat, quality int) (int64, error) {
	if format == FormatGIF {
		n, err := dst.Write(payload)
		return int64(n), err
	}

	if detected := mimetype.Detect(payload); !strings.HasPrefix(detected.String(), "image/") {
		return 0, fmt.Errorf("%w: detected %s", ErrNotAnImage, detected.String())
	}

	buf := encodeBuffers.Get()
	defer encodeBuffers.Put(buf)

	img, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to decode image: %w", err)
	}

	switch format {
	case FormatPNG:
		err = png.Encode(buf, img)
	default:
		err = jpeg.Encode(buf, img, &jpeg.Options{Quality: ClampQuality(quality)})
	}
	if err != nil {
		return 0, fmt.Errorf("failed to encode %s: %w", format, err)
	}

	return buf.WriteTo(dst)
}
