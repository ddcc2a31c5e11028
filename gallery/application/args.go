package application

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dfryer1193/savergallery/gallery/domain"
	"github.com/dfryer1193/savergallery/shared/strutil"
	"github.com/spf13/cast"
)

// Method names accepted on the saver_gallery channel.
const (
	MethodSaveImage = "saveImageToGallery"
	MethodSaveFile  = "saveFileToGallery"
)

const defaultQuality = 100

// ArgumentError reports a missing or ill-typed argument.
type ArgumentError struct {
	Method string
	Arg    string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: argument %q %s", e.Method, e.Arg, e.Reason)
}

type args struct {
	method string
	values map[string]any
}

func (a args) lookup(key string) (any, bool) {
	v, ok := a.values[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (a args) requiredString(key string) (string, error) {
	v, ok := a.lookup(key)
	if !ok {
		return "", &ArgumentError{Method: a.method, Arg: key, Reason: "is required"}
	}
	s, err := cast.ToStringE(v)
	if err != nil || strings.TrimSpace(s) == "" {
		return "", &ArgumentError{Method: a.method, Arg: key, Reason: "must be a non-empty string"}
	}
	return s, nil
}

func (a args) optionalString(key, def string) (string, error) {
	v, ok := a.lookup(key)
	if !ok {
		return def, nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", &ArgumentError{Method: a.method, Arg: key, Reason: "must be a string"}
	}
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	return s, nil
}

func (a args) optionalInt(key string, def int) (int, error) {
	v, ok := a.lookup(key)
	if !ok {
		return def, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, &ArgumentError{Method: a.method, Arg: key, Reason: "must be an integer"}
	}
	return n, nil
}

func (a args) optionalBool(key string) (bool, error) {
	v, ok := a.lookup(key)
	if !ok {
		return false, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, &ArgumentError{Method: a.method, Arg: key, Reason: "must be a boolean"}
	}
	return b, nil
}

// requiredBytes accepts raw bytes, a base64 string or a list of byte values, which
// is how the payload looks after crossing a JSON channel.
func (a args) requiredBytes(key string) ([]byte, error) {
	v, ok := a.lookup(key)
	if !ok {
		return nil, &ArgumentError{Method: a.method, Arg: key, Reason: "is required"}
	}

	var b []byte
	switch t := v.(type) {
	case []byte:
		b = t
	case string:
		decoded, err := strutil.FromBase64(t)
		if err != nil {
			return nil, &ArgumentError{Method: a.method, Arg: key, Reason: "must be base64 encoded"}
		}
		b = decoded
	case []any:
		b = make([]byte, len(t))
		for i, e := range t {
			n, err := cast.ToIntE(e)
			if err != nil || n < 0 || n > 255 {
				return nil, &ArgumentError{Method: a.method, Arg: key, Reason: fmt.Sprintf("has an invalid byte at index %d", i)}
			}
			b[i] = byte(n)
		}
	case []int:
		b = make([]byte, len(t))
		for i, n := range t {
			if n < 0 || n > 255 {
				return nil, &ArgumentError{Method: a.method, Arg: key, Reason: fmt.Sprintf("has an invalid byte at index %d", i)}
			}
			b[i] = byte(n)
		}
	default:
		return nil, &ArgumentError{Method: a.method, Arg: key, Reason: fmt.Sprintf("has unsupported type %T", v)}
	}

	if len(b) == 0 {
		return nil, &ArgumentError{Method: a.method, Arg: key, Reason: "must not be empty"}
	}
	return b, nil
}

// ParseSaveImageArgs builds a SaveImageRequest from a channel argument bag.
func ParseSaveImageArgs(values map[string]any) (*domain.SaveImageRequest, error) {
	a := args{method: MethodSaveImage, values: values}

	image, err := a.requiredBytes("imageBytes")
	if err != nil {
		return nil, err
	}
	quality, err := a.optionalInt("quality", defaultQuality)
	if err != nil {
		return nil, err
	}
	name, err := a.requiredString("name")
	if err != nil {
		return nil, err
	}
	extension, err := a.requiredString("extension")
	if err != nil {
		return nil, err
	}
	relativePath, err := a.optionalString("relativePath", DirectoryPictures)
	if err != nil {
		return nil, err
	}
	skipIfExists, err := a.optionalBool("skipIfExists")
	if err != nil {
		return nil, err
	}

	return &domain.SaveImageRequest{
		Image:        image,
		Quality:      quality,
		Name:         name,
		Extension:    extension,
		RelativePath: relativePath,
		SkipIfExists: skipIfExists,
	}, nil
}

// ParseSaveFileArgs builds a SaveFileRequest from a channel argument bag.
func ParseSaveFileArgs(values map[string]any) (*domain.SaveFileRequest, error) {
	a := args{method: MethodSaveFile, values: values}

	path, err := a.requiredString("path")
	if err != nil {
		return nil, err
	}
	name, err := a.optionalString("name", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	relativePath, err := a.optionalString("relativePath", DirectoryDownload)
	if err != nil {
		return nil, err
	}
	skipIfExists, err := a.optionalBool("skipIfExists")
	if err != nil {
		return nil, err
	}

	return &domain.SaveFileRequest{
		Path:         path,
		Name:         name,
		RelativePath: relativePath,
		SkipIfExists: skipIfExists,
	}, nil
}
