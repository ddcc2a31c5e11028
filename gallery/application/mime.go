package application

import (
	"path/filepath"
	"strings"

	"github.com/dfryer1193/savergallery/gallery/domain"
)

// Default relative folders, one per collection.
const (
	DirectoryPictures = "Pictures"
	DirectoryMovies   = "Movies"
	DirectoryMusic    = "Music"
	DirectoryDownload = "Download"
)

// extensionTypes mirrors the subset of the Android MimeTypeMap that a gallery can
// reasonably receive.
var extensionTypes = map[string]string{
	// images
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"jpe":  "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"bmp":  "image/x-ms-bmp",
	"webp": "image/webp",
	"heic": "image/heic",
	"heif": "image/heif",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
	"ico":  "image/x-icon",
	"svg":  "image/svg+xml",
	"dng":  "image/x-adobe-dng",
	"avif": "image/avif",

	// video
	"mp4":  "video/mp4",
	"m4v":  "video/mp4",
	"3gp":  "video/3gpp",
	"3gpp": "video/3gpp",
	"3g2":  "video/3gpp2",
	"webm": "video/webm",
	"mkv":  "video/x-matroska",
	"mov":  "video/quicktime",
	"avi":  "video/avi",
	"mpeg": "video/mpeg",
	"mpg":  "video/mpeg",
	"ts":   "video/mp2ts",
	"wmv":  "video/x-ms-wmv",
	"flv":  "video/x-flv",

	// audio
	"mp3":  "audio/mpeg",
	"m4a":  "audio/mp4",
	"aac":  "audio/aac",
	"wav":  "audio/x-wav",
	"ogg":  "audio/ogg",
	"oga":  "audio/ogg",
	"opus": "audio/ogg",
	"flac": "audio/flac",
	"amr":  "audio/amr",
	"mid":  "audio/midi",
	"midi": "audio/midi",
	"wma":  "audio/x-ms-wma",

	// documents and archives end up in downloads
	"pdf":  "application/pdf",
	"txt":  "text/plain",
	"csv":  "text/comma-separated-values",
	"html": "text/html",
	"htm":  "text/html",
	"json": "application/json",
	"xml":  "text/xml",
	"zip":  "application/zip",
	"gz":   "application/gzip",
	"tar":  "application/x-tar",
	"7z":   "application/x-7z-compressed",
	"rar":  "application/rar",
	"apk":  "application/vnd.android.package-archive",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"epub": "application/epub+zip",
}

// NormalizeExtension lower-cases ext and strips a leading dot.
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// ExtensionOf returns the normalized extension of a file name or path.
func ExtensionOf(name string) string {
	return NormalizeExtension(filepath.Ext(name))
}

// MimeTypeFor returns the MIME type for ext, or "" when it is empty or unknown.
func MimeTypeFor(ext string) string {
	ext = NormalizeExtension(ext)
	if ext == "" {
		return ""
	}
	return extensionTypes[ext]
}

// CollectionFor derives the collection from a MIME type. An empty or
// non-media type lands in the generic collection.
func CollectionFor(mimeType string) domain.CollectionKind {
	return domain.CollectionForMimeType(mimeType)
}

// Resolve maps an extension to its MIME type and collection.
func Resolve(ext string) (string, domain.CollectionKind) {
	mimeType := MimeTypeFor(ext)
	return mimeType, CollectionFor(mimeType)
}

// DefaultDirectory is the folder used when a caller supplies no relative path.
func DefaultDirectory(kind domain.CollectionKind) string {
	switch kind {
	case domain.CollectionImage:
		return DirectoryPictures
	case domain.CollectionVideo:
		return DirectoryMovies
	case domain.CollectionAudio:
		return DirectoryMusic
	default:
		return DirectoryDownload
	}
}
