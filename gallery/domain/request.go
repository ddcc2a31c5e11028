package domain

// SaveImageRequest asks for encoded image bytes to be stored in the gallery.
type SaveImageRequest struct {
	Image        []byte
	Quality      int
	Name         string
	Extension    string
	RelativePath string
	SkipIfExists bool
}

// SaveFileRequest asks for an existing file to be copied into the gallery.
type SaveFileRequest struct {
	Path         string
	Name         string
	RelativePath string
	SkipIfExists bool
}
