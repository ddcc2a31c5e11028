package persistence

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// normalizeRelativePath turns a caller supplied folder such as "Pictures/App" or
// "/Pictures//App/" into the stored form "Pictures/App/". Paths escaping the
// storage root are rejected.
func normalizeRelativePath(rel string) (string, error) {
	rel = strings.ReplaceAll(strings.TrimSpace(rel), `\`, "/")
	for _, part := range strings.Split(rel, "/") {
		if part == ".." {
			return "", fmt.Errorf("relative path %q escapes the storage root", rel)
		}
	}

	cleaned := strings.Trim(path.Clean("/"+rel), "/")
	if cleaned == "" {
		return "", nil
	}
	return cleaned + "/", nil
}

// validateDisplayName rejects names that would resolve outside their folder.
func validateDisplayName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("display name cannot be empty")
	case name == "." || name == "..":
		return fmt.Errorf("invalid display name %q", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("display name %q must not contain a path separator", name)
	}
	return nil
}

// joinUnder resolves rel and name below root.
func joinUnder(root, rel, name string) string {
	return filepath.Join(root, filepath.FromSlash(rel), name)
}
