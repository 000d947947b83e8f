package vfs

import (
	"strings"

	upath "path"
)

// normalize lexically cleans a path, resolving it against cwd when it is
// not already absolute. Tilde expansion is deliberately not performed here;
// that is a shell (preprocessing) concern, not a filesystem concern.
func normalize(cwd, p string) string {
	if p == "" {
		p = "."
	}
	if !strings.HasPrefix(p, "/") {
		if cwd == "" {
			cwd = "/"
		}
		p = upath.Join(cwd, p)
	}
	cleaned := upath.Clean(p)
	if !strings.HasPrefix(cleaned, "/") {
		cleaned = "/" + cleaned
	}
	return cleaned
}

func splitParts(absPath string) []string {
	if absPath == "/" {
		return nil
	}
	trimmed := strings.Trim(absPath, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func parentOf(absPath string) string {
	if absPath == "/" {
		return "/"
	}
	dir := upath.Dir(absPath)
	if dir == "." {
		return "/"
	}
	return dir
}

func baseOf(absPath string) string {
	return upath.Base(absPath)
}

func joinClean(a, b string) string {
	return upath.Clean(upath.Join(a, b))
}
