package fsutil

import (
	"errors"
	"path"
	"path/filepath"
	"strings"
)

// ErrInvalidPath is returned when an untrusted path cannot be confined to
// the configured root.
var ErrInvalidPath = errors.New("invalid path")

// CleanRelPath normalizes a path for display: "", ".", "/a/b", "a//b",
// "a\b" become a slash-separated, no-leading-slash form ("" means the
// root). Cleaning happens against a forced leading slash, so the result
// never contains ".." segments. Use ResolveWithin for filesystem access;
// this helper does not reject anything.
func CleanRelPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "." || p == "/" {
		return ""
	}
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + p)
	p = strings.TrimPrefix(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// ResolveWithin returns the absolute filesystem path for rel under rootAbs,
// or ErrInvalidPath when the input contains a NUL byte or escapes the root.
// Normalization is lexical: a leading separator is stripped, "." and ".."
// segments are resolved, and any ".." surviving normalization is rejected
// rather than clamped. As a second line the containment check runs against
// the cleaned absolute result, not the raw string. Empty rel resolves to
// the root itself.
func ResolveWithin(rootAbs, rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if strings.Contains(rel, "\x00") {
		return "", ErrInvalidPath
	}
	rel = strings.ReplaceAll(rel, "\\", "/")
	rel = strings.TrimPrefix(rel, "/")

	cleaned := path.Clean(rel)
	if cleaned == "." {
		cleaned = ""
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidPath
	}

	rootClean := filepath.Clean(rootAbs)
	if cleaned == "" {
		return rootClean, nil
	}

	abs := filepath.Clean(filepath.Join(rootClean, filepath.FromSlash(cleaned)))
	if abs != rootClean && !strings.HasPrefix(abs, rootClean+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return abs, nil
}

// BaseName strips any directory component from an uploaded filename,
// handling both slash styles so a Windows-originated name cannot smuggle a
// path. An empty or dot result falls back to "file".
func BaseName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return name
}

// ParentPath returns the slash-separated parent of a cleaned relative path,
// or ok=false when rel already is the root.
func ParentPath(rel string) (string, bool) {
	rel = CleanRelPath(rel)
	if rel == "" {
		return "", false
	}
	idx := strings.LastIndex(rel, "/")
	if idx < 0 {
		return "", true
	}
	return rel[:idx], true
}
