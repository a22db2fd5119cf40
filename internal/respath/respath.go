// Package respath implements POSIX-like relative path resolution for
// wikilink page names, clamped so it never pops above the root.
package respath

import "strings"

// ResolveRelative resolves pageName relative to the directory containing
// currentFilePath, treating ".." as pop (clamped at root), "." and empty
// segments as no-ops, and any other segment as push. Returns an absolute
// path ending in ".md".
func ResolveRelative(currentFilePath, pageName string) string {
	dir := currentFilePath
	if idx := strings.LastIndexByte(currentFilePath, '/'); idx != -1 {
		dir = currentFilePath[:idx]
	} else {
		dir = ""
	}

	var segments []string
	for _, s := range strings.Split(dir, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	for _, part := range strings.Split(pageName, "/") {
		switch {
		case part == "..":
			if len(segments) > 0 {
				segments = segments[:len(segments)-1]
			}
		case part == "." || part == "":
			// no-op
		default:
			segments = append(segments, part)
		}
	}

	if len(segments) == 0 {
		return "/.md"
	}
	return "/" + strings.Join(segments, "/") + ".md"
}
