// Package vtree builds and resolves against the virtual tree: a flat,
// snapshotted view unifying every folder document's file metadata into a
// single namespace prefixed by folder name.
package vtree

import (
	"fmt"
	"strings"

	"github.com/ali01/linkweave/internal/folder"
	"github.com/ali01/linkweave/internal/respath"
	"github.com/ali01/linkweave/internal/shareddoc"
)

// Entry is one node of the virtual tree.
type Entry struct {
	// VirtualPath is "/{folder_name}{filemeta_path}", e.g. "/Lens/Notes/Ideas.md".
	VirtualPath string
	EntryType   string
	ID          string
	FolderIdx   int
}

// FolderSource pairs a folder document with the name it should be
// mounted under in the virtual tree.
type FolderSource struct {
	Doc  *shareddoc.Doc
	Name string
}

// Build constructs the flat virtual tree from a sequence of folder
// sources. Each folder's filemeta is read under its own read transaction;
// entries missing an "id" are skipped.
func Build(sources []FolderSource) []Entry {
	var entries []Entry
	for fi, src := range sources {
		src.Doc.Read(func(txn shareddoc.ReadTxn) {
			filemeta := txn.GetMap("filemeta_v0")
			for path, v := range filemeta {
				wrapped := folder.WrapEntry(v)
				id, ok := wrapped.ExtractID()
				if !ok {
					continue
				}
				entryType, _ := wrapped.ExtractType()
				if entryType == "" {
					entryType = "unknown"
				}
				entries = append(entries, Entry{
					VirtualPath: fmt.Sprintf("/%s%s", src.Name, path),
					EntryType:   entryType,
					ID:          id,
					FolderIdx:   fi,
				})
			}
		})
	}
	return entries
}

// Resolve implements resolve_in_virtual_tree: relative resolution wins
// immediately; absolute resolution is recorded as a fallback and returned
// only if no relative match exists anywhere in entries. Basename-only
// matching is never performed — this is what guarantees disambiguation
// when multiple folders contain a same-named file.
func Resolve(linkName string, sourceVirtualPath *string, entries []Entry) *Entry {
	var lowerRelative *string
	if sourceVirtualPath != nil {
		rel := respath.ResolveRelative(*sourceVirtualPath, linkName)
		lower := strings.ToLower(rel)
		lowerRelative = &lower
	}
	lowerAbsolute := strings.ToLower(fmt.Sprintf("/%s.md", linkName))

	var absoluteMatch *Entry
	for i := range entries {
		e := &entries[i]
		if e.EntryType != "markdown" {
			continue
		}
		lowerEntry := strings.ToLower(e.VirtualPath)

		if lowerRelative != nil && lowerEntry == *lowerRelative {
			return e
		}
		if absoluteMatch == nil && lowerEntry == lowerAbsolute {
			absoluteMatch = e
		}
	}
	return absoluteMatch
}

// FindByID returns the entry whose ID matches uuid, if any. Used to
// locate a source document's own virtual path before resolving its
// outgoing links.
func FindByID(entries []Entry, uuid string) *Entry {
	for i := range entries {
		if entries[i].ID == uuid {
			return &entries[i]
		}
	}
	return nil
}

// ComputeRelativeWikilink computes the wikilink text (no ".md", no
// enclosing brackets) that resolves from sourceVirtualPath to
// targetVirtualPath: the longest case-insensitive common directory
// prefix is elided, ".." is emitted for each remaining source directory
// segment, followed by the remaining target segments.
func ComputeRelativeWikilink(sourceVirtualPath, targetVirtualPath string) string {
	sourceDir := sourceVirtualPath
	if idx := strings.LastIndexByte(sourceVirtualPath, '/'); idx != -1 {
		sourceDir = sourceVirtualPath[:idx]
	} else {
		sourceDir = ""
	}
	sourceSegments := splitNonEmpty(sourceDir)

	targetNoExt := strings.TrimSuffix(targetVirtualPath, ".md")
	targetSegments := splitNonEmpty(targetNoExt)

	commonLen := 0
	for commonLen < len(sourceSegments) && commonLen < len(targetSegments) {
		if !strings.EqualFold(sourceSegments[commonLen], targetSegments[commonLen]) {
			break
		}
		commonLen++
	}

	ups := len(sourceSegments) - commonLen
	remainingTarget := targetSegments[commonLen:]

	parts := make([]string, 0, ups+len(remainingTarget))
	for i := 0; i < ups; i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, remainingTarget...)

	return strings.Join(parts, "/")
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, p := range strings.Split(s, "/") {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
