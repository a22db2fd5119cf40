// Package folder reads folder-level configuration and filemeta entries
// from folder documents, handling the "dynamic variant" field shapes that
// local writes and remote frontend writes produce.
package folder

import (
	"fmt"

	"github.com/ali01/linkweave/internal/shareddoc"
)

// ReadName reads folder_config.name from a folder document's read
// transaction. If missing or empty, it returns a placeholder derived from
// the folder's doc id so resolution failures stay visible instead of
// silently merging folders under a shared fallback name.
func ReadName(txn shareddoc.ReadTxn, folderDocID string) string {
	cfg := txn.GetMap("folder_config")
	if cfg != nil {
		if v, ok := cfg["name"]; ok && v.Kind == shareddoc.KindString && v.Str != "" {
			return v.Str
		}
	}
	return fallbackName(folderDocID)
}

func fallbackName(folderDocID string) string {
	prefix := folderDocID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("Folder-%s", prefix)
}

// FilemetaEntry is a normalized view over a filemeta_v0 entry, regardless
// of whether it arrived as a nested map value (local writes) or a plain
// tagged map (remote Y.js-style writes) — both decode to the same
// shareddoc.Value shape here since shareddoc.Value already unifies them,
// but ExtractID/ExtractType keep their own accessor shape so callers
// mirror the original's two-shape dispatch at the call site instead of
// assuming a map is always well-formed.
type FilemetaEntry struct {
	raw shareddoc.Value
}

// WrapEntry adapts a raw map value into a FilemetaEntry.
func WrapEntry(v shareddoc.Value) FilemetaEntry { return FilemetaEntry{raw: v} }

// ExtractID returns the "id" field of a filemeta entry, if present and a
// string.
func (e FilemetaEntry) ExtractID() (string, bool) {
	return e.stringField("id")
}

// ExtractType returns the "type" field of a filemeta entry, if present
// and a string.
func (e FilemetaEntry) ExtractType() (string, bool) {
	return e.stringField("type")
}

func (e FilemetaEntry) stringField(key string) (string, bool) {
	if e.raw.Kind != shareddoc.KindMap {
		return "", false
	}
	v, ok := e.raw.Map[key]
	if !ok || v.Kind != shareddoc.KindString {
		return "", false
	}
	return v.Str, true
}

// Fields returns every field of a filemeta entry as a flat map, used when
// copying an entry's metadata to a new path during a move.
func (e FilemetaEntry) Fields() map[string]shareddoc.Value {
	if e.raw.Kind != shareddoc.KindMap {
		return nil
	}
	out := make(map[string]shareddoc.Value, len(e.raw.Map))
	for k, v := range e.raw.Map {
		out[k] = v
	}
	return out
}

// Basename returns the last "/"-separated segment of a filemeta path with
// any leading "/" and trailing ".md" stripped, per the glossary's
// definition of "basename".
func Basename(filemetaPath string) string {
	s := filemetaPath
	if len(s) > 0 && s[0] == '/' {
		s = s[1:]
	}
	const suffix = ".md"
	if len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix {
		s = s[:len(s)-len(suffix)]
	}
	last := 0
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			last = i + 1
			break
		}
	}
	return s[last:]
}

// FindPathForUUID scans a folder's filemeta map for the path whose entry's
// id matches uuid.
func FindPathForUUID(filemeta map[string]shareddoc.Value, uuid string) (string, bool) {
	for path, v := range filemeta {
		if id, ok := WrapEntry(v).ExtractID(); ok && id == uuid {
			return path, true
		}
	}
	return "", false
}
