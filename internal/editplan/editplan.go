// Package editplan computes byte-exact text edits against wikilink
// occurrences in a content document, in an order safe for sequential
// application to a mutable buffer.
package editplan

import (
	"sort"
	"strings"

	"github.com/ali01/linkweave/internal/wikilink"
)

// TextEdit replaces RemoveLen bytes at Offset with InsertText.
type TextEdit struct {
	Offset     int
	RemoveLen  int
	InsertText string
}

// RenameEdits finds every wikilink occurrence whose basename (the last
// "/"-separated segment of the parsed name) equals oldName
// case-insensitively and for which predicate accepts the full name, and
// emits an edit replacing only the basename span with newName. predicate
// defaults to "always accept" when nil. Edits are returned in strictly
// descending offset order so a caller can apply them sequentially to a
// mutable buffer without offset arithmetic.
func RenameEdits(text, oldName, newName string, predicate func(name string) bool) []TextEdit {
	if predicate == nil {
		predicate = func(string) bool { return true }
	}
	occurrences := wikilink.ExtractOccurrences(text)

	var edits []TextEdit
	for _, occ := range occurrences {
		basename := lastSegment(occ.Name)
		if !strings.EqualFold(basename, oldName) {
			continue
		}
		if !predicate(occ.Name) {
			continue
		}
		basenameOffsetInName := len(occ.Name) - len(basename)
		edits = append(edits, TextEdit{
			Offset:     occ.NameStart + basenameOffsetInName,
			RemoveLen:  len(basename),
			InsertText: newName,
		})
	}

	sortDescending(edits)
	return edits
}

// MoveEdits finds every wikilink occurrence whose full name predicate
// accepts and emits an edit replacing the entire name span with
// replacement(name). Used by the move engine to rewrite both backlinker
// references and the moved document's own outgoing links, where the
// whole name (not just its basename) may need to change.
func MoveEdits(text string, predicate func(name string) bool, replacement func(name string) string) []TextEdit {
	occurrences := wikilink.ExtractOccurrences(text)

	var edits []TextEdit
	for _, occ := range occurrences {
		if !predicate(occ.Name) {
			continue
		}
		edits = append(edits, TextEdit{
			Offset:     occ.NameStart,
			RemoveLen:  occ.NameLen,
			InsertText: replacement(occ.Name),
		})
	}

	sortDescending(edits)
	return edits
}

// Apply applies edits, which must already be in descending-offset order,
// to text and returns the result.
func Apply(text string, edits []TextEdit) string {
	for _, e := range edits {
		text = text[:e.Offset] + e.InsertText + text[e.Offset+e.RemoveLen:]
	}
	return text
}

func sortDescending(edits []TextEdit) {
	sort.Slice(edits, func(i, j int) bool {
		return edits[i].Offset > edits[j].Offset
	})
}

func lastSegment(name string) string {
	if idx := strings.LastIndexByte(name, '/'); idx != -1 {
		return name[idx+1:]
	}
	return name
}
