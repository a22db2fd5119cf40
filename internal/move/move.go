// Package move implements the Move/Rename Engine: filemeta mutation,
// pre-move virtual-tree reconstruction, backlinker and outgoing-link
// rewriting, and re-indexing of the moved document's own outgoing edges.
package move

import (
	"fmt"
	"strings"

	"github.com/ali01/linkweave/internal/backlink"
	"github.com/ali01/linkweave/internal/docresolver"
	"github.com/ali01/linkweave/internal/editplan"
	"github.com/ali01/linkweave/internal/folder"
	"github.com/ali01/linkweave/internal/shareddoc"
	"github.com/ali01/linkweave/internal/vtree"
)

// Errors surfaced by Document, classified per spec.md §7.
var (
	// ErrNotFound indicates the source UUID is absent from the source folder.
	ErrNotFound = fmt.Errorf("move: uuid not found in source folder")
)

// Result is the outcome of a successful move.
type Result struct {
	OldPath        string
	NewPath        string
	OldFolderName  string
	NewFolderName  string
	LinksRewritten int
}

// Folder bundles one folder document with its doc id and virtual-tree
// mount name — everything Document needs to identify and mutate it.
type Folder struct {
	Doc    *shareddoc.Doc
	DocID  string
	Name   string
}

// Document moves the document identified by uuid to newFilemetaPath,
// potentially across folders, and rewrites every affected wikilink.
//
// allFolders must include both source and target (they may be the same
// folder for a within-folder rename/move). contentDocs maps content doc
// UUID to its shared document, used both to look up backlinkers' text and
// to find the moved document's own content for outgoing-link rewriting
// and re-indexing.
func Document(
	uuid string,
	newFilemetaPath string,
	source Folder,
	target Folder,
	allFolders []Folder,
	resolver *docresolver.Resolver,
	relayID string,
	contentDocs map[string]*shareddoc.Doc,
) (Result, error) {
	// 1. Locate the existing filemeta entry and capture its fields.
	var oldPath string
	var fields map[string]shareddoc.Value
	found := false
	source.Doc.Read(func(txn shareddoc.ReadTxn) {
		filemeta := txn.GetMap("filemeta_v0")
		for path, v := range filemeta {
			wrapped := folder.WrapEntry(v)
			if id, ok := wrapped.ExtractID(); ok && id == uuid {
				oldPath = path
				fields = wrapped.Fields()
				found = true
				break
			}
		}
	})
	if !found {
		return Result{}, ErrNotFound
	}

	sourceFolderName := source.Name
	targetFolderName := target.Name
	isCrossFolder := source.DocID != target.DocID

	entryValue := shareddoc.MapValue(fields)

	// 2. Update filemeta_v0.
	if isCrossFolder {
		source.Doc.Write(shareddoc.OriginLinkIndexer, func(txn shareddoc.WriteTxn) {
			txn.MapRemove("filemeta_v0", oldPath)
		})
		target.Doc.Write(shareddoc.OriginLinkIndexer, func(txn shareddoc.WriteTxn) {
			txn.MapInsert("filemeta_v0", newFilemetaPath, entryValue)
		})
	} else {
		source.Doc.Write(shareddoc.OriginLinkIndexer, func(txn shareddoc.WriteTxn) {
			txn.MapRemove("filemeta_v0", oldPath)
			txn.MapInsert("filemeta_v0", newFilemetaPath, entryValue)
		})
	}

	// 3. Update the resolver.
	newFullPath := targetFolderName + "/" + strings.TrimPrefix(newFilemetaPath, "/")
	// folder_doc_id records the folder that owns the entry after the move:
	// the target folder, which equals the source for a within-folder move.
	folderDocIDForInfo := target.DocID
	resolver.UpsertDoc(uuid, newFullPath, docresolver.DocInfo{
		UUID:        uuid,
		RelayID:     relayID,
		FolderDocID: folderDocIDForInfo,
		FolderName:  targetFolderName,
		DocID:       relayID + "-" + uuid,
	})

	// 4. Build the virtual tree over all folders, then patch the moved
	// document's entry back to its pre-move virtual path — resolution
	// during rewriting must reflect the world the links were written in.
	sources := make([]vtree.FolderSource, len(allFolders))
	for i, f := range allFolders {
		sources[i] = vtree.FolderSource{Doc: f.Doc, Name: f.Name}
	}
	entries := vtree.Build(sources)

	oldVirtualPath := fmt.Sprintf("/%s%s", sourceFolderName, oldPath)
	for i := range entries {
		if entries[i].ID == uuid {
			entries[i].VirtualPath = oldVirtualPath
		}
	}

	// 5. Gather the union of backlinker UUIDs across every folder.
	var backlinkerUUIDs []string
	seen := make(map[string]struct{})
	for _, f := range allFolders {
		f.Doc.Read(func(txn shareddoc.ReadTxn) {
			backlinks := txn.GetMap("backlinks_v0")
			for _, s := range backlinks[uuid].Strings() {
				if _, ok := seen[s]; !ok {
					seen[s] = struct{}{}
					backlinkerUUIDs = append(backlinkerUUIDs, s)
				}
			}
		})
	}

	newVirtualPath := fmt.Sprintf("/%s%s", targetFolderName, newFilemetaPath)
	totalRewritten := 0

	// 6. Rewrite every backlinker's reference to the moved document.
	for _, backlinkerUUID := range backlinkerUUIDs {
		contentDoc, ok := contentDocs[backlinkerUUID]
		if !ok {
			continue
		}
		entry := vtree.FindByID(entries, backlinkerUUID)
		if entry == nil {
			continue
		}
		svp := entry.VirtualPath
		count := rewriteForMove(contentDoc, svp, oldVirtualPath, newVirtualPath, entries)
		totalRewritten += count
	}

	// 7. Rewrite the moved document's own outgoing links.
	if contentDoc, ok := contentDocs[uuid]; ok {
		count := rewriteOutgoingForMove(contentDoc, oldVirtualPath, newVirtualPath, entries)
		totalRewritten += count
	}

	// 8. Re-index the moved document's own outgoing edges at its new location.
	if contentDoc, ok := contentDocs[uuid]; ok {
		reindexSources := make([]backlink.FolderSource, len(allFolders))
		for i, f := range allFolders {
			reindexSources[i] = backlink.FolderSource{Doc: f.Doc, Name: f.Name}
		}
		backlink.Index(uuid, contentDoc, reindexSources)
	}

	return Result{
		OldPath:        oldPath,
		NewPath:        newFilemetaPath,
		OldFolderName:  sourceFolderName,
		NewFolderName:  targetFolderName,
		LinksRewritten: totalRewritten,
	}, nil
}

// rewriteForMove rewrites, within one backlinker's content, any wikilink
// that resolves (from its own virtual path) to the patched old virtual
// path, replacing it with the relative wikilink to the new location.
func rewriteForMove(contentDoc *shareddoc.Doc, sourceVirtualPath, oldTargetVirtualPath, newTargetVirtualPath string, entries []vtree.Entry) int {
	var text string
	contentDoc.Read(func(txn shareddoc.ReadTxn) {
		text, _ = txn.GetText("contents")
	})

	oldLower := strings.ToLower(oldTargetVirtualPath)
	newName := vtree.ComputeRelativeWikilink(sourceVirtualPath, newTargetVirtualPath)

	svp := sourceVirtualPath
	predicate := func(linkName string) bool {
		e := vtree.Resolve(linkName, &svp, entries)
		return e != nil && strings.ToLower(e.VirtualPath) == oldLower
	}
	replacement := func(string) string { return newName }

	edits := editplan.MoveEdits(text, predicate, replacement)
	if len(edits) == 0 {
		return 0
	}

	newText := editplan.Apply(text, edits)
	contentDoc.Write(shareddoc.OriginLinkIndexer, func(txn shareddoc.WriteTxn) {
		txn.SetText("contents", newText)
	})
	return len(edits)
}

// rewriteOutgoingForMove rewrites the moved document's own outgoing
// wikilinks: each link is resolved from the OLD source location, and if
// it resolves, the replacement text is recomputed relative to the NEW
// source location; only edits where the text actually changes are
// emitted.
func rewriteOutgoingForMove(contentDoc *shareddoc.Doc, oldSourceVirtualPath, newSourceVirtualPath string, entries []vtree.Entry) int {
	var text string
	contentDoc.Read(func(txn shareddoc.ReadTxn) {
		text, _ = txn.GetText("contents")
	})

	osvp := oldSourceVirtualPath
	predicate := func(linkName string) bool {
		target := vtree.Resolve(linkName, &osvp, entries)
		if target == nil {
			return false
		}
		newLink := vtree.ComputeRelativeWikilink(newSourceVirtualPath, target.VirtualPath)
		return newLink != linkName
	}
	replacement := func(linkName string) string {
		target := vtree.Resolve(linkName, &osvp, entries)
		return vtree.ComputeRelativeWikilink(newSourceVirtualPath, target.VirtualPath)
	}

	edits := editplan.MoveEdits(text, predicate, replacement)
	if len(edits) == 0 {
		return 0
	}

	newText := editplan.Apply(text, edits)
	contentDoc.Write(shareddoc.OriginLinkIndexer, func(txn shareddoc.WriteTxn) {
		txn.SetText("contents", newText)
	})
	return len(edits)
}
