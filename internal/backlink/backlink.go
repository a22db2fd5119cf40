// Package backlink implements the Backlink Indexer: the synchronous
// routine that, for one content document, reconciles a folder's
// backlinks map against the document's current set of resolved outgoing
// links.
package backlink

import (
	"github.com/ali01/linkweave/internal/shareddoc"
	"github.com/ali01/linkweave/internal/vtree"
	"github.com/ali01/linkweave/internal/wikilink"
)

// Stats summarizes one Index call, for logging and tests.
type Stats struct {
	LinksFound      int
	LinksResolved   int
	FoldersTouched  int
	BacklinksAdded  int
	BacklinksPruned int
}

// FolderSource pairs a folder document with its virtual-tree mount name.
type FolderSource = vtree.FolderSource

// Index reconciles folder_docs' backlinks_v0 maps against the outgoing
// wikilinks of the content document identified by sourceUUID.
//
// Locking discipline: the content text is snapshotted under a read
// transaction and released before any folder write transaction is
// acquired. This separation is required, not stylistic — the content
// document may itself be a folder document, and holding a read lock
// across a write lock on the same underlying document deadlocks.
func Index(sourceUUID string, contentDoc *shareddoc.Doc, folderDocs []FolderSource) Stats {
	// Step 1-2: snapshot text and extract targets under a read transaction,
	// released before touching any folder document.
	var markdown string
	contentDoc.Read(func(txn shareddoc.ReadTxn) {
		markdown, _ = txn.GetText("contents")
	})
	linkNames := wikilink.ExtractTargets(markdown)

	// Step 3: build the virtual tree over all folders.
	entries := vtree.Build(folderDocs)

	// Step 4: locate the source's own virtual path, if it has one yet.
	var sourceVirtualPath *string
	if e := vtree.FindByID(entries, sourceUUID); e != nil {
		sourceVirtualPath = &e.VirtualPath
	}

	// Step 5: resolve each target; unresolved links are silently dropped.
	type resolved struct {
		uuid string
		idx  int
	}
	var resolvedTargets []resolved
	for _, name := range linkNames {
		if e := vtree.Resolve(name, sourceVirtualPath, entries); e != nil {
			resolvedTargets = append(resolvedTargets, resolved{uuid: e.ID, idx: e.FolderIdx})
		}
	}

	// Step 6: partition resolved targets by folder index.
	targetsPerFolder := make([]map[string]struct{}, len(folderDocs))
	for i := range targetsPerFolder {
		targetsPerFolder[i] = make(map[string]struct{})
	}
	for _, r := range resolvedTargets {
		targetsPerFolder[r.idx][r.uuid] = struct{}{}
	}

	stats := Stats{
		LinksFound:    len(linkNames),
		LinksResolved: len(resolvedTargets),
	}

	// Step 7: for each folder, under a single write transaction, add new
	// targets and prune stale ones.
	for fi, src := range folderDocs {
		newTargets := targetsPerFolder[fi]
		touched := false

		src.Doc.Write(shareddoc.OriginLinkIndexer, func(txn shareddoc.WriteTxn) {
			backlinks := txn.GetOrInsertMap("backlinks_v0")

			for target := range newTargets {
				current := readBacklinksArray(backlinks, target)
				if !containsString(current, sourceUUID) {
					updated := append(current, sourceUUID)
					txn.MapInsert("backlinks_v0", target, shareddoc.StringArray(updated))
					stats.BacklinksAdded++
					touched = true
				}
			}

			for key := range backlinks {
				if _, belongsToThisFolder := newTargets[key]; belongsToThisFolder {
					continue
				}
				current := readBacklinksArray(backlinks, key)
				if !containsString(current, sourceUUID) {
					continue
				}
				updated := removeString(current, sourceUUID)
				if len(updated) == 0 {
					txn.MapRemove("backlinks_v0", key)
				} else {
					txn.MapInsert("backlinks_v0", key, shareddoc.StringArray(updated))
				}
				stats.BacklinksPruned++
				touched = true
			}
		})

		if touched {
			stats.FoldersTouched++
		}
	}

	return stats
}

// RemoveDocFromBacklinks scans every folder's backlinks_v0, strips
// sourceUUID from every array it appears in, and removes any array that
// becomes empty as a result. Returns the number of modified arrays.
// Idempotent: calling it on a UUID with no backlinks is a no-op.
func RemoveDocFromBacklinks(sourceUUID string, folderDocs []*shareddoc.Doc) int {
	modified := 0
	for _, doc := range folderDocs {
		doc.Write(shareddoc.OriginLinkIndexer, func(txn shareddoc.WriteTxn) {
			backlinks := txn.GetOrInsertMap("backlinks_v0")
			for key := range backlinks {
				current := readBacklinksArray(backlinks, key)
				if !containsString(current, sourceUUID) {
					continue
				}
				updated := removeString(current, sourceUUID)
				if len(updated) == 0 {
					txn.MapRemove("backlinks_v0", key)
				} else {
					txn.MapInsert("backlinks_v0", key, shareddoc.StringArray(updated))
				}
				modified++
			}
		})
	}
	return modified
}

func readBacklinksArray(backlinks map[string]shareddoc.Value, target string) []string {
	v, ok := backlinks[target]
	if !ok {
		return nil
	}
	return v.Strings()
}

func containsString(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

func removeString(ss []string, s string) []string {
	out := make([]string, 0, len(ss))
	for _, x := range ss {
		if x != s {
			out = append(out, x)
		}
	}
	return out
}
