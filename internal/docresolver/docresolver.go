// Package docresolver maintains the process-wide bidirectional cache
// mapping user-facing document paths to internal document identifiers,
// rebuilt incrementally from folder metadata.
package docresolver

import (
	"strings"
	"sync"

	"github.com/ali01/linkweave/internal/folder"
	"github.com/ali01/linkweave/internal/shareddoc"
)

// DocInfo is the derived, process-wide record of one content document's
// identity, rebuilt from folder metadata.
type DocInfo struct {
	UUID         string
	RelayID      string
	FolderDocID  string
	FolderName   string
	DocID        string
}

// Resolver is a concurrent bidirectional cache: path -> DocInfo and
// uuid -> path. Both maps are guarded by one RWMutex; the
// remove-then-readd step of a folder rebuild runs under the write lock,
// so readers never observe a folder's entries half-replaced. Reading the
// folder document itself happens before that lock is taken.
type Resolver struct {
	mu         sync.RWMutex
	pathToDoc  map[string]DocInfo
	uuidToPath map[string]string
}

// New returns an empty Resolver.
func New() *Resolver {
	return &Resolver{
		pathToDoc:  make(map[string]DocInfo),
		uuidToPath: make(map[string]string),
	}
}

// RebuildFromFolder constructs entries for one folder by reading
// folder_config.name and each filemeta entry, replacing any entries this
// folder previously contributed.
func (r *Resolver) RebuildFromFolder(folderDocID, relayID string, doc *shareddoc.Doc) {
	var entries []pair

	doc.Read(func(txn shareddoc.ReadTxn) {
		folderName := folder.ReadName(txn, folderDocID)
		filemeta := txn.GetMap("filemeta_v0")
		for path, v := range filemeta {
			id, ok := folder.WrapEntry(v).ExtractID()
			if !ok {
				continue
			}
			fullPath := folderName + "/" + strings.TrimPrefix(path, "/")
			entries = append(entries, pair{
				path: fullPath,
				info: DocInfo{
					UUID:        id,
					RelayID:     relayID,
					FolderDocID: folderDocID,
					FolderName:  folderName,
					DocID:       relayID + "-" + id,
				},
			})
		}
	})

	r.updateFolder(folderDocID, entries)
}

// pair is one (full path, DocInfo) entry produced while rebuilding a
// folder's contribution to the resolver.
type pair struct {
	path string
	info DocInfo
}

// updateFolder removes every existing entry whose FolderDocID matches
// folderDocID, then re-adds the given (path, info) pairs, holding the
// write lock for the whole sequence.
func (r *Resolver) updateFolder(folderDocID string, entries []pair) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for path, info := range r.pathToDoc {
		if info.FolderDocID == folderDocID {
			delete(r.pathToDoc, path)
			delete(r.uuidToPath, info.UUID)
		}
	}
	for _, e := range entries {
		r.pathToDoc[e.path] = e.info
		r.uuidToPath[e.info.UUID] = e.path
	}
}

// ResolvePath does an exact match; if p has no ".md" suffix, it also
// tries p+".md".
func (r *Resolver) ResolvePath(p string) (DocInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if info, ok := r.pathToDoc[p]; ok {
		return info, true
	}
	if !strings.HasSuffix(p, ".md") {
		if info, ok := r.pathToDoc[p+".md"]; ok {
			return info, true
		}
	}
	return DocInfo{}, false
}

// PathForUUID is a direct reverse lookup.
func (r *Resolver) PathForUUID(uuid string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.uuidToPath[uuid]
	return p, ok
}

// AllPaths enumerates every known path, for globbing-style consumers.
func (r *Resolver) AllPaths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.pathToDoc))
	for p := range r.pathToDoc {
		out = append(out, p)
	}
	return out
}

// UpsertDoc atomically replaces the entry for uuid with a new path and
// DocInfo, used by the move engine to update the resolver in one step
// rather than a remove-then-add pair that could be observed half-done.
func (r *Resolver) UpsertDoc(uuid, newPath string, info DocInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if oldPath, ok := r.uuidToPath[uuid]; ok {
		delete(r.pathToDoc, oldPath)
	}
	r.pathToDoc[newPath] = info
	r.uuidToPath[uuid] = newPath
}
