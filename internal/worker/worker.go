// Package worker implements the debounced indexing worker: a single
// cooperative consumer of a work queue that distinguishes folder-metadata
// updates from content updates, applies rename propagation, and drives
// the Backlink Indexer.
package worker

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ali01/linkweave/internal/backlink"
	"github.com/ali01/linkweave/internal/docresolver"
	"github.com/ali01/linkweave/internal/editplan"
	"github.com/ali01/linkweave/internal/renamedetect"
	"github.com/ali01/linkweave/internal/shareddoc"
	"github.com/ali01/linkweave/internal/vtree"
)

const debounceInterval = 2 * time.Second

// queueCapacity bounds the pending work queue so a storm of updates backs
// up the producer rather than growing memory without limit.
const queueCapacity = 1000

// FolderEntry describes one known folder document for the worker's
// purposes: its shared document, its doc id, its virtual-tree mount name,
// and the relay id used to derive content doc ids.
type FolderEntry struct {
	Doc     *shareddoc.Doc
	DocID   string
	Name    string
	RelayID string
}

// Registry is how the worker learns about documents and their
// relationships without owning their storage itself. A caller (the vault
// loader, in practice) implements this over whatever holds the documents
// in memory.
type Registry interface {
	// Lookup returns the document for docID and whether it is a folder
	// document (non-empty filemeta_v0) as opposed to a content document.
	Lookup(docID string) (doc *shareddoc.Doc, isFolder bool, ok bool)
	// FolderFor returns the FolderEntry owning docID, if docID names a
	// folder document.
	FolderFor(docID string) (FolderEntry, bool)
	// ContentDocsIn returns the doc ids of every content document
	// currently loaded under folderDocID.
	ContentDocsIn(folderDocID string) []string
	// AllFolders returns every known folder, for virtual-tree construction.
	AllFolders() []FolderEntry
	// AllDocIDs returns every known document id, for reindex_all_backlinks.
	AllDocIDs() []string
}

// Worker is the sole consumer of its work queue; duplicate receivers
// would violate the debounce guarantee the pending map provides.
type Worker struct {
	registry Registry
	resolver *docresolver.Resolver
	renames  *renamedetect.Detector

	mu      sync.Mutex
	pending map[string]time.Time

	queue chan string
	done  chan struct{}
}

// New returns a Worker that has not yet been started.
func New(registry Registry, resolver *docresolver.Resolver, renames *renamedetect.Detector) *Worker {
	return &Worker{
		registry: registry,
		resolver: resolver,
		renames:  renames,
		pending:  make(map[string]time.Time),
		queue:    make(chan string, queueCapacity),
		done:     make(chan struct{}),
	}
}

// OnDocumentUpdate enqueues docID for processing, per the spec's
// check-and-insert debounce admission rule: the entry's timestamp is
// always refreshed, but docID is only pushed onto the queue the first
// time it becomes pending.
func (w *Worker) OnDocumentUpdate(docID string) {
	w.mu.Lock()
	_, alreadyPending := w.pending[docID]
	w.pending[docID] = time.Now()
	w.mu.Unlock()

	if !alreadyPending {
		w.queue <- docID
	}
}

// Run consumes the work queue until it is closed via Stop. It is meant to
// be invoked once, typically in its own goroutine.
func (w *Worker) Run() {
	for {
		select {
		case docID, ok := <-w.queue:
			if !ok {
				return
			}
			w.process(docID)
		case <-w.done:
			return
		}
	}
}

// Stop terminates Run. The worker owns the sole receiver; closing done is
// sufficient, the queue itself is left for garbage collection.
func (w *Worker) Stop() {
	close(w.done)
}

func (w *Worker) process(docID string) {
	defer func() {
		w.mu.Lock()
		delete(w.pending, docID)
		w.mu.Unlock()
	}()

	doc, isFolder, ok := w.registry.Lookup(docID)
	if !ok {
		return
	}

	if isFolder {
		w.processFolder(docID, doc)
		return
	}

	w.processContent(docID, doc)
}

// processFolder runs immediately, no debounce: detects renames, rewrites
// backlinkers whose links resolved to the renamed file's old location,
// refreshes the resolver, and re-queues the folder's content documents —
// unless renames fired, in which case their texts were just rewritten and
// re-indexing now would race the next folder update.
func (w *Worker) processFolder(docID string, doc *shareddoc.Doc) {
	entry, ok := w.registry.FolderFor(docID)
	if !ok {
		w.logger().Warn("folder document missing registry entry", "doc_id", docID)
		return
	}

	events := w.renames.Detect(entry.DocID, doc)

	allFolders := w.registry.AllFolders()
	sources := make([]vtree.FolderSource, len(allFolders))
	for i, f := range allFolders {
		sources[i] = vtree.FolderSource{Doc: f.Doc, Name: f.Name}
	}
	vtreeEntries := vtree.Build(sources)

	for _, ev := range events {
		w.applyRename(entry, ev, vtreeEntries)
	}

	w.resolver.RebuildFromFolder(entry.DocID, entry.RelayID, doc)

	if len(events) > 0 {
		w.logger().Info("renames detected, skipping content re-queue", "folder", entry.Name, "count", len(events))
		return
	}

	for _, contentDocID := range w.registry.ContentDocsIn(entry.DocID) {
		w.OnDocumentUpdate(contentDocID)
	}
}

// applyRename rewrites every backlinker's wikilink that, in the patched
// virtual tree, resolves to the renamed file's old virtual path.
func (w *Worker) applyRename(owner FolderEntry, ev renamedetect.Event, entries []vtree.Entry) {
	oldVirtualPath := "/" + owner.Name + ev.OldFilemetaPath

	patched := make([]vtree.Entry, len(entries))
	copy(patched, entries)
	for i := range patched {
		if patched[i].ID == ev.UUID {
			patched[i].VirtualPath = oldVirtualPath
		}
	}

	for _, f := range w.registry.AllFolders() {
		var backlinkers []string
		f.Doc.Read(func(txn shareddoc.ReadTxn) {
			m := txn.GetMap("backlinks_v0")
			backlinkers = m[ev.UUID].Strings()
		})

		for _, backlinkerUUID := range backlinkers {
			contentDocID, ok := w.docIDFor(backlinkerUUID)
			if !ok {
				continue
			}
			contentDoc, _, ok := w.registry.Lookup(contentDocID)
			if !ok {
				continue
			}
			w.rewriteRenamedLinks(contentDoc, backlinkerUUID, ev, oldVirtualPath, patched)
		}
	}
}

func (w *Worker) docIDFor(uuid string) (string, bool) {
	path, ok := w.resolver.PathForUUID(uuid)
	if !ok {
		return "", false
	}
	info, ok := w.resolver.ResolvePath(path)
	if !ok {
		return "", false
	}
	return info.DocID, true
}

func (w *Worker) rewriteRenamedLinks(contentDoc *shareddoc.Doc, backlinkerUUID string, ev renamedetect.Event, oldVirtualPath string, entries []vtree.Entry) {
	var text string
	contentDoc.Read(func(txn shareddoc.ReadTxn) {
		text, _ = txn.GetText("contents")
	})

	var sourceVP *string
	if e := vtree.FindByID(entries, backlinkerUUID); e != nil {
		sourceVP = &e.VirtualPath
	}

	predicate := func(name string) bool {
		e := vtree.Resolve(name, sourceVP, entries)
		return e != nil && e.VirtualPath == oldVirtualPath
	}

	edits := editplan.RenameEdits(text, ev.OldBasename, ev.NewBasename, predicate)
	if len(edits) == 0 {
		return
	}

	newText := editplan.Apply(text, edits)
	contentDoc.Write(shareddoc.OriginLinkIndexer, func(txn shareddoc.WriteTxn) {
		txn.SetText("contents", newText)
	})
}

// processContent debounces: it waits until the entry's pending timestamp
// is at least one debounce interval old, then indexes. A newer
// OnDocumentUpdate for the same doc only refreshes the timestamp, which
// extends the wait. If the entry is removed from pending while waiting,
// it abandons without indexing.
func (w *Worker) processContent(docID string, doc *shareddoc.Doc) {
	for {
		w.mu.Lock()
		ts, ok := w.pending[docID]
		w.mu.Unlock()
		if !ok {
			return
		}
		if time.Since(ts) >= debounceInterval {
			break
		}
		time.Sleep(debounceInterval)
	}

	uuid, _, ok := w.identify(docID)
	if !ok {
		return
	}

	folders := w.registry.AllFolders()
	sources := make([]backlink.FolderSource, len(folders))
	for i, f := range folders {
		sources[i] = backlink.FolderSource{Doc: f.Doc, Name: f.Name}
	}

	backlink.Index(uuid, doc, sources)
}

// identify derives the content document's own uuid and owning folder doc
// id via the resolver's reverse lookup — doc_id carries neither directly.
func (w *Worker) identify(docID string) (uuid, folderDocID string, ok bool) {
	for _, p := range w.resolver.AllPaths() {
		info, found := w.resolver.ResolvePath(p)
		if found && info.DocID == docID {
			return info.UUID, info.FolderDocID, true
		}
	}
	return "", "", false
}

// ReindexAllBacklinks runs the Backlink Indexer over every known content
// document, then seeds the Rename Detector's cache for every folder so
// the first subsequent metadata update does not produce spurious renames.
func (w *Worker) ReindexAllBacklinks() {
	folders := w.registry.AllFolders()
	sources := make([]backlink.FolderSource, len(folders))
	for i, f := range folders {
		sources[i] = backlink.FolderSource{Doc: f.Doc, Name: f.Name}
	}

	for _, docID := range w.registry.AllDocIDs() {
		doc, isFolder, ok := w.registry.Lookup(docID)
		if !ok || isFolder {
			continue
		}
		uuid, _, ok := w.identify(docID)
		if !ok {
			continue
		}
		backlink.Index(uuid, doc, sources)
	}

	for _, f := range folders {
		w.renames.Seed(f.DocID, f.Doc)
	}
}

func (w *Worker) logger() *slog.Logger {
	return slog.Default().With("component", "worker")
}
