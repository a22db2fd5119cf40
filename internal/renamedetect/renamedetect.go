// Package renamedetect implements the Rename Detector: a stateful
// snapshot-diff over per-folder UUID→basename maps, emitting rename
// events when a UUID's basename changes between two consecutive calls.
package renamedetect

import (
	"sync"

	"github.com/ali01/linkweave/internal/folder"
	"github.com/ali01/linkweave/internal/shareddoc"
)

// Event is a detected rename: a UUID present in both the previous and
// current filemeta snapshots of a folder whose basename has changed.
type Event struct {
	UUID            string
	OldBasename     string
	NewBasename     string
	OldFilemetaPath string
}

type snapshotEntry struct {
	basename string
	path     string
}

// Detector caches, per folder, a UUID -> (basename, path) snapshot built
// from the last call to Detect for that folder.
type Detector struct {
	mu        sync.Mutex
	snapshots map[string]map[string]snapshotEntry
}

// New returns an empty Detector.
func New() *Detector {
	return &Detector{snapshots: make(map[string]map[string]snapshotEntry)}
}

// Detect builds the current filemeta snapshot for folderID, compares it
// against the cached snapshot from the previous call, and returns rename
// events for every UUID present in both whose basename changed.
//
// The first call for a given folderID is a seeding call: it installs the
// snapshot and always returns no events, since there is nothing to diff
// against yet.
func (d *Detector) Detect(folderID string, folderDoc *shareddoc.Doc) []Event {
	current := make(map[string]snapshotEntry)
	folderDoc.Read(func(txn shareddoc.ReadTxn) {
		filemeta := txn.GetMap("filemeta_v0")
		for path, v := range filemeta {
			id, ok := folder.WrapEntry(v).ExtractID()
			if !ok {
				continue
			}
			current[id] = snapshotEntry{basename: folder.Basename(path), path: path}
		}
	})

	d.mu.Lock()
	previous, hadSnapshot := d.snapshots[folderID]
	d.snapshots[folderID] = current
	d.mu.Unlock()

	if !hadSnapshot {
		return nil
	}

	var events []Event
	for uuid, curr := range current {
		prev, ok := previous[uuid]
		if !ok {
			continue // new file, not a rename
		}
		if prev.basename != curr.basename {
			events = append(events, Event{
				UUID:            uuid,
				OldBasename:     prev.basename,
				NewBasename:     curr.basename,
				OldFilemetaPath: prev.path,
			})
		}
		// Same basename, different directory: a pure directory move,
		// handled by the Move Engine, not reported here.
	}
	return events
}

// Seed installs the current snapshot for folderID without emitting
// events, even if a snapshot already existed. Used by reindex_all_backlinks
// so the next real metadata update does not produce spurious renames.
func (d *Detector) Seed(folderID string, folderDoc *shareddoc.Doc) {
	current := make(map[string]snapshotEntry)
	folderDoc.Read(func(txn shareddoc.ReadTxn) {
		filemeta := txn.GetMap("filemeta_v0")
		for path, v := range filemeta {
			id, ok := folder.WrapEntry(v).ExtractID()
			if !ok {
				continue
			}
			current[id] = snapshotEntry{basename: folder.Basename(path), path: path}
		}
	})

	d.mu.Lock()
	d.snapshots[folderID] = current
	d.mu.Unlock()
}
