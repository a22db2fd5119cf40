package gitvault

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ali01/linkweave/internal/docresolver"
	"github.com/ali01/linkweave/internal/shareddoc"
	"github.com/ali01/linkweave/internal/worker"
)

// Store loads a vault's Markdown tree from disk into shared documents:
// one folder document per top-level directory (plus one for loose
// root-level files), and one content document per Markdown file. It
// implements worker.Registry so the worker and linkservice can operate
// over it without knowing it is backed by a filesystem.
type Store struct {
	mu sync.Mutex

	relayID string

	folderDocs  map[string]*shareddoc.Doc // folder doc id -> doc
	folderNames map[string]string         // folder doc id -> name
	folderOrder []string

	contentDocs map[string]*shareddoc.Doc // content doc id -> doc
	contentFolders map[string]string       // content doc id -> owning folder doc id

	// pathUUID assigns a stable uuid per "{folderDocID}:{filemeta_path}"
	// so re-loading an unchanged file across a git pull keeps its
	// identity instead of appearing as a delete+create.
	pathUUID map[string]string

	// rootFolderName is the folder name LoadFromDisk last grouped loose
	// root-level files under, cached so FolderDocIDForRelPath can map a
	// root-relative path back to its owning folder without the caller
	// re-deriving rootPath's basename itself.
	rootFolderName string
}

// NewStore returns an empty Store with a freshly generated relay id.
func NewStore() *Store {
	return &Store{
		relayID:        uuid.NewString(),
		folderDocs:     make(map[string]*shareddoc.Doc),
		folderNames:    make(map[string]string),
		contentDocs:    make(map[string]*shareddoc.Doc),
		contentFolders: make(map[string]string),
		pathUUID:       make(map[string]string),
	}
}

// RelayID returns the relay id this store stamps into every doc_id it
// derives.
func (s *Store) RelayID() string { return s.relayID }

// LoadFromDisk walks rootPath and (re)builds every folder and content
// document it finds. Top-level directories become folders named after
// themselves; loose Markdown files directly under rootPath are grouped
// into a folder named after rootPath's own base name. Existing documents
// for paths that still exist are updated in place, preserving their
// UUIDs; documents for paths that disappeared are dropped.
func (s *Store) LoadFromDisk(rootPath string) error {
	entries, err := os.ReadDir(rootPath)
	if err != nil {
		return fmt.Errorf("gitvault: reading vault root: %w", err)
	}

	rootFolderName := filepath.Base(rootPath)
	byFolderName := make(map[string][]string) // folder name -> markdown file relpaths (folder-root-relative)

	var looseFiles []string
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			if e.Name() == ".git" {
				continue
			}
			dirs = append(dirs, e.Name())
			continue
		}
		if strings.HasSuffix(e.Name(), ".md") {
			looseFiles = append(looseFiles, e.Name())
		}
	}

	if len(looseFiles) > 0 {
		byFolderName[rootFolderName] = looseFiles
	}

	for _, dir := range dirs {
		var files []string
		walkErr := filepath.Walk(filepath.Join(rootPath, dir), func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if info.Name() == ".git" {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(path, ".md") {
				rel, relErr := filepath.Rel(filepath.Join(rootPath, dir), path)
				if relErr != nil {
					return relErr
				}
				files = append(files, rel)
			}
			return nil
		})
		if walkErr != nil {
			return fmt.Errorf("gitvault: walking folder %s: %w", dir, walkErr)
		}
		byFolderName[dir] = files
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rootFolderName = rootFolderName

	seenFolders := make(map[string]struct{})
	for folderName, relPaths := range byFolderName {
		folderDocID := s.folderDocIDFor(folderName)
		seenFolders[folderDocID] = struct{}{}

		doc, ok := s.folderDocs[folderDocID]
		if !ok {
			doc = shareddoc.NewDoc()
			s.folderDocs[folderDocID] = doc
			s.folderNames[folderDocID] = folderName
		}

		var folderDir string
		if folderName == rootFolderName && len(dirs) == 0 {
			folderDir = rootPath
		} else if folderName == rootFolderName {
			folderDir = rootPath
		} else {
			folderDir = filepath.Join(rootPath, folderName)
		}

		if err := s.syncFolder(folderDocID, folderName, folderDir, relPaths); err != nil {
			return err
		}
	}

	for folderDocID := range s.folderDocs {
		if _, ok := seenFolders[folderDocID]; !ok {
			delete(s.folderDocs, folderDocID)
			delete(s.folderNames, folderDocID)
			for docID, owner := range s.contentFolders {
				if owner == folderDocID {
					delete(s.contentDocs, docID)
					delete(s.contentFolders, docID)
				}
			}
		}
	}

	s.folderOrder = s.folderOrder[:0]
	for id := range s.folderDocs {
		s.folderOrder = append(s.folderOrder, id)
	}
	sort.Strings(s.folderOrder)

	return nil
}

// folderDocIDFor derives a stable per-folder-name doc id. Folder names
// are unique within one vault, so the name itself is a fine stable key.
func (s *Store) folderDocIDFor(folderName string) string {
	return "folder:" + folderName
}

// FolderDocIDForName returns the doc id LoadFromDisk assigns to the folder
// named name, letting callers (the filesystem watcher) map a changed path
// back to the folder document id to re-queue without reaching into the
// store's internals.
func (s *Store) FolderDocIDForName(folderName string) string {
	return s.folderDocIDFor(folderName)
}

// FolderDocIDForRelPath maps a vault-root-relative file path (as reported
// by gitvault.Manager's changed-file list after a pull) to the doc id of
// the folder LoadFromDisk grouped it under: its first path segment, or
// the root's own folder name for a loose root-level file.
func (s *Store) FolderDocIDForRelPath(relPath string) string {
	s.mu.Lock()
	rootName := s.rootFolderName
	s.mu.Unlock()

	parts := strings.Split(filepath.ToSlash(relPath), "/")
	if len(parts) <= 1 {
		return s.folderDocIDFor(rootName)
	}
	return s.folderDocIDFor(parts[0])
}

// syncFolder reconciles one folder's filemeta_v0 against the markdown
// files currently on disk and reloads every content document's text.
func (s *Store) syncFolder(folderDocID, folderName, folderDir string, relPaths []string) error {
	doc := s.folderDocs[folderDocID]

	current := make(map[string]string) // filemeta path -> uuid
	for _, rel := range relPaths {
		filemetaPath := "/" + filepath.ToSlash(rel)
		key := folderDocID + ":" + filemetaPath
		id, ok := s.pathUUID[key]
		if !ok {
			id = uuid.NewString()
			s.pathUUID[key] = id
		}
		current[filemetaPath] = id

		contentDocID := s.relayID + "-" + id
		data, err := os.ReadFile(filepath.Join(folderDir, rel))
		if err != nil {
			return fmt.Errorf("gitvault: reading %s: %w", rel, err)
		}
		contentDoc, ok := s.contentDocs[contentDocID]
		if !ok {
			contentDoc = shareddoc.NewDoc()
			s.contentDocs[contentDocID] = contentDoc
		}
		s.contentFolders[contentDocID] = folderDocID
		contentDoc.Write(shareddoc.OriginLinkIndexer, func(txn shareddoc.WriteTxn) {
			txn.SetText("contents", string(data))
		})
	}

	doc.Write(shareddoc.OriginLinkIndexer, func(txn shareddoc.WriteTxn) {
		txn.MapInsert("folder_config", "name", shareddoc.StringValue(folderName))

		existing := txn.GetMap("filemeta_v0")
		for path := range existing {
			if _, stillPresent := current[path]; !stillPresent {
				txn.MapRemove("filemeta_v0", path)
			}
		}
		for path, id := range current {
			txn.MapInsert("filemeta_v0", path, shareddoc.MapValue(map[string]shareddoc.Value{
				"id":   shareddoc.StringValue(id),
				"type": shareddoc.StringValue("markdown"),
			}))
		}
	})

	for docID, owner := range s.contentFolders {
		if owner != folderDocID {
			continue
		}
		stillPresent := false
		for _, id := range current {
			if s.relayID+"-"+id == docID {
				stillPresent = true
				break
			}
		}
		if !stillPresent {
			delete(s.contentDocs, docID)
			delete(s.contentFolders, docID)
		}
	}

	return nil
}

// SyncResolver rebuilds every folder's contribution to resolver from this
// store's current state.
func (s *Store) SyncResolver(resolver *docresolver.Resolver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, folderDocID := range s.folderOrder {
		resolver.RebuildFromFolder(folderDocID, s.relayID, s.folderDocs[folderDocID])
	}
}

// Lookup implements worker.Registry.
func (s *Store) Lookup(docID string) (*shareddoc.Doc, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.folderDocs[docID]; ok {
		return d, true, true
	}
	if d, ok := s.contentDocs[docID]; ok {
		return d, false, true
	}
	return nil, false, false
}

// FolderFor implements worker.Registry.
func (s *Store) FolderFor(docID string) (worker.FolderEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.folderDocs[docID]
	if !ok {
		return worker.FolderEntry{}, false
	}
	return worker.FolderEntry{Doc: doc, DocID: docID, Name: s.folderNames[docID], RelayID: s.relayID}, true
}

// ContentDocsIn implements worker.Registry.
func (s *Store) ContentDocsIn(folderDocID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for docID, owner := range s.contentFolders {
		if owner == folderDocID {
			out = append(out, docID)
		}
	}
	sort.Strings(out)
	return out
}

// AllFolders implements worker.Registry.
func (s *Store) AllFolders() []worker.FolderEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]worker.FolderEntry, 0, len(s.folderOrder))
	for _, id := range s.folderOrder {
		out = append(out, worker.FolderEntry{Doc: s.folderDocs[id], DocID: id, Name: s.folderNames[id], RelayID: s.relayID})
	}
	return out
}

// AllDocIDs implements worker.Registry.
func (s *Store) AllDocIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.folderDocs)+len(s.contentDocs))
	for id := range s.folderDocs {
		out = append(out, id)
	}
	for id := range s.contentDocs {
		out = append(out, id)
	}
	return out
}
