// Package linkservice is the orchestration facade over the link-graph
// subsystem: it wires the Document Resolver Cache, Backlink Indexer, and
// Move/Rename Engine into the two operations external callers invoke,
// matching the request/response contracts of the get_links and
// move_document tool calls.
package linkservice

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/ali01/linkweave/internal/docresolver"
	"github.com/ali01/linkweave/internal/move"
	"github.com/ali01/linkweave/internal/shareddoc"
	"github.com/ali01/linkweave/internal/vtree"
	"github.com/ali01/linkweave/internal/wikilink"
	"github.com/ali01/linkweave/internal/worker"
)

// Service exposes the link-graph operations a transport layer (HTTP tool
// API, CLI) drives.
type Service struct {
	registry worker.Registry
	resolver *docresolver.Resolver
}

// New returns a Service backed by the given document registry and
// resolver.
func New(registry worker.Registry, resolver *docresolver.Resolver) *Service {
	return &Service{registry: registry, resolver: resolver}
}

// GetLinks returns the backlinks and forward links of the document at
// filePath, formatted as human-readable sections matching the tool's
// original text output.
func (s *Service) GetLinks(filePath string) (string, error) {
	info, ok := s.resolver.ResolvePath(filePath)
	if !ok {
		return "", notFound("document not found: %s", filePath)
	}

	backlinkPaths := s.readBacklinkPaths(info.FolderDocID, info.UUID)
	forwardLinkPaths := s.readForwardLinkPaths(info.DocID, info.UUID)

	var b strings.Builder
	b.WriteString("Backlinks (documents linking to this):\n")
	writeListOrNone(&b, backlinkPaths)
	b.WriteString("\nForward links (documents this links to):\n")
	writeListOrNone(&b, forwardLinkPaths)

	return b.String(), nil
}

func writeListOrNone(b *strings.Builder, paths []string) {
	if len(paths) == 0 {
		b.WriteString("- (none)\n")
		return
	}
	for _, p := range paths {
		b.WriteString("- ")
		b.WriteString(p)
		b.WriteString("\n")
	}
}

func (s *Service) readBacklinkPaths(folderDocID, uuid string) []string {
	doc, _, ok := s.registry.Lookup(folderDocID)
	if !ok {
		return nil
	}
	var uuids []string
	doc.Read(func(txn shareddoc.ReadTxn) {
		uuids = txn.GetMap("backlinks_v0")[uuid].Strings()
	})

	paths := make([]string, 0, len(uuids))
	for _, u := range uuids {
		if p, ok := s.resolver.PathForUUID(u); ok {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

func (s *Service) readForwardLinkPaths(docID, sourceUUID string) []string {
	doc, _, ok := s.registry.Lookup(docID)
	if !ok {
		return nil
	}
	var text string
	doc.Read(func(txn shareddoc.ReadTxn) {
		text, _ = txn.GetText("contents")
	})

	linkNames := wikilink.ExtractTargets(text)
	if len(linkNames) == 0 {
		return nil
	}

	entries := s.buildVirtualTree()
	var sourceVP *string
	if e := vtree.FindByID(entries, sourceUUID); e != nil {
		sourceVP = &e.VirtualPath
	}

	seen := make(map[string]struct{})
	var paths []string
	for _, name := range linkNames {
		e := vtree.Resolve(name, sourceVP, entries)
		if e == nil {
			continue
		}
		path, ok := s.resolver.PathForUUID(e.ID)
		if !ok {
			path = strings.TrimPrefix(e.VirtualPath, "/")
		}
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func (s *Service) buildVirtualTree() []vtree.Entry {
	folders := s.registry.AllFolders()
	sources := make([]vtree.FolderSource, len(folders))
	for i, f := range folders {
		sources[i] = vtree.FolderSource{Doc: f.Doc, Name: f.Name}
	}
	return vtree.Build(sources)
}

// MoveDocument moves the document at filePath to newPath, optionally into
// a different named folder, and returns a human-readable summary matching
// the tool's original text output.
func (s *Service) MoveDocument(filePath, newPath string, targetFolder string) (string, error) {
	if !strings.HasPrefix(newPath, "/") || !strings.HasSuffix(newPath, ".md") {
		return "", invalidInput("new_path must start with '/' and end with '.md'")
	}

	info, ok := s.resolver.ResolvePath(filePath)
	if !ok {
		return "", notFound("document not found: %s", filePath)
	}

	folders := s.registry.AllFolders()
	if len(folders) == 0 {
		return "", notFound("no folder documents found")
	}

	var sourceEntry, targetEntry *worker.FolderEntry
	for i := range folders {
		if folders[i].DocID == info.FolderDocID {
			sourceEntry = &folders[i]
		}
	}
	if sourceEntry == nil {
		return "", notFound("source folder doc not loaded")
	}

	if targetFolder == "" {
		targetEntry = sourceEntry
	} else {
		for i := range folders {
			if folders[i].Name == targetFolder {
				targetEntry = &folders[i]
			}
		}
		if targetEntry == nil {
			names := make([]string, len(folders))
			for i, f := range folders {
				names[i] = f.Name
			}
			return "", invalidInput("unknown target folder: %s. Available: %s", targetFolder, strings.Join(names, ", "))
		}
	}

	var pathExists bool
	targetEntry.Doc.Read(func(txn shareddoc.ReadTxn) {
		_, pathExists = txn.GetMap("filemeta_v0")[newPath]
	})
	if pathExists {
		return "", conflict("path '%s' already exists in target folder", newPath)
	}

	contentDocs := s.collectContentDocs()

	moveFolders := make([]move.Folder, len(folders))
	for i, f := range folders {
		moveFolders[i] = move.Folder{Doc: f.Doc, DocID: f.DocID, Name: f.Name}
	}
	sourceMoveFolder := move.Folder{Doc: sourceEntry.Doc, DocID: sourceEntry.DocID, Name: sourceEntry.Name}
	targetMoveFolder := move.Folder{Doc: targetEntry.Doc, DocID: targetEntry.DocID, Name: targetEntry.Name}

	result, err := move.Document(info.UUID, newPath, sourceMoveFolder, targetMoveFolder, moveFolders, s.resolver, sourceEntry.RelayID, contentDocs)
	if err != nil {
		s.logger().Error("move failed", "uuid", info.UUID, "error", err)
		if errors.Is(err, move.ErrNotFound) {
			return "", notFound("%s", err.Error())
		}
		// move.ErrNotFound is the only error move.Document returns; any
		// other error is reported as internal.
		return "", internal("%s", err.Error())
	}

	return formatMoveResult(result), nil
}

func formatMoveResult(r move.Result) string {
	return fmt.Sprintf("Moved %s%s -> %s%s (%d links rewritten)",
		r.OldFolderName, r.OldPath, r.NewFolderName, r.NewPath, r.LinksRewritten)
}

// collectContentDocs builds a uuid -> doc map covering every loaded
// content document, mirroring the tool's over-inclusive "collect every
// filemeta UUID plus every backlinker" step: in practice that set is
// every content document in the system, so this builds it directly from
// the registry instead of re-deriving it from filemeta and backlinks_v0.
func (s *Service) collectContentDocs() map[string]*shareddoc.Doc {
	out := make(map[string]*shareddoc.Doc)
	for _, docID := range s.registry.AllDocIDs() {
		doc, isFolder, ok := s.registry.Lookup(docID)
		if !ok || isFolder {
			continue
		}
		uuid, ok := s.uuidForDocID(docID)
		if !ok {
			continue
		}
		out[uuid] = doc
	}
	return out
}

func (s *Service) uuidForDocID(docID string) (string, bool) {
	for _, p := range s.resolver.AllPaths() {
		if info, ok := s.resolver.ResolvePath(p); ok && info.DocID == docID {
			return info.UUID, true
		}
	}
	return "", false
}

func (s *Service) logger() *slog.Logger {
	return slog.Default().With("component", "linkservice")
}
