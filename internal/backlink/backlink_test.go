package backlink

import (
	"testing"

	"github.com/ali01/linkweave/internal/shareddoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func markdownEntry(id string) shareddoc.Value {
	return shareddoc.MapValue(map[string]shareddoc.Value{
		"id":   shareddoc.StringValue(id),
		"type": shareddoc.StringValue("markdown"),
	})
}

func newContentDoc(text string) *shareddoc.Doc {
	d := shareddoc.NewDoc()
	d.Write(shareddoc.OriginLinkIndexer, func(txn shareddoc.WriteTxn) {
		txn.SetText("contents", text)
	})
	return d
}

func backlinksOf(doc *shareddoc.Doc, target string) []string {
	var out []string
	doc.Read(func(txn shareddoc.ReadTxn) {
		if m := txn.GetMap("backlinks_v0"); m != nil {
			out = m[target].Strings()
		}
	})
	return out
}

func TestScenario1BareLinkSameFolder(t *testing.T) {
	lens := shareddoc.NewDoc()
	lens.Write(shareddoc.OriginLinkIndexer, func(txn shareddoc.WriteTxn) {
		txn.MapInsert("folder_config", "name", shareddoc.StringValue("Lens"))
		txn.MapInsert("filemeta_v0", "/Notes.md", markdownEntry("N"))
		txn.MapInsert("filemeta_v0", "/Ideas.md", markdownEntry("I"))
	})

	notesDoc := newContentDoc("See [[Ideas]]")

	Index("N", notesDoc, []FolderSource{{Doc: lens, Name: "Lens"}})

	assert.Equal(t, []string{"N"}, backlinksOf(lens, "I"))
	assert.Empty(t, backlinksOf(lens, "N"))
}

func TestScenario2ExplicitCrossFolderLink(t *testing.T) {
	lens := shareddoc.NewDoc()
	lens.Write(shareddoc.OriginLinkIndexer, func(txn shareddoc.WriteTxn) {
		txn.MapInsert("folder_config", "name", shareddoc.StringValue("Lens"))
		txn.MapInsert("filemeta_v0", "/Welcome.md", markdownEntry("W"))
	})
	lensEdu := shareddoc.NewDoc()
	lensEdu.Write(shareddoc.OriginLinkIndexer, func(txn shareddoc.WriteTxn) {
		txn.MapInsert("folder_config", "name", shareddoc.StringValue("Lens Edu"))
		txn.MapInsert("filemeta_v0", "/Syllabus.md", markdownEntry("S"))
	})

	welcomeDoc := newContentDoc("See [[Lens Edu/Syllabus]]")

	sources := []FolderSource{{Doc: lens, Name: "Lens"}, {Doc: lensEdu, Name: "Lens Edu"}}
	Index("W", welcomeDoc, sources)

	assert.Equal(t, []string{"W"}, backlinksOf(lensEdu, "S"))
	assert.Empty(t, backlinksOf(lens, "S"))
}

func TestScenario3RelativeBeatsAbsolute(t *testing.T) {
	lens := shareddoc.NewDoc()
	lens.Write(shareddoc.OriginLinkIndexer, func(txn shareddoc.WriteTxn) {
		txn.MapInsert("folder_config", "name", shareddoc.StringValue("Lens"))
		txn.MapInsert("filemeta_v0", "/Notes/Source.md", markdownEntry("X"))
		txn.MapInsert("filemeta_v0", "/Ideas.md", markdownEntry("Root"))
		txn.MapInsert("filemeta_v0", "/Notes/Ideas.md", markdownEntry("Sib"))
	})

	sourceDoc := newContentDoc("[[Ideas]]")

	Index("X", sourceDoc, []FolderSource{{Doc: lens, Name: "Lens"}})

	assert.Equal(t, []string{"X"}, backlinksOf(lens, "Sib"))
	assert.Empty(t, backlinksOf(lens, "Root"))
}

func TestIndexRemovesStaleBacklinkWhenLinkDeleted(t *testing.T) {
	lens := shareddoc.NewDoc()
	lens.Write(shareddoc.OriginLinkIndexer, func(txn shareddoc.WriteTxn) {
		txn.MapInsert("folder_config", "name", shareddoc.StringValue("Lens"))
		txn.MapInsert("filemeta_v0", "/Notes.md", markdownEntry("N"))
		txn.MapInsert("filemeta_v0", "/Ideas.md", markdownEntry("I"))
	})

	notesDoc := newContentDoc("See [[Ideas]]")
	sources := []FolderSource{{Doc: lens, Name: "Lens"}}
	Index("N", notesDoc, sources)
	require.Equal(t, []string{"N"}, backlinksOf(lens, "I"))

	notesDoc.Write(shareddoc.OriginLinkIndexer, func(txn shareddoc.WriteTxn) {
		txn.SetText("contents", "no links anymore")
	})
	Index("N", notesDoc, sources)

	assert.Empty(t, backlinksOf(lens, "I"), "I3: stale backlink array must be pruned away, not left empty")

	var hasKey bool
	lens.Read(func(txn shareddoc.ReadTxn) {
		m := txn.GetMap("backlinks_v0")
		_, hasKey = m["I"]
	})
	assert.False(t, hasKey, "I3: backlinks[T] must be absent, never an empty array")
}

func TestIndexDoesNotDuplicateExistingBacklink(t *testing.T) {
	lens := shareddoc.NewDoc()
	lens.Write(shareddoc.OriginLinkIndexer, func(txn shareddoc.WriteTxn) {
		txn.MapInsert("folder_config", "name", shareddoc.StringValue("Lens"))
		txn.MapInsert("filemeta_v0", "/Notes.md", markdownEntry("N"))
		txn.MapInsert("filemeta_v0", "/Ideas.md", markdownEntry("I"))
	})
	notesDoc := newContentDoc("[[Ideas]] and [[Ideas]] again")
	sources := []FolderSource{{Doc: lens, Name: "Lens"}}

	Index("N", notesDoc, sources)
	Index("N", notesDoc, sources)

	assert.Equal(t, []string{"N"}, backlinksOf(lens, "I"))
}

func TestRemoveDocFromBacklinksIdempotent(t *testing.T) {
	lens := shareddoc.NewDoc()
	lens.Write(shareddoc.OriginLinkIndexer, func(txn shareddoc.WriteTxn) {
		txn.MapInsert("backlinks_v0", "I", shareddoc.StringArray([]string{"N", "M"}))
	})

	count := RemoveDocFromBacklinks("N", []*shareddoc.Doc{lens})
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"M"}, backlinksOf(lens, "I"))

	// P4: idempotent, leaves no empty arrays.
	count = RemoveDocFromBacklinks("N", []*shareddoc.Doc{lens})
	assert.Equal(t, 0, count)

	count = RemoveDocFromBacklinks("M", []*shareddoc.Doc{lens})
	assert.Equal(t, 1, count)

	var hasKey bool
	lens.Read(func(txn shareddoc.ReadTxn) {
		m := txn.GetMap("backlinks_v0")
		_, hasKey = m["I"]
	})
	assert.False(t, hasKey)
}
