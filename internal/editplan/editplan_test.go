package editplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenameEditsPreservesAnchorAndAlias(t *testing.T) {
	// Scenario 4: rename preserves anchor and alias.
	text := "[[Foo#Sec]] and [[Foo|Alias]]"
	edits := RenameEdits(text, "Foo", "Bar", nil)
	got := Apply(text, edits)
	assert.Equal(t, "[[Bar#Sec]] and [[Bar|Alias]]", got)
}

func TestRenameEditsDescendingOrder(t *testing.T) {
	text := "[[Foo]] middle [[Foo]] end [[Foo]]"
	edits := RenameEdits(text, "Foo", "Bar", nil)
	require.Len(t, edits, 3)
	for i := 0; i < len(edits)-1; i++ {
		assert.Greater(t, edits[i].Offset, edits[i+1].Offset)
	}
}

func TestRenameEditsBasenameOnly(t *testing.T) {
	text := "[[Notes/Foo]]"
	edits := RenameEdits(text, "Foo", "Bar", nil)
	require.Len(t, edits, 1)
	assert.Equal(t, "[[Notes/Bar]]", Apply(text, edits))
}

func TestRenameEditsCaseInsensitiveMatch(t *testing.T) {
	text := "[[FOO]]"
	edits := RenameEdits(text, "foo", "Bar", nil)
	require.Len(t, edits, 1)
	assert.Equal(t, "[[Bar]]", Apply(text, edits))
}

func TestRenameEditsResolutionPredicate(t *testing.T) {
	// Scenario 5: same-basename disambiguation on rename.
	text := "[[Foo]] and [[Lens Edu/Foo]]"
	// Only the cross-folder occurrence resolves to the renamed file.
	predicate := func(name string) bool { return name == "Lens Edu/Foo" }
	edits := RenameEdits(text, "Foo", "Qux", predicate)
	got := Apply(text, edits)
	assert.Equal(t, "[[Foo]] and [[Lens Edu/Qux]]", got)
}

func TestP2RenameEditsReplaceEveryBasenameMatch(t *testing.T) {
	text := "code `[[Foo]]` real [[Foo#a]] and [[Foo|b]]"
	edits := RenameEdits(text, "Foo", "Bar", nil)
	got := Apply(text, edits)
	assert.Equal(t, "code `[[Foo]]` real [[Bar#a]] and [[Bar|b]]", got)
}

func TestMoveEditsReplacesFullName(t *testing.T) {
	text := "Check [[Notes/Ideas]]"
	predicate := func(name string) bool { return name == "Notes/Ideas" }
	replacement := func(name string) string { return "../Notes/Ideas" }
	edits := MoveEdits(text, predicate, replacement)
	require.Len(t, edits, 1)
	assert.Equal(t, "Check [[../Notes/Ideas]]", Apply(text, edits))
}

func TestMoveEditsSkipsUnmatched(t *testing.T) {
	text := "[[A]] [[B]]"
	predicate := func(name string) bool { return name == "A" }
	edits := MoveEdits(text, predicate, func(string) string { return "Z" })
	require.Len(t, edits, 1)
	assert.Equal(t, "[[Z]] [[B]]", Apply(text, edits))
}

func TestEmptyEditsNoOp(t *testing.T) {
	text := "[[Foo]]"
	edits := RenameEdits(text, "NotPresent", "X", nil)
	assert.Empty(t, edits)
	assert.Equal(t, text, Apply(text, edits))
}
