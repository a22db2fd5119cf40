// Package wikilink extracts `[[target]]`-style references from Markdown
// text, respecting fenced code blocks and inline code spans.
package wikilink

import (
	"regexp"
	"strings"
)

var (
	wikilinkRe   = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
	fencedCodeRe = regexp.MustCompile("(?s)```[^\n]*\n.*?```|~~~[^\n]*\n.*?~~~")
	inlineCodeRe = regexp.MustCompile("`[^`]*`")
)

// Occurrence is a wikilink occurrence with the byte offsets of its
// replaceable page-name span: the portion from right after `[[` up to the
// first `#`, `|`, or `]]`.
type Occurrence struct {
	// Name is the trimmed page name, e.g. "Foo" from "[[Foo#Section|Alias]]".
	Name string
	// NameStart is the byte offset of the replaceable span in the source text.
	NameStart int
	// NameLen is the byte length of the replaceable span.
	NameLen int
}

// ExtractTargets returns the page-name portion of every wikilink outside
// code spans, in document order. Anchors and aliases are stripped.
func ExtractTargets(markdown string) []string {
	occurrences := ExtractOccurrences(markdown)
	var targets []string
	for _, occ := range occurrences {
		targets = append(targets, occ.Name)
	}
	return targets
}

// ExtractOccurrences returns every wikilink occurrence outside code spans,
// preserving the original byte offsets of the page-name span so a caller
// can compute text edits against the source text directly.
func ExtractOccurrences(markdown string) []Occurrence {
	excluded := buildExcludedRanges(markdown)

	var occurrences []Occurrence
	for _, m := range wikilinkRe.FindAllStringSubmatchIndex(markdown, -1) {
		fullStart, contentStart, contentEnd := m[0], m[2], m[3]
		if isExcluded(fullStart, excluded) {
			continue
		}

		content := markdown[contentStart:contentEnd]
		if strings.TrimSpace(content) == "" {
			continue
		}

		nameEndInContent := len(content)
		if idx := strings.IndexByte(content, '#'); idx != -1 && idx < nameEndInContent {
			nameEndInContent = idx
		}
		if idx := strings.IndexByte(content, '|'); idx != -1 && idx < nameEndInContent {
			nameEndInContent = idx
		}

		name := strings.TrimSpace(content[:nameEndInContent])
		if name == "" {
			continue
		}

		occurrences = append(occurrences, Occurrence{
			Name:      name,
			NameStart: contentStart,
			NameLen:   nameEndInContent,
		})
	}
	return occurrences
}

// buildExcludedRanges returns the byte ranges covered by fenced code
// blocks and inline code spans, used to filter out wikilinks that only
// appear to be links because they sit inside example code.
func buildExcludedRanges(markdown string) [][2]int {
	var ranges [][2]int
	for _, m := range fencedCodeRe.FindAllStringIndex(markdown, -1) {
		ranges = append(ranges, [2]int{m[0], m[1]})
	}
	for _, m := range inlineCodeRe.FindAllStringIndex(markdown, -1) {
		ranges = append(ranges, [2]int{m[0], m[1]})
	}
	return ranges
}

func isExcluded(offset int, excluded [][2]int) bool {
	for _, r := range excluded {
		if offset >= r[0] && offset < r[1] {
			return true
		}
	}
	return false
}

// UniqueTargets returns ExtractTargets deduplicated while preserving first
// occurrence order, useful for callers that only care about distinct
// outgoing links rather than every occurrence.
func UniqueTargets(markdown string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range ExtractTargets(markdown) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
