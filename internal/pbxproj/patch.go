package pbxproj

import "strings"

// Insert finds the first line matching the anchor in the given section
// category and returns new text with one line per entry inserted
// immediately after it, indented like the anchor line. The boolean
// reports whether the anchor was found; when false the text is returned
// unchanged and no entry is inserted.
func Insert(text string, section Section, anchor Anchor, entries []FileEntry) (string, bool) {
	m := anchor.pattern(section).FindStringSubmatchIndex(text)
	if m == nil {
		return text, false
	}
	indent := text[m[2]:m[3]]

	var b strings.Builder
	b.Grow(len(text) + len(entries)*128)
	b.WriteString(text[:m[1]])
	for _, e := range entries {
		b.WriteByte('\n')
		b.WriteString(e.line(section, indent, anchor.Phase))
	}
	b.WriteString(text[m[1]:])
	return b.String(), true
}

// HasAnchor reports whether the anchor's line for the given section
// category appears in the text. Used by dry runs to resolve anchors
// without mutating anything.
func HasAnchor(text string, section Section, anchor Anchor) bool {
	return anchor.pattern(section).MatchString(text)
}
