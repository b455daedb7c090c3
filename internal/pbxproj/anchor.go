package pbxproj

import (
	"fmt"
	"regexp"

	"golang.org/x/text/unicode/norm"
)

// Section identifies one of the four descriptor section categories that
// registering a source file touches.
type Section string

const (
	// SectionBuildFiles holds PBXBuildFile registrations.
	SectionBuildFiles Section = "build-files"

	// SectionFileReferences holds PBXFileReference declarations.
	SectionFileReferences Section = "file-references"

	// SectionGroupChildren is a UI group's child list.
	SectionGroupChildren Section = "group-children"

	// SectionPhaseFiles is a compile phase's file list.
	SectionPhaseFiles Section = "phase-files"
)

// Sections lists the four categories in patch order. Each patch operates
// on the cumulative result of the previous one.
var Sections = []Section{
	SectionBuildFiles,
	SectionFileReferences,
	SectionGroupChildren,
	SectionPhaseFiles,
}

// key matches a 24-character descriptor key.
const key = `[0-9A-F]{24}`

// Anchor locates the registration lines of a file that is already present
// in the descriptor. One pattern per section category matches that file's
// line; insertions land immediately after the first match.
type Anchor struct {
	File  string // registered file name, e.g. "RawImageViewer.swift"
	Phase string // compile phase display name, e.g. "Sources"
}

// pattern compiles the anchor's line pattern for one section category.
// Submatch 1 captures the line's leading whitespace so insertions can
// reuse the surrounding block's indentation convention.
func (a Anchor) pattern(section Section) *regexp.Regexp {
	file := regexp.QuoteMeta(norm.NFC.String(a.File))
	phase := regexp.QuoteMeta(a.Phase)

	var body string
	switch section {
	case SectionBuildFiles:
		body = fmt.Sprintf(`%s /\* %s in %s \*/ = \{isa = PBXBuildFile; fileRef = %s /\* %s \*/; \};`,
			key, file, phase, key, file)
	case SectionFileReferences:
		body = fmt.Sprintf(`%s /\* %s \*/ = \{isa = PBXFileReference;[^\n]*\};`, key, file)
	case SectionGroupChildren:
		body = fmt.Sprintf(`%s /\* %s \*/,`, key, file)
	case SectionPhaseFiles:
		body = fmt.Sprintf(`%s /\* %s in %s \*/,`, key, file, phase)
	}

	return regexp.MustCompile(`(?m)^([ \t]*)` + body + `[ \t]*$`)
}
