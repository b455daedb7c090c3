package pbxproj

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/pbxpatch/internal/ident"
)

// FileEntry carries the identifiers minted for one new source file.
//
// A file needs two keys: the reference key names its PBXFileReference
// entry (identity and type), the build key names its PBXBuildFile entry
// (inclusion in a compile phase). The build entry cross-references the
// reference key.
type FileEntry struct {
	Name        string `json:"name"`         // file name as it appears in the descriptor
	FileType    string `json:"file_type"`    // lastKnownFileType value, e.g. "sourcecode.swift"
	ReferenceID string `json:"reference_id"` // PBXFileReference key
	BuildID     string `json:"build_id"`     // PBXBuildFile key
}

// NewFileEntry mints the two keys for one file: reference key first, then
// build key. The name is NFC-normalized before it is embedded anywhere;
// macOS file APIs can hand back decomposed forms while Xcode writes NFC.
func NewFileEntry(name string, gen ident.Generator) FileEntry {
	name = norm.NFC.String(name)
	return FileEntry{
		Name:        name,
		FileType:    FileTypeForName(name),
		ReferenceID: gen.Generate(),
		BuildID:     gen.Generate(),
	}
}

// fileTypes maps source extensions to descriptor lastKnownFileType values.
var fileTypes = map[string]string{
	".swift": "sourcecode.swift",
	".m":     "sourcecode.c.objc",
	".mm":    "sourcecode.cpp.objcpp",
	".c":     "sourcecode.c.c",
	".cc":    "sourcecode.cpp.cpp",
	".cpp":   "sourcecode.cpp.cpp",
	".cxx":   "sourcecode.cpp.cpp",
	".h":     "sourcecode.c.h",
	".hh":    "sourcecode.cpp.h",
	".hpp":   "sourcecode.cpp.h",
	".metal": "sourcecode.metal",
}

// FileTypeForName returns the descriptor source type for a file name,
// defaulting to plain text for unrecognized extensions.
func FileTypeForName(name string) string {
	if t, ok := fileTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return t
	}
	return "text"
}

// line renders this entry's insertion line for one section category,
// prefixed with the indentation captured from the anchor line.
func (e FileEntry) line(section Section, indent, phase string) string {
	switch section {
	case SectionBuildFiles:
		return fmt.Sprintf("%s%s /* %s in %s */ = {isa = PBXBuildFile; fileRef = %s /* %s */; };",
			indent, e.BuildID, e.Name, phase, e.ReferenceID, e.Name)
	case SectionFileReferences:
		return fmt.Sprintf("%s%s /* %s */ = {isa = PBXFileReference; lastKnownFileType = %s; path = %s; sourceTree = \"<group>\"; };",
			indent, e.ReferenceID, e.Name, e.FileType, e.Name)
	case SectionGroupChildren:
		return fmt.Sprintf("%s%s /* %s */,", indent, e.ReferenceID, e.Name)
	case SectionPhaseFiles:
		return fmt.Sprintf("%s%s /* %s in %s */,", indent, e.BuildID, e.Name, phase)
	}
	return ""
}
