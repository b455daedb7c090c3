// Package pbxproj carries the format knowledge for patching Xcode project
// descriptors (project.pbxproj).
//
// Registering a source file touches four section categories of the
// descriptor, in this order:
//
//   - build files: a PBXBuildFile entry mapping the file's build key to
//     its reference key
//   - file references: a PBXFileReference entry declaring the file's name
//     and source type
//   - group children: the file's reference key appended to a UI group list
//   - phase files: the file's build key appended to a compile phase list
//
// The descriptor is never parsed into a tree. All edits are textual: an
// anchor pattern derived from a file that is already registered locates
// that file's line in each section, and new entry lines are inserted
// immediately after it, reusing the anchor line's indentation. Every byte
// outside the insertions is preserved exactly, so a backup plus the patch
// report fully describes a run.
//
// Anchor matching is first-occurrence. A descriptor produced by a previous
// patch still contains the anchor lines, so re-applying the same plan
// duplicates entries; the caller owns that decision.
package pbxproj
