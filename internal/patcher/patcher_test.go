package patcher

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pbxpatch/internal/ident"
	"github.com/roach88/pbxpatch/internal/pbxproj"
	"github.com/roach88/pbxpatch/internal/plan"
	"github.com/roach88/pbxpatch/internal/testutil"
)

func writeDescriptor(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.pbxproj")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func testPlan(project string) plan.Plan {
	return plan.Plan{
		Project: project,
		Anchor:  testutil.AnchorFile,
		Phase:   testutil.Phase,
		Files:   []string{"FileBrowser.swift", "ImageViewerPane.swift"},
	}
}

func fixedGen() ident.Generator {
	return ident.NewFixed(
		"AAAAAAAAAAAAAAAAAAAAAAAA",
		"BBBBBBBBBBBBBBBBBBBBBBBB",
		"CCCCCCCCCCCCCCCCCCCCCCCC",
		"DDDDDDDDDDDDDDDDDDDDDDDD",
	)
}

func TestRun_PatchesAllSections(t *testing.T) {
	project := writeDescriptor(t, testutil.Descriptor())

	result, err := New(fixedGen()).Run(testPlan(project), Options{})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, project, result.Project)
	assert.Equal(t, project+BackupSuffix, result.Backup)
	assert.Empty(t, result.Skipped())
	require.Len(t, result.Sections, 4)
	for _, s := range result.Sections {
		assert.True(t, s.Patched, "section %s", s.Section)
	}

	patched, err := os.ReadFile(project)
	require.NoError(t, err)
	for _, line := range []string{
		"\t\tBBBBBBBBBBBBBBBBBBBBBBBB /* FileBrowser.swift in Sources */ = {isa = PBXBuildFile; fileRef = AAAAAAAAAAAAAAAAAAAAAAAA /* FileBrowser.swift */; };",
		"\t\tAAAAAAAAAAAAAAAAAAAAAAAA /* FileBrowser.swift */ = {isa = PBXFileReference; lastKnownFileType = sourcecode.swift; path = FileBrowser.swift; sourceTree = \"<group>\"; };",
		"\t\t\t\tCCCCCCCCCCCCCCCCCCCCCCCC /* ImageViewerPane.swift */,",
		"\t\t\t\tDDDDDDDDDDDDDDDDDDDDDDDD /* ImageViewerPane.swift in Sources */,",
	} {
		assert.Contains(t, string(patched), line)
	}
}

func TestRun_MintsReferenceKeyBeforeBuildKey(t *testing.T) {
	project := writeDescriptor(t, testutil.Descriptor())

	result, err := New(fixedGen()).Run(testPlan(project), Options{})
	require.NoError(t, err)
	require.Len(t, result.Files, 2)

	assert.Equal(t, "FileBrowser.swift", result.Files[0].Name)
	assert.Equal(t, "AAAAAAAAAAAAAAAAAAAAAAAA", result.Files[0].ReferenceID)
	assert.Equal(t, "BBBBBBBBBBBBBBBBBBBBBBBB", result.Files[0].BuildID)
	assert.Equal(t, "ImageViewerPane.swift", result.Files[1].Name)
	assert.Equal(t, "CCCCCCCCCCCCCCCCCCCCCCCC", result.Files[1].ReferenceID)
	assert.Equal(t, "DDDDDDDDDDDDDDDDDDDDDDDD", result.Files[1].BuildID)
}

func TestRun_KeysAreWellFormedAndUnique(t *testing.T) {
	project := writeDescriptor(t, testutil.Descriptor())

	result, err := New(ident.UUIDGenerator{}).Run(testPlan(project), Options{})
	require.NoError(t, err)

	pattern := regexp.MustCompile(`^[0-9A-F]{24}$`)
	seen := make(map[string]bool)
	for _, f := range result.Files {
		for _, key := range []string{f.ReferenceID, f.BuildID} {
			assert.Regexp(t, pattern, key)
			assert.False(t, seen[key], "duplicate key %s", key)
			seen[key] = true
		}
	}
}

func TestRun_BackupHoldsPrePatchBytes(t *testing.T) {
	original := testutil.Descriptor()
	project := writeDescriptor(t, original)

	result, err := New(ident.UUIDGenerator{}).Run(testPlan(project), Options{})
	require.NoError(t, err)

	backup, err := os.ReadFile(result.Backup)
	require.NoError(t, err)
	assert.Equal(t, original, string(backup))

	patched, err := os.ReadFile(project)
	require.NoError(t, err)
	assert.NotEqual(t, original, string(patched))
}

func TestRun_PreservesEveryOriginalLine(t *testing.T) {
	original := testutil.Descriptor()
	project := writeDescriptor(t, original)

	_, err := New(ident.UUIDGenerator{}).Run(testPlan(project), Options{})
	require.NoError(t, err)

	patched, err := os.ReadFile(project)
	require.NoError(t, err)

	originalLines := strings.Split(original, "\n")
	patchedLines := strings.Split(string(patched), "\n")
	for _, line := range originalLines {
		assert.Contains(t, patchedLines, line)
	}
	// Two files in four sections add eight lines.
	assert.Len(t, patchedLines, len(originalLines)+8)
}

func TestRun_MissingDescriptor(t *testing.T) {
	project := filepath.Join(t.TempDir(), "project.pbxproj")

	result, err := New(ident.UUIDGenerator{}).Run(testPlan(project), Options{})
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, IsDescriptorMissing(err))

	// No side effects: the backup must not exist either.
	assert.NoFileExists(t, project+BackupSuffix)
}

func TestRun_SkipsSectionsWithoutAnchor(t *testing.T) {
	// Drop the anchor's group child line; the other three anchors remain.
	text := testutil.DropLine(testutil.Descriptor(), "ContentView.swift */,")
	project := writeDescriptor(t, text)

	result, err := New(ident.UUIDGenerator{}).Run(testPlan(project), Options{})
	require.NoError(t, err)

	assert.Equal(t, []pbxproj.Section{pbxproj.SectionGroupChildren}, result.Skipped())

	patched, err := os.ReadFile(project)
	require.NoError(t, err)
	assert.Contains(t, string(patched), "/* FileBrowser.swift in Sources */ = {isa = PBXBuildFile;")
	assert.NotContains(t, string(patched), "/* FileBrowser.swift */,")
}

func TestRun_StrictFailsOnMissedAnchor(t *testing.T) {
	text := testutil.DropLine(testutil.Descriptor(), "ContentView.swift */,")
	project := writeDescriptor(t, text)

	result, err := New(ident.UUIDGenerator{}).Run(testPlan(project), Options{Strict: true})
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, IsAnchorMissing(err))

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, []pbxproj.Section{pbxproj.SectionGroupChildren}, runErr.Sections)

	// The descriptor is untouched; only the backup was written.
	onDisk, readErr := os.ReadFile(project)
	require.NoError(t, readErr)
	assert.Equal(t, text, string(onDisk))
	assert.FileExists(t, project+BackupSuffix)
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	original := testutil.Descriptor()
	project := writeDescriptor(t, original)

	result, err := New(fixedGen()).Run(testPlan(project), Options{DryRun: true})
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Empty(t, result.Backup)
	assert.Empty(t, result.Skipped())
	require.Len(t, result.Files, 2)
	assert.Equal(t, "AAAAAAAAAAAAAAAAAAAAAAAA", result.Files[0].ReferenceID)

	onDisk, err := os.ReadFile(project)
	require.NoError(t, err)
	assert.Equal(t, original, string(onDisk))
	assert.NoFileExists(t, project+BackupSuffix)
}

func TestRun_ReapplyDuplicatesEntries(t *testing.T) {
	project := writeDescriptor(t, testutil.Descriptor())
	pl := testPlan(project)

	_, err := New(ident.UUIDGenerator{}).Run(pl, Options{})
	require.NoError(t, err)
	_, err = New(ident.UUIDGenerator{}).Run(pl, Options{})
	require.NoError(t, err)

	patched, err := os.ReadFile(project)
	require.NoError(t, err)
	count := strings.Count(string(patched), "/* FileBrowser.swift */ = {isa = PBXFileReference;")
	assert.Equal(t, 2, count)
}

func TestRun_SecondRunBackupHoldsFirstRunOutput(t *testing.T) {
	project := writeDescriptor(t, testutil.Descriptor())
	pl := testPlan(project)

	_, err := New(ident.UUIDGenerator{}).Run(pl, Options{})
	require.NoError(t, err)
	afterFirst, err := os.ReadFile(project)
	require.NoError(t, err)

	_, err = New(ident.UUIDGenerator{}).Run(pl, Options{})
	require.NoError(t, err)

	backup, err := os.ReadFile(project + BackupSuffix)
	require.NoError(t, err)
	assert.Equal(t, string(afterFirst), string(backup))
}
