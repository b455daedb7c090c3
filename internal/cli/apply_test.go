package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pbxpatch/internal/journal"
	"github.com/roach88/pbxpatch/internal/patcher"
	"github.com/roach88/pbxpatch/internal/testutil"
)

// writeProject writes the shared descriptor fixture into a temp dir and
// returns its path.
func writeProject(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.pbxproj")
	require.NoError(t, os.WriteFile(path, []byte(testutil.Descriptor()), 0644))
	return path
}

// writePlanFile writes a plan targeting the given descriptor.
func writePlanFile(t *testing.T, project string, extra string) string {
	t.Helper()
	content := fmt.Sprintf(`project: %s
anchor: %s
phase: %s
files:
  - SettingsView.swift
  - HistogramPane.swift
%s`, project, testutil.AnchorFile, testutil.Phase, extra)
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestApplyPatchesDescriptor(t *testing.T) {
	project := writeProject(t)
	planPath := writePlanFile(t, project, "")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewApplyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{planPath})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "✓ Registered 2 file(s)")
	assert.Contains(t, output, "SettingsView.swift")
	assert.Contains(t, output, "HistogramPane.swift")
	assert.Contains(t, output, "Sections: 4/4 patched")
	assert.Contains(t, output, "Backup: "+project+patcher.BackupSuffix)

	// Each file announcement carries both minted keys.
	keyRe := regexp.MustCompile(`SettingsView\.swift: ref [0-9A-F]{24}, build [0-9A-F]{24}`)
	assert.Regexp(t, keyRe, output)

	patched, err := os.ReadFile(project)
	require.NoError(t, err)
	assert.Contains(t, string(patched), "SettingsView.swift in Sources")

	backup, err := os.ReadFile(project + patcher.BackupSuffix)
	require.NoError(t, err)
	assert.Equal(t, testutil.Descriptor(), string(backup))
}

func TestApplyJSON(t *testing.T) {
	project := writeProject(t)
	planPath := writePlanFile(t, project, "")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewApplyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{planPath})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	require.NotNil(t, resp.Data)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, project, data["project"])
	files, ok := data["files"].([]interface{})
	require.True(t, ok)
	require.Len(t, files, 2)

	// The envelope is snake_case throughout.
	file, ok := files[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "SettingsView.swift", file["name"])
	assert.Regexp(t, `^[0-9A-F]{24}$`, file["reference_id"])
	assert.Regexp(t, `^[0-9A-F]{24}$`, file["build_id"])
	sections, ok := data["sections"].([]interface{})
	require.True(t, ok)
	assert.Len(t, sections, 4)
}

func TestApplyMissingDescriptor(t *testing.T) {
	project := filepath.Join(t.TempDir(), "project.pbxproj")
	planPath := writePlanFile(t, project, "")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewApplyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{planPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [DESCRIPTOR_MISSING]")

	// No side effects: neither descriptor nor backup appear.
	assert.NoFileExists(t, project)
	assert.NoFileExists(t, project+patcher.BackupSuffix)
}

func TestApplyUnreadablePlan(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewApplyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "missing.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "✗ Plan invalid")
}

func TestApplyInvalidPlan(t *testing.T) {
	planPath := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(planPath, []byte("project: p.pbxproj\nanchor: A.swift\nphase: Sources\nfiles: []\n"), 0644))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewApplyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{planPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "✗ Plan invalid")
}

func TestApplyDryRun(t *testing.T) {
	project := writeProject(t)
	planPath := writePlanFile(t, project, "")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewApplyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{planPath, "--dry-run"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "✓ Would register 2 file(s)")
	assert.NotContains(t, output, "Backup:")

	// Nothing on disk changed.
	data, err := os.ReadFile(project)
	require.NoError(t, err)
	assert.Equal(t, testutil.Descriptor(), string(data))
	assert.NoFileExists(t, project+patcher.BackupSuffix)
}

func TestApplySkipsMissingAnchorByDefault(t *testing.T) {
	project := filepath.Join(t.TempDir(), "project.pbxproj")
	// Remove the anchor's group entry so one section has nothing to hook on.
	content := testutil.DropLine(testutil.Descriptor(), "ContentView.swift */,")
	require.NoError(t, os.WriteFile(project, []byte(content), 0644))
	planPath := writePlanFile(t, project, "")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewApplyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{planPath})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Sections: 3/4 patched (skipped: group-children)")
}

func TestApplyStrictFailsOnMissingAnchor(t *testing.T) {
	project := filepath.Join(t.TempDir(), "project.pbxproj")
	content := testutil.DropLine(testutil.Descriptor(), "ContentView.swift */,")
	require.NoError(t, os.WriteFile(project, []byte(content), 0644))
	planPath := writePlanFile(t, project, "")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewApplyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{planPath, "--strict"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [ANCHOR_MISSING]")

	// The descriptor is untouched when strict mode aborts.
	data, readErr := os.ReadFile(project)
	require.NoError(t, readErr)
	assert.Equal(t, content, string(data))
}

func TestApplyProjectOverride(t *testing.T) {
	project := writeProject(t)
	// The plan points at a path that does not exist; --project redirects it.
	planPath := writePlanFile(t, "/nonexistent/other.pbxproj", "")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewApplyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{planPath, "--project", project})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ Registered 2 file(s) in "+project)
}

func TestApplyRecordsJournal(t *testing.T) {
	project := writeProject(t)
	journalPath := filepath.Join(t.TempDir(), "runs.db")
	planPath := writePlanFile(t, project, "")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewApplyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{planPath, "--journal", journalPath})

	err := cmd.Execute()
	require.NoError(t, err)

	jnl, err := journal.Open(journalPath)
	require.NoError(t, err)
	defer jnl.Close()

	runs, err := jnl.History(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, journal.OutcomeSuccess, runs[0].Outcome)
	assert.Equal(t, project, runs[0].Project)
	assert.Len(t, runs[0].Files, 2)
	assert.Len(t, runs[0].Sections, 4)
}

func TestApplyJournalFromPlan(t *testing.T) {
	project := writeProject(t)
	journalPath := filepath.Join(t.TempDir(), "runs.db")
	planPath := writePlanFile(t, project, "journal: "+journalPath+"\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewApplyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{planPath})

	err := cmd.Execute()
	require.NoError(t, err)

	jnl, err := journal.Open(journalPath)
	require.NoError(t, err)
	defer jnl.Close()

	runs, err := jnl.History(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestApplyRecordsFailedRun(t *testing.T) {
	project := filepath.Join(t.TempDir(), "project.pbxproj")
	journalPath := filepath.Join(t.TempDir(), "runs.db")
	planPath := writePlanFile(t, project, "")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewApplyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{planPath, "--journal", journalPath})

	err := cmd.Execute()
	require.Error(t, err)

	jnl, jErr := journal.Open(journalPath)
	require.NoError(t, jErr)
	defer jnl.Close()

	runs, jErr := jnl.History(context.Background(), 0)
	require.NoError(t, jErr)
	require.Len(t, runs, 1)
	assert.Equal(t, journal.OutcomeFailure, runs[0].Outcome)
	assert.Contains(t, runs[0].Error, "DESCRIPTOR_MISSING")
	assert.Empty(t, runs[0].Files)
}

func TestApplyUnopenableJournal(t *testing.T) {
	project := writeProject(t)
	planPath := writePlanFile(t, project, "")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewApplyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{planPath, "--journal", filepath.Join(t.TempDir(), "no", "such", "dir", "runs.db")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E010]")

	// The journal is opened before patching, so nothing was touched.
	data, readErr := os.ReadFile(project)
	require.NoError(t, readErr)
	assert.Equal(t, testutil.Descriptor(), string(data))
}

func TestApplyReapplyDuplicates(t *testing.T) {
	project := writeProject(t)
	planPath := writePlanFile(t, project, "")

	for i := 0; i < 2; i++ {
		buf := &bytes.Buffer{}
		rootOpts := &RootOptions{Format: "text"}
		cmd := NewApplyCommand(rootOpts)
		cmd.SetOut(buf)
		cmd.SetArgs([]string{planPath})
		require.NoError(t, cmd.Execute())
	}

	data, err := os.ReadFile(project)
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(data, []byte("SettingsView.swift in Sources */,")))
}

func TestApplyDefaultPlan(t *testing.T) {
	// With no plan file the built-in plan is used; redirect its descriptor
	// to a path that does not exist so the run fails deterministically.
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewApplyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--project", filepath.Join(t.TempDir(), "absent.pbxproj")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [DESCRIPTOR_MISSING]")
}
