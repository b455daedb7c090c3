// Package patcher runs the descriptor patching workflow: mint keys, read
// the descriptor, write the backup, insert into the four section
// categories in order, write back.
package patcher

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/pbxpatch/internal/ident"
	"github.com/roach88/pbxpatch/internal/pbxproj"
	"github.com/roach88/pbxpatch/internal/plan"
)

// BackupSuffix is appended to the descriptor path for the pre-patch copy.
const BackupSuffix = ".backup"

// Options control how a run treats misses and writes.
type Options struct {
	// Strict turns a missed anchor into a hard failure. Nothing is
	// written back to the descriptor. Default is to skip the section
	// and report it.
	Strict bool

	// DryRun resolves anchors and mints keys but writes nothing, not
	// even the backup.
	DryRun bool
}

// SectionResult records whether one section category was patched.
type SectionResult struct {
	Section pbxproj.Section `json:"section"`
	Patched bool            `json:"patched"`
}

// Result describes a completed run.
type Result struct {
	Project  string              `json:"project"`
	Backup   string              `json:"backup,omitempty"` // empty for dry runs
	DryRun   bool                `json:"dry_run,omitempty"`
	Files    []pbxproj.FileEntry `json:"files"`
	Sections []SectionResult     `json:"sections"`
}

// Skipped returns the section categories whose anchor was not found.
func (r *Result) Skipped() []pbxproj.Section {
	var skipped []pbxproj.Section
	for _, s := range r.Sections {
		if !s.Patched {
			skipped = append(skipped, s.Section)
		}
	}
	return skipped
}

// Patcher applies plans to descriptor files.
type Patcher struct {
	gen ident.Generator
}

// New creates a Patcher minting keys from gen.
func New(gen ident.Generator) *Patcher {
	return &Patcher{gen: gen}
}

// Run executes one plan. The descriptor is read once, patched in memory,
// and written back once; the backup is written before any patch content
// is computed. On error the descriptor has not been touched (though the
// backup may exist) and the returned result is nil.
func (p *Patcher) Run(pl plan.Plan, opts Options) (*Result, error) {
	entries := make([]pbxproj.FileEntry, 0, len(pl.Files))
	for _, name := range pl.Files {
		entry := pbxproj.NewFileEntry(name, p.gen)
		slog.Info("minted keys",
			"file", entry.Name,
			"reference_id", entry.ReferenceID,
			"build_id", entry.BuildID,
		)
		entries = append(entries, entry)
	}

	raw, err := os.ReadFile(pl.Project)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &RunError{
				Code:    ErrCodeDescriptorMissing,
				Message: fmt.Sprintf("project descriptor not found: %s", pl.Project),
				Project: pl.Project,
				Err:     err,
			}
		}
		return nil, &RunError{
			Code:    ErrCodeDescriptorMissing,
			Message: fmt.Sprintf("reading project descriptor: %v", err),
			Project: pl.Project,
			Err:     err,
		}
	}

	backup := pl.Project + BackupSuffix
	if !opts.DryRun {
		if err := os.WriteFile(backup, raw, 0644); err != nil {
			return nil, &RunError{
				Code:    ErrCodeBackupFailed,
				Message: fmt.Sprintf("writing backup: %v", err),
				Project: pl.Project,
				Err:     err,
			}
		}
		slog.Debug("backup written", "path", backup)
	}

	anchor := pbxproj.Anchor{File: pl.Anchor, Phase: pl.Phase}
	text := string(raw)
	sections := make([]SectionResult, 0, len(pbxproj.Sections))
	var missed []pbxproj.Section
	for _, section := range pbxproj.Sections {
		var ok bool
		text, ok = pbxproj.Insert(text, section, anchor, entries)
		sections = append(sections, SectionResult{Section: section, Patched: ok})
		if ok {
			slog.Info("section patched", "section", section, "entries", len(entries))
			continue
		}
		missed = append(missed, section)
		if !opts.Strict {
			slog.Warn("anchor not found; section skipped", "section", section, "anchor", pl.Anchor)
		}
	}

	if opts.Strict && len(missed) > 0 {
		return nil, &RunError{
			Code:     ErrCodeAnchorMissing,
			Message:  fmt.Sprintf("anchor %s not found", pl.Anchor),
			Project:  pl.Project,
			Sections: missed,
		}
	}

	if !opts.DryRun {
		if err := os.WriteFile(pl.Project, []byte(text), 0644); err != nil {
			return nil, &RunError{
				Code:    ErrCodeWriteFailed,
				Message: fmt.Sprintf("writing project descriptor: %v", err),
				Project: pl.Project,
				Err:     err,
			}
		}
		slog.Info("descriptor written", "path", pl.Project, "bytes", len(text))
	}

	result := &Result{
		Project:  pl.Project,
		Files:    entries,
		Sections: sections,
		DryRun:   opts.DryRun,
	}
	if !opts.DryRun {
		result.Backup = backup
	}
	return result, nil
}
