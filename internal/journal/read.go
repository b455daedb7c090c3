package journal

import (
	"context"
	"fmt"
	"time"
)

// History returns recorded runs, newest first. Ties on start time break
// on run ID so the order is deterministic. A limit of zero or less means
// no limit.
//
// Returns an empty slice (not nil) when the journal has no runs.
func (j *Journal) History(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, started_at, project, backup, dry_run, strict, outcome, error
		FROM runs
		ORDER BY started_at DESC, id COLLATE BINARY DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started string
		if err := rows.Scan(
			&run.ID, &started, &run.Project, &run.Backup,
			&run.DryRun, &run.Strict, &run.Outcome, &run.Error,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("parse started_at for run %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	for i := range runs {
		runs[i].Files, err = j.readRunFiles(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Sections, err = j.readRunSections(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
	}

	if runs == nil {
		runs = []Run{}
	}
	return runs, nil
}

// readRunFiles returns a run's file records in insertion order.
func (j *Journal) readRunFiles(ctx context.Context, runID string) ([]FileRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT name, reference_id, build_id
		FROM run_files
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run files: %w", err)
	}
	defer rows.Close()

	files := []FileRecord{}
	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.Name, &f.ReferenceID, &f.BuildID); err != nil {
			return nil, fmt.Errorf("scan run file: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run files: %w", err)
	}

	return files, nil
}

// readRunSections returns a run's section records in patch order.
func (j *Journal) readRunSections(ctx context.Context, runID string) ([]SectionRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT section, patched
		FROM run_sections
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run sections: %w", err)
	}
	defer rows.Close()

	sections := []SectionRecord{}
	for rows.Next() {
		var s SectionRecord
		if err := rows.Scan(&s.Section, &s.Patched); err != nil {
			return nil, fmt.Errorf("scan run section: %w", err)
		}
		sections = append(sections, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run sections: %w", err)
	}

	return sections, nil
}
