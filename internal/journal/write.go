package journal

import (
	"context"
	"fmt"
)

// Record inserts a run with its file and section rows in one transaction.
// Run IDs are unique; recording the same ID twice is an error, every
// invocation journals under a fresh ID.
func (j *Journal) Record(ctx context.Context, run Run) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, project, backup, dry_run, strict, outcome, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.StartedAt.UTC().Format(timeLayout),
		run.Project,
		run.Backup,
		run.DryRun,
		run.Strict,
		run.Outcome,
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	for i, f := range run.Files {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_files (run_id, position, name, reference_id, build_id)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, i, f.Name, f.ReferenceID, f.BuildID)
		if err != nil {
			return fmt.Errorf("record run file %s: %w", f.Name, err)
		}
	}

	for i, s := range run.Sections {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_sections (run_id, position, section, patched)
			VALUES (?, ?, ?, ?)
		`, run.ID, i, s.Section, s.Patched)
		if err != nil {
			return fmt.Errorf("record run section %s: %w", s.Section, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record run: commit: %w", err)
	}

	return nil
}
