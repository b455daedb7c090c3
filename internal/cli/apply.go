package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/pbxpatch/internal/ident"
	"github.com/roach88/pbxpatch/internal/journal"
	"github.com/roach88/pbxpatch/internal/patcher"
	"github.com/roach88/pbxpatch/internal/plan"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Project string // overrides the plan's descriptor path
	Strict  bool
	DryRun  bool
	Journal string // overrides the plan's journal path

	// Generator allows overriding the key generator (for testing).
	// If nil, defaults to UUIDGenerator.
	Generator ident.Generator
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply [plan-file]",
		Short: "Patch a project descriptor",
		Long: `Apply a patch plan to an Xcode project descriptor.

Reads the plan (or the built-in default when no plan file is given),
mints a reference and a build key for each file, writes a backup next
to the descriptor, and inserts the registration lines into the four
section categories. Sections whose anchor line is missing are skipped
and reported; --strict turns a miss into a failure before anything is
written back.

Example:
  pbxpatch apply
  pbxpatch apply plan.yaml --journal runs.db
  pbxpatch apply plan.yaml --project /tmp/copy.pbxproj --dry-run`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			planPath := ""
			if len(args) > 0 {
				planPath = args[0]
			}
			return runApply(opts, planPath, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Project, "project", "", "override the plan's descriptor path")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail when the anchor is missing from any section")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "resolve anchors and mint keys without writing anything")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "record the run in a SQLite journal at this path")

	return cmd
}

func runApply(opts *ApplyOptions, planPath string, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	// Resolve the plan
	var pl plan.Plan
	if planPath != "" {
		loaded, errs := plan.Load(planPath)
		if len(errs) > 0 {
			return outputPlanErrors(formatter, errs)
		}
		pl = *loaded
		formatter.VerboseLog("Loaded plan from %s", planPath)
	} else {
		pl = plan.Default()
		slog.Debug("using built-in plan", "project", pl.Project)
	}

	if opts.Project != "" {
		pl.Project = opts.Project
	}
	journalPath := pl.Journal
	if opts.Journal != "" {
		journalPath = opts.Journal
	}

	// Open the journal before patching; a misconfigured journal should
	// stop the command before any file is touched.
	var jnl *journal.Journal
	if journalPath != "" {
		var err error
		jnl, err = journal.Open(journalPath)
		if err != nil {
			msg := fmt.Sprintf("opening journal: %v", err)
			_ = formatter.Error(ErrCodeJournal, msg, nil)
			return WrapExitError(ExitCommandError, msg, err)
		}
		defer func() {
			if closeErr := jnl.Close(); closeErr != nil {
				slog.Error("error closing journal", "error", closeErr)
			}
		}()
	}

	gen := opts.Generator
	if gen == nil {
		gen = ident.UUIDGenerator{}
	}

	runID := uuid.New().String()
	started := time.Now().UTC()
	slog.Info("patching descriptor", "run_id", runID, "project", pl.Project, "files", len(pl.Files))

	result, runErr := patcher.New(gen).Run(pl, patcher.Options{
		Strict: opts.Strict,
		DryRun: opts.DryRun,
	})

	if jnl != nil {
		// A journal write failure does not change the patch outcome.
		record := buildRunRecord(runID, started, pl, opts, result, runErr)
		if recErr := jnl.Record(cmd.Context(), record); recErr != nil {
			slog.Warn("failed to record run", "run_id", runID, "error", recErr)
		}
	}

	if runErr != nil {
		return outputApplyError(formatter, runErr)
	}
	return outputApplySuccess(formatter, result)
}

// buildRunRecord flattens a run, successful or failed, into its journal
// entry. Failed runs carry no file or section rows: nothing was applied.
func buildRunRecord(id string, started time.Time, pl plan.Plan, opts *ApplyOptions, result *patcher.Result, runErr error) journal.Run {
	record := journal.Run{
		ID:        id,
		StartedAt: started,
		Project:   pl.Project,
		DryRun:    opts.DryRun,
		Strict:    opts.Strict,
		Outcome:   journal.OutcomeSuccess,
	}
	if runErr != nil {
		record.Outcome = journal.OutcomeFailure
		record.Error = runErr.Error()
		return record
	}

	record.Backup = result.Backup
	for _, f := range result.Files {
		record.Files = append(record.Files, journal.FileRecord{
			Name:        f.Name,
			ReferenceID: f.ReferenceID,
			BuildID:     f.BuildID,
		})
	}
	for _, s := range result.Sections {
		record.Sections = append(record.Sections, journal.SectionRecord{
			Section: string(s.Section),
			Patched: s.Patched,
		})
	}
	return record
}

// outputApplySuccess outputs a successful run report.
func outputApplySuccess(formatter *OutputFormatter, result *patcher.Result) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	verb := "Registered"
	if result.DryRun {
		verb = "Would register"
	}
	fmt.Fprintf(formatter.Writer, "✓ %s %d file(s) in %s\n\n", verb, len(result.Files), result.Project)

	fmt.Fprintln(formatter.Writer, "Files:")
	for _, f := range result.Files {
		fmt.Fprintf(formatter.Writer, "  %s: ref %s, build %s\n", f.Name, f.ReferenceID, f.BuildID)
	}
	fmt.Fprintln(formatter.Writer)

	patched := 0
	for _, s := range result.Sections {
		if s.Patched {
			patched++
		}
	}
	if skipped := result.Skipped(); len(skipped) > 0 {
		names := make([]string, len(skipped))
		for i, s := range skipped {
			names[i] = string(s)
		}
		fmt.Fprintf(formatter.Writer, "Sections: %d/%d patched (skipped: %s)\n",
			patched, len(result.Sections), strings.Join(names, ", "))
	} else {
		fmt.Fprintf(formatter.Writer, "Sections: %d/%d patched\n", patched, len(result.Sections))
	}

	if result.Backup != "" {
		fmt.Fprintf(formatter.Writer, "Backup: %s\n", result.Backup)
	}

	return nil
}

// outputApplyError outputs a run failure. Patch failures are exit code 1.
func outputApplyError(formatter *OutputFormatter, err error) error {
	code := ErrCodeGeneric
	message := err.Error()
	var details interface{}

	var runErr *patcher.RunError
	if errors.As(err, &runErr) {
		code = string(runErr.Code)
		message = runErr.Message
		if len(runErr.Sections) > 0 {
			details = runErr.Sections
		}
	}

	_ = formatter.Error(code, message, details)
	return WrapExitError(ExitFailure, message, err)
}

// outputPlanErrors reports plan load errors from apply or restore. They
// are command errors: the plan never reached the descriptor.
func outputPlanErrors(formatter *OutputFormatter, errs []plan.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   PlanValidation{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("plan invalid: %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Plan invalid")
	fmt.Fprintln(formatter.Writer)
	for _, e := range errs {
		if e.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", e.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", e.Code, e.Field, e.Message)
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("plan invalid: %d error(s)", len(errs)))
}
