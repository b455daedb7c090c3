package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/pbxpatch/internal/journal"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Journal string
	Limit   int
}

// HistoryReport is the payload reported for a journal listing.
type HistoryReport struct {
	Runs []journal.Run `json:"runs"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List runs recorded in a journal, newest first.

Example:
  pbxpatch history --journal runs.db
  pbxpatch history --journal runs.db --limit 5 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "journal database path")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list (0 lists all)")
	_ = cmd.MarkFlagRequired("journal")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
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
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	jnl, err := journal.Open(opts.Journal)
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

	runs, err := jnl.History(cmd.Context(), opts.Limit)
	if err != nil {
		msg := fmt.Sprintf("reading journal: %v", err)
		_ = formatter.Error(ErrCodeJournal, msg, nil)
		return WrapExitError(ExitCommandError, msg, err)
	}

	return outputHistory(formatter, HistoryReport{Runs: runs})
}

// outputHistory outputs the recorded runs.
func outputHistory(formatter *OutputFormatter, report HistoryReport) error {
	if formatter.Format == "json" {
		return formatter.Success(report)
	}

	if len(report.Runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded")
		return nil
	}

	for _, run := range report.Runs {
		marker := "✓"
		if run.Outcome == journal.OutcomeFailure {
			marker = "✗"
		}
		patched := 0
		for _, s := range run.Sections {
			if s.Patched {
				patched++
			}
		}
		fmt.Fprintf(formatter.Writer, "%s %s  %s  %s  files=%d sections=%d/%d\n",
			marker, run.StartedAt.Format(time.RFC3339), shortID(run.ID), run.Project,
			len(run.Files), patched, len(run.Sections))
		if run.Error != "" {
			fmt.Fprintf(formatter.Writer, "    error: %s\n", run.Error)
		}
		if formatter.Verbose {
			for _, f := range run.Files {
				fmt.Fprintf(formatter.Writer, "    %s: ref %s, build %s\n", f.Name, f.ReferenceID, f.BuildID)
			}
		}
	}

	return nil
}

// shortID abbreviates a run identifier for the text listing.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
