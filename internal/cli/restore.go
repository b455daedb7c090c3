package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pbxpatch/internal/patcher"
	"github.com/roach88/pbxpatch/internal/plan"
)

// RestoreOptions holds flags for the restore command.
type RestoreOptions struct {
	*RootOptions
	Project string // descriptor path; skips plan resolution when set
}

// RestoreReport is the payload reported for a restored descriptor.
type RestoreReport struct {
	Project string `json:"project"`
	Backup  string `json:"backup"`
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RestoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "restore [plan-file]",
		Short: "Restore a descriptor from its backup",
		Long: `Restore an Xcode project descriptor from the backup written by apply.

The descriptor path comes from --project, from the plan file, or from
the built-in default, in that order. The backup itself is left in
place so restore can be repeated.

Example:
  pbxpatch restore plan.yaml
  pbxpatch restore --project /tmp/copy.pbxproj`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			planPath := ""
			if len(args) > 0 {
				planPath = args[0]
			}
			return runRestore(opts, planPath, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Project, "project", "", "descriptor path to restore (skips the plan)")

	return cmd
}

func runRestore(opts *RestoreOptions, planPath string, cmd *cobra.Command) error {
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

	project := opts.Project
	if project == "" {
		if planPath != "" {
			loaded, errs := plan.Load(planPath)
			if len(errs) > 0 {
				return outputPlanErrors(formatter, errs)
			}
			project = loaded.Project
		} else {
			project = plan.Default().Project
		}
	}

	backup := project + patcher.BackupSuffix
	data, err := os.ReadFile(backup)
	if err != nil {
		msg := fmt.Sprintf("no backup found at %s", backup)
		if !os.IsNotExist(err) {
			msg = fmt.Sprintf("reading backup %s: %v", backup, err)
		}
		_ = formatter.Error(ErrCodeRestore, msg, nil)
		return WrapExitError(ExitFailure, msg, err)
	}

	if err := os.WriteFile(project, data, 0644); err != nil {
		msg := fmt.Sprintf("writing descriptor %s: %v", project, err)
		_ = formatter.Error(string(patcher.ErrCodeWriteFailed), msg, nil)
		return WrapExitError(ExitFailure, msg, err)
	}

	slog.Info("descriptor restored", "project", project, "backup", backup)
	return outputRestoreSuccess(formatter, RestoreReport{Project: project, Backup: backup})
}

// outputRestoreSuccess outputs a successful restore.
func outputRestoreSuccess(formatter *OutputFormatter, report RestoreReport) error {
	if formatter.Format == "json" {
		return formatter.Success(report)
	}

	fmt.Fprintf(formatter.Writer, "✓ Restored %s from %s\n", report.Project, report.Backup)
	return nil
}
