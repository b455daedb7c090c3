package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pbxpatch/internal/plan"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// PlanValidation is the payload reported for a validated plan.
type PlanValidation struct {
	Valid  bool                   `json:"valid"`
	Errors []plan.ValidationError `json:"errors,omitempty"`
	Plan   *plan.Plan             `json:"plan,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <plan-file>",
		Short: "Validate a patch plan",
		Long: `Validate a patch plan without touching the descriptor.

Checks YAML syntax, the plan schema, and the plan's own consistency
rules (no duplicate files, anchor not listed among the files).

Example:
  pbxpatch validate plan.yaml
  pbxpatch validate plan.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, planPath string, cmd *cobra.Command) error {
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

	formatter.VerboseLog("Validating plan %s", planPath)

	pl, errs := plan.Load(planPath)
	if len(errs) > 0 {
		// An unreadable plan is a command error; an invalid one is a
		// validation failure.
		if errs[0].Code == plan.ErrCodeNotFound {
			_ = formatter.Error(errs[0].Code, errs[0].Message, nil)
			return NewExitError(ExitCommandError, errs[0].Error())
		}
		return outputValidationErrors(formatter, errs)
	}

	return outputValidateSuccess(formatter, pl)
}

// outputValidationErrors outputs plan validation failures.
func outputValidationErrors(formatter *OutputFormatter, errs []plan.ValidationError) error {
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
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range errs {
		if e.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", e.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", e.Code, e.Field, e.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

// outputValidateSuccess outputs a successful validation.
func outputValidateSuccess(formatter *OutputFormatter, pl *plan.Plan) error {
	if formatter.Format == "json" {
		return formatter.Success(PlanValidation{Valid: true, Plan: pl})
	}

	fmt.Fprintf(formatter.Writer, "✓ Plan valid: %d file(s) into %s\n", len(pl.Files), pl.Project)
	return nil
}
