package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/rowlock/internal/workitem"
)

// AssignOptions holds flags for the assign command.
type AssignOptions struct {
	*RootOptions
	ForceConflict bool
}

// NewAssignCommand creates the assign command.
func NewAssignCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AssignOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "assign <strategy> <id> <assignee>",
		Short: "Assign a work item under a locking strategy",
		Long: `Assign a work item under one of the locking strategies:
pessimistic, row-version or concurrency-token.

With --force-conflict a simulated concurrent writer updates the same item
in the middle of the operation (requires demo.allow_force_conflict).

Exit codes:
  0 - Success
  1 - Conflict or failure
  2 - Command error
  3 - Work item not found

Examples:
  rowlock assign pessimistic 1 Bob
  rowlock assign row-version 1 Bob --force-conflict
  rowlock assign token 2 Carol --format json`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssign(opts, args[0], args[1], args[2], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.ForceConflict, "force-conflict", false, "inject a concurrent write during the update")

	return cmd
}

func runAssign(opts *AssignOptions, strategyArg, idArg, assignee string, cmd *cobra.Command) error {
	strategy, err := workitem.ParseStrategy(strategyArg)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid strategy", err)
	}
	id, err := workitem.ParseID(idArg)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid id", err)
	}

	sess, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	set := controllers(sess.cfg, sess.store, sess.logger)
	outcome, updateErr := set.Update(ctx, strategy, id, assignee, opts.ForceConflict)

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if outcome != workitem.Success {
		return formatter.Outcome(outcome, id, updateErr)
	}
	assignee, _ = workitem.NormalizeAssignee(assignee)
	return formatter.Updated(UpdateReport{Strategy: strategy, ID: id, AssignedTo: assignee, Outcome: outcome})
}
