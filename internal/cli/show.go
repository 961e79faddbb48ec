package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/rowlock/internal/workitem"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <strategy> <id>",
		Short: "Print the current state of a work item",
		Long: `Print a work item from the collection backing a strategy,
including its row version or concurrency token.

Examples:
  rowlock show row-version 1
  rowlock show token 2 --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runShow(opts *RootOptions, strategyArg, idArg string, cmd *cobra.Command) error {
	strategy, err := workitem.ParseStrategy(strategyArg)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid strategy", err)
	}
	id, err := workitem.ParseID(idArg)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid id", err)
	}

	sess, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	snap, err := sess.store.ReadSnapshot(ctx, strategy, id)
	if err != nil {
		return formatter.Outcome(workitem.OutcomeOf(err), id, err)
	}
	return formatter.Record(snap)
}
