package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rowlock/internal/store"
)

// SeedResult is the JSON payload of the seed command.
type SeedResult struct {
	Database string `json:"database"`
	Items    int    `json:"items"`
	Inserted int64  `json:"inserted"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the demo work items",
		Long: `Create work items 1-3, assigned to Alice at version 0, in every
collection. Existing items are left untouched.

Example:
  rowlock seed --db ./rowlock.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(rootOpts, cmd)
		},
	}
	return cmd
}

func runSeed(opts *RootOptions, cmd *cobra.Command) error {
	sess, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	items := store.DefaultSeed()
	inserted, err := sess.store.Seed(ctx, items)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to seed database", err)
	}
	sess.logger.Info("seeded work items", "items", len(items), "inserted", inserted)

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return formatter.Success(SeedResult{Database: sess.cfg.Database.Path, Items: len(items), Inserted: inserted})
	}
	return formatter.Success(fmt.Sprintf("Seeded %d rows into %s", inserted, sess.cfg.Database.Path))
}
