package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan <backup-set>",
	Short: "Reconcile the files cache against the filesystem",
	Long: `Run one scan pass over a backup set's filesystem root: stat every
entry, dirty anything that changed, insert new entries, remove deleted
ones, and propagate dirtiness up to ancestor directories.

This does not upload anything; run "backupctl backup" afterward to
serialize and upload what the scan found dirty.

Examples:
  backupctl scan home
  backupctl scan home --config /etc/backupd/config.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	repo, shutdown, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer shutdown()
	defer repo.Close()

	if err := repo.Scan(ctx, args[0]); err != nil {
		return fmt.Errorf("scan %s: %w", args[0], err)
	}
	fmt.Printf("scan of %q complete\n", args[0])
	return nil
}
