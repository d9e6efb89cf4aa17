package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var backupRunScan bool

var backupCmd = &cobra.Command{
	Use:   "backup <backup-set>",
	Short: "Serialize and upload a backup set's dirty files",
	Long: `Walk a backup set's files cache in post-order, serializing and
uploading every entry whose content has changed since the last backup,
and record the resulting root as a new snapshot.

Examples:
  backupctl backup home
  backupctl backup home --scan`,
	Args: cobra.ExactArgs(1),
	RunE: runBackup,
}

func init() {
	backupCmd.Flags().BoolVar(&backupRunScan, "scan", false, "run a scan pass immediately before backing up")
}

func runBackup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	repo, shutdown, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer shutdown()
	defer repo.Close()

	backupSet := args[0]
	if backupRunScan {
		if err := repo.Scan(ctx, backupSet); err != nil {
			return fmt.Errorf("scan %s: %w", backupSet, err)
		}
	}

	oid, err := repo.Backup(ctx, backupSet)
	if err != nil {
		return fmt.Errorf("backup %s: %w", backupSet, err)
	}
	fmt.Printf("backup of %q complete: root %s\n", backupSet, oid)
	return nil
}
