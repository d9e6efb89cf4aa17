package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var gcDryRun bool

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Reclaim storage for objects unreachable from any live snapshot",
	Long: `Run one garbage collection pass: mark every object reachable from a
live snapshot root, then delete anything the object cache holds that
wasn't marked.

Examples:
  backupctl gc
  backupctl gc --dry-run`,
	RunE: runGC,
}

func init() {
	gcCmd.Flags().BoolVar(&gcDryRun, "dry-run", false, "report orphans without deleting anything")
}

func runGC(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	repo, shutdown, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer shutdown()
	defer repo.Close()

	stats, err := repo.GC(ctx, gcDryRun)
	if err != nil {
		return fmt.Errorf("gc: %w", err)
	}

	fmt.Printf("live objects:    %d\n", stats.LiveObjects)
	fmt.Printf("scanned:         %d\n", stats.Scanned)
	fmt.Printf("orphans:         %d\n", stats.OrphanCount)
	if gcDryRun {
		fmt.Println("dry run: nothing deleted")
	} else {
		fmt.Printf("deleted:         %d\n", stats.DeletedCount)
	}
	if stats.Errors > 0 {
		fmt.Printf("errors:          %d\n", stats.Errors)
	}
	return nil
}
