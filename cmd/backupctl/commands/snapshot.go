package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/backupd/backupd/internal/cliout"
	"github.com/backupd/backupd/internal/cliprompt"
	"github.com/backupd/backupd/pkg/objectcache"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage repository snapshots",
	Long: `List and remove the repository's named snapshots.

Removing a snapshot only deletes its registry entry; any object it
references stays in the object cache until a "backupctl gc" run confirms
no other live snapshot still reaches it.`,
}

func init() {
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotPruneCmd)
}

var snapshotListOutput string

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every recorded snapshot",
	RunE:  runSnapshotList,
}

func init() {
	snapshotListCmd.Flags().StringVarP(&snapshotListOutput, "output", "o", "table", "output format (table|json|yaml)")
}

type snapshotTable []objectcache.Snapshot

func (t snapshotTable) Headers() []string { return []string{"NAME", "ROOT", "CREATED"} }
func (t snapshotTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, s := range t {
		rows[i] = []string{s.Name, s.RootOID.String(), s.CreatedAt.Format("2006-01-02 15:04:05")}
	}
	return rows
}

func runSnapshotList(cmd *cobra.Command, args []string) error {
	format, err := cliout.ParseFormat(snapshotListOutput)
	if err != nil {
		return err
	}

	ctx := context.Background()
	repo, shutdown, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer shutdown()
	defer repo.Close()

	snapshots, err := repo.ListSnapshots(ctx)
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}

	switch format {
	case cliout.FormatJSON:
		return cliout.PrintJSON(os.Stdout, snapshots)
	case cliout.FormatYAML:
		return cliout.PrintYAML(os.Stdout, snapshots)
	default:
		return cliout.PrintTable(os.Stdout, snapshotTable(snapshots))
	}
}

var snapshotPruneForce bool

var snapshotPruneCmd = &cobra.Command{
	Use:   "prune <name>",
	Short: "Remove a snapshot's registry entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotPrune,
}

func init() {
	snapshotPruneCmd.Flags().BoolVar(&snapshotPruneForce, "force", false, "skip the confirmation prompt")
}

func runSnapshotPrune(cmd *cobra.Command, args []string) error {
	name := args[0]

	ok, err := cliprompt.ConfirmOrForce(fmt.Sprintf("Remove snapshot %q", name), snapshotPruneForce)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("aborted")
		return nil
	}

	ctx := context.Background()
	repo, shutdown, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer shutdown()
	defer repo.Close()

	if err := repo.RemoveSnapshot(ctx, name); err != nil {
		return fmt.Errorf("remove snapshot %s: %w", name, err)
	}
	fmt.Printf("snapshot %q removed\n", name)
	return nil
}
