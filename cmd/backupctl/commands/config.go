package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/backupd/backupd/internal/cliout"
	"github.com/backupd/backupd/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect repository configuration",
}

func init() {
	configCmd.AddCommand(configShowCmd)
}

var configShowOutput string

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Long: `Display the configuration backupctl would use: the config file merged
with environment overrides and defaults.

Examples:
  backupctl config show
  backupctl config show --output json
  backupctl config show --config /etc/backupd/config.yaml`,
	RunE: runConfigShow,
}

func init() {
	configShowCmd.Flags().StringVarP(&configShowOutput, "output", "o", "yaml", "output format (yaml|json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}

	format, err := cliout.ParseFormat(configShowOutput)
	if err != nil {
		return err
	}

	switch format {
	case cliout.FormatJSON:
		return cliout.PrintJSON(os.Stdout, cfg)
	default:
		return cliout.PrintYAML(os.Stdout, cfg)
	}
}
