package docent

import (
	"fmt"

	"github.com/k0kubun/pp"
	"github.com/mwiater/docent/internal/appconfig"
	"github.com/spf13/cobra"
)

// showCmd groups read-only inspection commands.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show information about the current setup",
}

// showConfigCmd implements the 'show config' command, which displays the current configuration settings.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the JSON configs are loaded properly and overriden by flags and environment accordingly.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		cfg := GetConfig()
		appconfig.ShowConfig(out, cfg)
		if cfg != nil && cfg.Debug {
			fmt.Fprintln(out)
			pp.Fprintln(out, *cfg)
		}
	},
}

func init() {
	showCmd.AddCommand(showConfigCmd)
	rootCmd.AddCommand(showCmd)
}
