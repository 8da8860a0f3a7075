package docent

import (
	"github.com/mwiater/docent/internal/docs"
	"github.com/spf13/cobra"
)

var (
	refreshFull bool
	// newRefresher is swapped in tests.
	newRefresher = docs.NewRefresher
)

// refreshCmd downloads the llms.txt documentation snapshots into dataDir.
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Download the latest llms.txt documentation",
	Long:  `Download the LangGraph and LangChain llms.txt files into dataDir. Unchanged files are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := newRefresher(GetConfig().DataDir).Refresh(commandContext(cmd), refreshFull, cmd.OutOrStdout())
		return err
	},
}

func init() {
	refreshCmd.Flags().BoolVar(&refreshFull, "full", false, "also download the llms-full.txt variants")
	rootCmd.AddCommand(refreshCmd)
}
