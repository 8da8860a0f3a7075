package docent

import (
	"fmt"

	"github.com/mwiater/docent/internal/logging"
	"github.com/mwiater/docent/internal/providerfactory"
	"github.com/mwiater/docent/internal/rag"
	"github.com/spf13/cobra"
)

var indexReset bool

// indexCmd builds the vector store from the documentation in dataDir.
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the vector store from the documentation files",
	Long:  `Chunk every .txt and .md file under dataDir, embed the chunks with the configured Ollama model, and store them in the chromem collection.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		index, err := providerfactory.NewIndex(cfg)
		if err != nil {
			return err
		}
		if indexReset {
			if err := index.Reset(); err != nil {
				return err
			}
			logging.LogEvent("[INDEX] collection %s reset", cfg.Collection)
		}

		out := cmd.OutOrStdout()
		stats, err := rag.BuildIndex(commandContext(cmd), index, rag.IndexOptions{
			DataDir:      cfg.DataDir,
			ChunkSize:    cfg.ChunkSize,
			ChunkOverlap: cfg.ChunkOverlap,
		}, out)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Indexed %d chunks from %d files (%d sections) in %s; collection now holds %d documents\n",
			stats.Chunks, stats.Files, stats.Sections, stats.Elapsed.Round(1e6), index.Count())
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexReset, "reset", false, "drop the collection before indexing")
	rootCmd.AddCommand(indexCmd)
}
