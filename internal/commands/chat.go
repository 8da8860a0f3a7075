// internal/commands/chat.go
package docent

import (
	"github.com/mwiater/docent/internal/chat"
	"github.com/mwiater/docent/internal/providerfactory"
	"github.com/spf13/cobra"
)

var chatVerbose bool

// chatCmd represents the 'chat' command, which starts an interactive chat session.
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start a chat session",
	Long:  `The 'chat' command starts an interactive session. Type 'help' inside the session for commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		assistant, err := providerfactory.NewAssistant(cfg, nil)
		if err != nil {
			return err
		}
		return chat.Run(commandContext(cmd), assistant.Agent, chat.Options{Model: cfg.LLMModel, Verbose: chatVerbose})
	},
}

func init() {
	chatCmd.Flags().BoolVarP(&chatVerbose, "verbose", "v", false, "show retrieval and routing details after each answer")
	rootCmd.AddCommand(chatCmd)
}
