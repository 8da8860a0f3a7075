package docent

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mwiater/docent/internal/agent"
	"github.com/mwiater/docent/internal/providerfactory"
	"github.com/mwiater/docent/internal/rag"
	"github.com/spf13/cobra"
)

var askVerbose bool

// askCmd answers a single question and exits.
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question",
	Long:  `Retrieve documentation for the question, route it, and print the generated answer.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		assistant, err := providerfactory.NewAssistant(GetConfig(), nil)
		if err != nil {
			return err
		}
		state, err := assistant.Agent.Ask(commandContext(cmd), strings.Join(args, " "))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		printAnswer(out, state, askVerbose)
		if askVerbose {
			meta := assistant.Generator.LastMetadata()
			fmt.Fprintf(out, "Generation:           %d tokens, %.1f tokens/s (%s)\n", meta.EvalCount, meta.TokensPerSecond(), meta.Model)
		}
		return nil
	},
}

func printAnswer(out io.Writer, state agent.State, verbose bool) {
	fmt.Fprintln(out, renderMarkdown(state.Answer))
	if !verbose {
		return
	}
	fmt.Fprintln(out, "---")
	fmt.Fprintf(out, "Mode:                 %s\n", state.Mode)
	fmt.Fprintf(out, "Retrieved contexts:   %d (of %d candidates)\n", len(state.Contexts), state.Candidates)
	fmt.Fprintf(out, "Retrieval confidence: %.3f\n", state.Confidence)
	fmt.Fprintf(out, "Decision:             %s\n", state.Decision)
	fmt.Fprintf(out, "Web results:          %d\n", len(state.WebResults))
	fmt.Fprintln(out, rag.FormatRanking(state.Ranking(), 120))
}

// renderMarkdown returns text unchanged when glamour cannot render it.
func renderMarkdown(text string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(out)
}

func init() {
	askCmd.Flags().BoolVarP(&askVerbose, "verbose", "v", false, "show retrieval and routing details")
	rootCmd.AddCommand(askCmd)
}
