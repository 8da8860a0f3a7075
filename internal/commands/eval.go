package docent

import (
	"fmt"
	"time"

	"github.com/mwiater/docent/internal/evaluation"
	"github.com/mwiater/docent/internal/logging"
	"github.com/mwiater/docent/internal/metrics"
	"github.com/mwiater/docent/internal/providerfactory"
	"github.com/mwiater/docent/internal/telemetry"
	"github.com/spf13/cobra"
)

var (
	evalDataset     string
	evalOutput      string
	evalRagas       bool
	evalSkipRagas   bool
	evalLimit       int
	evalMetricsFile string
)

// evalCmd runs the labelled dataset through the assistant and writes a scored report.
var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate the assistant against the question dataset",
	Long: `Answer every dataset question, score the answers for topic coverage and code validity,
optionally add Gemini-judged reference metrics (--ragas), and write a JSON report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx := commandContext(cmd)
		out := cmd.OutOrStdout()
		start := time.Now()

		ds, err := evaluation.LoadDataset(evalDataset)
		if err != nil {
			return err
		}
		ds = ds.Limit(evalLimit)

		check, err := metrics.SyntaxCheckerFor(cfg.CodeLanguage)
		if err != nil {
			return err
		}

		recorder := telemetry.NewRecorder()
		assistant, err := providerfactory.NewAssistant(cfg, recorder)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Evaluating %d questions in %s mode with %s\n", len(ds.Questions), cfg.Mode, cfg.LLMModel)
		if err := assistant.Generator.EnsureModelReady(ctx); err != nil {
			logging.LogWarn("[EVAL] model warm-up failed: %v", err)
		}

		runner := evaluation.NewRunner(assistant.Agent, cfg.Mode, check, recorder)
		results := runner.Run(ctx, ds.Questions, out)

		if evalRagas && !evalSkipRagas {
			applyReferenceScores(cmd, results, recorder)
		}

		agg := metrics.Aggregate(results, ds.Meta())
		path := evalOutput
		if path == "" {
			path = evaluation.DefaultReportPath(cfg.Mode, start)
		}
		if err := evaluation.WriteReport(path, evaluation.BuildReport(results, agg, cfg.Mode, start)); err != nil {
			return err
		}
		fmt.Fprintf(out, "Report saved to: %s\n", path)
		evaluation.PrintSummary(out, agg, cfg.Mode)

		if evalMetricsFile != "" {
			if err := recorder.WriteTextfile(evalMetricsFile); err != nil {
				return err
			}
			fmt.Fprintf(out, "Metrics written to: %s\n", evalMetricsFile)
		}
		return nil
	},
}

// applyReferenceScores never fails the run; local metrics stand on their own.
func applyReferenceScores(cmd *cobra.Command, results []metrics.EvaluationResult, recorder *telemetry.Recorder) {
	out := cmd.OutOrStdout()
	judge, err := providerfactory.NewReferenceScorer(commandContext(cmd), GetConfig())
	if err != nil {
		logging.LogWarn("[EVAL] reference scoring unavailable: %v", err)
		fmt.Fprintf(out, "Skipping reference scoring: %v\n", err)
		return
	}
	fmt.Fprintf(out, "Running reference scoring with %s...\n", judge.Model())
	if err := evaluation.ApplyReferenceScores(commandContext(cmd), judge, results, recorder); err != nil {
		fmt.Fprintf(out, "Reference scoring skipped: %v\n", err)
		return
	}
	fmt.Fprintln(out, "Reference scoring completed")
}

func init() {
	evalCmd.Flags().StringVar(&evalDataset, "dataset", evaluation.DefaultDatasetPath, "path to the evaluation dataset")
	evalCmd.Flags().StringVarP(&evalOutput, "output", "o", "", "report path (default evaluation/reports/report-{mode}-{timestamp}.json)")
	evalCmd.Flags().BoolVar(&evalRagas, "ragas", false, "add Gemini-judged reference metrics (requires GOOGLE_API_KEY)")
	evalCmd.Flags().BoolVar(&evalSkipRagas, "skipRagas", false, "never run reference metrics, even with --ragas")
	evalCmd.Flags().IntVar(&evalLimit, "limit", 0, "evaluate only the first N questions (0 = all)")
	evalCmd.Flags().StringVar(&evalMetricsFile, "metricsFile", "", "write Prometheus metrics in text format to this file")
	rootCmd.AddCommand(evalCmd)
}
