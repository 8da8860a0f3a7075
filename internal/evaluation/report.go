package evaluation

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/mwiater/docent/internal/metrics"
	"github.com/mwiater/docent/internal/util"
)

// DefaultReportDir holds timestamped reports when no --output is given.
const DefaultReportDir = "evaluation/reports"

const answerPreviewRunes = 500

// Report is the JSON document written at the end of an evaluation run.
type Report struct {
	Metadata           ReportMetadata           `json:"metadata"`
	AggregateMetrics   metrics.AggregateMetrics `json:"aggregate_metrics"`
	ScoresByCategory   map[string]float64       `json:"scores_by_category"`
	ScoresByDifficulty map[string]float64       `json:"scores_by_difficulty"`
	IndividualResults  []ReportResult           `json:"individual_results"`
}

// ReportMetadata identifies the run.
type ReportMetadata struct {
	RunID               string `json:"run_id"`
	Timestamp           string `json:"timestamp"`
	Mode                string `json:"mode"`
	TotalQuestions      int    `json:"total_questions"`
	SuccessfulQuestions int    `json:"successful_questions"`
	FailedQuestions     int    `json:"failed_questions"`
}

// ReportResult is the per-question entry. Absent scores serialize as null.
type ReportResult struct {
	QuestionID       string   `json:"question_id"`
	Question         string   `json:"question"`
	Answer           string   `json:"answer"`
	NumContexts      int      `json:"num_contexts"`
	ContextRelevancy *float64 `json:"context_relevancy"`
	Faithfulness     *float64 `json:"faithfulness"`
	AnswerRelevancy  *float64 `json:"answer_relevancy"`
	TopicCoverage    *float64 `json:"topic_coverage"`
	CodeValidity     *float64 `json:"code_validity"`
	LatencyMs        float64  `json:"latency_ms"`
	Error            *string  `json:"error"`
}

// BuildReport assembles the report for results and their aggregate.
func BuildReport(results []metrics.EvaluationResult, agg metrics.AggregateMetrics, mode string, at time.Time) Report {
	rep := Report{
		Metadata: ReportMetadata{
			RunID:               uuid.NewString(),
			Timestamp:           at.UTC().Format(time.RFC3339),
			Mode:                mode,
			TotalQuestions:      agg.TotalQuestions,
			SuccessfulQuestions: agg.SuccessfulQuestions,
			FailedQuestions:     agg.FailedQuestions,
		},
		AggregateMetrics:   agg,
		ScoresByCategory:   nonNil(agg.ScoresByCategory),
		ScoresByDifficulty: nonNil(agg.ScoresByDifficulty),
		IndividualResults:  make([]ReportResult, 0, len(results)),
	}
	for _, r := range results {
		entry := ReportResult{
			QuestionID:       r.QuestionID,
			Question:         r.Question,
			Answer:           util.TruncateWithSuffix(r.Answer, answerPreviewRunes, "..."),
			NumContexts:      len(r.Contexts),
			ContextRelevancy: r.ContextRelevancy,
			Faithfulness:     r.Faithfulness,
			AnswerRelevancy:  r.AnswerRelevancy,
			TopicCoverage:    r.TopicCoverage,
			CodeValidity:     r.CodeValidity,
			LatencyMs:        r.LatencyMs,
		}
		if r.Failed() {
			msg := r.Error
			entry.Error = &msg
		}
		rep.IndividualResults = append(rep.IndividualResults, entry)
	}
	return rep
}

func nonNil(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}

// WriteReport writes rep as indented JSON, creating parent directories.
func WriteReport(path string, rep Report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := util.WriteFile(path, append(data, '\n')); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// DefaultReportPath names a report by mode and start time.
func DefaultReportPath(mode string, at time.Time) string {
	return filepath.Join(DefaultReportDir, fmt.Sprintf("report-%s-%s.json", mode, at.Format("20060102-150405")))
}

var (
	summaryHeader = color.New(color.FgCyan, color.Bold).SprintFunc()
	summaryLabel  = color.New(color.FgYellow).SprintFunc()
)

// PrintSummary writes the human-readable run summary. Scores print with three decimals.
func PrintSummary(out io.Writer, agg metrics.AggregateMetrics, mode string) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(out)
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, summaryHeader(fmt.Sprintf("EVALUATION SUMMARY - %s MODE", strings.ToUpper(mode))))
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "Questions: %d/%d successful\n", agg.SuccessfulQuestions, agg.TotalQuestions)

	fmt.Fprintln(out, "\n"+summaryLabel("Aggregate Metrics:"))
	fmt.Fprintf(out, "  Avg Aggregate Score:    %.3f\n", agg.AvgAggregateScore)
	fmt.Fprintf(out, "  Avg Context Relevancy:  %.3f\n", agg.AvgContextRelevancy)
	fmt.Fprintf(out, "  Avg Faithfulness:       %.3f\n", agg.AvgFaithfulness)
	fmt.Fprintf(out, "  Avg Answer Relevancy:   %.3f\n", agg.AvgAnswerRelevancy)
	fmt.Fprintf(out, "  Avg Topic Coverage:     %.3f\n", agg.AvgTopicCoverage)
	fmt.Fprintf(out, "  Avg Code Validity:      %.3f\n", agg.AvgCodeValidity)
	fmt.Fprintf(out, "  Avg Latency:            %.0fms\n", agg.AvgLatencyMs)
	if agg.Latency.Count > 1 {
		fmt.Fprintf(out, "  Latency Range:          %.0f-%.0fms (stddev %.0fms)\n", agg.Latency.Min, agg.Latency.Max, agg.Latency.StdDev())
	}

	printGroup(out, "Scores by Category:", agg.ScoresByCategory)
	printGroup(out, "Scores by Difficulty:", agg.ScoresByDifficulty)
	fmt.Fprintln(out, rule)
}

func printGroup(out io.Writer, title string, scores map[string]float64) {
	if len(scores) == 0 {
		return
	}
	labels := make([]string, 0, len(scores))
	for label := range scores {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	fmt.Fprintln(out, "\n"+summaryLabel(title))
	for _, label := range labels {
		fmt.Fprintf(out, "  %-20s: %.3f\n", label, scores[label])
	}
}
