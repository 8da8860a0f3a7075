package evaluation

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/mwiater/docent/internal/agent"
	"github.com/mwiater/docent/internal/logging"
	"github.com/mwiater/docent/internal/metrics"
	"github.com/mwiater/docent/internal/telemetry"
	"github.com/mwiater/docent/internal/util"
)

// Asker answers one question. *agent.Agent satisfies it.
type Asker interface {
	Ask(ctx context.Context, question string) (agent.State, error)
}

// Runner evaluates questions one at a time. A failing question never stops the run.
type Runner struct {
	asker    Asker
	mode     string
	check    metrics.SyntaxChecker
	recorder *telemetry.Recorder
	now      func() time.Time
}

// NewRunner builds a Runner. A nil checker validates Python snippets.
func NewRunner(asker Asker, mode string, check metrics.SyntaxChecker, recorder *telemetry.Recorder) *Runner {
	if check == nil {
		check = metrics.ValidPython
	}
	return &Runner{asker: asker, mode: mode, check: check, recorder: recorder, now: time.Now}
}

var (
	successfulResult = color.New(color.FgGreen).SprintFunc()
	failedResult     = color.New(color.FgRed).SprintFunc()
)

// Run evaluates every question in order, writing progress to out. It stops between
// questions once ctx is done and returns the results gathered so far.
func (r *Runner) Run(ctx context.Context, questions []Question, out io.Writer) []metrics.EvaluationResult {
	if out == nil {
		out = io.Discard
	}
	results := make([]metrics.EvaluationResult, 0, len(questions))
	total := len(questions)
	for i, q := range questions {
		if err := ctx.Err(); err != nil {
			logging.LogWarn("[EVAL] stopping after %d/%d questions: %v", i, total, err)
			break
		}
		fmt.Fprintf(out, "[%d/%d] %s - %s\n", i+1, total, q.ID, util.TruncateRunes(q.Question, 80))

		res := r.Evaluate(ctx, q)
		if res.Failed() {
			fmt.Fprintf(out, "  %s %s\n", failedResult("FAILED"), res.Error)
		} else {
			fmt.Fprintf(out, "  %s topic=%.2f code=%.2f latency=%.0fms decision=%s\n",
				successfulResult("OK"), deref(res.TopicCoverage), deref(res.CodeValidity), res.LatencyMs, res.Decision)
		}
		results = append(results, res)
	}
	return results
}

// Evaluate answers q and computes the locally available metrics. Collaborator
// errors and panics become the result's Error.
func (r *Runner) Evaluate(ctx context.Context, q Question) (res metrics.EvaluationResult) {
	res = metrics.EvaluationResult{
		QuestionID:      q.ID,
		Question:        q.Question,
		Mode:            r.mode,
		ReferenceAnswer: q.ReferenceAnswer,
		Contexts:        []string{},
	}
	start := r.now()
	defer func() {
		if rec := recover(); rec != nil {
			res.Fail(fmt.Sprintf("panic: %v", rec))
		}
		if res.Failed() {
			res.Answer = ""
			res.Contexts = []string{}
			logging.LogWarn("[EVAL] question %s failed: %s", q.ID, res.Error)
		}
		r.recorder.ObserveQuestion(!res.Failed(), time.Duration(res.LatencyMs*float64(time.Millisecond)))
	}()

	state, err := r.asker.Ask(ctx, q.Question)
	res.LatencyMs = float64(r.now().Sub(start)) / float64(time.Millisecond)
	if err != nil {
		res.Fail(err.Error())
		return res
	}

	res.Answer = state.Answer
	if state.Contexts != nil {
		res.Contexts = state.Contexts
	}
	res.Decision = state.Decision.String()
	res.RetrievalConfidence = state.Confidence
	res.WebResults = len(state.WebResults)

	res.TopicCoverage = metrics.Float(metrics.TopicCoverage(state.Answer, q.ExpectedTopics))
	res.CodeValidity = metrics.Float(metrics.CodeValidity(state.Answer, r.check))
	if q.ExpectedCode {
		res.CodePresence = metrics.Float(metrics.CodePresence(state.Answer))
	}
	if len(q.ExpectedSnippets) > 0 {
		res.SnippetPresence = metrics.Float(metrics.SnippetPresence(state.Answer, q.ExpectedSnippets))
	}
	return res
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
