package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mwiater/docent/internal/logging"
	"github.com/mwiater/docent/internal/metrics"
	"github.com/mwiater/docent/internal/telemetry"
	"google.golang.org/genai"
)

// Sample is one answered question handed to a reference scorer.
type Sample struct {
	Question    string
	Answer      string
	Contexts    []string
	GroundTruth string
}

// ReferenceScores holds the judged metrics for one sample. A nil field was not produced.
type ReferenceScores struct {
	ContextPrecision *float64 `json:"context_precision"`
	Faithfulness     *float64 `json:"faithfulness"`
	AnswerRelevancy  *float64 `json:"answer_relevancy"`
}

// ReferenceScorer scores samples in order, returning one entry per sample.
type ReferenceScorer interface {
	Score(ctx context.Context, samples []Sample) ([]ReferenceScores, error)
}

// ContentGenerator is the slice of the Gemini models API the judge needs. *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content,
		config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiJudge asks a Gemini model to grade each sample and return JSON scores.
type GeminiJudge struct {
	models ContentGenerator
	model  string
}

// DefaultJudgeModel is used when no Gemini model is configured.
const DefaultJudgeModel = "gemini-2.5-flash"

// NewGeminiJudge connects to the Gemini API with apiKey.
func NewGeminiJudge(ctx context.Context, apiKey, model string) (*GeminiJudge, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("GOOGLE_API_KEY not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return NewGeminiJudgeWith(client.Models, model), nil
}

// NewGeminiJudgeWith builds a judge over an existing models API.
func NewGeminiJudgeWith(models ContentGenerator, model string) *GeminiJudge {
	if strings.TrimSpace(model) == "" {
		model = DefaultJudgeModel
	}
	return &GeminiJudge{models: models, model: model}
}

// Model returns the judging model name.
func (j *GeminiJudge) Model() string { return j.model }

const judgePrompt = `You are grading a retrieval-augmented answer. Return only a JSON object with the keys
"context_precision", "faithfulness" and "answer_relevancy", each a number between 0 and 1.

context_precision: how much of the retrieved context is relevant to the question, judged against the reference.
faithfulness: the fraction of claims in the answer that the context supports.
answer_relevancy: how directly the answer addresses the question.

Question:
%s

Reference:
%s

Context:
%s

Answer:
%s`

// Score grades every sample. Any failed call fails the whole batch.
func (j *GeminiJudge) Score(ctx context.Context, samples []Sample) ([]ReferenceScores, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.1),
	}
	out := make([]ReferenceScores, 0, len(samples))
	for i, s := range samples {
		prompt := fmt.Sprintf(judgePrompt, s.Question, s.GroundTruth, strings.Join(s.Contexts, "\n\n"), s.Answer)
		logging.LogRequest("DOCENT->JUDGE", "Gemini", j.model, map[string]any{"sample": i, "question": s.Question})

		resp, err := j.models.GenerateContent(ctx, j.model, genai.Text(prompt), config)
		if err != nil {
			return nil, fmt.Errorf("judge sample %d: %w", i, err)
		}
		scores, err := parseJudgeScores(resp.Text())
		if err != nil {
			return nil, fmt.Errorf("judge sample %d: %w", i, err)
		}
		out = append(out, scores)
	}
	return out, nil
}

func parseJudgeScores(text string) (ReferenceScores, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var scores ReferenceScores
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &scores); err != nil {
		return ReferenceScores{}, fmt.Errorf("decode judge response: %w", err)
	}
	scores.ContextPrecision = clampUnit(scores.ContextPrecision)
	scores.Faithfulness = clampUnit(scores.Faithfulness)
	scores.AnswerRelevancy = clampUnit(scores.AnswerRelevancy)
	return scores, nil
}

func clampUnit(v *float64) *float64 {
	if v == nil {
		return nil
	}
	switch {
	case *v < 0:
		return metrics.Float(0)
	case *v > 1:
		return metrics.Float(1)
	}
	return v
}

// Scorer failure reasons.
const (
	ScorerQuotaExhausted = "quota"
	ScorerModelNotFound  = "model_not_found"
	ScorerOther          = "other"
)

// ClassifyScorerError buckets a scorer failure by its message.
func ClassifyScorerError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "RESOURCE_EXHAUSTED"), strings.Contains(msg, "429"),
		strings.Contains(strings.ToLower(msg), "quota"):
		return ScorerQuotaExhausted
	case strings.Contains(msg, "404"), strings.Contains(msg, "NOT_FOUND"):
		return ScorerModelNotFound
	}
	return ScorerOther
}

// ApplyReferenceScores fills context relevancy, faithfulness and answer relevancy
// for successful results that have contexts. Scorer failures are logged and
// leave every result unchanged; they never abort the run.
func ApplyReferenceScores(ctx context.Context, scorer ReferenceScorer, results []metrics.EvaluationResult, recorder *telemetry.Recorder) error {
	if scorer == nil {
		return nil
	}
	var (
		idx     []int
		samples []Sample
	)
	for i, r := range results {
		if r.Failed() || len(r.Contexts) == 0 {
			continue
		}
		truth := r.ReferenceAnswer
		if truth == "" {
			truth = r.Question
		}
		idx = append(idx, i)
		samples = append(samples, Sample{Question: r.Question, Answer: r.Answer, Contexts: r.Contexts, GroundTruth: truth})
	}
	if len(samples) == 0 {
		logging.LogEvent("[EVAL] no successful results with contexts for reference scoring")
		return nil
	}

	logging.LogEvent("[EVAL] reference scoring %d results", len(samples))
	scores, err := scorer.Score(ctx, samples)
	if err == nil && len(scores) != len(samples) {
		err = fmt.Errorf("scorer returned %d scores for %d samples", len(scores), len(samples))
	}
	if err != nil {
		reason := ClassifyScorerError(err)
		recorder.ObserveScorerFailure(reason)
		switch reason {
		case ScorerQuotaExhausted:
			logging.LogWarn("[EVAL] reference scoring skipped: API quota exhausted: %v", err)
		case ScorerModelNotFound:
			logging.LogWarn("[EVAL] reference scoring skipped: judge model not available: %v", err)
		default:
			logging.LogWarn("[EVAL] reference scoring failed, continuing with local metrics: %v", err)
		}
		return fmt.Errorf("reference scoring (%s): %w", reason, err)
	}

	for n, i := range idx {
		results[i].ContextRelevancy = scores[n].ContextPrecision
		results[i].Faithfulness = scores[n].Faithfulness
		results[i].AnswerRelevancy = scores[n].AnswerRelevancy
	}
	return nil
}
