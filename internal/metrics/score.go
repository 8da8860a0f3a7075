package metrics

// EvaluationResult accumulates everything measured for one question.
// A nil score means the metric was not computed and is excluded from weighting.
type EvaluationResult struct {
	QuestionID string   `json:"question_id"`
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Contexts   []string `json:"contexts"`
	Mode       string   `json:"mode"`
	LatencyMs  float64  `json:"latency_ms"`
	Error      string   `json:"error,omitempty"`

	// ReferenceAnswer is the ground truth for reference-based scoring, when the dataset has one.
	ReferenceAnswer string `json:"reference_answer,omitempty"`

	ContextRelevancy *float64 `json:"context_relevancy"`
	Faithfulness     *float64 `json:"faithfulness"`
	AnswerRelevancy  *float64 `json:"answer_relevancy"`
	TopicCoverage    *float64 `json:"topic_coverage"`
	CodeValidity     *float64 `json:"code_validity"`

	// Informational; never weighted.
	CodePresence    *float64 `json:"code_presence,omitempty"`
	SnippetPresence *float64 `json:"snippet_presence,omitempty"`

	Decision            string  `json:"decision,omitempty"`
	RetrievalConfidence float64 `json:"retrieval_confidence"`
	WebResults          int     `json:"web_results"`
}

// Failed reports whether the question errored.
func (r *EvaluationResult) Failed() bool {
	return r.Error != ""
}

// Fail records msg and clears every score, so a failed result never contributes to an average.
func (r *EvaluationResult) Fail(msg string) {
	if msg == "" {
		msg = "unknown error"
	}
	r.Error = msg
	r.ContextRelevancy = nil
	r.Faithfulness = nil
	r.AnswerRelevancy = nil
	r.TopicCoverage = nil
	r.CodeValidity = nil
	r.CodePresence = nil
	r.SnippetPresence = nil
}

// Nominal weights of the aggregate score. They sum to 1.00.
const (
	WeightContextRelevancy = 0.20
	WeightFaithfulness     = 0.20
	WeightAnswerRelevancy  = 0.20
	WeightTopicCoverage    = 0.25
	WeightCodeValidity     = 0.15
)

// AggregateScore is the weighted mean over present metrics, renormalised by the
// weight actually present. It is 0.0 when no metric is present.
func AggregateScore(r EvaluationResult) float64 {
	weighted := []struct {
		score  *float64
		weight float64
	}{
		{r.ContextRelevancy, WeightContextRelevancy},
		{r.Faithfulness, WeightFaithfulness},
		{r.AnswerRelevancy, WeightAnswerRelevancy},
		{r.TopicCoverage, WeightTopicCoverage},
		{r.CodeValidity, WeightCodeValidity},
	}

	var sum, total float64
	for _, w := range weighted {
		if w.score == nil {
			continue
		}
		sum += *w.score * w.weight
		total += w.weight
	}
	if total == 0 {
		return 0.0
	}
	return sum / total
}

// Float returns a pointer to v, for populating optional scores.
func Float(v float64) *float64 {
	return &v
}
