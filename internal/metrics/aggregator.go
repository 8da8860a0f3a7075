// internal/metrics/aggregator.go
package metrics

import "math"

// unknownLabel groups results whose question has no category or difficulty.
const unknownLabel = "unknown"

// Add folds value into the statistic using Welford's online algorithm.
func (rs *RunningStat) Add(value float64) {
	rs.Count++
	if rs.Count == 1 {
		rs.Min = value
		rs.Max = value
	} else {
		if value < rs.Min {
			rs.Min = value
		}
		if value > rs.Max {
			rs.Max = value
		}
	}

	delta := value - rs.Mean
	rs.Mean += delta / float64(rs.Count)
	delta2 := value - rs.Mean
	rs.M2 += delta * delta2
}

// AddPresent folds *value in when it is non-nil.
func (rs *RunningStat) AddPresent(value *float64) {
	if value != nil {
		rs.Add(*value)
	}
}

// Value is the mean, or 0 when nothing was added.
func (rs RunningStat) Value() float64 {
	if rs.Count == 0 {
		return 0
	}
	return rs.Mean
}

// StdDev is the sample standard deviation.
func (rs RunningStat) StdDev() float64 {
	if rs.Count < 2 {
		return 0
	}
	return math.Sqrt(rs.M2 / float64(rs.Count-1))
}

// AggregateMetrics summarises one evaluation run. Averages cover successful results only.
type AggregateMetrics struct {
	TotalQuestions      int `json:"-"`
	SuccessfulQuestions int `json:"-"`
	FailedQuestions     int `json:"-"`

	SuccessRate         float64 `json:"success_rate"`
	AvgContextRelevancy float64 `json:"avg_context_relevancy"`
	AvgFaithfulness     float64 `json:"avg_faithfulness"`
	AvgAnswerRelevancy  float64 `json:"avg_answer_relevancy"`
	AvgTopicCoverage    float64 `json:"avg_topic_coverage"`
	AvgCodeValidity     float64 `json:"avg_code_validity"`
	AvgAggregateScore   float64 `json:"avg_aggregate_score"`
	AvgLatencyMs        float64 `json:"avg_latency_ms"`

	Latency RunningStat `json:"-"`

	ScoresByCategory   map[string]float64 `json:"-"`
	ScoresByDifficulty map[string]float64 `json:"-"`
}

// Aggregate computes counts, per-metric means of present values, and grouped
// aggregate-score means. Ids missing from meta are grouped under "unknown".
func Aggregate(results []EvaluationResult, meta map[string]QuestionMeta) AggregateMetrics {
	var (
		contextRel, faith, answerRel, topic, code, aggregate, latency RunningStat
		byCategory   = map[string]*RunningStat{}
		byDifficulty = map[string]*RunningStat{}
	)

	successful := 0
	for _, r := range results {
		if r.Failed() {
			continue
		}
		successful++

		contextRel.AddPresent(r.ContextRelevancy)
		faith.AddPresent(r.Faithfulness)
		answerRel.AddPresent(r.AnswerRelevancy)
		topic.AddPresent(r.TopicCoverage)
		code.AddPresent(r.CodeValidity)
		latency.Add(r.LatencyMs)

		score := AggregateScore(r)
		aggregate.Add(score)

		m := meta[r.QuestionID]
		addToGroup(byCategory, labelOrUnknown(m.Category), score)
		addToGroup(byDifficulty, labelOrUnknown(m.Difficulty), score)
	}

	out := AggregateMetrics{
		TotalQuestions:      len(results),
		SuccessfulQuestions: successful,
		FailedQuestions:     len(results) - successful,
		AvgContextRelevancy: contextRel.Value(),
		AvgFaithfulness:     faith.Value(),
		AvgAnswerRelevancy:  answerRel.Value(),
		AvgTopicCoverage:    topic.Value(),
		AvgCodeValidity:     code.Value(),
		AvgAggregateScore:   aggregate.Value(),
		AvgLatencyMs:        latency.Value(),
		Latency:             latency,
		ScoresByCategory:    groupMeans(byCategory),
		ScoresByDifficulty:  groupMeans(byDifficulty),
	}
	if len(results) > 0 {
		out.SuccessRate = float64(successful) / float64(len(results))
	}
	return out
}

func labelOrUnknown(label string) string {
	if label == "" {
		return unknownLabel
	}
	return label
}

func addToGroup(groups map[string]*RunningStat, label string, score float64) {
	rs, ok := groups[label]
	if !ok {
		rs = &RunningStat{}
		groups[label] = rs
	}
	rs.Add(score)
}

func groupMeans(groups map[string]*RunningStat) map[string]float64 {
	out := make(map[string]float64, len(groups))
	for label, rs := range groups {
		out[label] = rs.Value()
	}
	return out
}
