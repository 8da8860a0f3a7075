package agent

import "github.com/mwiater/docent/internal/rag"

// State is the value threaded through one question's pipeline. Stages never
// mutate it; they return an Update that the caller merges with Apply.
type State struct {
	Question   string
	Mode       Mode
	Contexts   []string
	Passages   []rag.Passage
	Confidence float64
	Candidates int
	Decision   Decision
	WebResults []string
	Answer     string
}

// Update holds the fields a stage changed. Nil fields are left untouched.
type Update struct {
	Contexts   []string
	Passages   []rag.Passage
	Confidence *float64
	Candidates *int
	Decision   *Decision
	WebResults []string
	Answer     *string
}

// Apply returns a copy of s with u merged in.
func (s State) Apply(u Update) State {
	if u.Contexts != nil {
		s.Contexts = u.Contexts
	}
	if u.Passages != nil {
		s.Passages = u.Passages
	}
	if u.Confidence != nil {
		s.Confidence = *u.Confidence
	}
	if u.Candidates != nil {
		s.Candidates = *u.Candidates
	}
	if u.Decision != nil {
		s.Decision = *u.Decision
	}
	if u.WebResults != nil {
		s.WebResults = u.WebResults
	}
	if u.Answer != nil {
		s.Answer = *u.Answer
	}
	return s
}

// Ranking rebuilds the retrieval result carried by s.
func (s State) Ranking() rag.Ranking {
	return rag.Ranking{Passages: s.Passages, Confidence: s.Confidence, Candidates: s.Candidates}
}
