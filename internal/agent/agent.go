// Package agent answers documentation questions: retrieve, route on retrieval
// confidence, optionally search the web, then generate.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwiater/docent/internal/logging"
	"github.com/mwiater/docent/internal/providers"
	"github.com/mwiater/docent/internal/rag"
	"github.com/mwiater/docent/internal/telemetry"
	"github.com/mwiater/docent/internal/websearch"
)

// Retriever produces reranked passages for a query.
type Retriever interface {
	RetrieveRanked(ctx context.Context, query string, k int) (rag.Ranking, error)
}

// Agent runs the answer pipeline for one question at a time.
type Agent struct {
	retriever Retriever
	generator providers.Generator
	searcher  websearch.Searcher
	recorder  *telemetry.Recorder
	mode      Mode
	k         int
	threshold float64
}

// Option configures an Agent.
type Option func(*Agent)

func WithMode(m Mode) Option {
	return func(a *Agent) { a.mode = m }
}

func WithSearcher(s websearch.Searcher) Option {
	return func(a *Agent) { a.searcher = s }
}

// WithK sets how many passages are kept after reranking.
func WithK(k int) Option {
	return func(a *Agent) { a.k = k }
}

// WithThreshold sets the confidence floor below which online mode searches the web.
func WithThreshold(t float64) Option {
	return func(a *Agent) { a.threshold = t }
}

func WithRecorder(r *telemetry.Recorder) Option {
	return func(a *Agent) { a.recorder = r }
}

// New validates the wiring. Online mode requires a searcher.
func New(retriever Retriever, generator providers.Generator, opts ...Option) (*Agent, error) {
	a := &Agent{retriever: retriever, generator: generator, mode: Offline, k: 5}
	for _, opt := range opts {
		opt(a)
	}
	if a.retriever == nil {
		return nil, fmt.Errorf("agent requires a retriever")
	}
	if a.generator == nil {
		return nil, fmt.Errorf("agent requires a generator")
	}
	if a.k <= 0 {
		return nil, fmt.Errorf("agent: k must be positive, got %d", a.k)
	}
	if a.mode == Online && a.searcher == nil {
		return nil, fmt.Errorf("agent: online mode requires a web searcher")
	}
	return a, nil
}

func (a *Agent) Mode() Mode {
	return a.mode
}

// SetMode switches between offline and online. Online is refused without a searcher.
func (a *Agent) SetMode(m Mode) error {
	if m == Online && a.searcher == nil {
		return fmt.Errorf("online mode requires a web searcher")
	}
	a.mode = m
	return nil
}

// Ask runs retrieve, route, and the chosen answer path. The returned State is
// populated up to the stage that failed.
func (a *Agent) Ask(ctx context.Context, question string) (State, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return State{}, fmt.Errorf("question is empty")
	}
	s := State{Question: question, Mode: a.mode}

	u, err := a.retrieve(ctx, s)
	if err != nil {
		return s, err
	}
	s = s.Apply(u)
	s = s.Apply(a.route(s))
	logging.LogEvent("[AGENT] mode=%s confidence=%.4f decision=%s", s.Mode, s.Confidence, s.Decision)

	switch s.Decision {
	case WebAugmentedGenerate:
		u, err = a.webSearch(ctx, s)
		if err != nil {
			return s, err
		}
		s = s.Apply(u)
		u, err = a.generate(ctx, BuildWebPrompt(s.Question, s.Contexts, s.WebResults))
	case Generate:
		u, err = a.generate(ctx, BuildPrompt(s.Question, s.Contexts))
	default:
		return s, fmt.Errorf("unknown routing decision %d", s.Decision)
	}
	if err != nil {
		return s, err
	}
	return s.Apply(u), nil
}

func (a *Agent) retrieve(ctx context.Context, s State) (Update, error) {
	ranking, err := a.retriever.RetrieveRanked(ctx, s.Question, a.k)
	if err != nil {
		return Update{}, fmt.Errorf("retrieve: %w", err)
	}
	passages := ranking.Passages
	if passages == nil {
		passages = []rag.Passage{}
	}
	return Update{
		Contexts:   ranking.Contexts(),
		Passages:   passages,
		Confidence: &ranking.Confidence,
		Candidates: &ranking.Candidates,
	}, nil
}

func (a *Agent) route(s State) Update {
	d := Route(s.Mode, s.Confidence, a.threshold)
	a.recorder.ObserveRoute(d.String(), s.Confidence)
	return Update{Decision: &d}
}

func (a *Agent) webSearch(ctx context.Context, s State) (Update, error) {
	results, err := a.searcher.Search(ctx, s.Question)
	if err != nil {
		return Update{}, fmt.Errorf("web search: %w", err)
	}
	if results == nil {
		results = []string{}
	}
	logging.LogEvent("[AGENT] web search returned %d results", len(results))
	return Update{WebResults: results}, nil
}

func (a *Agent) generate(ctx context.Context, prompt string) (Update, error) {
	answer, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		return Update{}, fmt.Errorf("generate: %w", err)
	}
	return Update{Answer: &answer}, nil
}
