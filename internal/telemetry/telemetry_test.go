package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCountsRoutesAndQuestions(t *testing.T) {
	r := NewRecorder()
	r.ObserveRoute("generate", 0.8)
	r.ObserveRoute("generate", 0.9)
	r.ObserveRoute("web_augmented_generate", -2)
	r.ObserveQuestion(true, 1200*time.Millisecond)
	r.ObserveQuestion(false, 0)
	r.ObserveScorerFailure("quota")

	if got := testutil.ToFloat64(r.routeDecisions.WithLabelValues("generate")); got != 2 {
		t.Fatalf("expected 2 generate decisions, got %v", got)
	}
	if got := testutil.ToFloat64(r.routeDecisions.WithLabelValues("web_augmented_generate")); got != 1 {
		t.Fatalf("expected 1 web decision, got %v", got)
	}
	if got := testutil.ToFloat64(r.questions.WithLabelValues("failure")); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
	if got := testutil.ToFloat64(r.scorerFailures.WithLabelValues("quota")); got != 1 {
		t.Fatalf("expected 1 scorer failure, got %v", got)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.ObserveRoute("generate", 1)
	r.ObserveQuestion(true, time.Second)
	r.ObserveScorerFailure("other")
	if r.Registry() != nil {
		t.Fatalf("expected nil registry")
	}
	if err := r.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")); err == nil {
		t.Fatalf("expected error writing from nil recorder")
	}
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveRoute("generate", 0.5)
	path := filepath.Join(t.TempDir(), "docent.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `docent_route_decisions_total{decision="generate"} 1`) {
		t.Fatalf("expected route counter in textfile, got: %s", data)
	}
}
