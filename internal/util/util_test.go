package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evaluation", "reports", "report.json")
	if err := WriteFile(path, []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if string(got) != `{"ok":true}` {
		t.Fatalf("expected report contents, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		max    int
		suffix string
		want   string
	}{
		{"under limit", "MemorySaver", 20, "...", "MemorySaver"},
		{"at limit", strings.Repeat("b", 500), 500, "...", strings.Repeat("b", 500)},
		{"over limit", strings.Repeat("a", 501), 500, "...", strings.Repeat("a", 500) + "..."},
		{"runes not bytes", "グラフの状態", 3, "…", "グラフ…"},
		{"negative disables", "checkpointer", -1, "...", "checkpointer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateWithSuffix(tt.in, tt.max, tt.suffix); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
	if got := TruncateRunes("StateGraph", 5); got != "State…" {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
}

func TestWrapToWidth(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{"greedy words", "add a checkpointer to the graph", 12, "add a\ncheckpointer\nto the graph"},
		{"split long word", "interrupt_before_node", 8, "interrup\nt_before\n_node"},
		{"long word after text", "use create_react_agent", 10, "use\ncreate_rea\nct_agent"},
		{"blank lines kept", "first\n\nsecond", 20, "first\n\nsecond"},
		{"fitting line verbatim", "  help    Show help", 20, "  help    Show help"},
		{"zero width", "no wrap here", 0, "no wrap here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WrapToWidth(tt.text, tt.width); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
