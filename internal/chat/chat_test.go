package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mwiater/docent/internal/agent"
)

type fakeSession struct {
	mode      agent.Mode
	questions []string
	state     agent.State
	err       error
	modeErr   error
}

func (f *fakeSession) Ask(_ context.Context, q string) (agent.State, error) {
	f.questions = append(f.questions, q)
	return f.state, f.err
}

func (f *fakeSession) Mode() agent.Mode { return f.mode }

func (f *fakeSession) SetMode(m agent.Mode) error {
	if f.modeErr != nil {
		return f.modeErr
	}
	f.mode = m
	return nil
}

func submit(t *testing.T, m *model, text string) tea.Cmd {
	t.Helper()
	m.textArea.SetValue(text)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	*m = *next.(*model)
	return cmd
}

func lastEntry(m *model) entry {
	return m.history[len(m.history)-1]
}

func TestQuestionRoundTrip(t *testing.T) {
	session := &fakeSession{state: agent.State{Answer: "Use a checkpointer.", Contexts: []string{"a"}, Confidence: 0.5}}
	m := newModel(context.Background(), session, Options{Model: "llama3.2:3b", Verbose: true})
	_, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	cmd := submit(t, m, "How do I persist state?")
	if cmd == nil || !m.isLoading {
		t.Fatalf("expected a pending question")
	}
	if got := lastEntry(m); got.role != roleUser || got.content != "How do I persist state?" {
		t.Fatalf("unexpected last entry %+v", got)
	}

	next, _ := m.Update(answerMsg{state: session.state})
	m = next.(*model)
	if m.isLoading {
		t.Fatalf("expected loading to stop after the answer")
	}
	if m.history[len(m.history)-2].role != roleAssistant {
		t.Fatalf("expected assistant entry before verbose details")
	}
	if got := lastEntry(m).content; !strings.Contains(got, "contexts=1") || !strings.Contains(got, "decision=generate") {
		t.Fatalf("unexpected verbose line %q", got)
	}

	out := m.View()
	if !strings.Contains(out, "Mode: OFFLINE") || !strings.Contains(out, "Model: llama3.2:3b") {
		t.Fatalf("expected header in view; got: %s", out)
	}
}

func TestAskCmdDeliversResult(t *testing.T) {
	session := &fakeSession{err: errors.New("ollama down")}
	msg := askCmd(context.Background(), session, "q")()
	failed, ok := msg.(answerErr)
	if !ok || failed.Error() != "ollama down" {
		t.Fatalf("expected answerErr, got %#v", msg)
	}

	m := newModel(context.Background(), session, Options{})
	m.isLoading = true
	next, _ := m.Update(failed)
	m = next.(*model)
	if m.isLoading || !strings.Contains(lastEntry(m).content, "ollama down") {
		t.Fatalf("expected error entry, got %+v", lastEntry(m))
	}

	session.err = nil
	session.state = agent.State{Answer: "ok"}
	if _, ok := askCmd(context.Background(), session, "q")().(answerMsg); !ok {
		t.Fatalf("expected answerMsg")
	}
}

func TestCommands(t *testing.T) {
	session := &fakeSession{}
	m := newModel(context.Background(), session, Options{})

	submit(t, m, "help")
	if !strings.Contains(lastEntry(m).content, "Commands:") || len(session.questions) != 0 {
		t.Fatalf("help must not reach the agent")
	}

	submit(t, m, "MODE")
	if lastEntry(m).content != "Current mode: offline" {
		t.Fatalf("unexpected mode entry %q", lastEntry(m).content)
	}

	submit(t, m, "mode online")
	if session.mode != agent.Online || lastEntry(m).content != "Mode set to online" {
		t.Fatalf("expected switch to online, got %q", lastEntry(m).content)
	}

	session.modeErr = errors.New("no searcher")
	submit(t, m, "mode offline")
	if !strings.Contains(lastEntry(m).content, "Cannot switch mode") {
		t.Fatalf("expected refusal, got %q", lastEntry(m).content)
	}

	submit(t, m, "mode hybrid")
	if !strings.Contains(lastEntry(m).content, "hybrid") {
		t.Fatalf("expected unknown mode message, got %q", lastEntry(m).content)
	}

	for _, word := range []string{"quit", "exit", "q"} {
		m := newModel(context.Background(), session, Options{})
		submit(t, m, word)
		if !m.quitting {
			t.Fatalf("expected %q to quit", word)
		}
		if m.View() != "" {
			t.Fatalf("expected empty view after quitting")
		}
	}
}

func TestEmptyInputAndBusyInputAreIgnored(t *testing.T) {
	session := &fakeSession{}
	m := newModel(context.Background(), session, Options{})
	before := len(m.history)

	if cmd := submit(t, m, "   "); cmd != nil || len(m.history) != before {
		t.Fatalf("blank input must be ignored")
	}

	m.isLoading = true
	submit(t, m, "another question")
	if len(m.history) != before {
		t.Fatalf("input while waiting must be ignored")
	}
}
