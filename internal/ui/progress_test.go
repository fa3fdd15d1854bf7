package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bgunnarsson/tablestore/internal/loadgen"
)

func TestDescribe(t *testing.T) {
	got := Describe(loadgen.Progress{Records: 4096, Total: 36864, Bytes: 134217728, TotalBytes: 1 << 30})
	want := "Added 4,096/36,864 records (128 MiB/1.0 GiB)"
	if got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}

	got = Describe(loadgen.Progress{Records: 8, Failed: 2, Total: 8})
	if !strings.HasSuffix(got, ", 2 failed") {
		t.Errorf("Describe() = %q, want failure suffix", got)
	}
}

func TestLoadModel_Progress(t *testing.T) {
	m := newLoadModel("hana", nil)

	next, cmd := m.Update(ProgressMsg{Records: 5, Total: 10})
	if cmd != nil {
		t.Error("progress update should not issue a command")
	}
	view := next.View()
	if !strings.Contains(view, "HANA") || !strings.Contains(view, "Added 5/10 records") {
		t.Errorf("View() =\n%s", view)
	}
}

func TestLoadModel_DoneQuits(t *testing.T) {
	m := newLoadModel("sqlite", nil)

	next, cmd := m.Update(DoneMsg{
		Result: loadgen.Result{Records: 10, Elapsed: 1500 * time.Millisecond},
		Err:    errors.New("import failed"),
	})
	if cmd == nil {
		t.Fatal("DoneMsg should quit the program")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("DoneMsg command is not tea.Quit")
	}
	view := next.View()
	if !strings.Contains(view, "Elapsed time: 1.50 sec") || !strings.Contains(view, "import failed") {
		t.Errorf("View() =\n%s", view)
	}
}

func TestLoadModel_QuitCancels(t *testing.T) {
	cancelled := false
	m := newLoadModel("hana", func() { cancelled = true })

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !cancelled {
		t.Error("ctrl+c did not cancel the run")
	}
	if cmd == nil {
		t.Error("ctrl+c should quit")
	}
}
