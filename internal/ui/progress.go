package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/bgunnarsson/tablestore/internal/loadgen"
)

// Catppuccin Mocha accents.
var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89DCEB"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C0A1F0"))
	statStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6ADC8"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))
)

type ProgressMsg loadgen.Progress

type DoneMsg struct {
	Result loadgen.Result
	Err    error
}

// Describe renders the one-line progress summary used by both the
// interactive view and plain logging.
func Describe(p loadgen.Progress) string {
	s := fmt.Sprintf("Added %s/%s records (%s/%s)",
		humanize.Comma(p.Records), humanize.Comma(p.Total),
		humanize.IBytes(uint64(p.Bytes)), humanize.IBytes(uint64(p.TotalBytes)))
	if p.Failed > 0 {
		s += fmt.Sprintf(", %s failed", humanize.Comma(p.Failed))
	}
	return s
}

type loadModel struct {
	label  string
	bar    progress.Model
	last   loadgen.Progress
	done   *DoneMsg
	cancel context.CancelFunc
	start  time.Time
}

func newLoadModel(label string, cancel context.CancelFunc) loadModel {
	return loadModel{
		label:  label,
		bar:    progress.New(progress.WithGradient("#89DCEB", "#C0A1F0")),
		cancel: cancel,
		start:  time.Now(),
	}
}

func (m loadModel) Init() tea.Cmd { return nil }

func (m loadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-4, 10), 80)

	case ProgressMsg:
		m.last = loadgen.Progress(msg)

	case DoneMsg:
		m.done = &msg
		return m, tea.Quit
	}
	return m, nil
}

func (m loadModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("TABLESTORE LOAD"))
	b.WriteString("  ")
	b.WriteString(labelStyle.Render(strings.ToUpper(m.label)))
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(m.last.Fraction()))
	b.WriteString("\n")
	b.WriteString(statStyle.Render(Describe(m.last)))
	b.WriteString("\n")

	if m.done != nil {
		if m.done.Err != nil {
			b.WriteString(errStyle.Render("error: " + m.done.Err.Error()))
			b.WriteString("\n")
		}
		b.WriteString(statStyle.Render(fmt.Sprintf("Elapsed time: %.2f sec", m.done.Result.Elapsed.Seconds())))
		b.WriteString("\n")
	} else {
		b.WriteString(statStyle.Render(fmt.Sprintf("%s elapsed, q to stop", time.Since(m.start).Round(time.Second))))
		b.WriteString("\n")
	}
	return b.String()
}

// RunFunc performs a load run, reporting through progress.
type RunFunc func(ctx context.Context, progress func(loadgen.Progress)) (loadgen.Result, error)

// RunLoad shows a progress bar while run executes. Quitting the view
// cancels run's context; RunLoad still waits for run to return.
func RunLoad(ctx context.Context, label string, run RunFunc) (loadgen.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newLoadModel(label, cancel))

	doneCh := make(chan DoneMsg, 1)
	go func() {
		res, err := run(ctx, func(pr loadgen.Progress) { p.Send(ProgressMsg(pr)) })
		d := DoneMsg{Result: res, Err: err}
		doneCh <- d
		p.Send(d)
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-doneCh
		return loadgen.Result{}, err
	}

	d := <-doneCh
	return d.Result, d.Err
}
