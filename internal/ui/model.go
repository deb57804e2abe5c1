package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"mp3space/internal/model"
	"mp3space/internal/progress"
)

// pollInterval is how often the model drains the runner's queue.
const pollInterval = 100 * time.Millisecond

// BatchStarter starts a batch and hands back its event queue.
// pipeline.Runner satisfies it.
type BatchStarter interface {
	Start(ctx context.Context, inputs []string, cfg model.ProcessingConfig) (*progress.Queue, error)
}

type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	starter BatchStarter
	inputs  []string
	cfg     model.ProcessingConfig

	queue    *progress.Queue
	files    []*fileState
	final    *progress.Event
	startErr error
	aborted  bool

	width, height int
	styles        Styles
}

func NewModel(ctx context.Context, starter BatchStarter, inputs []string, cfg model.ProcessingConfig) Model {
	c, cancel := context.WithCancel(ctx)
	sty := defaultStyles()

	files := make([]*fileState, len(inputs))
	for i, in := range inputs {
		files[i] = newFileState(in, sty)
	}

	return Model{
		ctx:     c,
		cancel:  cancel,
		starter: starter,
		inputs:  inputs,
		cfg:     cfg,
		files:   files,
		styles:  sty,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.files)+1)
	for _, f := range m.files {
		cmds = append(cmds, f.spinner.Tick)
	}
	cmds = append(cmds, m.startCmd())
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.aborted = m.final == nil
			m.cancel()
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case batchStartedMsg:
		if msg.Err != nil {
			m.startErr = msg.Err
			return m, tea.Quit
		}
		m.queue = msg.Queue
		return m, pollCmd()

	case pollMsg:
		if m.queue == nil {
			return m, nil
		}
		for _, e := range m.queue.Drain() {
			m.apply(e)
		}
		if m.final != nil {
			return m, tea.Quit
		}
		return m, pollCmd()
	}

	// Update per-file components (spinner)
	var cmds []tea.Cmd
	for _, f := range m.files {
		var c tea.Cmd
		f.spinner, c = f.spinner.Update(msg)
		if c != nil {
			cmds = append(cmds, c)
		}
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) apply(e progress.Event) {
	if e.Kind.Terminal() {
		ev := e
		m.final = &ev
		return
	}
	if e.Index >= 0 && e.Index < len(m.files) {
		m.files[e.Index].apply(e)
	}
}

func (m Model) View() string {
	summary := m.viewSummary()
	if summary != "" {
		return m.viewHeader() + "\n\n" + m.viewFiles() + "\n" + summary
	}
	return m.viewHeader() + "\n\n" + m.viewFiles()
}

func (m Model) startCmd() tea.Cmd {
	return func() tea.Msg {
		q, err := m.starter.Start(m.ctx, m.inputs, m.cfg)
		return batchStartedMsg{Queue: q, Err: err}
	}
}

func pollCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return pollMsg{}
	})
}
