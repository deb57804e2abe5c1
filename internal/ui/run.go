package ui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"mp3space/internal/model"
	"mp3space/internal/progress"
)

// ErrAborted is returned when the user quits before the batch finishes.
var ErrAborted = errors.New("batch aborted by user")

// Run starts the batch through starter and shows its progress until the
// terminal event arrives. It returns that event.
func Run(ctx context.Context, starter BatchStarter, inputs []string, cfg model.ProcessingConfig) (progress.Event, error) {
	m := NewModel(ctx, starter, inputs, cfg)
	prog := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := prog.Run()
	if err != nil {
		return progress.Event{}, err
	}
	fm, ok := final.(Model)
	if !ok {
		return progress.Event{}, fmt.Errorf("unexpected final model %T", final)
	}
	return fm.result()
}

func (m Model) result() (progress.Event, error) {
	switch {
	case m.startErr != nil:
		return progress.Event{}, m.startErr
	case m.aborted || m.final == nil:
		return progress.Event{}, ErrAborted
	}
	return *m.final, nil
}
