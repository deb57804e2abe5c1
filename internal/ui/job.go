package ui

import (
	"path/filepath"

	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"

	"mp3space/internal/progress"
)

type fileState struct {
	input  string
	output string
	stage  progress.Stage
	status string
	speed  string
	err    error
	done   bool

	percent float64 // -1 means unknown

	spinner spinner.Model
	bar     bubblesprogress.Model
}

func newFileState(input string, styles Styles) *fileState {
	sp := spinner.New()
	sp.Style = styles.Spinner
	bar := bubblesprogress.New(
		bubblesprogress.WithDefaultGradient(),
		bubblesprogress.WithWidth(40),
	)
	return &fileState{
		input:   input,
		stage:   "queued",
		status:  "Queued",
		percent: -1,
		spinner: sp,
		bar:     bar,
	}
}

func (f *fileState) name() string {
	return filepath.Base(f.input)
}

// apply folds a stage or file event into the row.
func (f *fileState) apply(e progress.Event) {
	if e.Output != "" {
		f.output = e.Output
	}
	if e.Message != "" {
		f.status = e.Message
	}
	switch e.Kind {
	case progress.KindStage:
		if e.Stage != f.stage {
			f.speed = ""
		}
		f.stage = e.Stage
		f.percent = e.Percent
		if e.Speed != "" {
			f.speed = e.Speed
		}
	case progress.KindFile:
		f.done = true
		f.err = e.Err
		f.stage = e.Stage
		f.speed = ""
		if e.Err != nil {
			f.percent = -1
			f.status = e.Err.Error()
		} else {
			f.percent = 100
		}
	}
}
