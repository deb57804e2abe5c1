package ui

import "mp3space/internal/progress"

type batchStartedMsg struct {
	Queue *progress.Queue
	Err   error
}

// pollMsg asks the model to drain the event queue.
type pollMsg struct{}
