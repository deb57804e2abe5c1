package ui

import (
	"fmt"
	"strings"

	"mp3space/internal/progress"
)

func (m Model) viewHeader() string {
	done, total := 0, len(m.files)
	for _, f := range m.files {
		if f.done {
			done++
		}
	}
	title := m.styles.Title.Render("mp3space — batch")
	sub := m.styles.Subtitle.Render(fmt.Sprintf("Files: %d/%d done • q: quit", done, total))
	return title + "\n" + sub
}

func (m Model) viewFiles() string {
	var b strings.Builder
	for _, f := range m.files {
		b.WriteString(m.viewFile(f))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewFile(f *fileState) string {
	stageStyle := m.styles.FileInfo
	switch f.stage {
	case progress.StageChecking, progress.StagePlanning:
		stageStyle = m.styles.StageCheck
	case progress.StageProbing:
		stageStyle = m.styles.StageProbe
	case progress.StageEncoding:
		stageStyle = m.styles.StageEnc
	case progress.StageCompleted:
		stageStyle = m.styles.Success
	case progress.StageError:
		stageStyle = m.styles.Error
	}

	left := m.styles.FileTitle.Render(truncate(f.name(), 48))
	stage := stageStyle.Render(string(f.stage))

	var right string
	switch {
	case f.done && f.err == nil:
		right = m.styles.Success.Render("✓ done")
	case f.err != nil:
		right = m.styles.Error.Render("✗ error")
	case f.percent >= 0 && f.percent <= 100:
		right = fmt.Sprintf("%s %5.1f%%", f.bar.ViewAs(f.percent/100.0), f.percent)
		if f.speed != "" {
			right += " " + m.styles.Faint.Render(f.speed)
		}
	case f.stage == "queued":
		right = m.styles.Faint.Render("waiting")
	default:
		right = m.styles.Spinner.Render(f.spinner.View()) + " " + m.styles.Faint.Render("working")
	}

	line1 := fmt.Sprintf("%s  %s", left, stage)
	line2 := m.styles.FileInfo.Render(f.status)
	return m.styles.Box.Render(line1 + "\n" + right + "\n" + line2)
}

func (m Model) viewSummary() string {
	var b strings.Builder
	if m.startErr != nil {
		b.WriteString(m.styles.Error.Render("Could not start: " + m.startErr.Error()))
		b.WriteString("\n")
		return b.String()
	}
	if m.final == nil {
		return ""
	}

	style := m.styles.Success
	switch {
	case m.final.Kind == progress.KindError || m.final.Kind == progress.KindFailed:
		style = m.styles.Error
	case m.final.Failed > 0:
		style = m.styles.Warning
	}
	b.WriteString(style.Render(m.final.Message))
	b.WriteString("\n")

	for _, f := range m.files {
		if f.done && f.err == nil && f.output != "" {
			b.WriteString(m.styles.Success.Render("  • " + f.output))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if n <= 0 || len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
