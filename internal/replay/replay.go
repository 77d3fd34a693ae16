// Package replay renders stored audit sessions as a terminal timeline.
package replay

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sentinelops/sentinel/internal/session"
)

var (
	// Structural / metadata
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")) // Gray - timestamps, metadata

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	actionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")) // Blue - action labels

	// Log statuses
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")) // Green

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")) // Red

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")) // Yellow

	// Timeline
	seqStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Width(5).
			Align(lipgloss.Right)

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	divider = lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Render(strings.Repeat("━", 60))
)

// Replayer reads and formats audit sessions for review.
type Replayer struct {
	output io.Writer
}

// New creates a new Replayer writing to output.
func New(output io.Writer) *Replayer {
	return &Replayer{output: output}
}

// ReplayFile loads and replays a session from a JSONL file.
func (r *Replayer) ReplayFile(path string) error {
	sess, err := session.LoadFile(path)
	if err != nil {
		return err
	}
	return r.Replay(sess)
}

// ReplayFileInteractive loads and replays with an interactive pager.
func (r *Replayer) ReplayFileInteractive(path string) error {
	sess, err := session.LoadFile(path)
	if err != nil {
		return err
	}

	var buf strings.Builder
	oldOutput := r.output
	r.output = &buf
	err = r.Replay(sess)
	r.output = oldOutput
	if err != nil {
		return err
	}

	title := fmt.Sprintf("Session: %s", sess.RunID)
	return NewPager(title).Run(buf.String())
}

// ReplayFileLive replays with live file watching: the timeline reloads
// as the runner appends to the session file.
func (r *Replayer) ReplayFileLive(path string) error {
	renderFunc := func() (string, error) {
		sess, err := session.LoadFile(path)
		if err != nil {
			return "", err
		}
		var buf strings.Builder
		oldOutput := r.output
		r.output = &buf
		err = r.Replay(sess)
		r.output = oldOutput
		if err != nil {
			return "", err
		}
		return buf.String(), nil
	}

	sess, err := session.LoadFile(path)
	if err != nil {
		return err
	}
	title := fmt.Sprintf("Session: %s (LIVE)", sess.RunID)
	return NewPager(title).RunLive(path, renderFunc)
}

// Replay writes the formatted session timeline.
func (r *Replayer) Replay(sess *session.Session) error {
	r.printHeader(sess)
	r.printTimeline(sess)
	if sess.Result != nil {
		r.printResult(sess.Result)
	}
	r.printFooter(sess)
	return nil
}

func (r *Replayer) printHeader(sess *session.Session) {
	fmt.Fprintln(r.output, divider)
	fmt.Fprintln(r.output, titleStyle.Render("AUDIT SESSION"))
	r.printField("Run", sess.RunID)
	r.printField("Risk", sess.RiskID)
	r.printField("Control", sess.ControlID)
	r.printField("Status", string(sess.Status))
	if !sess.StartedAt.IsZero() {
		r.printField("Started", sess.StartedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintln(r.output, divider)
	fmt.Fprintln(r.output)
}

func (r *Replayer) printField(label, value string) {
	fmt.Fprintf(r.output, "%s %s\n",
		labelStyle.Render(fmt.Sprintf("%9s:", label)),
		valueStyle.Render(value))
}

func (r *Replayer) printTimeline(sess *session.Session) {
	for i, entry := range sess.Logs {
		r.printEntry(i+1, entry)
	}
	if len(sess.Logs) == 0 {
		fmt.Fprintln(r.output, dimStyle.Render("  (no log entries)"))
	}
	fmt.Fprintln(r.output)
}

func (r *Replayer) printEntry(seq int, entry session.LogEntry) {
	style := infoStyle
	switch entry.Status {
	case session.LogSuccess:
		style = successStyle
	case session.LogWarning:
		style = warnStyle
	case session.LogError:
		style = errorStyle
	}
	fmt.Fprintf(r.output, "%s %s %s %s %s\n",
		seqStyle.Render(fmt.Sprintf("%d", seq)),
		timeStyle.Render(entry.Timestamp),
		dimStyle.Render("│"),
		actionStyle.Render(entry.Action),
		style.Render(entry.Detail))
}

func (r *Replayer) printResult(result *session.AuditResult) {
	fmt.Fprintln(r.output, divider)
	verdict := errorStyle.Render("INEFFECTIVE")
	if result.Effective {
		verdict = successStyle.Render("EFFECTIVE")
	}
	fmt.Fprintf(r.output, "%s  %s  %s\n",
		titleStyle.Render("RESULT"),
		verdict,
		dimStyle.Render(fmt.Sprintf("score %d/100", result.Score)))
	fmt.Fprintln(r.output)
	fmt.Fprintln(r.output, valueStyle.Render(result.Summary))

	if len(result.Gaps) > 0 {
		fmt.Fprintln(r.output)
		fmt.Fprintln(r.output, labelStyle.Render("Gaps:"))
		for _, gap := range result.Gaps {
			fmt.Fprintf(r.output, "  %s %s\n", errorStyle.Render("✗"), valueStyle.Render(gap))
		}
	}
	if len(result.Recommendations) > 0 {
		fmt.Fprintln(r.output)
		fmt.Fprintln(r.output, labelStyle.Render("Recommendations:"))
		for _, rec := range result.Recommendations {
			fmt.Fprintf(r.output, "  %s %s\n", successStyle.Render("→"), valueStyle.Render(rec))
		}
	}
	if result.DurationMs > 0 {
		fmt.Fprintln(r.output)
		fmt.Fprintln(r.output, dimStyle.Render(fmt.Sprintf("Duration: %dms", result.DurationMs)))
	}
}

func (r *Replayer) printFooter(sess *session.Session) {
	fmt.Fprintln(r.output, divider)
	fmt.Fprintf(r.output, "%s %s  %s %d\n",
		labelStyle.Render("Final status:"),
		statusStyle(sess.Status).Render(string(sess.Status)),
		labelStyle.Render("events:"),
		len(sess.Logs))
}

func statusStyle(status session.Status) lipgloss.Style {
	switch status {
	case session.StatusCompleted:
		return successStyle
	case session.StatusFailed:
		return errorStyle
	case session.StatusCancelled:
		return warnStyle
	}
	return infoStyle
}
