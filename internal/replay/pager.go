package replay

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/muesli/reflow/wordwrap"
)

var (
	pagerTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	pagerInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	pagerHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	pagerLiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10"))
)

// Pager is an interactive terminal pager for session timelines.
type Pager struct {
	title string
}

// NewPager creates a pager with the given title.
func NewPager(title string) *Pager {
	return &Pager{title: title}
}

// Run starts the pager over static content.
func (p *Pager) Run(content string) error {
	prog := tea.NewProgram(
		&pagerModel{title: p.title, content: content},
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err := prog.Run()
	return err
}

// RunLive starts the pager and re-renders whenever the watched file
// changes, so an in-progress run can be followed as it appends.
func (p *Pager) RunLive(filePath string, renderFunc func() (string, error)) error {
	content, err := renderFunc()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filePath); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch file: %w", err)
	}

	prog := tea.NewProgram(
		&pagerModel{
			title:      p.title,
			content:    content,
			live:       true,
			renderFunc: renderFunc,
			watcher:    watcher,
		},
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err = prog.Run()
	watcher.Close()
	return err
}

// fileChangedMsg is sent when the watched file changes.
type fileChangedMsg struct{}

type pagerModel struct {
	viewport   viewport.Model
	title      string
	content    string
	ready      bool
	live       bool
	follow     bool
	renderFunc func() (string, error)
	watcher    *fsnotify.Watcher
}

func (m *pagerModel) Init() tea.Cmd {
	if m.live && m.watcher != nil {
		return m.watchFile()
	}
	return nil
}

// watchFile returns a command that waits for the next file change.
func (m *pagerModel) watchFile() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case event, ok := <-m.watcher.Events:
				if !ok {
					return nil
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					// Debounce: wait for the write burst to settle.
					time.Sleep(100 * time.Millisecond)
					return fileChangedMsg{}
				}
			case _, ok := <-m.watcher.Errors:
				if !ok {
					return nil
				}
				// Keep watching through transient errors.
			}
		}
	}
}

func (m *pagerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case fileChangedMsg:
		if m.renderFunc != nil {
			if newContent, err := m.renderFunc(); err == nil {
				oldOffset := m.viewport.YOffset
				m.content = newContent
				m.viewport.SetContent(wrapContent(m.content, m.viewport.Width))
				if m.follow {
					m.viewport.GotoBottom()
				} else {
					m.viewport.YOffset = oldOffset
				}
			}
		}
		cmds = append(cmds, m.watchFile())

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "g":
			m.follow = false
			m.viewport.GotoTop()
		case "G":
			m.follow = false
			m.viewport.GotoBottom()
		case "f", "F":
			if m.live {
				m.follow = !m.follow
				if m.follow {
					m.viewport.GotoBottom()
				}
			}
		}

	case tea.WindowSizeMsg:
		headerHeight := 1
		footerHeight := 1
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.viewport.YPosition = headerHeight
			m.viewport.SetContent(wrapContent(m.content, msg.Width))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
			m.viewport.SetContent(wrapContent(m.content, msg.Width))
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *pagerModel) View() string {
	if !m.ready {
		return "\n  Loading..."
	}

	title := pagerTitleStyle.Render(m.title)
	line := strings.Repeat("─", max(0, m.viewport.Width-lipgloss.Width(title)))
	header := lipgloss.JoinHorizontal(lipgloss.Center, title, pagerInfoStyle.Render(line))

	percent := 100
	if m.viewport.TotalLineCount() > m.viewport.Height {
		percent = int(float64(m.viewport.YOffset) /
			float64(max(1, m.viewport.TotalLineCount()-m.viewport.Height)) * 100)
		if percent > 100 {
			percent = 100
		}
	}
	info := fmt.Sprintf(" %d%% ", percent)

	var help string
	if m.live {
		indicator := pagerLiveStyle.Render("● LIVE")
		if m.follow {
			indicator = pagerLiveStyle.Render("● FOLLOW")
		}
		help = fmt.Sprintf(" %s │ q: quit │ f: follow │ g/G: top/bottom ", indicator)
	} else {
		help = " q: quit │ g/G: top/bottom "
	}
	footer := pagerHelpStyle.Render(help) +
		pagerInfoStyle.Render(strings.Repeat("─", max(0, m.viewport.Width-lipgloss.Width(help)-lipgloss.Width(info)))) +
		pagerInfoStyle.Render(info)

	return header + "\n" + m.viewport.View() + "\n" + footer
}

// wrapContent wraps each line to the terminal width, indenting timeline
// continuation lines to stay aligned with the content column.
func wrapContent(content string, width int) string {
	if width <= 0 {
		return content
	}

	lines := strings.Split(content, "\n")
	var result []string
	for _, line := range lines {
		if lipgloss.Width(line) <= width {
			result = append(result, line)
			continue
		}

		if idx := strings.Index(line, "│"); idx > 0 {
			prefix := line[:idx+len("│")]
			prefixWidth := lipgloss.Width(prefix) + 1
			contentWidth := max(20, width-prefixWidth)

			rest := strings.TrimLeft(line[idx+len("│"):], " ")
			wrapped := strings.Split(wordwrap.String(rest, contentWidth), "\n")
			indent := strings.Repeat(" ", prefixWidth)

			result = append(result, prefix+" "+wrapped[0])
			for _, cont := range wrapped[1:] {
				result = append(result, indent+cont)
			}
			continue
		}

		result = append(result, strings.Split(wordwrap.String(line, width), "\n")...)
	}
	return strings.Join(result, "\n")
}
