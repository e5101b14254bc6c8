package display

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// NeedsPaging reports whether content has more lines than a terminal of
// termHeight rows could show at once.
func NeedsPaging(content string, termHeight int) bool {
	return termHeight > 0 && strings.Count(content, "\n") > termHeight
}

type pagerModel struct {
	vp viewport.Model
}

func (m pagerModel) Init() tea.Cmd { return nil }

func (m pagerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.vp.Width = msg.Width
		m.vp.Height = msg.Height
	}
	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m pagerModel) View() string {
	return m.vp.View()
}

// Page opens a full-screen scrollable viewport over content and blocks until
// the user quits with q/esc/ctrl+c. Used for show()/head() output too tall
// to fit the terminal in one screen.
func Page(content string, width, height int) error {
	vp := viewport.New(width, height)
	vp.SetContent(content)
	p := tea.NewProgram(pagerModel{vp: vp}, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
