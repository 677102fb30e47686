package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/totalapp/tenantfiles/internal/staging"
)

const (
	txtResolveTitle = "These files already exist"
	txtResolveInfo  = "Checked files replace the existing ones, unchecked files are saved next to them."
	txtResolveHelp  = "↑/↓ move · space toggle · a toggle all · enter save · esc cancel"
)

// resolveModel lets the user pick, per duplicate, overwrite or keep both
type resolveModel struct {
	resolution *staging.Resolution
	candidates []staging.DuplicateCandidate
	cursor     int
	confirmed  bool
}

func newResolveModel(resolution *staging.Resolution) resolveModel {
	return resolveModel{
		resolution: resolution,
		candidates: resolution.Candidates(),
	}
}

func (m resolveModel) Init() tea.Cmd {
	return nil
}

func (m resolveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc", "q":
		return m, tea.Quit
	case "enter":
		m.confirmed = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.candidates)-1 {
			m.cursor++
		}
	case " ", "x":
		if len(m.candidates) > 0 {
			m.resolution.Toggle(m.candidates[m.cursor].Staged.TempID)
		}
	case "a":
		m.resolution.ToggleAll()
	}
	return m, nil
}

func (m resolveModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(txtResolveTitle))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(txtResolveInfo))
	b.WriteString("\n\n")

	for i, c := range m.candidates {
		cursor := "  "
		if i == m.cursor {
			cursor = cyan.Render("> ")
		}
		box := "[ ]"
		action := gray.Render("keep both")
		if m.resolution.IsSelected(c.Staged.TempID) {
			box = green.Render("[x]")
			action = yellow.Render("overwrite")
		}
		b.WriteString(fmt.Sprintf("%s%s %s  %s\n", cursor, box, c.Staged.Filename, action))
	}

	overwrite, keepBoth := m.resolution.Counts()
	b.WriteString(fmt.Sprintf("\n%s\n", lightGray.Render(fmt.Sprintf("%d to overwrite, %d to keep both", overwrite, keepBoth))))
	b.WriteString(helpStyle.Render(txtResolveHelp))
	b.WriteString("\n")
	return b.String()
}

// RunResolveTUI reports whether the user confirmed the selection
func RunResolveTUI(resolution *staging.Resolution) (bool, error) {
	model, err := tea.NewProgram(newResolveModel(resolution)).Run()
	if err != nil {
		return false, fmt.Errorf("resolve prompt: %w", err)
	}
	fm, ok := model.(resolveModel)
	return ok && fm.confirmed, nil
}
