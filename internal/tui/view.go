package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"coursebuilder/internal/editor"
	"coursebuilder/internal/model"
)

const lessonPaneWidth = 30

func (m appModel) View() string {
	header := m.viewHeader()
	footer := m.viewFooter()
	bodyH := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if bodyH < 3 {
		bodyH = 3
	}

	var body string
	if m.confirm != nil {
		modal := renderConfirmModal(m.width, m.confirm.title, m.confirm.prompt, "Discard", "Keep editing", m.confirm.focus)
		body = lipgloss.Place(m.width, bodyH, lipgloss.Center, lipgloss.Center, modal)
	} else {
		left := normalizePane(m.viewLessons(bodyH), lessonPaneWidth, bodyH)
		rightW := m.width - lessonPaneWidth - 1
		if rightW < 10 {
			rightW = 10
		}
		right := normalizePane(m.viewRight(rightW, bodyH), rightW, bodyH)
		sep := styleMuted().Render(strings.TrimRight(strings.Repeat("│\n", bodyH), "\n"))
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, sep, right)
	}
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m appModel) viewHeader() string {
	title := "Course builder"
	if c := m.ed.Course(); c != nil {
		title = c.Title
		if m.hasSession {
			if l, mod, ok := c.FindLesson(m.state.Ref.LessonID); ok {
				title += " › " + mod.Title + " › " + l.Title
			}
		}
	}
	line := styleTitle().Render(title)
	if ind := m.saveIndicator(); ind != "" {
		line += "  " + ind
	}
	return fitWidth(line, m.width)
}

// saveIndicator summarizes the session's persistence state.
func (m appModel) saveIndicator() string {
	if !m.hasSession {
		return ""
	}
	st := m.state
	switch {
	case st.Saving && st.RetryAttempt > 0:
		return styleMuted().Render(fmt.Sprintf("saving (retry %d)…", st.RetryAttempt))
	case st.Saving:
		return styleMuted().Render("saving…")
	case st.RetryAttempt > 0:
		return lipgloss.NewStyle().Foreground(colorInfoFg).Render(fmt.Sprintf("retrying (%d)", st.RetryAttempt))
	case st.Dirty && st.LastError != nil:
		return lipgloss.NewStyle().Foreground(colorErrorFg).Render("not saved")
	case st.Dirty:
		return styleMarked().Render("unsaved")
	default:
		return styleMuted().Render("saved")
	}
}

func (m appModel) viewLessons(h int) string {
	var lines []string
	lastModule := ""
	for i, r := range m.lessons {
		if r.moduleTitle != lastModule {
			lines = append(lines, styleChrome().Render(r.moduleTitle))
			lastModule = r.moduleTitle
		}
		label := fmt.Sprintf("  %s (%d)", r.title, r.blocks)
		if m.hasSession && r.lessonID == m.state.Ref.LessonID {
			label = "• " + strings.TrimPrefix(label, "  ")
		}
		label = fitWidth(label, lessonPaneWidth)
		if i == m.lessonCursor && m.pane == paneLessons {
			label = styleSelectedRow().Render(label)
		}
		lines = append(lines, label)
	}
	if len(lines) == 0 {
		lines = append(lines, styleMuted().Render("No lessons"))
	}
	return strings.Join(lines, "\n")
}

func (m appModel) viewRight(w, h int) string {
	if !m.hasSession {
		return styleMuted().Render("Open a lesson with enter.")
	}
	switch m.pane {
	case paneEdit:
		return styleChrome().Render("Editing "+m.editingID) + "\n" + m.textarea.View()
	case paneAdd:
		return m.viewAddPicker()
	}
	if m.preview {
		title := ""
		if c := m.ed.Course(); c != nil {
			if l, _, ok := c.FindLesson(m.state.Ref.LessonID); ok {
				title = l.Title
			}
		}
		return renderMarkdown(lessonMarkdown(title, m.state.Blocks), w)
	}
	return m.viewBlocks(w)
}

func (m appModel) viewBlocks(w int) string {
	if len(m.state.Blocks) == 0 {
		return styleMuted().Render("Empty lesson. Press a to add a block.")
	}
	lines := make([]string, 0, len(m.state.Blocks))
	marked := map[string]bool{}
	if m.state.Selection.Mode == editor.SelectMulti {
		for _, id := range m.state.Selection.IDs {
			marked[id] = true
		}
	}
	for i, b := range m.state.Blocks {
		lines = append(lines, m.blockRow(i, b, marked[b.ID], w))
	}
	return strings.Join(lines, "\n")
}

func (m appModel) blockRow(i int, b model.Block, marked bool, w int) string {
	mark := "  "
	if marked {
		mark = styleMarked().Render("✓ ")
	}
	badge := styleBadge().Render(fmt.Sprintf("%-8s", b.Type))
	summary := b.Summary()
	if summary == "" {
		summary = styleMuted().Render("(empty)")
	}
	row := fitWidth(fmt.Sprintf("%s%s %s", mark, badge, summary), w)
	if i == m.blockCursor && m.pane == paneBlocks {
		row = styleSelectedRow().Render(row)
	}
	return row
}

func (m appModel) viewAddPicker() string {
	lines := []string{styleChrome().Render("Add block")}
	for i, t := range model.BlockTypes() {
		label := "  " + string(t)
		if i == m.addCursor {
			label = styleSelectedRow().Render("› " + string(t))
		}
		lines = append(lines, label)
	}
	return strings.Join(lines, "\n")
}

func (m appModel) viewFooter() string {
	status := ""
	if m.status.Message != "" {
		st := lipgloss.NewStyle().Foreground(colorInfoFg)
		switch m.status.Kind {
		case editor.NoticeSuccess:
			st = lipgloss.NewStyle().Foreground(colorSuccessFg)
		case editor.NoticeError:
			st = lipgloss.NewStyle().Foreground(colorErrorFg)
		}
		status = st.Render(m.status.Message)
	}
	var help string
	switch m.pane {
	case paneEdit:
		help = helpLine(m.keys.Save, m.keys.Back)
	case paneAdd:
		help = helpLine(m.keys.Up, m.keys.Down, m.keys.Back)
	case paneBlocks:
		help = helpLine(m.keys.Edit, m.keys.Add, m.keys.Toggle, m.keys.MoveUp, m.keys.MoveDown, m.keys.Save, m.keys.Preview, m.keys.Switch) +
			"  ctrl+d duplicate  del delete  ctrl+z undo"
	default:
		help = helpLine(m.keys.Open, m.keys.Reload, m.keys.Quit)
	}
	return fitWidth(status, m.width) + "\n" + fitWidth(styleMuted().Render(help), m.width)
}
