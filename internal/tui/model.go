package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"coursebuilder/internal/editor"
	"coursebuilder/internal/model"
)

type pane int

const (
	paneLessons pane = iota
	paneBlocks
	paneEdit
	paneAdd
)

const statusTTL = 4 * time.Second

type noticeMsg editor.Notice

type statusClearMsg struct{ seq int }

type reloadDoneMsg struct{ err error }

// pendingConfirm is a guarded action waiting on the author's answer.
type pendingConfirm struct {
	title  string
	prompt string
	focus  confirmModalFocus
	onYes  func(m *appModel) tea.Cmd
}

type lessonRow struct {
	moduleTitle string
	lessonID    string
	title       string
	blocks      int
}

type appModel struct {
	ed       *editor.Editor
	dispatch *editor.Dispatcher
	keys     keyMap
	notices  <-chan editor.Notice
	timeout  time.Duration

	pane    pane
	width   int
	height  int
	preview bool

	lessons      []lessonRow
	lessonCursor int

	state       editor.State
	hasSession  bool
	blockCursor int
	addCursor   int

	textarea  textarea.Model
	editingID string

	confirm *pendingConfirm

	status    editor.Notice
	statusSeq int
}

func newAppModel(ed *editor.Editor, km editor.Keymap, notices <-chan editor.Notice) appModel {
	ta := textarea.New()
	ta.Placeholder = "Write…"
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetWidth(60)
	ta.SetHeight(10)

	m := appModel{
		ed:       ed,
		dispatch: editor.NewDispatcher(km, ed),
		keys:     defaultKeyMap(),
		notices:  notices,
		timeout:  15 * time.Second,
		textarea: ta,
		width:    100,
		height:   30,
	}
	m.refresh()
	return m
}

func (m appModel) Init() tea.Cmd {
	return waitForNotice(m.notices)
}

func waitForNotice(ch <-chan editor.Notice) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return noticeMsg(n)
	}
}

// refresh re-reads the course outline and the open session.
func (m *appModel) refresh() {
	m.lessons = m.lessons[:0]
	if c := m.ed.Course(); c != nil {
		for _, mod := range c.Modules {
			for _, l := range mod.Lessons {
				m.lessons = append(m.lessons, lessonRow{moduleTitle: mod.Title, lessonID: l.ID, title: l.Title, blocks: len(l.Blocks)})
			}
		}
	}
	m.lessonCursor = clamp(m.lessonCursor, len(m.lessons))

	s := m.ed.Session()
	m.hasSession = s != nil
	if s == nil {
		m.state = editor.State{}
		m.dispatch.Unmount()
		if m.pane != paneLessons {
			m.pane = paneLessons
		}
		return
	}
	m.state = s.State()
	for i, r := range m.lessons {
		if r.lessonID == m.state.Ref.LessonID {
			m.lessons[i].blocks = len(m.state.Blocks)
		}
	}
	if id := m.state.Selection.IDs; m.state.Selection.Mode == editor.SelectSingle && len(id) == 1 {
		for i, b := range m.state.Blocks {
			if b.ID == id[0] {
				m.blockCursor = i
			}
		}
	}
	m.blockCursor = clamp(m.blockCursor, len(m.state.Blocks))
}

func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

func (m *appModel) setStatus(kind editor.NoticeKind, msg string) tea.Cmd {
	m.statusSeq++
	m.status = editor.Notice{Kind: kind, Message: msg}
	seq := m.statusSeq
	return tea.Tick(statusTTL, func(time.Time) tea.Msg { return statusClearMsg{seq: seq} })
}

func (m *appModel) reportErr(err error) tea.Cmd {
	if err == nil {
		return nil
	}
	return m.setStatus(editor.NoticeError, err.Error())
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.textarea.SetWidth(max(20, m.width-lessonPaneWidth-6))
		m.textarea.SetHeight(max(3, m.height-8))
		return m, nil

	case noticeMsg:
		m.refresh()
		return m, tea.Batch(m.setStatus(msg.Kind, msg.Message), waitForNotice(m.notices))

	case statusClearMsg:
		if msg.seq == m.statusSeq {
			m.status = editor.Notice{}
		}
		return m, nil

	case reloadDoneMsg:
		m.refresh()
		if msg.err != nil {
			return m, m.reportErr(msg.err)
		}
		if m.hasSession {
			m.dispatch.Mount()
		}
		return m, m.setStatus(editor.NoticeInfo, "Course reloaded")

	case tea.KeyMsg:
		if m.confirm != nil {
			return m.updateConfirm(msg)
		}
		switch m.pane {
		case paneEdit:
			return m.updateEdit(msg)
		case paneAdd:
			return m.updateAdd(msg)
		case paneBlocks:
			return m.updateBlocks(msg)
		default:
			return m.updateLessons(msg)
		}
	}
	return m, nil
}

func (m appModel) updateLessons(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.guarded("Quit", "Discard unsaved changes and quit?", func(m *appModel) tea.Cmd {
			_ = m.ed.Close(editor.AlwaysConfirm)
			return tea.Quit
		})
	case key.Matches(msg, m.keys.Up):
		m.lessonCursor = clamp(m.lessonCursor-1, len(m.lessons))
	case key.Matches(msg, m.keys.Down):
		m.lessonCursor = clamp(m.lessonCursor+1, len(m.lessons))
	case key.Matches(msg, m.keys.Open):
		return m.openLesson()
	case key.Matches(msg, m.keys.Switch):
		if m.hasSession {
			m.pane = paneBlocks
			m.dispatch.Mount()
		}
	case key.Matches(msg, m.keys.Reload):
		return m.reload()
	}
	return m, nil
}

func (m appModel) openLesson() (tea.Model, tea.Cmd) {
	if len(m.lessons) == 0 {
		return m, nil
	}
	target := m.lessons[m.lessonCursor].lessonID
	if m.hasSession && m.state.Ref.LessonID == target {
		m.pane = paneBlocks
		m.dispatch.Mount()
		return m, nil
	}
	open := func(m *appModel) tea.Cmd {
		if _, err := m.ed.OpenLesson(target, editor.AlwaysConfirm); err != nil {
			return m.reportErr(err)
		}
		m.blockCursor = 0
		m.refresh()
		m.pane = paneBlocks
		m.dispatch.Mount()
		m.selectCursor()
		return nil
	}
	return m.guarded("Switch lesson", "Discard unsaved changes and switch lessons?", open)
}

func (m appModel) reload() (tea.Model, tea.Cmd) {
	ed, timeout := m.ed, m.timeout
	return m.guarded("Reload", "Discard unsaved changes and reload the course?", func(m *appModel) tea.Cmd {
		m.dispatch.Unmount()
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			return reloadDoneMsg{err: ed.Reload(ctx, editor.AlwaysConfirm)}
		}
	})
}

// guarded runs action directly when nothing is unsaved, otherwise behind a confirm modal.
func (m appModel) guarded(title, prompt string, action func(m *appModel) tea.Cmd) (tea.Model, tea.Cmd) {
	if !m.ed.Dirty() {
		cmd := action(&m)
		return m, cmd
	}
	m.confirm = &pendingConfirm{title: title, prompt: prompt, focus: confirmFocusCancel, onYes: action}
	return m, nil
}

func (m appModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.confirm
	switch msg.String() {
	case "tab", "shift+tab", "left", "right", "h", "l":
		if c.focus == confirmFocusConfirm {
			c.focus = confirmFocusCancel
		} else {
			c.focus = confirmFocusConfirm
		}
	case "y":
		m.confirm = nil
		cmd := c.onYes(&m)
		return m, cmd
	case "n", "esc", "ctrl+g":
		m.confirm = nil
	case "enter":
		m.confirm = nil
		if c.focus == confirmFocusConfirm {
			cmd := c.onYes(&m)
			return m, cmd
		}
	}
	return m, nil
}

func (m appModel) session() *editor.Session {
	return m.ed.Session()
}

func (m appModel) cursorID() string {
	if m.blockCursor < 0 || m.blockCursor >= len(m.state.Blocks) {
		return ""
	}
	return m.state.Blocks[m.blockCursor].ID
}

// selectCursor makes the block under the cursor the single selection, unless
// the author is building a multi-selection.
func (m *appModel) selectCursor() {
	s := m.session()
	if s == nil || m.state.Selection.Mode == editor.SelectMulti {
		return
	}
	_ = s.Select(m.cursorID())
	m.refresh()
}

func (m appModel) updateBlocks(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.session()
	if s == nil {
		m.pane = paneLessons
		return m, nil
	}
	if in := m.dispatch.Dispatch(msg.String()); in != editor.IntentNone {
		m.refresh()
		m.selectCursor()
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.updateLessons(msg)
	case key.Matches(msg, m.keys.Switch):
		m.pane = paneLessons
		m.dispatch.Unmount()
	case key.Matches(msg, m.keys.MoveUp), key.Matches(msg, m.keys.MoveDown):
		id := m.cursorID()
		delta := 1
		if key.Matches(msg, m.keys.MoveUp) {
			delta = -1
		}
		if id == "" {
			return m, nil
		}
		if err := s.Move(id, delta); err != nil {
			return m, m.reportErr(err)
		}
		m.refresh()
		for i, b := range m.state.Blocks {
			if b.ID == id {
				m.blockCursor = i
			}
		}
	case key.Matches(msg, m.keys.Up):
		m.blockCursor = clamp(m.blockCursor-1, len(m.state.Blocks))
		m.selectCursor()
	case key.Matches(msg, m.keys.Down):
		m.blockCursor = clamp(m.blockCursor+1, len(m.state.Blocks))
		m.selectCursor()
	case key.Matches(msg, m.keys.Toggle):
		if id := m.cursorID(); id != "" {
			if err := s.ToggleSelect(id); err != nil {
				return m, m.reportErr(err)
			}
			m.refresh()
		}
	case key.Matches(msg, m.keys.Clear):
		s.ClearSelection()
		m.refresh()
		m.selectCursor()
	case key.Matches(msg, m.keys.Edit):
		return m.startEdit()
	case key.Matches(msg, m.keys.Add):
		m.pane = paneAdd
		m.addCursor = 0
	case key.Matches(msg, m.keys.Save):
		if err := s.Save(); err != nil {
			return m, m.reportErr(err)
		}
		m.refresh()
	case key.Matches(msg, m.keys.Preview):
		m.preview = !m.preview
	case key.Matches(msg, m.keys.Reload):
		return m.reload()
	}
	return m, nil
}

func (m appModel) startEdit() (tea.Model, tea.Cmd) {
	id := m.cursorID()
	if id == "" {
		return m, nil
	}
	b := m.state.Blocks[m.blockCursor]
	if b.Type == model.BlockDivider {
		return m, m.setStatus(editor.NoticeInfo, "Dividers have nothing to edit")
	}
	m.editingID = id
	m.textarea.SetValue(b.Text())
	m.textarea.Focus()
	m.pane = paneEdit
	m.dispatch.SetFocus(editor.FocusTextInput)
	return m, textarea.Blink
}

func (m appModel) endEdit() appModel {
	m.textarea.Blur()
	m.editingID = ""
	m.pane = paneBlocks
	m.dispatch.SetFocus(editor.FocusSurface)
	return m
}

func (m appModel) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m = m.endEdit()
		return m, nil
	case key.Matches(msg, m.keys.Save):
		s := m.session()
		id := m.editingID
		m = m.endEdit()
		if s == nil {
			return m, nil
		}
		var content []byte
		for _, b := range m.state.Blocks {
			if b.ID == id {
				content = b.Content
			}
		}
		err := s.Update(id, model.WithText(content, m.textarea.Value()))
		m.refresh()
		if err != nil {
			return m, m.reportErr(err)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m appModel) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	types := model.BlockTypes()
	switch {
	case key.Matches(msg, m.keys.Back):
		m.pane = paneBlocks
	case key.Matches(msg, m.keys.Up):
		m.addCursor = clamp(m.addCursor-1, len(types))
	case key.Matches(msg, m.keys.Down):
		m.addCursor = clamp(m.addCursor+1, len(types))
	case msg.String() == "enter":
		s := m.session()
		m.pane = paneBlocks
		if s == nil {
			return m, nil
		}
		at := m.blockCursor + 1
		if len(m.state.Blocks) == 0 {
			at = 0
		}
		b, err := s.Insert(types[m.addCursor], nil, at)
		if err != nil {
			return m, m.reportErr(err)
		}
		m.refresh()
		for i, x := range m.state.Blocks {
			if x.ID == b.ID {
				m.blockCursor = i
			}
		}
	}
	return m, nil
}
