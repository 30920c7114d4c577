package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"coursebuilder/internal/editor"
	"coursebuilder/internal/logger"
)

type Options struct {
	Config editor.Config
	Keymap editor.Keymap
	Logger *logger.Logger
}

// Run opens courseID and drives the editor until the author quits.
func Run(ctx context.Context, remote editor.Remote, courseID string, opts Options) error {
	log := logger.OrNop(opts.Logger).With("component", "tui")
	notices := make(chan editor.Notice, 64)
	notify := editor.NotifierFunc(func(kind editor.NoticeKind, msg string) {
		select {
		case notices <- editor.Notice{Kind: kind, Message: msg}:
		default:
			log.Warn("notice dropped", "kind", kind, "message", msg)
		}
	})

	ed := editor.New(remote, editor.Options{Config: opts.Config, Notifier: notify, Logger: opts.Logger})
	timeout := opts.Config.RequestTimeout
	if timeout <= 0 {
		timeout = editor.DefaultConfig().RequestTimeout
	}
	loadCtx, cancel := context.WithTimeout(ctx, timeout)
	err := ed.OpenCourse(loadCtx, courseID)
	cancel()
	if err != nil {
		return err
	}

	applyThemePreference()
	applyColorProfilePreference()

	m := newAppModel(ed, opts.Keymap, notices)
	m.timeout = timeout
	if c := ed.Course(); c != nil {
		if l, ok := c.FirstLesson(); ok {
			if _, err := ed.OpenLesson(l.ID, nil); err == nil {
				m.refresh()
				m.pane = paneBlocks
				m.dispatch.Mount()
				m.selectCursor()
			}
		}
	}

	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	_ = ed.Close(editor.AlwaysConfirm)
	log.Debug("editor closed", "courseId", courseID)
	return err
}
