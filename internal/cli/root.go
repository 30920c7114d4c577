package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"coursebuilder/internal/editor"
	"coursebuilder/internal/format"
	"coursebuilder/internal/logger"
	"coursebuilder/internal/model"
	"coursebuilder/internal/remote"
	"coursebuilder/internal/store"
)

type App struct {
	Server     string
	Token      string
	Format     string
	PrettyJSON bool
	LogMode    string

	cfg *store.GlobalConfig
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "coursebuilder",
		Short:        "Course builder: lesson block editor, API server and scripting CLI",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Run the API server on a local SQLite file
  coursebuilder serve --dsn ./courses.db

  # Seed a sample course and open it in the editor
  coursebuilder seed
  coursebuilder edit crs-sample

  # Shortcut for: coursebuilder edit <course-id>
  coursebuilder crs-sample

  # Scriptable commands
  coursebuilder blocks list --course crs-sample --lesson les-basics
  coursebuilder outline accept --course crs-sample --lesson les-basics outline.json
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := store.LoadConfig()
		if err != nil {
			return writeErr(cmd, fmt.Errorf("load config: %w", err))
		}
		app.cfg = cfg
		if app.Server == "" {
			app.Server = cfg.ServerURL
		}
		if app.Token == "" {
			app.Token = cfg.AuthorToken
		}
		if app.Server == "" {
			app.Server = "http://localhost:8080"
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Server, "server", envOr("COURSEBUILDER_SERVER", ""), "Course builder API base URL (default from config, else http://localhost:8080)")
	cmd.PersistentFlags().StringVar(&app.Token, "token", envOr("COURSEBUILDER_TOKEN", ""), "Author token sent as a bearer token")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("COURSEBUILDER_FORMAT", "json"), "Output format (json|text)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.LogMode, "log-mode", envOr("COURSEBUILDER_LOG_MODE", "prod"), "Log level preset (dev|prod|quiet)")

	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newSeedCmd(app))
	cmd.AddCommand(newCoursesCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newBlocksCmd(app))
	cmd.AddCommand(newOutlineCmd(app))

	return cmd
}

func (app *App) client() (*remote.Client, error) {
	opts := []remote.Option{remote.WithToken(app.Token)}
	if d := app.requestTimeout(); d > 0 {
		opts = append(opts, remote.WithTimeout(d))
	}
	return remote.New(app.Server, opts...)
}

func (app *App) requestTimeout() time.Duration {
	if app.cfg == nil {
		return 0
	}
	return app.cfg.RequestTimeoutDuration()
}

// editorConfig layers the user's config file over the editor defaults.
func (app *App) editorConfig() editor.Config {
	cfg := editor.DefaultConfig()
	if app.cfg == nil {
		return cfg
	}
	if d := app.cfg.DebounceDuration(); d > 0 {
		cfg.Debounce = d
	}
	if d := app.cfg.RequestTimeoutDuration(); d > 0 {
		cfg.RequestTimeout = d
	}
	return cfg
}

func (app *App) keymap() editor.Keymap {
	if app.cfg == nil || app.cfg.Keymap == nil {
		return editor.DefaultKeymap()
	}
	k := app.cfg.Keymap
	return editor.Keymap{Duplicate: k.Duplicate, Delete: k.Delete, Undo: k.Undo}
}

// headless opens one lesson for a scripted edit. Notices are collected so the
// command can report failures that only surface asynchronously.
type headless struct {
	ed      *editor.Editor
	session *editor.Session
	notices *noticeLog
}

type noticeLog struct {
	mu      sync.Mutex
	entries []editor.Notice
}

func (n *noticeLog) Notify(kind editor.NoticeKind, msg string) {
	n.mu.Lock()
	n.entries = append(n.entries, editor.Notice{Kind: kind, Message: msg})
	n.mu.Unlock()
}

// firstError returns the first error notice as an error.
func (n *noticeLog) firstError() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, e := range n.entries {
		if e.Kind == editor.NoticeError {
			return errors.New(e.Message)
		}
	}
	return nil
}

func (app *App) openHeadless(ctx context.Context, courseID, lessonID string, log *logger.Logger) (*headless, error) {
	if strings.TrimSpace(courseID) == "" || strings.TrimSpace(lessonID) == "" {
		return nil, errors.New("missing --course or --lesson")
	}
	c, err := app.client()
	if err != nil {
		return nil, err
	}
	notices := &noticeLog{}
	ed := editor.New(c, editor.Options{Config: app.editorConfig(), Notifier: notices, Logger: log})
	if err := ed.OpenCourse(ctx, courseID); err != nil {
		return nil, err
	}
	s, err := ed.OpenLesson(lessonID, nil)
	if err != nil {
		return nil, err
	}
	return &headless{ed: ed, session: s, notices: notices}, nil
}

// finish waits for queued remote calls, closes the session and returns the
// final block list along with the first failure notice.
func (h *headless) finish() ([]model.Block, error) {
	h.session.Wait()
	blocks := h.session.Blocks()
	err := h.notices.firstError()
	_ = h.ed.Close(editor.AlwaysConfirm)
	return blocks, err
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
