package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"coursebuilder/internal/logger"
	"coursebuilder/internal/store"
	"coursebuilder/internal/tui"
)

func newEditCmd(app *App) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "edit [course-id]",
		Short: "Open a course in the interactive block editor",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			courseID := ""
			if len(args) == 1 {
				courseID = strings.TrimSpace(args[0])
			} else if app.cfg != nil {
				courseID = app.cfg.LastCourse
			}
			if courseID == "" {
				return writeErr(cmd, errors.New("missing course id (and no last course in config)"))
			}

			// The TUI owns the terminal, so logs go to a file or nowhere.
			log, err := logger.NewFile(app.LogMode, logFile)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer log.Sync()

			client, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			if app.cfg != nil && app.cfg.LastCourse != courseID {
				app.cfg.LastCourse = courseID
				if err := store.SaveConfig(app.cfg); err != nil {
					log.Warn("could not remember last course", "error", err)
				}
			}
			return tui.Run(cmd.Context(), client, courseID, tui.Options{
				Config: app.editorConfig(),
				Keymap: app.keymap(),
				Logger: log,
			})
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", envOr("COURSEBUILDER_LOG_FILE", ""), "Write editor logs to this file")
	return cmd
}
