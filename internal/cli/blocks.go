package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"coursebuilder/internal/logger"
	"coursebuilder/internal/model"
	"coursebuilder/internal/mutate"
)

func newBlocksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blocks",
		Short: "Lesson block commands",
	}
	cmd.AddCommand(newBlocksListCmd(app))
	cmd.AddCommand(newBlocksReorderCmd(app))
	return cmd
}

func newBlocksListCmd(app *App) *cobra.Command {
	var courseID, lessonID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a lesson's blocks in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			c, err := client.LoadCourse(cmd.Context(), courseID)
			if err != nil {
				return writeErr(cmd, err)
			}
			l, _, ok := c.FindLesson(lessonID)
			if !ok {
				return writeErr(cmd, mutate.NotFoundError{Kind: "lesson", ID: lessonID})
			}
			return writeOut(cmd, app, map[string]any{"data": blockListView(l.Blocks)})
		},
	}

	cmd.Flags().StringVar(&courseID, "course", "", "Course id")
	cmd.Flags().StringVar(&lessonID, "lesson", "", "Lesson id")
	_ = cmd.MarkFlagRequired("course")
	_ = cmd.MarkFlagRequired("lesson")
	return cmd
}

func newBlocksReorderCmd(app *App) *cobra.Command {
	var courseID, lessonID string

	cmd := &cobra.Command{
		Use:   "reorder <block-id>...",
		Short: "Reorder a lesson's blocks (the ids must name every block exactly once)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := app.openHeadless(cmd.Context(), courseID, lessonID, logger.Nop())
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := h.session.Reorder(args); err != nil {
				_, _ = h.finish()
				return writeErr(cmd, err)
			}
			blocks, err := h.finish()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": blockListView(blocks)})
		},
	}

	cmd.Flags().StringVar(&courseID, "course", "", "Course id")
	cmd.Flags().StringVar(&lessonID, "lesson", "", "Lesson id")
	_ = cmd.MarkFlagRequired("course")
	_ = cmd.MarkFlagRequired("lesson")
	return cmd
}

type blockListView []model.Block

func (v blockListView) WriteText(w io.Writer) error {
	for _, b := range v {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", b.Order, b.ID, b.Type, b.Summary()); err != nil {
			return err
		}
	}
	return nil
}
