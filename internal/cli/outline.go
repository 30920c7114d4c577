package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"coursebuilder/internal/logger"
	"coursebuilder/internal/model"
)

func newOutlineCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outline",
		Short: "Generated outline commands",
	}
	cmd.AddCommand(newOutlineAcceptCmd(app))
	return cmd
}

func newOutlineAcceptCmd(app *App) *cobra.Command {
	var courseID, lessonID string

	cmd := &cobra.Command{
		Use:   "accept <outline.json|->",
		Short: "Append an outline's block skeletons to a lesson, in order",
		Long: `Reads a JSON array of block skeletons ({"type": "...", "content": {...}}) and
creates them one at a time. Blocks created before a failure are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			skeletons, err := readOutline(cmd, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			h, err := app.openHeadless(cmd.Context(), courseID, lessonID, logger.Nop())
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := h.session.AcceptOutline(skeletons); err != nil {
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

func readOutline(cmd *cobra.Command, path string) ([]model.BlockSkeleton, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var out []model.BlockSkeleton
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("parse outline: %w", err)
	}
	return out, nil
}
