package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"coursebuilder/internal/model"
)

func newCoursesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "Course commands",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List courses on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			list, err := client.ListCourses(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": courseListView(list)})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <course-id>",
		Short: "Show a course's modules and lessons",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			c, err := client.LoadCourse(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": courseView{c}})
		},
	})
	return cmd
}

type courseListView []model.CourseSummary

func (v courseListView) WriteText(w io.Writer) error {
	for _, c := range v {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", c.ID, c.Title); err != nil {
			return err
		}
	}
	return nil
}

type courseView struct {
	*model.Course
}

func (v courseView) WriteText(w io.Writer) error {
	if v.Course == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "%s\t%s\n", v.ID, v.Title); err != nil {
		return err
	}
	for _, m := range v.Modules {
		fmt.Fprintf(w, "  %s\t%s\n", m.ID, m.Title)
		for _, l := range m.Lessons {
			fmt.Fprintf(w, "    %s\t%s\t(%d blocks)\n", l.ID, l.Title, len(l.Blocks))
		}
	}
	return nil
}
