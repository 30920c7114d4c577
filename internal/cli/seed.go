package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"coursebuilder/internal/model"
)

func newSeedCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed [course.json|-]",
		Short: "Create a course on the server (a built-in sample when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			course := sampleCourse()
			if len(args) == 1 {
				c, err := readCourse(cmd, args[0])
				if err != nil {
					return writeErr(cmd, err)
				}
				course = c
			}
			client, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			created, err := client.CreateCourse(cmd.Context(), course)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": courseView{created}})
		},
	}
	return cmd
}

// readCourse accepts either a bare course object or {"course": {...}}.
func readCourse(cmd *cobra.Command, path string) (model.Course, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return model.Course{}, err
		}
		defer f.Close()
		r = f
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return model.Course{}, err
	}
	var wrapped struct {
		Course *model.Course `json:"course"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Course != nil {
		return *wrapped.Course, nil
	}
	var c model.Course
	if err := json.Unmarshal(raw, &c); err != nil {
		return model.Course{}, fmt.Errorf("parse course: %w", err)
	}
	if strings.TrimSpace(c.Title) == "" {
		return model.Course{}, fmt.Errorf("parse course: missing title")
	}
	return c, nil
}

func sampleCourse() model.Course {
	block := func(id string, t model.BlockType, content string) model.Block {
		return model.Block{ID: id, Type: t, Content: json.RawMessage(content)}
	}
	return model.Course{
		ID:          "crs-sample",
		Title:       "Go in practice",
		Description: "A sample course created by `coursebuilder seed`.",
		Modules: []model.Module{{
			ID:    "mod-start",
			Title: "Getting started",
			Lessons: []model.Lesson{
				{ID: "les-basics", Title: "Hello, Go", Blocks: []model.Block{
					block("blk-intro", model.BlockHeading, `{"level":2,"text":"Hello, Go"}`),
					block("blk-why", model.BlockText, `{"text":"Go is a small language with a big standard library."}`),
					block("blk-code", model.BlockCode, `{"language":"go","text":"fmt.Println(\"hello\")"}`),
					block("blk-tip", model.BlockCallout, `{"text":"Run it with go run ."}`),
				}},
				{ID: "les-check", Title: "Check yourself", Blocks: []model.Block{
					block("blk-quiz", model.BlockQuiz, `{"choices":["go build","go vet"],"question":"Which command compiles a package?"}`),
				}},
			},
		}},
	}
}
