package main

import (
	"os"
	"strings"

	"coursebuilder/internal/cli"
	"coursebuilder/internal/model"
)

// rewriteDirectCourseArgs makes `coursebuilder <course-id>` work like
// `coursebuilder edit <course-id>`. Cobra treats the first non-flag token as a
// subcommand, so argv is rewritten before parsing. Persistent flags may come
// first, so the first positional token is what counts.
func rewriteDirectCourseArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--server":   true,
		"--token":    true,
		"--format":   true,
		"--log-mode": true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
	}

	insertEdit := func(at int) []string {
		out := make([]string, 0, len(argv)+1)
		out = append(out, argv[:at]...)
		out = append(out, "edit")
		return append(out, argv[at:]...)
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && model.HasPrefix(argv[i+1], model.PrefixCourse) {
				return insertEdit(i + 1)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if strings.Contains(a, "=") || boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++
			}
			continue
		}
		if model.HasPrefix(a, model.PrefixCourse) {
			return insertEdit(i)
		}
		return argv
	}
	return argv
}

func main() {
	os.Args = rewriteDirectCourseArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
