package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRewriteDirectCourseArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"coursebuilder"},
			want: []string{"coursebuilder"},
		},
		{
			name: "course id first token",
			in:   []string{"coursebuilder", "crs-abc123"},
			want: []string{"coursebuilder", "edit", "crs-abc123"},
		},
		{
			name: "course id after value flag",
			in:   []string{"coursebuilder", "--server", "http://localhost:9000", "crs-abc123"},
			want: []string{"coursebuilder", "--server", "http://localhost:9000", "edit", "crs-abc123"},
		},
		{
			name: "course id after equals flag",
			in:   []string{"coursebuilder", "--server=http://x", "crs-abc123"},
			want: []string{"coursebuilder", "--server=http://x", "edit", "crs-abc123"},
		},
		{
			name: "course id after bool flag",
			in:   []string{"coursebuilder", "--pretty", "crs-abc123"},
			want: []string{"coursebuilder", "--pretty", "edit", "crs-abc123"},
		},
		{
			name: "course id after double dash",
			in:   []string{"coursebuilder", "--", "crs-abc123"},
			want: []string{"coursebuilder", "--", "edit", "crs-abc123"},
		},
		{
			name: "subcommand not rewritten",
			in:   []string{"coursebuilder", "edit", "crs-abc123"},
			want: []string{"coursebuilder", "edit", "crs-abc123"},
		},
		{
			name: "bare prefix not rewritten",
			in:   []string{"coursebuilder", "crs-"},
			want: []string{"coursebuilder", "crs-"},
		},
		{
			name: "unknown command not rewritten",
			in:   []string{"coursebuilder", "wat"},
			want: []string{"coursebuilder", "wat"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rewriteDirectCourseArgs(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("argv (-want +got):\n%s", diff)
			}
		})
	}
}
