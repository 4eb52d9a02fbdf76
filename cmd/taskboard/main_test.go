package main

import (
	"reflect"
	"testing"
)

func TestRewriteDirectTaskLookupArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"taskboard"},
			want: []string{"taskboard"},
		},
		{
			name: "task id first token",
			in:   []string{"taskboard", "12"},
			want: []string{"taskboard", "tasks", "show", "12"},
		},
		{
			name: "task id after value flag",
			in:   []string{"taskboard", "--project", "7", "12"},
			want: []string{"taskboard", "--project", "7", "tasks", "show", "12"},
		},
		{
			name: "task id after equals flag",
			in:   []string{"taskboard", "--server=http://localhost:5000", "12"},
			want: []string{"taskboard", "--server=http://localhost:5000", "tasks", "show", "12"},
		},
		{
			name: "task id after bool flag",
			in:   []string{"taskboard", "--pretty", "12"},
			want: []string{"taskboard", "--pretty", "tasks", "show", "12"},
		},
		{
			name: "value flag alone is not a task id",
			in:   []string{"taskboard", "--project", "7"},
			want: []string{"taskboard", "--project", "7"},
		},
		{
			name: "after double dash",
			in:   []string{"taskboard", "--", "12"},
			want: []string{"taskboard", "--", "12"},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"taskboard", "tasks", "show", "12"},
			want: []string{"taskboard", "tasks", "show", "12"},
		},
		{
			name: "zero is not a task id",
			in:   []string{"taskboard", "0"},
			want: []string{"taskboard", "0"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteDirectTaskLookupArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteDirectTaskLookupArgs(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
