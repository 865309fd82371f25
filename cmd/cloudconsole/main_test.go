package main

import (
	"reflect"
	"testing"
)

func TestRewriteDirectLookupArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"cloudconsole"},
			want: []string{"cloudconsole"},
		},
		{
			name: "instance id first token",
			in:   []string{"cloudconsole", "inst-abc123"},
			want: []string{"cloudconsole", "instances", "show", "inst-abc123"},
		},
		{
			name: "block id after value flag",
			in:   []string{"cloudconsole", "--endpoint", "http://127.0.0.1:9700", "blk-abc123"},
			want: []string{"cloudconsole", "--endpoint", "http://127.0.0.1:9700", "blocks", "show", "blk-abc123"},
		},
		{
			name: "organization id after equals flag",
			in:   []string{"cloudconsole", "--format=table", "org-abc123"},
			want: []string{"cloudconsole", "--format=table", "organizations", "show", "org-abc123"},
		},
		{
			name: "id after bool flag",
			in:   []string{"cloudconsole", "--pretty", "inst-abc123"},
			want: []string{"cloudconsole", "--pretty", "instances", "show", "inst-abc123"},
		},
		{
			name: "id after double dash",
			in:   []string{"cloudconsole", "--", "blk-abc123"},
			want: []string{"cloudconsole", "--", "blocks", "show", "blk-abc123"},
		},
		{
			name: "bare prefix not rewritten",
			in:   []string{"cloudconsole", "inst-"},
			want: []string{"cloudconsole", "inst-"},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"cloudconsole", "instances", "show", "inst-abc123"},
			want: []string{"cloudconsole", "instances", "show", "inst-abc123"},
		},
		{
			name: "unknown command not rewritten",
			in:   []string{"cloudconsole", "wat"},
			want: []string{"cloudconsole", "wat"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteDirectLookupArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}
