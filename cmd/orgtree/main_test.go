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
			in:   []string{"orgtree"},
			want: []string{"orgtree"},
		},
		{
			name: "direct id first token",
			in:   []string{"orgtree", "5"},
			want: []string{"orgtree", "show", "5"},
		},
		{
			name: "direct id after value flag",
			in:   []string{"orgtree", "--api", "http://localhost:8000/api", "5"},
			want: []string{"orgtree", "--api", "http://localhost:8000/api", "show", "5"},
		},
		{
			name: "direct id after equals flag",
			in:   []string{"orgtree", "--format=text", "5"},
			want: []string{"orgtree", "--format=text", "show", "5"},
		},
		{
			name: "direct id after bool flag",
			in:   []string{"orgtree", "--pretty", "5"},
			want: []string{"orgtree", "--pretty", "show", "5"},
		},
		{
			name: "direct id after double dash",
			in:   []string{"orgtree", "--format", "edn", "--", "5"},
			want: []string{"orgtree", "--format", "edn", "--", "show", "5"},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"orgtree", "move", "5", "3"},
			want: []string{"orgtree", "move", "5", "3"},
		},
		{
			name: "non-positive id not rewritten",
			in:   []string{"orgtree", "0"},
			want: []string{"orgtree", "0"},
		},
		{
			name: "unknown command not rewritten",
			in:   []string{"orgtree", "wat"},
			want: []string{"orgtree", "wat"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteDirectLookupArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteDirectLookupArgs:\n got: %#v\nwant: %#v", got, tt.want)
			}
		})
	}
}
