package main

import (
	"net/url"
	"testing"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		flags   []string
		want    url.Values
		wantErr bool
	}{
		{
			name:  "no flags",
			flags: nil,
			want:  nil,
		},
		{
			name:  "single param",
			flags: []string{"status=active"},
			want:  url.Values{"status": {"active"}},
		},
		{
			name:  "repeated key",
			flags: []string{"status=active", "status=retired"},
			want:  url.Values{"status": {"active", "retired"}},
		},
		{
			name:  "value containing equals",
			flags: []string{"filter=name eq 'fork=lift'"},
			want:  url.Values{"filter": {"name eq 'fork=lift'"}},
		},
		{
			name:    "missing separator",
			flags:   []string{"status"},
			wantErr: true,
		},
		{
			name:    "empty key",
			flags:   []string{"=active"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(tt.flags)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseParams: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseParams = %v, want %v", got, tt.want)
			}
			for key, values := range tt.want {
				if gotValues := got[key]; len(gotValues) != len(values) {
					t.Errorf("param %s = %v, want %v", key, gotValues, values)
				}
			}
		})
	}
}
