package main

import "testing"

func TestFormatTags(t *testing.T) {
	tests := []struct {
		tags []string
		want string
	}{
		{nil, "none"},
		{[]string{"dev"}, "dev"},
		{[]string{"dev", "admin"}, "dev, admin"},
	}
	for _, tt := range tests {
		if got := formatTags(tt.tags); got != tt.want {
			t.Errorf("formatTags(%v) = %q, want %q", tt.tags, got, tt.want)
		}
	}
}
