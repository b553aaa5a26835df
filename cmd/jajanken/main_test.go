package main

import "testing"

func TestPreviewURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{":8080", "http://localhost:8080/"},
		{"127.0.0.1:9000", "http://127.0.0.1:9000/"},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			if got := previewURL(tt.addr); got != tt.want {
				t.Errorf("previewURL(%q) = %q, want %q", tt.addr, got, tt.want)
			}
		})
	}
}
