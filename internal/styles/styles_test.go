package styles

import (
	"bytes"
	"testing"
)

func TestRenderer_PlainOnNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	tests := []struct {
		name   string
		render func(string) string
	}{
		{"prompt", r.Prompt},
		{"status", r.Status},
		{"error", r.Error},
		{"muted", r.Muted},
		{"changed", r.Changed},
	}

	const msg = "mode of 'a' changed from 0644 (rw-r--r--) to 0744 (rwxr--r--)"
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.render(msg); got != msg {
				t.Errorf("render on a non-terminal = %q, want %q", got, msg)
			}
		})
	}
}

func TestRenderer_NilIsPassThrough(t *testing.T) {
	var r *Renderer
	if got := r.Status("x"); got != "x" {
		t.Errorf("nil renderer = %q, want %q", got, "x")
	}
}
