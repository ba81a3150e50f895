package source

import "testing"

func TestSpan_String(t *testing.T) {
	tests := []struct {
		name string
		span Span
		want string
	}{
		{name: "known", span: Span{File: 1, Line: 3, Col: 7}, want: "1:3:7"},
		{name: "unknown", span: Span{File: 2}, want: "2:?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.span.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSpan_Before(t *testing.T) {
	tests := []struct {
		name string
		a, b Span
		want bool
	}{
		{name: "earlier line", a: Span{Line: 1, Col: 9}, b: Span{Line: 2, Col: 1}, want: true},
		{name: "same line earlier col", a: Span{Line: 2, Col: 1}, b: Span{Line: 2, Col: 4}, want: true},
		{name: "equal", a: Span{Line: 2, Col: 4}, b: Span{Line: 2, Col: 4}, want: false},
		{name: "lower file wins", a: Span{File: 0, Line: 9}, b: Span{File: 1, Line: 1}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Before(tt.b); got != tt.want {
				t.Errorf("Before() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpan_Or(t *testing.T) {
	fallback := Span{File: 1, Line: 5, Col: 2}
	if got := NoSpan.Or(fallback); got != fallback {
		t.Errorf("NoSpan.Or() = %v, want %v", got, fallback)
	}
	known := Span{Line: 1, Col: 1}
	if got := known.Or(fallback); got != known {
		t.Errorf("known.Or() = %v, want %v", got, known)
	}
}
