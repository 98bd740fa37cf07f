package textnorm_test

import (
	"testing"

	"github.com/p-n-ai/pai-roadmap/internal/textnorm"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Título", "titulo"},
		{"  Nivel Dificultad ", "nivel dificultad"},
		{"Bases de Datos", "bases de datos"},
		{"Node.js", "node.js"},
		{"ÑANDÚ", "nandu"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := textnorm.Fold(tt.in); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
