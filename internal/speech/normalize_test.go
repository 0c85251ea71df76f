package speech

import "testing"

func TestRemoveDiacritics(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jana Novotná", "Jana Novotna"},
		{"Jiří Černý", "Jiri Cerny"},
		{"Ælfred", "Ælfred"}, // ligature, not a combining mark
		{"plain ascii", "plain ascii"},
		{"", ""},
		{"ñandú", "nandu"},
	}

	for _, tt := range tests {
		if got := RemoveDiacritics(tt.in); got != tt.want {
			t.Errorf("RemoveDiacritics(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
