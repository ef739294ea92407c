package security

import "testing"

// TestSanitizeText_StripsHTML はHTMLタグが除去されることを検証する。
func TestSanitizeText_StripsHTML(t *testing.T) {
	s := NewFieldSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text passes", "Dark Chocolate", "Dark Chocolate"},
		{"script stripped", `<script>alert("x")</script>Chocolates`, "Chocolates"},
		{"tags stripped", "<b>Gummy</b> Bears", "Gummy Bears"},
		{"img stripped", `<img src=x onerror=alert(1)>Caramel`, "Caramel"},
		{"whitespace trimmed", "  Fudge  ", "Fudge"},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestSanitizeText_Idempotent は同一入力に対し常に同一出力となることを検証する。
func TestSanitizeText_Idempotent(t *testing.T) {
	s := NewFieldSanitizer()

	input := `<i>Mint</i> Candy`
	once := s.SanitizeText(input)
	twice := s.SanitizeText(once)
	if once != twice {
		t.Errorf("sanitization is not idempotent: %q != %q", once, twice)
	}
}
