package domain

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalizeLabels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "trims and drops blanks",
			input: []string{"  urgent ", "", "   ", "backend"},
			want:  []string{"urgent", "backend"},
		},
		{
			name:  "case-insensitive dedupe keeps first spelling",
			input: []string{"Urgent", "urgent", "URGENT", "ops"},
			want:  []string{"Urgent", "ops"},
		},
		{
			name:  "ascii label truncated to max length",
			input: []string{strings.Repeat("a", MaxLabelLength+5)},
			want:  []string{strings.Repeat("a", MaxLabelLength)},
		},
		{
			name:  "multibyte label truncated on rune boundary",
			input: []string{strings.Repeat("é", MaxLabelLength+1)},
			want:  []string{strings.Repeat("é", MaxLabelLength)},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := NormalizeLabels(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("NormalizeLabels(%q) = %q, want %q", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("label %d = %q, want %q", i, got[i], tt.want[i])
				}
				if !utf8.ValidString(got[i]) {
					t.Errorf("label %d = %q is not valid UTF-8", i, got[i])
				}
			}
		})
	}
}

func TestNormalizeLabelsCapsCount(t *testing.T) {
	t.Parallel()

	input := make([]string, 0, MaxLabels+10)
	for i := 0; i < MaxLabels+10; i++ {
		input = append(input, fmt.Sprintf("label-%d", i))
	}

	got := NormalizeLabels(input)
	if len(got) != MaxLabels {
		t.Errorf("got %d labels, want %d", len(got), MaxLabels)
	}
	if got[0] != "label-0" || got[MaxLabels-1] != fmt.Sprintf("label-%d", MaxLabels-1) {
		t.Errorf("cap should keep the first %d labels in order, got %q", MaxLabels, got)
	}
}
