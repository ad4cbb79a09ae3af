package judge

import (
	"errors"
	"testing"
)

func TestLanguageID(t *testing.T) {
	tests := []struct {
		language string
		want     int
	}{
		{"python", 71},
		{"Python", 71},
		{"  cpp  ", 54},
		{"c++", 54},
		{"go", 60},
		{"javascript", 63},
	}
	for _, tt := range tests {
		id, err := LanguageID(tt.language)
		if err != nil {
			t.Errorf("LanguageID(%q): %v", tt.language, err)
			continue
		}
		if id != tt.want {
			t.Errorf("LanguageID(%q) = %d, want %d", tt.language, id, tt.want)
		}
	}
}

func TestLanguageIDUnknown(t *testing.T) {
	if _, err := LanguageID("brainfuck"); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Errorf("err = %v, want ErrUnsupportedLanguage", err)
	}
	if _, err := LanguageID(""); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Errorf("err = %v, want ErrUnsupportedLanguage", err)
	}
}
