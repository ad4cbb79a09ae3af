package judge

import (
	"errors"
	"strings"
)

// ErrUnsupportedLanguage is returned when no backend language id
// exists for an application-level language name. This is a caller
// input error and propagates to the HTTP layer as a 400.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// languageIDs maps application-level language names to Judge0 numeric
// language ids.
var languageIDs = map[string]int{
	"c":          50,
	"cpp":        54,
	"c++":        54,
	"csharp":     51,
	"go":         60,
	"java":       62,
	"javascript": 63,
	"kotlin":     78,
	"python":     71,
	"python2":    70,
	"ruby":       72,
	"rust":       73,
	"typescript": 74,
}

// LanguageID resolves a language name (case-insensitive) to the
// backend's numeric id.
func LanguageID(language string) (int, error) {
	id, ok := languageIDs[strings.ToLower(strings.TrimSpace(language))]
	if !ok {
		return 0, ErrUnsupportedLanguage
	}
	return id, nil
}

// SupportedLanguages lists the language names the platform accepts.
func SupportedLanguages() []string {
	names := make([]string, 0, len(languageIDs))
	for name := range languageIDs {
		names = append(names, name)
	}
	return names
}
