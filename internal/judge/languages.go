package judge

import (
	"strings"

	"leetlab/internal/common"
)

// languageIDs maps human-readable language tags to the judge's numeric ids.
var languageIDs = map[string]int{
	"c++":        54,
	"java":       62,
	"javascript": 63,
	"python":     71,
}

// LanguageID resolves a language tag case-insensitively.
func LanguageID(language string) (int, error) {
	id, ok := languageIDs[strings.ToLower(language)]
	if !ok {
		return 0, common.Errorf("language %q: %w", language, common.ErrUnsupportedLanguage)
	}
	return id, nil
}

// SupportedLanguages returns the known tags, for the frontend's picker.
func SupportedLanguages() []string {
	langs := make([]string, 0, len(languageIDs))
	for lang := range languageIDs {
		langs = append(langs, lang)
	}
	return langs
}
