package settings

import (
	"fmt"
	"slices"
	"strings"
)

// Language is a UI language persisted by its ISO 639-1 code.
type Language string

const (
	English Language = "en"
	Finnish Language = "fi"
	Swedish Language = "sv"
)

// Languages lists every supported language in display order.
func Languages() []Language {
	return []Language{English, Finnish, Swedish}
}

// RawValue returns the stored code.
func (l Language) RawValue() string {
	return string(l)
}

// FromRaw maps a stored code back to a Language. Unknown codes are rejected.
func (Language) FromRaw(raw string) (Language, bool) {
	l := Language(raw)
	if !slices.Contains(Languages(), l) {
		return "", false
	}
	return l, true
}

// ParseLanguage accepts a code or an English name, case-insensitively.
func ParseLanguage(s string) (Language, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, l := range Languages() {
		if s == l.RawValue() || s == strings.ToLower(l.Name()) {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown language %q (want one of %s)", s, strings.Join(languageCodes(), ", "))
}

func languageCodes() []string {
	codes := make([]string, 0, len(Languages()))
	for _, l := range Languages() {
		codes = append(codes, l.RawValue())
	}
	return codes
}

// Name returns the English name of l.
func (l Language) Name() string {
	switch l {
	case English:
		return "English"
	case Finnish:
		return "Finnish"
	case Swedish:
		return "Swedish"
	}
	return string(l)
}
