package language

import (
	"fmt"
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto asks the provider to detect the spoken language itself.
const Auto = "auto"

// Choices lists the hints offered interactively, in menu order.
var Choices = []string{"en", "pt-BR", "es", Auto}

// Normalize canonicalizes a language hint to a BCP 47 tag ("pt-br" becomes
// "pt-BR"). Empty input and "auto" both map to Auto.
func Normalize(hint string) (string, error) {
	hint = strings.TrimSpace(hint)
	if hint == "" || strings.EqualFold(hint, Auto) {
		return Auto, nil
	}
	tag, err := xlanguage.Parse(strings.ReplaceAll(hint, "_", "-"))
	if err != nil {
		return "", fmt.Errorf("language %q: %w", hint, err)
	}
	if tag == xlanguage.Und {
		return "", fmt.Errorf("language %q: undetermined", hint)
	}
	return tag.String(), nil
}

// IsAuto reports whether hint requests provider-side detection.
func IsAuto(hint string) bool {
	hint = strings.TrimSpace(hint)
	return hint == "" || strings.EqualFold(hint, Auto)
}

// DisplayName returns an English label for a hint, e.g. "Brazilian Portuguese".
// Unparseable hints are returned unchanged.
func DisplayName(hint string) string {
	if IsAuto(hint) {
		return "Automatic detection"
	}
	tag, err := xlanguage.Parse(hint)
	if err != nil {
		return hint
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		return hint
	}
	return name
}
