// Package validation checks and normalises user-supplied input.
package validation

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"threads/internal/models"

	"github.com/microcosm-cc/bluemonday"
)

// Thread text bounds, in characters.
const (
	MinThreadTextLength = 3
	MaxThreadTextLength = 10000
)

// strict removes every tag; bluemonday policies are safe for concurrent use.
var strict = bluemonday.StrictPolicy()

// StripHTML drops markup from s and returns plain text.
func StripHTML(s string) string {
	// StrictPolicy escapes the text it keeps; threads store plain text
	return html.UnescapeString(strict.Sanitize(s))
}

// ThreadText returns the cleaned body of a thread or reply.
func ThreadText(raw string) (string, error) {
	text := strings.TrimSpace(StripHTML(raw))
	n := utf8.RuneCountInString(text)

	switch {
	case n == 0:
		return "", models.NewValidationError("Thread text is required")
	case n < MinThreadTextLength:
		return "", models.NewValidationError(fmt.Sprintf("Thread text must be at least %d characters", MinThreadTextLength))
	case n > MaxThreadTextLength:
		return "", models.NewValidationError(fmt.Sprintf("Thread text must be at most %d characters", MaxThreadTextLength))
	}
	return text, nil
}
