package agent

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/siva-netizen/Promptify/internal/apperr"
)

// MaxQueryLength is the longest accepted query, in characters.
const MaxQueryLength = 5000

// ValidateQuery trims query and rejects empty or overlong input.
func ValidateQuery(query string) (string, error) {
	cleaned := strings.TrimSpace(query)
	if cleaned == "" {
		return "", apperr.Validation(
			"Query cannot be empty",
			"Provide a query as an argument or use --file to read from a file",
		)
	}
	if n := utf8.RuneCountInString(cleaned); n > MaxQueryLength {
		return "", apperr.Validation(
			fmt.Sprintf("Query is too long (%d characters)", n),
			fmt.Sprintf("Maximum length is %d characters. Consider breaking it into smaller parts.", MaxQueryLength),
		)
	}
	return cleaned, nil
}
