package services

import (
	"fmt"

	"github.com/jinzhu/inflection"
)

// FormatCount renders n with noun pluralised to agree, e.g. "1 week", "3 tasks".
func FormatCount(n int, noun string) string {
	if n == 1 || n == -1 {
		return fmt.Sprintf("%d %s", n, inflection.Singular(noun))
	}
	return fmt.Sprintf("%d %s", n, inflection.Plural(noun))
}
