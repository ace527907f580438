package output

import (
	"fmt"
	"strings"
)

// Indent prefixes every line of the text with the given number of blanks.
func Indent(spaces int, multilineText string) string {
	indent := strings.Repeat(" ", spaces)
	return indent + strings.ReplaceAll(multilineText, "\n", "\n"+indent)
}

// Plural picks the singular form for a count of exactly one.
func Plural(count int, singular string, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}

// Filesize renders a byte count for humans, exact below one KiB.
func Filesize(i int64) string {
	switch {
	case i >= 1024*1024:
		return fmt.Sprintf("%.1f MiB (%d bytes)", float64(i)/float64(1024*1024), i)
	case i > 1024:
		return fmt.Sprintf("%.0f KiB (%d bytes)", float64(i)/float64(1024), i)
	default:
		return fmt.Sprintf("%d bytes", i)
	}
}
