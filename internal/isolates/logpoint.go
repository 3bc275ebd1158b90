package isolates

import "strings"

// logSegment is one piece of a parsed log-point message: either literal
// text or an expression to evaluate.
type logSegment struct {
	text string
	expr bool
}

// parseLogMessage splits a log-point message template into literal and
// expression segments. Placeholders use {expr} syntax; a backslash escapes
// a following brace (`\{` produces a literal `{`). An unterminated
// placeholder is kept as literal text.
func parseLogMessage(message string) []logSegment {
	var segments []logSegment
	var literal strings.Builder

	flush := func() {
		if literal.Len() > 0 {
			segments = append(segments, logSegment{text: literal.String()})
			literal.Reset()
		}
	}

	runes := []rune(message)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '\\' && i+1 < len(runes) && (runes[i+1] == '{' || runes[i+1] == '}'):
			literal.WriteRune(runes[i+1])
			i++
		case ch == '{':
			end := -1
			for j := i + 1; j < len(runes); j++ {
				if runes[j] == '}' {
					end = j
					break
				}
			}
			if end == -1 {
				// No closing brace; treat the rest as literal.
				literal.WriteString(string(runes[i:]))
				i = len(runes)
				break
			}
			flush()
			segments = append(segments, logSegment{text: string(runes[i+1 : end]), expr: true})
			i = end
		default:
			literal.WriteRune(ch)
		}
	}
	flush()

	return segments
}
