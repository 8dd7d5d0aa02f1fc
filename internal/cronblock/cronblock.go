// Package cronblock edits a labeled block inside line-oriented text: a
// header line followed by exactly one managed content line. It only
// transforms text; reading and installing the crontab belongs to callers.
package cronblock

import "strings"

// Upsert ensures text contains header immediately followed by line.
//
// If a line exactly equal to header exists, the line after it is replaced
// (the result is reported unchanged when it already matches). Otherwise
// header and line are appended at the end with a trailing newline. All
// other lines are preserved verbatim and in order. Applying Upsert to its
// own output with the same arguments returns the input unchanged.
func Upsert(text, header, line string) (string, bool) {
	trailing := strings.HasSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	if trailing {
		lines = lines[:len(lines)-1]
	}

	for i, l := range lines {
		if l != header {
			continue
		}
		var out []string
		out = append(out, lines[:i+1]...)
		out = append(out, line)
		if i+2 <= len(lines) {
			out = append(out, lines[i+2:]...)
		}
		next := strings.Join(out, "\n") + "\n"
		return next, next != text
	}

	var b strings.Builder
	b.WriteString(text)
	if text != "" && !trailing {
		b.WriteString("\n")
	}
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(line)
	b.WriteString("\n")
	return b.String(), true
}
