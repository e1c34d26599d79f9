package duc

import (
	"bufio"
	"io"
	"strings"
)

// EmitSortedMarks writes every marked path, one per line, in the order
// marks holds them; it does not sort, so callers pass the ascending list
// Cache.SortedMarks returns (spec.md §6's exclude-list output). If escape is
// true each path is passed through EscapeForExcludePattern first so a
// marked path containing a glob metacharacter can't be misinterpreted by
// restic's exclude-file syntax.
func EmitSortedMarks(w io.Writer, marks []string, escape bool) error {
	bw := bufio.NewWriter(w)
	for _, m := range marks {
		line := m
		if escape {
			line = EscapeForExcludePattern(line)
		}
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// isExcludeSpecial reports whether c needs escaping in a restic
// exclude-file glob pattern.
func isExcludeSpecial(c rune) bool {
	switch c {
	case '*', '?', '[', '\\', '\r', '\n':
		return true
	default:
		return false
	}
}

// EscapeForExcludePattern escapes a literal path so it is interpreted as
// exactly that path by restic's glob-based exclude-file syntax: `*`, `?`
// and `[` are wrapped in a single-character bracket expression, `\` is
// doubled, and a literal CR or LF (which can't appear in a text line) is
// rendered as a negated character class that matches only that one
// codepoint.
func EscapeForExcludePattern(path string) string {
	idx := strings.IndexFunc(path, isExcludeSpecial)
	if idx < 0 {
		return path
	}

	var b strings.Builder
	b.Grow(len(path) + 1)
	b.WriteString(path[:idx])
	for _, c := range path[idx:] {
		switch c {
		case '*', '?', '[':
			b.WriteByte('[')
			b.WriteRune(c)
			b.WriteByte(']')
		case '\\':
			b.WriteString(`\\`)
		case '\r', '\n':
			writeInverseRange(&b, c)
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// writeInverseRange appends a bracket expression matching exactly the
// single codepoint c, expressed as the complement of every codepoint
// except c — the only way to spell a literal CR or LF inside a
// newline-delimited exclude file.
func writeInverseRange(b *strings.Builder, c rune) {
	b.WriteString("[^")
	b.WriteRune(0)
	b.WriteByte('-')
	b.WriteRune(c - 1)
	b.WriteRune(c + 1)
	b.WriteByte('-')
	b.WriteRune(0x10FFFF)
	b.WriteByte(']')
}
