// Package stringtest builds multi-line strings for tests.
package stringtest

import "strings"

// Input dedents a raw string literal so fixtures can be indented with the
// surrounding test code. One leading and one trailing newline are removed,
// the longest whitespace prefix shared by all non-blank lines is stripped,
// and whitespace-only lines become empty.
//
// Example:
//
//	src := stringtest.Input(`
//		{== Input ==}
//		{===>} nmol=2;
//	`) // -> "{== Input ==}\n{===>} nmol=2;"
func Input(s string) string {
	s = strings.TrimPrefix(s, "\n")
	s = strings.TrimSuffix(s, "\n")

	lines := strings.Split(s, "\n")
	prefix, found := "", false

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]

		if !found {
			prefix, found = indent, true

			continue
		}

		prefix = commonPrefix(prefix, indent)
	}

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""

			continue
		}

		lines[i] = strings.TrimPrefix(line, prefix)
	}

	return strings.Join(lines, "\n")
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))

	for i := range n {
		if a[i] != b[i] {
			return a[:i]
		}
	}

	return a[:n]
}

// JoinLF joins lines with LF line endings.
//
// Example:
//
//	want := stringtest.JoinLF(
//		"{== Input ==}",
//		"{===>} nmol=2;",
//		"",
//	) // -> "{== Input ==}\n{===>} nmol=2;\n"
func JoinLF(ss ...string) string {
	return strings.Join(ss, "\n")
}

// JoinCRLF joins lines with CRLF line endings, for inputs written on
// Windows.
func JoinCRLF(ss ...string) string {
	return strings.Join(ss, "\r\n")
}
