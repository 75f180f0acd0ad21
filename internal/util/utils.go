package util

import (
	"bytes"
	"strings"
)

// GetContextLines returns the source line an error occurred on followed by a
// caret line pointing at errorCol. Positions outside the source, including
// the empty line after a trailing newline, yield "".
func GetContextLines(src string, errorLine, errorCol int) string {
	if src == "" {
		return ""
	}
	lines := strings.Split(strings.TrimSuffix(src, "\n"), "\n")
	if errorLine < 1 || errorLine > len(lines) {
		return ""
	}
	lineContent := strings.TrimSuffix(lines[errorLine-1], "\r")

	var result bytes.Buffer
	result.WriteString(lineContent)
	result.WriteString("\n")
	if errorCol > 1 {
		result.WriteString(strings.Repeat(" ", errorCol-1))
	}
	result.WriteString("^\n")
	return result.String()
}

// OpenBlocks counts block keywords still waiting for their "end" in a
// sequence of identifier-like words. The REPL uses it to decide whether to
// keep reading lines.
func OpenBlocks(words []string) int {
	depth := 0
	for i := 0; i < len(words); i++ {
		switch words[i] {
		case "if", "for", "while", "function":
			if i > 0 && words[i-1] == "end" {
				continue
			}
			depth++
		case "end":
			depth--
		}
	}
	return depth
}
