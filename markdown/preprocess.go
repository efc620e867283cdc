package markdown

import (
	"bytes"
)

// Preprocess normalizes line endings and removes MDX import and export
// statements outside of fenced code blocks.
func Preprocess(src []byte) []byte {
	src = bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))
	src = bytes.ReplaceAll(src, []byte("\r"), []byte("\n"))

	var (
		out   bytes.Buffer
		fence []byte
	)
	out.Grow(len(src))
	for _, line := range bytes.SplitAfter(src, []byte("\n")) {
		trimmed := bytes.TrimLeft(line, " ")
		switch {
		case fence != nil:
			if isClosingFence(trimmed, fence) {
				fence = nil
			}
		case bytes.HasPrefix(trimmed, []byte("```")), bytes.HasPrefix(trimmed, []byte("~~~")):
			fence = openingFence(trimmed)
		case isESM(line):
			continue
		}
		out.Write(line)
	}
	return out.Bytes()
}

// openingFence returns the run of fence characters starting line.
func openingFence(line []byte) []byte {
	i := 0
	for i < len(line) && line[i] == line[0] {
		i++
	}
	return line[:i]
}

// isClosingFence reports whether line closes a block opened with fence.
func isClosingFence(line, fence []byte) bool {
	line = bytes.TrimSpace(line)
	return bytes.HasPrefix(line, fence) && len(bytes.Trim(line, string(fence[:1]))) == 0
}

// isESM reports whether line is an MDX import or export statement.
func isESM(line []byte) bool {
	return bytes.HasPrefix(line, []byte("import ")) || bytes.HasPrefix(line, []byte("export "))
}
