package token

// Position represents a location in the source code.
type Position struct {
	Line        int // 1-based line number
	Column      int // 1-based column number of the first character
	SourceIndex int // 0-based byte offset immediately after the token
}

// IsValid returns true if the position is valid (line > 0).
func (p Position) IsValid() bool {
	return p.Line > 0
}

// LineAt returns the full text of the line containing offset, without the
// trailing line break. Offsets past the end clamp to the last line.
func LineAt(source string, offset int) string {
	if offset > len(source) {
		offset = len(source)
	}
	if offset < 0 {
		offset = 0
	}
	start := offset
	for start > 0 && source[start-1] != '\n' {
		start--
	}
	end := offset
	for end < len(source) && source[end] != '\n' {
		end++
	}
	line := source[start:end]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line
}
