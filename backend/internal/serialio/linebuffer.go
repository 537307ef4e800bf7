package serialio

import "strings"

// maxBufferedLine caps the partial line kept across reads. A controller that
// never sends a newline must not grow the buffer without bound.
const maxBufferedLine = 64 * 1024

// LineBuffer reassembles newline-delimited lines from arbitrary read chunks.
// Carriage returns are stripped, partial lines are retained until the next
// chunk completes them.
type LineBuffer struct {
	partial   strings.Builder
	overflows int
}

// Feed appends a chunk and returns every completed line, in order. Lines are
// returned without their terminators. An empty chunk returns nothing.
func (b *LineBuffer) Feed(chunk []byte) []string {
	var lines []string

	for _, c := range chunk {
		if c == '\n' {
			lines = append(lines, b.take())

			continue
		}

		if c == '\r' {
			continue
		}

		if b.partial.Len() >= maxBufferedLine {
			b.partial.Reset()
			b.overflows++
		}

		b.partial.WriteByte(c)
	}

	return lines
}

// Overflows reports how many times a partial line exceeded the cap and was
// discarded.
func (b *LineBuffer) Overflows() int {
	return b.overflows
}

func (b *LineBuffer) take() string {
	line := b.partial.String()
	b.partial.Reset()

	return line
}
