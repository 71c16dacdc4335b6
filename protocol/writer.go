package protocol

import (
	"io"
)

var (
	Terminal = []byte("\r\n")
)

func WriteLine(w io.Writer, line string) error {
	b := append([]byte(line), Terminal...)
	_, err := w.Write(b)
	return err
}

// WriteLines writes every line, each terminated, in a single Write call so
// lines from one broadcast are never interleaved with another's.
func WriteLines(w io.Writer, lines ...string) error {
	if len(lines) == 0 {
		return nil
	}

	size := 0
	for _, line := range lines {
		size += len(line) + len(Terminal)
	}

	b := make([]byte, 0, size)
	for _, line := range lines {
		b = append(b, line...)
		b = append(b, Terminal...)
	}

	_, err := w.Write(b)
	return err
}

func RemoveTrailingCR(data []byte) []byte {
	if len(data) > 0 && data[len(data)-1] == '\r' {
		// Remove the optional trailing \r
		return data[:len(data)-1]
	}

	return data
}
