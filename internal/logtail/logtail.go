// Package logtail reads the last lines of the service's redirected
// output files for diagnostics. The files rotate at 10 MiB, so reads
// walk backward in blocks instead of loading the whole file.
package logtail

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

const blockSize = 4096

// Tail returns up to n trailing lines of the file, oldest first. Line
// endings are normalized, so CRLF files read cleanly.
func Tail(path string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	size := info.Size()
	if size == 0 {
		return nil, nil
	}

	// Read blocks from the end until enough newlines accumulate.
	var chunk []byte
	offset := size
	for offset > 0 && bytes.Count(chunk, []byte{'\n'}) <= n {
		step := int64(blockSize)
		if step > offset {
			step = offset
		}
		offset -= step

		buf := make([]byte, step)
		if _, err := f.ReadAt(buf, offset); err != nil && err != io.EOF {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		chunk = append(buf, chunk...)
	}

	lines := splitLines(chunk)
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

func splitLines(b []byte) []string {
	text := strings.ReplaceAll(string(b), "\r\n", "\n")
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
