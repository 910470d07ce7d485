package registry

import (
	"bufio"
	"io"
	"strings"

	"github.com/brianolson/xorset"
	"github.com/google/uuid"
)

// maxLineLength bounds a single entry in ReadEntries.
const maxLineLength = 1 << 20

// ReadEntries reads one entry per line. Lines are trimmed, blank lines are
// dropped and repeats are kept once, in first-seen order.
func ReadEntries(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineLength)

	seen := make(map[string]struct{})
	var out []string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// BuildDocument builds a filter from the lines of r and wraps it in a
// document with a fresh uuid. source is recorded as the document's
// source_file.
func BuildDocument(source string, r io.Reader) (*Document, error) {
	lines, err := ReadEntries(r)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrNoEntries
	}
	filter, err := xorset.PopulateStrings(lines)
	if err != nil {
		return nil, err
	}
	return NewDocument(uuid.New(), source, len(lines), filter)
}
