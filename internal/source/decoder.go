package source

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// maxLineBytes bounds a single JSON-lines record.
const maxLineBytes = 16 * 1024 * 1024

// Decoder reads Events from a JSON-lines stream. Blank lines are skipped.
type Decoder struct {
	sc   *bufio.Scanner
	line int
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Decoder{sc: sc}
}

// Next returns the next event, or io.EOF when the stream is exhausted.
func (d *Decoder) Next() (*Event, error) {
	for d.sc.Scan() {
		d.line++
		b := d.sc.Bytes()
		if len(b) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(b, &e); err != nil {
			return nil, fmt.Errorf("line %d: failed to parse event JSON: %w", d.line, err)
		}
		return &e, nil
	}
	if err := d.sc.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", d.line, err)
	}
	return nil, io.EOF
}

// Line returns the number of lines consumed so far.
func (d *Decoder) Line() int { return d.line }
