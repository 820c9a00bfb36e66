// Package fasta turns UniProt-style FASTA text into a map of accession to
// sequence.
package fasta

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Collection maps an identifier to its full sequence.
type Collection map[string]string

// IDs returns the identifiers in sorted order.
func (c Collection) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type MalformedError struct {
	Line int // 1-based
	Msg  string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed FASTA at line %d: %s", e.Line, e.Msg)
}

// HeaderID extracts the accession from a header such as ">sp|P0AFL3|PPIA_ECOLI".
// The accession is the second '|' field.
func HeaderID(header string) (string, error) {
	fields := strings.Split(strings.TrimPrefix(header, ">"), "|")
	if len(fields) < 2 {
		return "", fmt.Errorf("header %q has no '|' separated accession field", header)
	}
	id := strings.TrimSpace(fields[1])
	if id == "" {
		return "", fmt.Errorf("header %q has an empty accession field", header)
	}
	return id, nil
}

// Parse parses a complete FASTA document. Body lines are appended to the
// record opened by the closest preceding header. A header seen twice
// replaces the earlier record.
func Parse(text string) (Collection, error) {
	return ParseReader(strings.NewReader(text))
}

func ParseReader(r io.Reader) (Collection, error) {
	scanner := bufio.NewScanner(r)
	// Some cluster members (titin and friends) have very long lines.
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	records := make(Collection)
	var current string
	var body strings.Builder
	open := false
	lineNo := 0

	flush := func() {
		if open {
			records[current] = body.String()
		}
		body.Reset()
	}

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if strings.HasPrefix(line, ">") {
			id, err := HeaderID(line)
			if err != nil {
				return nil, &MalformedError{Line: lineNo, Msg: err.Error()}
			}
			flush()
			current = id
			open = true
			continue
		}

		seq := strings.Join(strings.Fields(line), "")
		if seq == "" {
			continue
		}
		if !open {
			return nil, &MalformedError{Line: lineNo, Msg: "sequence data before the first header"}
		}
		body.WriteString(seq)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read fasta: %w", err)
	}
	flush()

	return records, nil
}

// Write emits the collection as FASTA sorted by identifier, wrapping the
// sequence every width characters. width <= 0 writes each sequence on one line.
func Write(w io.Writer, c Collection, width int) error {
	bw := bufio.NewWriter(w)

	for _, id := range c.IDs() {
		if _, err := fmt.Fprintf(bw, ">sp|%s|%s\n", id, id); err != nil {
			return err
		}
		seq := c[id]
		step := width
		if step <= 0 {
			step = len(seq)
		}
		for start := 0; start < len(seq); start += step {
			end := start + step
			if end > len(seq) {
				end = len(seq)
			}
			bw.WriteString(seq[start:end])
			bw.WriteByte('\n')
		}
	}

	return bw.Flush()
}
