package claimcsv

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Record is one data row with fields resolved by header name.
type Record struct {
	fields []string
	index  map[string]int
}

// Get returns the named field, or a RowKeyError when the column is not
// in the header or the row is too short to carry it.
func (r Record) Get(name string) (string, error) {
	i, ok := r.index[name]
	if !ok || i >= len(r.fields) {
		return "", &RowKeyError{Field: name}
	}
	return r.fields[i], nil
}

// Reader streams pipe-delimited records from a source, keyed by the
// header line it reads on construction. The delimited text has no
// quoting rules, so each line is a plain split on the delimiter.
type Reader struct {
	scanner *bufio.Scanner
	index   map[string]int
	current Record
	row     int64
	err     error
}

// NewReader reads the header line from r and prepares record streaming.
func NewReader(r io.Reader) (*Reader, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		return nil, fmt.Errorf("read header: empty source")
	}

	header := strings.Split(sc.Text(), Delimiter)
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	return &Reader{scanner: sc, index: index, row: 1}, nil
}

// Next advances to the next data row, skipping blank lines. Returns
// false at end of input or on a read error (see Err).
func (r *Reader) Next() bool {
	for r.scanner.Scan() {
		r.row++
		line := r.scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		r.current = Record{fields: strings.Split(line, Delimiter), index: r.index}
		return true
	}
	r.err = r.scanner.Err()
	return false
}

// Record returns the current data row.
func (r *Reader) Record() Record { return r.current }

// Row returns the 1-based source row number of the current record,
// counting the header line as row 1.
func (r *Reader) Row() int64 { return r.row }

// Err returns the first read error encountered, if any.
func (r *Reader) Err() error { return r.err }
