package datafile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoColumns is returned for delimited input without a header row
var ErrNoColumns = errors.New("no columns to parse from file")

// DelimitedReader parses comma- or tab-separated text with a header row
type DelimitedReader struct {
	Comma rune
	// Limit caps the number of data rows parsed
	Limit int
	// CountAll keeps scanning past Limit so TotalRows covers the whole file.
	// Rows past Limit are still parsed and can fail.
	CountAll bool
}

// ReadFile opens path and parses it
func (r DelimitedReader) ReadFile(path string) (*Frame, error) {
	// #nosec G304 - path comes from the storage layer, not from user input
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return r.Read(f)
}

// Read parses the header and up to Limit data rows
func (r DelimitedReader) Read(in io.Reader) (*Frame, error) {
	limit := r.Limit
	if limit <= 0 {
		limit = PreviewRows
	}

	cr := csv.NewReader(in)
	cr.Comma = r.Comma
	if cr.Comma == 0 {
		cr.Comma = ','
	}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoColumns
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	frame := &Frame{Columns: header}
	for {
		if len(frame.Rows) >= limit && !r.CountAll {
			break
		}

		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if len(frame.Rows) < limit {
			frame.Rows = append(frame.Rows, record)
		}
		frame.TotalRows++
	}

	return frame, nil
}

// Delimiter returns the separator used for a delimited-text extension
func Delimiter(ext string) rune {
	if strings.EqualFold(ext, ".tsv") {
		return '\t'
	}
	return ','
}
