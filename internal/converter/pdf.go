package converter

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PageCount opens a PDF and returns its number of pages
func PageCount(path string) (n int, err error) {
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading %s: %v", path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	return reader.NumPage(), nil
}

// verifyPDF checks that path parses as a PDF with at least one page
func verifyPDF(path string) (int, error) {
	pages, err := PageCount(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnreadableOutput, err)
	}
	if pages < 1 {
		return 0, fmt.Errorf("%w: %s has no pages", ErrUnreadableOutput, path)
	}
	return pages, nil
}
