package datafile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kfreiman/anypdf/internal/process"
)

// StatReader previews SPSS (.sav) and Stata (.dta) files. readstat converts
// the file to CSV which is then read like any other delimited text.
type StatReader struct {
	Invoker process.Invoker
	Bin     string
}

// Read implements Reader
func (r StatReader) Read(ctx context.Context, path string) (Content, error) {
	bin := r.Bin
	if bin == "" {
		bin = "readstat"
	}

	tmp, err := os.MkdirTemp("", "anypdf-readstat-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmp)

	csvPath := filepath.Join(tmp, "data.csv")
	err = r.Invoker.Invoke(ctx, process.Command{
		Name: bin,
		Args: []string{path, csvPath},
	})
	if err != nil {
		return nil, fmt.Errorf("exporting %s: %w", filepath.Ext(path), err)
	}

	frame, err := DelimitedReader{Comma: ',', Limit: PreviewRows, CountAll: true}.ReadFile(csvPath)
	if err != nil {
		return nil, err
	}
	return frame, nil
}
