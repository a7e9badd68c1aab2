package datafile

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// FeatherReader previews Feather v2 (Arrow IPC file) data
type FeatherReader struct{}

// Read implements Reader
func (FeatherReader) Read(_ context.Context, path string) (Content, error) {
	// #nosec G304 - path comes from the storage layer
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, fmt.Errorf("opening feather file: %w", err)
	}
	defer r.Close()

	fields := r.Schema().Fields()
	frame := &Frame{Columns: make([]string, len(fields))}
	for i, field := range fields {
		frame.Columns[i] = field.Name
	}

	for i := 0; i < r.NumRecords(); i++ {
		rec, err := r.Record(i)
		if err != nil {
			return nil, fmt.Errorf("reading record batch %d: %w", i, err)
		}

		rows := int(rec.NumRows())
		frame.TotalRows += rows

		for row := 0; row < rows && len(frame.Rows) < PreviewRows; row++ {
			record := make([]string, rec.NumCols())
			for col := range record {
				arr := rec.Column(col)
				if arr.IsNull(row) {
					continue
				}
				record[col] = arr.ValueStr(row)
			}
			frame.Rows = append(frame.Rows, record)
		}
	}

	return frame, nil
}
