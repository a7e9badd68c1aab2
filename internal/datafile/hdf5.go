package datafile

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/kfreiman/anypdf/internal/process"
)

// HDF5Reader describes the layout of an HDF5 file using h5dump.
// Only the header is dumped; dataset contents can be arbitrarily large.
type HDF5Reader struct {
	Invoker process.Invoker
	Bin     string
}

// Read implements Reader
func (r HDF5Reader) Read(ctx context.Context, path string) (Content, error) {
	bin := r.Bin
	if bin == "" {
		bin = "h5dump"
	}

	var out bytes.Buffer
	err := r.Invoker.Invoke(ctx, process.Command{
		Name:   bin,
		Args:   []string{"-H", path},
		Stdout: &out,
	})
	if err != nil {
		return nil, fmt.Errorf("dumping hdf5 header: %w", err)
	}

	dump := strings.TrimSpace(strings.ToValidUTF8(out.String(), "\uFFFD"))
	if dump == "" {
		return nil, fmt.Errorf("h5dump produced no output for %s", path)
	}

	return &Object{Repr: "```\n" + dump + "\n```"}, nil
}
