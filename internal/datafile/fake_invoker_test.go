package datafile

import (
	"context"

	"github.com/kfreiman/anypdf/internal/process"
)

type fakeInvoker struct {
	calls []process.Command
	run   func(cmd process.Command) error
}

func (f *fakeInvoker) Invoke(_ context.Context, cmd process.Command) error {
	f.calls = append(f.calls, cmd)
	if f.run == nil {
		return nil
	}
	return f.run(cmd)
}
