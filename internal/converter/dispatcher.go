package converter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/kfreiman/anypdf/internal/datafile"
	"github.com/kfreiman/anypdf/internal/process"
)

// Dispatcher routes an input to the converter of its family and verifies
// the result
type Dispatcher struct {
	converters map[Family]Converter
	logger     *slog.Logger
}

// DispatcherConfig holds the collaborators of a dispatcher
type DispatcherConfig struct {
	Config  Config
	Invoker process.Invoker
	// Readers overrides the binary data readers; nil uses the defaults
	Readers *datafile.Registry
	Logger  *slog.Logger
}

// NewDispatcher wires every converter family
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	inv := config.Invoker
	if inv == nil {
		inv = process.NewExecInvoker(config.Config.Timeout).WithLogger(logger)
	}

	readers := config.Readers
	if readers == nil {
		readers = datafile.DefaultRegistry(inv, config.Config.binaries())
	}

	markup := NewMarkupConverter(inv, config.Config).WithLogger(logger)

	return &Dispatcher{
		converters: map[Family]Converter{
			FamilyImage:      NewImageConverter().WithLogger(logger),
			FamilyOffice:     NewOfficeConverter(inv, config.Config).WithLogger(logger),
			FamilyNotebook:   NewNotebookConverter(inv, config.Config).WithLogger(logger),
			FamilyTabular:    NewTabularConverter(markup),
			FamilyBinaryData: NewBinaryDataConverter(readers, markup).WithLogger(logger),
			FamilyMarkupFallback: ConverterFunc(func(ctx context.Context, req Request) (string, error) {
				return markup.RenderFile(ctx, req.Path)
			}),
		},
		logger: logger,
	}
}

// Convert produces a PDF for the file at path. ext is the extension the
// family is chosen from; it is lower-cased here.
func (d *Dispatcher) Convert(ctx context.Context, path, ext string) (string, error) {
	req := Request{Path: path, Ext: strings.ToLower(ext)}
	family := Classify(req.Ext)

	// A PDF is its own result.
	if family == FamilyPassthrough {
		d.logger.InfoContext(ctx, "input is already a PDF", "path", path)
		return path, nil
	}

	started := time.Now()
	d.logger.InfoContext(ctx, "conversion started",
		"path", path,
		"ext", req.Ext,
		"family", family.String(),
	)

	out, err := d.converters[family].Convert(ctx, req)
	if err != nil {
		d.logger.ErrorContext(ctx, "conversion failed",
			"path", path,
			"family", family.String(),
			"stage", string(StageOf(err)),
			"error", err,
		)
		return "", err
	}

	if err := verifyOutput(out); err != nil {
		d.logger.ErrorContext(ctx, "converter returned no usable output",
			"path", path,
			"output", out,
		)
		return "", missingOutput(stageFor(family), out, err.Error())
	}

	pages, err := verifyPDF(out)
	if err != nil {
		d.logger.ErrorContext(ctx, "converter output is not a readable PDF",
			"path", path,
			"output", out,
			"error", err,
		)
		return "", &ConversionError{
			Stage:      stageFor(family),
			Path:       out,
			Diagnostic: err.Error(),
			Err:        err,
		}
	}

	d.logger.InfoContext(ctx, "conversion finished",
		"path", path,
		"output", out,
		"family", family.String(),
		"pages", pages,
		"duration", time.Since(started),
	)

	return out, nil
}

func stageFor(f Family) Stage {
	switch f {
	case FamilyImage:
		return StageImageEncode
	case FamilyOffice:
		return StageOfficeExport
	case FamilyNotebook:
		return StageNotebookExport
	default:
		return StageMarkupRender
	}
}
