package converter

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/kfreiman/anypdf/internal/process"
)

// OfficeConverter exports office documents through headless LibreOffice
type OfficeConverter struct {
	invoker process.Invoker
	bin     string
	logger  *slog.Logger
}

// NewOfficeConverter creates a LibreOffice-backed converter
func NewOfficeConverter(inv process.Invoker, cfg Config) *OfficeConverter {
	return &OfficeConverter{
		invoker: inv,
		bin:     cfg.LibreOfficeBin,
		logger:  slog.Default(),
	}
}

// WithLogger sets a custom logger for the converter
func (c *OfficeConverter) WithLogger(logger *slog.Logger) *OfficeConverter {
	c.logger = logger
	return c
}

// Convert implements Converter. LibreOffice does not report where it wrote
// the PDF; the output is <dir>/<base>.pdf by convention and is checked.
func (c *OfficeConverter) Convert(ctx context.Context, req Request) (string, error) {
	dir := filepath.Dir(req.Path)

	// A private profile per run; LibreOffice refuses to start while another
	// instance holds the profile lock.
	profile, err := os.MkdirTemp("", "anypdf-lo-profile-")
	if err != nil {
		return "", failure(StageOfficeExport, req.Path, err)
	}
	defer os.RemoveAll(profile)

	err = c.invoker.Invoke(ctx, process.Command{
		Name: c.bin,
		Args: []string{
			"--headless",
			"--convert-to", "pdf",
			"--outdir", dir,
			"-env:UserInstallation=" + fileURL(profile),
			req.Path,
		},
		Dir: dir,
	})
	if err != nil {
		return "", failure(StageOfficeExport, req.Path, err)
	}

	out := filepath.Join(dir, BaseName(req.Path)+".pdf")
	if _, ok := firstUsable(out); !ok {
		c.logger.WarnContext(ctx, "libreoffice exited cleanly without output",
			"input", req.Path,
			"expected", out,
		)
		return "", missingOutput(StageOfficeExport, out, "LibreOffice did not produce the expected PDF")
	}
	return out, nil
}

func fileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}
