package converter

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/kfreiman/anypdf/internal/datafile"
	"github.com/kfreiman/anypdf/internal/process"
)

// Config names the external tools used by the converters
type Config struct {
	PandocBin         string        `env:"PANDOC_BIN" env-default:"pandoc" env-description:"pandoc executable"`
	PDFEngine         string        `env:"PANDOC_PDF_ENGINE" env-default:"xelatex" env-description:"pandoc --pdf-engine value"`
	HighlightStyle    string        `env:"PANDOC_HIGHLIGHT_STYLE" env-default:"tango" env-description:"pandoc --highlight-style value"`
	LibreOfficeBin    string        `env:"LIBREOFFICE_BIN" env-default:"libreoffice" env-description:"LibreOffice executable"`
	JupyterBin        string        `env:"JUPYTER_BIN" env-default:"jupyter" env-description:"jupyter executable used for nbconvert"`
	NotebookOutputDir string        `env:"NOTEBOOK_OUTPUT_DIR" env-description:"Directory nbconvert writes to (defaults to the input directory)"`
	H5DumpBin         string        `env:"H5DUMP_BIN" env-default:"h5dump" env-description:"h5dump executable for HDF5 previews"`
	ReadStatBin       string        `env:"READSTAT_BIN" env-default:"readstat" env-description:"readstat executable for SPSS and Stata previews"`
	Timeout           time.Duration `env:"CONVERT_TIMEOUT" env-default:"120s" env-description:"Deadline for a single external tool invocation"`
}

// DefaultConfig returns the configuration used when nothing is set
func DefaultConfig() Config {
	return Config{
		PandocBin:      "pandoc",
		PDFEngine:      "xelatex",
		HighlightStyle: "tango",
		LibreOfficeBin: "libreoffice",
		JupyterBin:     "jupyter",
		H5DumpBin:      "h5dump",
		ReadStatBin:    "readstat",
		Timeout:        process.DefaultTimeout,
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate checks that every tool is named and the timeout is positive
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.PandocBin, validation.Required),
		validation.Field(&c.PDFEngine, validation.Required),
		validation.Field(&c.HighlightStyle, validation.Required),
		validation.Field(&c.LibreOfficeBin, validation.Required),
		validation.Field(&c.JupyterBin, validation.Required),
		validation.Field(&c.H5DumpBin, validation.Required),
		validation.Field(&c.ReadStatBin, validation.Required),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
	)
}

// WithNotebookOutputDir sets the directory nbconvert is asked to write into
func (c Config) WithNotebookOutputDir(dir string) Config {
	c.NotebookOutputDir = dir
	return c
}

// WithTimeout sets the per-invocation deadline
func (c Config) WithTimeout(d time.Duration) Config {
	c.Timeout = d
	return c
}

func (c Config) binaries() datafile.Binaries {
	return datafile.Binaries{H5Dump: c.H5DumpBin, ReadStat: c.ReadStatBin}
}
