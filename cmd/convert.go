package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kfreiman/anypdf/internal/converter"
	"github.com/kfreiman/anypdf/internal/ingest"
	"github.com/kfreiman/anypdf/internal/storage"
)

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert a single file to PDF",
	Long: `Convert a single file to PDF through the same pipeline the server uses.

The input is copied into a scratch directory under a fresh name, converted
there, and the PDF is written to --out-dir as <name>.pdf.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmdConf, err := loadCmdConfig()
		if err != nil {
			return fmt.Errorf("load command config: %w", err)
		}
		logger := createLogger(cmdConf)

		cfg, err := converter.LoadConfig()
		if err != nil {
			return fmt.Errorf("load converter config: %w", err)
		}
		if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
			cfg = cfg.WithTimeout(timeout)
		}

		outDir, _ := cmd.Flags().GetString("out-dir")
		out, err := convertFile(cmd.Context(), logger, cfg, args[0], outDir)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

// convertFile runs one conversion in a scratch storage directory and copies
// the PDF to outDir
func convertFile(ctx context.Context, logger *slog.Logger, cfg converter.Config, input, outDir string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	scratch, err := os.MkdirTemp("", "anypdf-convert-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(scratch)

	sm, err := storage.NewStorageManager(storage.StorageConfig{
		BasePath: scratch,
		Logger:   logger,
	})
	if err != nil {
		return "", err
	}

	dispatcher := converter.NewDispatcher(converter.DispatcherConfig{
		Config: cfg,
		Logger: logger,
	})

	result, err := ingest.NewIngestor(sm, dispatcher).WithLogger(logger).IngestFile(ctx, input)
	if err != nil {
		return "", err
	}

	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}

	out := filepath.Join(outDir, converter.BaseName(input)+".pdf")
	if err := copyFile(result.PDFPath, out); err != nil {
		return "", fmt.Errorf("copy PDF: %w", err)
	}

	logger.InfoContext(ctx, "pdf written",
		"input", input,
		"output", out,
		"duration", result.Duration,
	)
	return out, nil
}

func copyFile(src, dst string) error {
	// #nosec G304 - src is inside the scratch directory
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	// #nosec G304 - dst is chosen by the caller of the CLI
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func init() {
	convertCmd.Flags().String("out-dir", ".", "Directory the PDF is written to")
	convertCmd.Flags().Duration("timeout", 0, "Deadline for each external tool (overrides CONVERT_TIMEOUT)")
	rootCmd.AddCommand(convertCmd)
}
