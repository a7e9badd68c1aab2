package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kfreiman/anypdf/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the upload form, download and MCP HTTP server",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cmdConf, err := loadCmdConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load command config: %v\n", err)
			os.Exit(1)
		}

		cfg, err := server.LoadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load server config: %v\n", err)
			os.Exit(1)
		}
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg = cfg.WithPort(port)
		}
		if cfg.LogDebug {
			cmdConf.Level = "debug"
		}

		logger := createLogger(cmdConf)

		logger.InfoContext(ctx, "anypdf server starting",
			"version", Version,
			"port", cfg.Port,
			"storage_path", cfg.StoragePath,
			"storage_ttl", cfg.StorageTTL,
			"max_upload_bytes", cfg.MaxUploadBytes,
			"input_roots", cfg.InputRoots,
			"convert_timeout", cfg.Converter.Timeout,
		)

		srv, err := server.NewServer(cfg, logger)
		if err != nil {
			logger.ErrorContext(ctx, "failed to create server",
				"error", err,
			)
			os.Exit(1)
		}

		if err := srv.ListenAndServe(); err != nil {
			logger.ErrorContext(ctx, "server stopped",
				"error", err,
			)
			os.Exit(1)
		}
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP port (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}
