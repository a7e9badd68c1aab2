package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kfreiman/anypdf/internal/server"
	"github.com/kfreiman/anypdf/internal/storage"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove stored uploads and PDFs older than the TTL",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmdConf, err := loadCmdConfig()
		if err != nil {
			return fmt.Errorf("load command config: %w", err)
		}
		logger := createLogger(cmdConf)

		cfg, err := server.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		defaultTTL, err := cfg.TTL()
		if err != nil {
			return err
		}

		flagTTL, _ := cmd.Flags().GetString("ttl")
		ttl, err := server.ParseTTL(flagTTL)
		if err != nil {
			return err
		}

		sm, err := storage.NewStorageManager(storage.StorageConfig{
			BasePath:   cfg.StoragePath,
			DefaultTTL: defaultTTL,
			Logger:     logger,
		})
		if err != nil {
			return err
		}

		removed, err := sm.Cleanup(cmd.Context(), ttl)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "removed %d file(s) from %s\n", removed, sm.BasePath())
		return nil
	},
}

func init() {
	cleanupCmd.Flags().String("ttl", "", "Time to live (e.g. 24h, or hours as number); defaults to STORAGE_TTL")
	rootCmd.AddCommand(cleanupCmd)
}
