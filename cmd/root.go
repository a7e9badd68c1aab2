// Package cmd holds the anypdf command line.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "anypdf",
	Short: "Convert files of any type to PDF",
	Long: `anypdf turns uploaded files into PDFs.

Images are embedded directly, office documents go through LibreOffice,
notebooks through nbconvert, CSV/TSV and binary data files are rendered as
markdown previews, and everything else is handed to pandoc.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
