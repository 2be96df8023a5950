// Package main is the pdfconv command line: the same three conversions the
// HTTP service offers, run locally against a single file.
package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the pdfconv CLI.
var rootCmd = &cobra.Command{
	Use:   "pdfconv",
	Short: "Convert a PDF to DOCX, page images or plain text",
	Long: `pdfconv converts one PDF at a time.

  docx    rebuild an editable Word document (needs LibreOffice)
  images  render every page to JPG and zip them (needs poppler's pdftoppm)
  text    extract the text of every page, concatenated in order

Each run works in a private scratch directory and copies the result to --out
under the name the web UI would download it as.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringP("out", "o", ".", "directory the converted file is written to")
	rootCmd.PersistentFlags().Duration("timeout", 0, "abort the conversion after this long (default: CONVERSION_TIMEOUT_SEC)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log pipeline events to stderr as JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
