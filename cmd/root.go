package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"ocrapi/internal/logger"
	"ocrapi/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "ocrapi",
	Short: "OCR API - text recognition service for uploaded images",
	Long: `OCR API exposes an optical-character-recognition engine over HTTP.

Uploaded images are validated, decoded to a canonical pixel buffer and
passed to the configured recognition engine (PaddleOCR serving endpoint,
local Tesseract, or Google Cloud Vision). Recognized text regions are
returned with bounding polygons and confidence scores.`,
	Version: server.Version,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
