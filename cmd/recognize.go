package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"ocrapi/internal/config"
	"ocrapi/internal/engine"
	"ocrapi/internal/logger"
	"ocrapi/internal/pixel"
	"ocrapi/internal/result"
	"ocrapi/internal/service"
	"ocrapi/pkg/models"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize [image-file]",
	Short: "Run OCR on a local image file",
	Long: `Run the recognition pipeline on a single image file without the HTTP
server: the same validation, decode, recognition and normalization
steps the /ocr endpoint performs.

The engine is selected through the environment exactly as for serve.`,
	Example: `  # Recognize text in a scan, print regions to stdout
  ocrapi recognize scan.png

  # JSON output to a file, 2 minute budget
  ocrapi recognize receipt.jpg --json -o result.json --timeout 120`,
	Args: cobra.ExactArgs(1),
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	recognizeCmd.Flags().Bool("json", false, "Output as JSON")
	recognizeCmd.Flags().Int("timeout", 60, "Processing timeout in seconds")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("recognize")

	outputPath, _ := cmd.Flags().GetString("output")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	imagePath := args[0]

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", imagePath, err)
	}
	if err := pixel.Validate(filepath.Base(imagePath), int64(len(data)), cfg.MaxUploadBytes); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSecs)*time.Second)
	defer cancel()

	log.Info().
		Str("file", imagePath).
		Int("size", len(data)).
		Str("engine", cfg.EngineType).
		Msg("Starting recognition")

	eng, err := engine.New(ctx, cfg.GetEngineConfig())
	if err != nil {
		return err
	}
	svc := service.New(eng, 1, cfg.OCRTimeout)
	defer svc.Close()

	start := time.Now()

	buf, err := pixel.Decode(data)
	if err != nil {
		return err
	}

	raw, err := svc.Recognize(ctx, buf)
	if err != nil {
		return err
	}

	results := result.Normalize(raw)
	elapsed := float64(time.Since(start)) / float64(time.Millisecond)

	log.Info().
		Int("regions", len(results)).
		Float64("elapsed_ms", elapsed).
		Msg("Recognition completed")

	rendered, err := renderResults(results, elapsed, jsonOutput)
	if err != nil {
		return err
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, rendered, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", outputPath, err)
		}
		fmt.Printf("Results written to %s\n", outputPath)
		return nil
	}

	fmt.Print(string(rendered))
	return nil
}

func renderResults(results []models.OCRResult, elapsedMs float64, jsonOutput bool) ([]byte, error) {
	if jsonOutput {
		out, err := json.MarshalIndent(models.OCRResponse{
			Success:          true,
			Results:          results,
			ProcessingTimeMs: elapsedMs,
		}, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	}

	if len(results) == 0 {
		return []byte("No text detected.\n"), nil
	}

	var out []byte
	for _, r := range results {
		out = append(out, fmt.Sprintf("%.2f  %s\n", r.Confidence, r.Text)...)
	}
	return out, nil
}
