package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/verdict/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Fact-check many URLs from a file in parallel",
	Long: `Batch fact-checks URLs concurrently:
- Read URLs from input file (one per line, # starts a comment, duplicates skipped)
- Check URLs in parallel with a configurable worker count
- Write one JSON response per URL to the output directory

Example:
  verdict batch urls.txt
  verdict batch urls.txt --concurrency 8 --output-dir ./results
  verdict batch urls.txt --timeout 10m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Int("concurrency", 0, "number of concurrent workers (default from batch.concurrency)")
	batchCmd.Flags().String("output-dir", "", "output directory (default from batch.output_dir)")
	batchCmd.Flags().Duration("timeout", 0, "total timeout for the batch (default from batch.timeout)")

	_ = viper.BindPFlag("batch.concurrency", batchCmd.Flags().Lookup("concurrency"))
	_ = viper.BindPFlag("batch.output_dir", batchCmd.Flags().Lookup("output-dir"))
	_ = viper.BindPFlag("batch.timeout", batchCmd.Flags().Lookup("timeout"))
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	a, err := newApp(viper.GetViper())
	if err != nil {
		return err
	}
	if !a.pipeline.Configured() {
		return fmt.Errorf("batch needs a reasoning service API key (set VERDICT_LLM_API_KEY or PERPLEXITY_API_KEY)")
	}
	bc := a.config.Batch

	ctx, cancel := context.WithTimeout(context.Background(), bc.Timeout)
	defer cancel()

	if err := os.MkdirAll(bc.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	a.logger.Info().
		Str("file", file).
		Int("workers", bc.Concurrency).
		Str("output_dir", bc.OutputDir).
		Dur("timeout", bc.Timeout).
		Msg("batch started")

	start := time.Now()
	processor := worker.NewBatchProcessor(a.pipeline, bc.Concurrency)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	succeeded := 0
	for _, result := range results {
		if result.Error != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.URL, result.Error)
			continue
		}

		path := filepath.Join(bc.OutputDir, fmt.Sprintf("%03d-%s.json", result.Index+1, sanitizeFilename(result.URL)))
		if err := writeJSON(result.Response, path); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.URL, err)
			continue
		}
		succeeded++
		fmt.Fprintf(os.Stderr, "✓ %s (%d claims)\n", result.URL, result.Response.ClaimsFound)
	}

	a.logger.Info().
		Int("total", len(results)).
		Int("succeeded", succeeded).
		Int("failed", len(results)-succeeded).
		Dur("took", time.Since(start)).
		Msg("batch complete")
	return nil
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	"&", "_",
	"=", "_",
	" ", "-",
)

// sanitizeFilename turns a URL into a file name stem
func sanitizeFilename(s string) string {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "https://"), "http://")
	s = strings.Trim(filenameReplacer.Replace(s), "_-.")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "result"
	}
	return s
}
