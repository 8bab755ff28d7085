package cli

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/ppiankov/verdict/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	checkText      string
	checkURL       string
	checkImageURL  string
	checkImageFile string
	jsonOut        string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fact-check one text, URL or image",
	Long: `Run a single fact-check and print the JSON response.

Exactly one input is used, in this order: --url, --text, --image-file, --image-url.

Example:
  verdict check --url https://x.com/user/status/123
  verdict check --text "The Eiffel Tower was completed in 1889."
  verdict check --image-file chart.png --json result.json`,
	RunE: runCheck,
}

var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Extract text and images from a URL without fact-checking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(viper.GetViper())
		if err != nil {
			return err
		}
		result, err := a.pipeline.Extract(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return writeJSON(result, jsonOut)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(extractCmd)

	checkCmd.Flags().StringVar(&checkText, "text", "", "text to fact-check")
	checkCmd.Flags().StringVar(&checkURL, "url", "", "URL to extract and fact-check")
	checkCmd.Flags().StringVar(&checkImageURL, "image-url", "", "image URL to fact-check")
	checkCmd.Flags().StringVar(&checkImageFile, "image-file", "", "local image to fact-check")
	checkCmd.Flags().StringVar(&jsonOut, "json", "", "write JSON to this file instead of stdout")
	extractCmd.Flags().StringVar(&jsonOut, "json", "", "write JSON to this file instead of stdout")
}

func runCheck(cmd *cobra.Command, args []string) error {
	a, err := newApp(viper.GetViper())
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var resp *model.FactCheckResponse
	switch {
	case checkURL != "":
		resp, err = a.pipeline.CheckURL(ctx, checkURL)
	case checkText != "":
		resp, err = a.pipeline.CheckText(ctx, checkText)
	case checkImageFile != "":
		dataURL, readErr := imageDataURL(checkImageFile)
		if readErr != nil {
			return readErr
		}
		resp, err = a.pipeline.CheckImage(ctx, model.ImageRef{DataURL: dataURL})
	case checkImageURL != "":
		resp, err = a.pipeline.CheckImage(ctx, model.ImageRef{URL: checkImageURL})
	default:
		return fmt.Errorf("one of --text, --url, --image-url or --image-file is required")
	}
	if err != nil {
		return err
	}
	return writeJSON(resp, jsonOut)
}

// imageDataURL reads a local image into a base64 data URL
func imageDataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	mediaType := http.DetectContentType(data)
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// writeJSON prints v indented to stdout, or to path when set
func writeJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", path)
	return nil
}
