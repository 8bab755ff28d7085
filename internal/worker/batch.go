package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/verdict/internal/model"
)

// Checker fact-checks a single URL
type Checker interface {
	CheckURL(ctx context.Context, rawURL string) (*model.FactCheckResponse, error)
}

// CheckJob fact-checks one URL
type CheckJob struct {
	URL     string
	Index   int
	Checker Checker
}

// Execute executes the check job
func (j *CheckJob) Execute(ctx context.Context) Result {
	resp, err := j.Checker.CheckURL(ctx, j.URL)
	return &CheckResult{
		URL:      j.URL,
		Index:    j.Index,
		Response: resp,
		Error:    err,
	}
}

// CheckResult is the outcome of one CheckJob
type CheckResult struct {
	URL      string
	Index    int // Position in the input list
	Response *model.FactCheckResponse
	Error    error
}

// GetError returns the error from the check
func (r *CheckResult) GetError() error {
	return r.Error
}

// BatchProcessor fact-checks many URLs concurrently
type BatchProcessor struct {
	checker     Checker
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(checker Checker, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
	}
}

// ProcessURLs checks every URL and returns results in input order
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*CheckResult {
	if len(urls) == 0 {
		return []*CheckResult{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	for i, u := range urls {
		pool.Submit(&CheckJob{URL: u, Index: i, Checker: b.checker})
	}

	ordered := make([]*CheckResult, len(urls))
	for _, result := range pool.Wait() {
		r := result.(*CheckResult)
		ordered[r.Index] = r
	}

	// Jobs never submitted because ctx ended
	for i, r := range ordered {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("not processed")
			}
			ordered[i] = &CheckResult{URL: urls[i], Index: i, Error: err}
		}
	}

	return ordered
}

// ProcessFile reads URLs from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*CheckResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}

	return b.ProcessURLs(ctx, urls), nil
}

// ReadURLsFromFile reads URLs from a file (one per line)
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}
