package filter

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mikey/llm-email-classifier/internal/core"
	"go.uber.org/zap"
)

// summaryPreview is how much of the body the summary shows in verbose mode.
const summaryPreview = 500

// topScores is how many ranked labels the results section lists.
const topScores = 5

// CliFilter classifies emails and prints the results for a terminal
type CliFilter struct {
	service *core.ClassificationService
	logger  *zap.Logger
	out     io.Writer
	verbose bool
}

// NewCliFilter creates a new CLI filter writing to out
func NewCliFilter(service *core.ClassificationService, logger *zap.Logger, out io.Writer, verbose bool) *CliFilter {
	return &CliFilter{
		service: service,
		logger:  logger,
		out:     out,
		verbose: verbose,
	}
}

// ProcessEmail classifies an email and displays the results
func (f *CliFilter) ProcessEmail(ctx context.Context, email *core.ExtractedEmail) (*core.ClassificationResult, error) {
	f.logger.Debug("Processing email",
		zap.String("id", email.ID),
		zap.String("sender", email.Sender))

	f.RenderSummary(email)

	start := time.Now()
	result, err := f.service.Classify(ctx, email.BodyFull, email.Subject)
	if err != nil {
		f.logger.Error("Failed to classify email", zap.Error(err))
		fmt.Fprintf(f.out, "Error: %v\n", err)
		return nil, err
	}

	f.RenderResult(result, time.Since(start))
	return result, nil
}

// RenderSummary prints the headers of an email and, when verbose, a body
// preview.
func (f *CliFilter) RenderSummary(email *core.ExtractedEmail) {
	fmt.Fprintf(f.out, "\n=== Email Summary ===\n")
	if email.ID != "" {
		fmt.Fprintf(f.out, "ID: %s\n", email.ID)
	}
	fmt.Fprintf(f.out, "From: %s\n", email.Sender)
	fmt.Fprintf(f.out, "Date: %s\n", email.Date)
	fmt.Fprintf(f.out, "Subject: %s\n", email.Subject)
	fmt.Fprintf(f.out, "Body length: %d characters\n", len([]rune(email.BodyFull)))

	if f.verbose {
		fmt.Fprintf(f.out, "\nBody preview:\n%s\n", core.Preview(email.BodyFull, summaryPreview))
	}
}

// RenderResult prints the chosen category, its description and the
// highest-ranked scores.
func (f *CliFilter) RenderResult(result *core.ClassificationResult, elapsed time.Duration) {
	fmt.Fprintf(f.out, "\n=== Results ===\n")
	fmt.Fprintf(f.out, "Category: %s\n", result.Category)
	fmt.Fprintf(f.out, "Confidence: %.2f%%\n", result.Confidence)

	if result.Category == core.UnableToClassify {
		fmt.Fprintf(f.out, "Not enough text to classify.\n")
		return
	}

	fmt.Fprintf(f.out, "Description: %s\n", core.DescribeCategory(result.Category))
	fmt.Fprintf(f.out, "\nTop %d categories:\n", topScores)
	for i, s := range result.Top(topScores) {
		fmt.Fprintf(f.out, "  %d. %-32s %6.2f%%\n", i+1, s.Label, s.Score)
	}

	fmt.Fprintf(f.out, "\nModel used: %s\n", result.ModelUsed)
	if f.verbose {
		fmt.Fprintf(f.out, "Classification ID: %s\n", result.ID)
		fmt.Fprintf(f.out, "Processing time: %v\n", elapsed)
	}
}

// RenderCategories lists the candidate categories with their descriptions
func (f *CliFilter) RenderCategories() {
	fmt.Fprintf(f.out, "=== Categories ===\n")
	for i, label := range f.service.Categories() {
		fmt.Fprintf(f.out, "%2d. %s\n    %s\n", i+1, label, core.DescribeCategory(label))
	}
}
