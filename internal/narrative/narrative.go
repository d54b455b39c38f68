// Package narrative produces an optional AI-written summary of a scan
// report. It is strictly additive: any failure falls back to the report's
// computed insights.
package narrative

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/solscout/scout-cli/internal/model"
)

const systemPrompt = "You are a crypto market analyst. Summarize the scan " +
	"results in 3-5 short sentences for a trading desk. Be concrete about " +
	"token names, scores, and which data sources performed best. No hype."

// Summarizer writes a prose summary of a report.
type Summarizer interface {
	Summarize(ctx context.Context, report *model.Report) (string, error)
}

// Client summarizes reports with the Anthropic API.
type Client struct {
	client sdk.Client
	model  string
}

// New creates a Summarizer. model falls back to a small default.
func New(apiKey, model string) *Client {
	if model == "" {
		model = "claude-haiku-4-5-20251001"
	}
	return &Client{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Summarize asks the model for a short narrative over the report facts.
func (c *Client) Summarize(ctx context.Context, report *model.Report) (string, error) {
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: 512,
		System:    []sdk.TextBlockParam{{Text: systemPrompt}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(reportFacts(report))),
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "narrative: create message")
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", eris.New("narrative: empty model response")
	}

	zap.L().Info("narrative: summary generated",
		zap.String("model", c.model),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
	)
	return b.String(), nil
}

// reportFacts flattens the report into a compact plain-text brief. The model
// only ever sees derived numbers, never raw API payloads.
func reportFacts(r *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Scan results:\n")
	fmt.Fprintf(&b, "- %d unique tokens, %.1f%% found by 2+ sources\n",
		r.TotalEntities, r.CrossValidationRate*100)
	fmt.Fprintf(&b, "- %d high conviction tokens\n", len(r.HighConviction))

	for i, e := range r.HighConviction {
		if i == 10 {
			break
		}
		name := e.EntityKey
		if sym, ok := e.MergedAttributes["symbol"].(string); ok && sym != "" {
			name = sym
		}
		fmt.Fprintf(&b, "  - %s: score %.1f, tier %s, sources %s\n",
			name, e.CompositeScore, e.Tier, strings.Join(e.OwningSources, "+"))
	}

	for _, perf := range r.SourcePerformance {
		fmt.Fprintf(&b, "- source %s: rank %d, score %.1f, %d tokens, %.0f%% unique\n",
			perf.SourceID, perf.Rank, perf.PerformanceScore,
			perf.EntitiesFound, perf.UniquenessScore*100)
	}

	for _, insight := range r.Insights {
		fmt.Fprintf(&b, "- %s\n", insight)
	}
	return b.String()
}
