package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"camels_monitor/pkg/core/score"
)

// WriteReport writes a markdown portfolio summary plus an HTML rendering of
// it under dir, returning both paths (markdown first).
func WriteReport(dir, runID string, output score.Output) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	markdown := buildReportMarkdown(runID, output)

	mdPath := filepath.Join(dir, "summary.md")
	if err := os.WriteFile(mdPath, []byte(markdown), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write markdown summary: %w", err)
	}

	renderer := goldmark.New(goldmark.WithExtensions(extension.Table))
	var html bytes.Buffer
	if err := renderer.Convert([]byte(markdown), &html); err != nil {
		return nil, fmt.Errorf("failed to render report HTML: %w", err)
	}
	htmlPath := filepath.Join(dir, "summary.html")
	if err := os.WriteFile(htmlPath, html.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write HTML summary: %w", err)
	}

	return []string{mdPath, htmlPath}, nil
}

func buildReportMarkdown(runID string, output score.Output) string {
	var b strings.Builder
	b.WriteString("# Portfolio Risk Summary\n\n")
	b.WriteString(fmt.Sprintf("Generated by %s.\n\n", runLabel(runID)))
	if output.LatestPeriod != "" {
		b.WriteString(fmt.Sprintf("Latest reporting period: **%s**.\n", output.LatestPeriod))
	}
	b.WriteString(fmt.Sprintf("Banks with data: **%d** of %d. Indicators with values: **%d**.\n\n",
		output.BanksWithValues, len(output.Scores), output.IndicatorsWithValues))

	b.WriteString("| Bank | Score | Rating | Period |\n")
	b.WriteString("|------|-------|--------|--------|\n")
	for _, composite := range output.Scores {
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			composite.BankID, formatScore(composite.Score), composite.Rating, composite.Period))
	}
	b.WriteString("\n")

	for _, composite := range output.Scores {
		b.WriteString(fmt.Sprintf("## %s\n\n", composite.BankID))
		b.WriteString("| Pillar | Score | Rating | Weight |\n")
		b.WriteString("|--------|-------|--------|--------|\n")
		for _, pillar := range composite.Pillars {
			b.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				pillar.Pillar, formatScore(pillar.Score), pillar.Rating, formatWeight(pillar.Weight)))
		}
		b.WriteString("\n")
	}
	return b.String()
}
