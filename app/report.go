package app

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/simonsteiger/strix/domain/run"
)

// BuildMarkdownReport renders a run result as a markdown document:
// the audit manifest, per-covariate point summaries, and the interval bands.
func BuildMarkdownReport(result *run.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Contrast report: %s - %s\n\n",
		result.Manifest.GroupA, result.Manifest.GroupB)

	fmt.Fprintf(&b, "Run `%s`, seed %d, %d simulated draws per covariate, reference offset %.2f.\n\n",
		result.Manifest.RunID, result.Manifest.Seed,
		result.Manifest.DrawCount, result.Manifest.ReferenceOffset)
	fmt.Fprintf(&b, "Fingerprint: `%s`\n\n", result.Manifest.Fingerprint)

	b.WriteString("## Point summaries\n\n")
	b.WriteString("| covariate | mean diff | min | max | P(diff > 0) | P(diff < 0) |\n")
	b.WriteString("|---:|---:|---:|---:|---:|---:|\n")
	for _, p := range result.Points {
		fmt.Fprintf(&b, "| %.1f | %.3f | %.3f | %.3f | %.3f | %.3f |\n",
			p.Covariate, p.Mean, p.Min, p.Max, p.Sign.PPositive, p.Sign.PNegative)
	}
	b.WriteString("\n")

	if result.Summary != nil {
		for _, band := range result.Summary.Bands {
			fmt.Fprintf(&b, "## %.0f%% central interval\n\n", band.Pair.Level()*100)
			b.WriteString("| covariate | lower | upper |\n")
			b.WriteString("|---:|---:|---:|\n")
			for _, iv := range band.Bands {
				fmt.Fprintf(&b, "| %.1f | %.3f | %.3f |\n", iv.Covariate, iv.Lower, iv.Upper)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// RenderHTMLReport converts a markdown report to HTML for the web surface
func RenderHTMLReport(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse([]byte(md))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.Render(doc, renderer)
}
