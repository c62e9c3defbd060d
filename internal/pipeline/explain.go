package pipeline

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/vqt123/construction-cost-estimator/internal/model"
)

// Confidence bounds for the overall result. More supporting documents mean
// higher confidence, capped below certainty.
const (
	baseConfidence   = 0.7
	confidencePerDoc = 0.05
	maxConfidence    = 0.95
)

// Confidence returns the result confidence for a given number of retrieved
// documents: min(0.95, 0.7 + 0.05*n).
func Confidence(numDocs int) float64 {
	return math.Min(maxConfidence, baseConfidence+confidencePerDoc*float64(numDocs))
}

const explanationPrompt = `Based on the following cost estimation for %s in %s:

Total Cost: $%.2f
Area: %.0f sq ft

Cost Breakdown:
%s

Relevant Documentation:
%s

Provide a clear, professional explanation of this estimate including:
1. Why this cost is reasonable for the scope
2. Key factors affecting the price
3. Any important considerations or recommendations

Keep it concise but informative (2-3 paragraphs).`

// explain narrates the computed estimate via the generation gateway, using
// the retrieved documents (in retrieval order) as context. The raw model
// text is the explanation; no parsing is performed.
func (e *Estimator) explain(ctx context.Context, breakdown []model.BreakdownLine, total, area float64,
	region model.Region, projectType model.ProjectType, docs []model.ScoredDocument) (string, error) {

	prompt := fmt.Sprintf(explanationPrompt,
		projectType.Name, region.Name, total, area,
		formatBreakdown(breakdown), formatContext(docs),
	)

	explanation, err := e.llm.Generate(ctx, prompt, "")
	if err != nil {
		return "", eris.Wrap(err, "estimate: generate explanation")
	}
	return explanation, nil
}

func formatBreakdown(breakdown []model.BreakdownLine) string {
	lines := make([]string, len(breakdown))
	for i, line := range breakdown {
		lines[i] = fmt.Sprintf("- %s: %.2f %s × $%.2f = $%.2f",
			line.Item, line.Quantity, line.Unit, line.UnitCost, line.TotalCost)
	}
	return strings.Join(lines, "\n")
}

// formatContext concatenates document contents in retrieval order,
// separated by blank lines.
func formatContext(docs []model.ScoredDocument) string {
	contents := make([]string, len(docs))
	for i, doc := range docs {
		contents[i] = doc.Document.Content
	}
	return strings.Join(contents, "\n\n")
}
