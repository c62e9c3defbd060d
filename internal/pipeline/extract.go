package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/vqt123/construction-cost-estimator/internal/model"
)

// defaultArea is the fallback square footage used when the model's output
// yields no usable area.
const defaultArea = 600

// defaultProjectTypeQuery is the fallback free-text project type used when
// neither the caller nor the extraction supplied one.
const defaultProjectTypeQuery = "epoxy flooring"

const extractionPrompt = `Analyze this construction estimation query and extract key details:
Query: %q

Extract and return in JSON format:
{
  "projectType": "type of work (epoxy flooring, concrete polishing, waterproofing, etc.)",
  "area": "square footage if mentioned",
  "location": "location/zip code if mentioned",
  "specificRequirements": ["list of specific requirements"]
}

Only return the JSON, no other text.`

// extractDetails pulls project parameters out of a free-form query via the
// generation gateway. It never fails the request: any gateway error or
// non-conforming model output is absorbed into fallbackDetails, with
// typeHint (the caller-supplied project type) carried into the fallback.
func (e *Estimator) extractDetails(ctx context.Context, userQuery, typeHint string) model.ProjectDetails {
	raw, err := e.llm.Generate(ctx, fmt.Sprintf(extractionPrompt, userQuery), "")
	if err != nil {
		zap.L().Warn("extract: generation failed, using defaults", zap.Error(err))
		return fallbackDetails(typeHint)
	}

	details, ok := parseDetails(raw)
	if !ok {
		zap.L().Warn("extract: unparseable model output, using defaults",
			zap.String("output", truncate(raw, 200)),
		)
		return fallbackDetails(typeHint)
	}
	return details
}

// fallbackDetails is the total fallback constructor invoked whenever the
// model's output cannot be used.
func fallbackDetails(typeHint string) model.ProjectDetails {
	if typeHint == "" {
		typeHint = defaultProjectTypeQuery
	}
	return model.ProjectDetails{
		ProjectType: typeHint,
		Area:        defaultArea,
	}
}

// parseDetails decodes the model's JSON output into ProjectDetails. Reports
// ok=false on malformed JSON or wrong field types; a missing or non-numeric
// area alone does not reject the output, it defaults instead.
func parseDetails(text string) (model.ProjectDetails, bool) {
	var raw struct {
		ProjectType          string   `json:"projectType"`
		Area                 any      `json:"area"`
		Location             string   `json:"location"`
		SpecificRequirements []string `json:"specificRequirements"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		return model.ProjectDetails{}, false
	}

	area, ok := toFloat64(raw.Area)
	if !ok || area <= 0 {
		area = defaultArea
	}

	return model.ProjectDetails{
		ProjectType:          raw.ProjectType,
		Area:                 area,
		Location:             raw.Location,
		SpecificRequirements: raw.SpecificRequirements,
	}, true
}

// cleanJSON strips markdown code fences and surrounding prose so that a
// mostly-JSON model response parses.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find first { and last }.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// toFloat64 coerces a decoded JSON value to a float. Models return area as
// a number or as a string like "600" or "600 sq ft".
func toFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		fields := strings.Fields(strings.TrimSpace(val))
		if len(fields) == 0 {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSuffix(fields[0], ","), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
