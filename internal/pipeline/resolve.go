package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vqt123/construction-cost-estimator/internal/model"
)

// defaultLocationQuery is used when neither the caller nor the extraction
// supplied a location.
const defaultLocationQuery = "21093"

// Fixed fallback records. A catalog miss is never an error: the pipeline
// resolves to these and logs the miss as informational.
var (
	defaultRegion = model.Region{
		ID:             1,
		Name:           "Baltimore Metro",
		CostMultiplier: 1.15,
	}
	defaultProjectType = model.ProjectType{
		ID:   1,
		Name: "Epoxy Flooring",
	}
)

// resolveRegion picks the region query (caller location, extracted location,
// fixed default, in that order) and matches by zip code or name substring.
func (e *Estimator) resolveRegion(ctx context.Context, callerLocation, extractedLocation string) (model.Region, error) {
	query := firstNonEmpty(callerLocation, extractedLocation, defaultLocationQuery)

	region, err := e.store.FindRegion(ctx, query)
	if err != nil {
		return model.Region{}, eris.Wrap(err, "estimate: resolve region")
	}
	if region == nil {
		zap.L().Info("estimate: no region match, using default",
			zap.String("query", query),
			zap.String("default", defaultRegion.Name),
		)
		return defaultRegion, nil
	}
	return *region, nil
}

// resolveProjectType picks the type query (caller value, extracted value,
// fixed default, in that order) and matches by name substring.
func (e *Estimator) resolveProjectType(ctx context.Context, callerType, extractedType string) (model.ProjectType, error) {
	query := firstNonEmpty(callerType, extractedType, defaultProjectTypeQuery)

	pt, err := e.store.FindProjectType(ctx, query)
	if err != nil {
		return model.ProjectType{}, eris.Wrap(err, "estimate: resolve project type")
	}
	if pt == nil {
		zap.L().Info("estimate: no project type match, using default",
			zap.String("query", query),
			zap.String("default", defaultProjectType.Name),
		)
		return defaultProjectType, nil
	}
	return *pt, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
