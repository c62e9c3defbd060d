package pipeline

import (
	"math"

	"github.com/vqt123/construction-cost-estimator/internal/model"
)

// lengthQuantityRatio converts a floor area into a length-unit quantity.
// Policy constant standing in for a derived perimeter estimate.
const lengthQuantityRatio = 0.1

// round2 rounds to two decimal places, half away from zero.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// ComputeBreakdown prices the given cost items for a region and area. Pure:
// no I/O, identical inputs yield identical outputs. Line order follows item
// order. Quantity, unit cost and line total are each rounded to two decimal
// places; the returned total is the sum of the rounded line totals.
func ComputeBreakdown(items []model.CostItem, region model.Region, area float64) ([]model.BreakdownLine, float64) {
	breakdown := make([]model.BreakdownLine, 0, len(items))
	var total float64

	for _, item := range items {
		adjusted := item.BaseCost * region.CostMultiplier

		var quantity float64
		switch model.KindOf(item.Unit) {
		case model.UnitArea:
			quantity = area
		case model.UnitLength:
			quantity = area * lengthQuantityRatio
		default:
			quantity = 1
		}

		line := model.BreakdownLine{
			Item:      item.Name,
			Quantity:  round2(quantity),
			UnitCost:  round2(adjusted),
			TotalCost: round2(quantity * adjusted),
			Unit:      item.Unit,
		}
		breakdown = append(breakdown, line)
		total += line.TotalCost
	}

	return breakdown, round2(total)
}
