package model

// UnitKind classifies a cost item's unit of measure for quantity dispatch.
type UnitKind int

const (
	UnitCount UnitKind = iota
	UnitArea
	UnitLength
)

// KindOf maps a catalog unit string to its kind. Anything unrecognized is
// a count unit (quantity 1).
func KindOf(unit string) UnitKind {
	switch unit {
	case "sq ft", "sqft", "sq yd", "sq m":
		return UnitArea
	case "linear ft", "ln ft", "linear m":
		return UnitLength
	default:
		return UnitCount
	}
}

// CostDocument is a stored passage of cost-related text. Embedding is nil
// until the backfill job attaches one; only embedded documents are eligible
// for retrieval.
type CostDocument struct {
	ID        int64          `json:"id"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	SourceTag string         `json:"source_tag"`
	DocType   string         `json:"doc_type"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Embedding []float32      `json:"-"`
}

// ScoredDocument pairs a retrieved document with its cosine similarity to
// the query vector (1 - distance, higher is more similar).
type ScoredDocument struct {
	Document   CostDocument `json:"document"`
	Similarity float64      `json:"similarity"`
}

// Region is immutable reference data; its multiplier scales base costs.
type Region struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	ZipCode        string  `json:"zip_code,omitempty"`
	CostMultiplier float64 `json:"cost_multiplier"`
}

// ProjectType is immutable reference data naming a category of work.
type ProjectType struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CostItem is a priced line of work belonging to exactly one project type.
type CostItem struct {
	ID            int64   `json:"id"`
	ProjectTypeID int64   `json:"project_type_id"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	Unit          string  `json:"unit"`
	BaseCost      float64 `json:"base_cost"`
	LaborCost     float64 `json:"labor_cost"`
	MaterialCost  float64 `json:"material_cost"`
	EquipmentCost float64 `json:"equipment_cost"`
}

// ProjectDetails holds parameters extracted from a user query. All fields
// are best-effort; the extractor substitutes defaults when the model output
// is unusable. Request-scoped, never persisted.
type ProjectDetails struct {
	ProjectType          string   `json:"projectType"`
	Area                 float64  `json:"area"`
	Location             string   `json:"location"`
	SpecificRequirements []string `json:"specificRequirements"`
}

// BreakdownLine is one priced line of an estimate. Quantity, UnitCost and
// TotalCost are rounded to two decimal places.
type BreakdownLine struct {
	Item      string  `json:"item"`
	Quantity  float64 `json:"quantity"`
	UnitCost  float64 `json:"unitCost"`
	TotalCost float64 `json:"totalCost"`
	Unit      string  `json:"unit"`
}

// Estimate is the computed cost portion of an estimation result.
type Estimate struct {
	TotalCost   float64         `json:"totalCost"`
	Breakdown   []BreakdownLine `json:"breakdown"`
	Region      string          `json:"region"`
	ProjectType string          `json:"projectType"`
}

// EstimationResult is the complete response for one estimation request.
type EstimationResult struct {
	Estimate    Estimate `json:"estimate"`
	Explanation string   `json:"explanation"`
	Confidence  float64  `json:"confidence"`
}
