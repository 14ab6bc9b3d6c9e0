package complexity

// Weights configures the aggregate score. Registries supply them; nothing
// in this package hardcodes a weight.
type Weights struct {
	Branch    float64
	Nesting   float64
	Statement float64
	Dataset   float64
	// Ceiling is the raw weighted sum that maps to a score of 100.
	Ceiling float64
	// HighAbove and MediumAbove are the priority bands over the score.
	HighAbove   float64
	MediumAbove float64
}

// Priority is the translation priority derived from the aggregate score.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

var assessments = map[Priority]string{
	PriorityHigh:   "Manual review strongly recommended",
	PriorityMedium: "Mixed automation with oversight",
	PriorityLow:    "Good candidate for automated translation",
}

// Assessment is the reviewer-facing sentence for p.
func (p Priority) Assessment() string {
	return assessments[p]
}

// PriorityFor places score in the bands of w.
func (w Weights) PriorityFor(score float64) Priority {
	switch {
	case score > w.HighAbove:
		return PriorityHigh
	case score > w.MediumAbove:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
