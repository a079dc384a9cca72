package models

// QuestionType discriminates the questions the backend can ask
type QuestionType string

const (
	QuestionWeightsSliders QuestionType = "weights_sliders"
	QuestionRatingsMatrix  QuestionType = "ratings_matrix"
)

// QuestionDimension describes one input of a question.
// Min, Max and Default are only sent for weights_sliders. Min and Max are
// pointers so an explicit 0 survives a store round trip.
type QuestionDimension struct {
	Key     DimensionKey `json:"key"`
	Label   string       `json:"label"`
	Min     *float64     `json:"min,omitempty"`
	Max     *float64     `json:"max,omitempty"`
	Default float64      `json:"default,omitempty"`
}

// Bounds returns the dimension's range, falling back to the rating scale
// for a missing end
func (d QuestionDimension) Bounds() (float64, float64) {
	lo, hi := float64(ScaleMin), float64(ScaleMax)
	if d.Min != nil {
		lo = *d.Min
	}
	if d.Max != nil {
		hi = *d.Max
	}
	return lo, hi
}

// Question is a backend-provided form schema. Options and Defaults are only
// set for ratings_matrix.
type Question struct {
	Type       QuestionType                        `json:"type"`
	Prompt     string                              `json:"prompt"`
	Dimensions []QuestionDimension                 `json:"dimensions"`
	Options    []string                            `json:"options,omitempty"`
	Defaults   map[string]map[DimensionKey]float64 `json:"defaults,omitempty"`
}

// IsWeights reports whether q is the round 1 weights question
func (q *Question) IsWeights() bool {
	return q != nil && q.Type == QuestionWeightsSliders
}

// IsRatings reports whether q is the round 2 ratings matrix
func (q *Question) IsRatings() bool {
	return q != nil && q.Type == QuestionRatingsMatrix
}

// Weights maps a dimension to its importance (1-5)
type Weights map[DimensionKey]float64

// Ratings maps a dimension to a score; nil means "unknown, let the backend fill it"
type Ratings map[DimensionKey]*float64

// OptionRatings maps an option name to its ratings
type OptionRatings map[string]Ratings

// Float returns a pointer to v, for building Ratings literals
func Float(v float64) *float64 {
	return &v
}
