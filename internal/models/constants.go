// Package models contains data types and constants for the choicemate backend API.
package models

// Endpoint paths, relative to the configured base URL
const (
	EndpointQuestionnaireNext = "/questionnaire/next"
	EndpointExplain           = "/explain"
	EndpointDecide            = "/decide"
	EndpointHealth            = "/healthz"
)

// DimensionKey names one of the canonical decision dimensions
type DimensionKey string

// Canonical dimensions. Cost and risk: higher is worse.
// Impact and reversibility: higher is better.
const (
	DimImpact        DimensionKey = "impact"
	DimCost          DimensionKey = "cost"
	DimRisk          DimensionKey = "risk"
	DimReversibility DimensionKey = "reversibility"
)

// Dimensions returns the canonical dimensions in display order
func Dimensions() []DimensionKey {
	return []DimensionKey{DimImpact, DimCost, DimRisk, DimReversibility}
}

// IsValid reports whether k is one of the canonical dimensions
func (k DimensionKey) IsValid() bool {
	switch k {
	case DimImpact, DimCost, DimRisk, DimReversibility:
		return true
	}
	return false
}

// HigherIsBetter reports the polarity of the dimension
func (k DimensionKey) HigherIsBetter() bool {
	return k == DimImpact || k == DimReversibility
}

// Rating scale bounds shared by weights and ratings
const (
	ScaleMin = 1
	ScaleMax = 5
	// NeutralRating is the value the backend fills in for blank ratings.
	NeutralRating = 3
)

// Message roles
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message content types
const (
	ContentQuestion      = "question"
	ContentWeights       = "weights"
	ContentOptionRatings = "option_ratings"
	ContentDecision      = "decision"
)

// SourceDefault marks a fact the backend completed with the neutral value
const SourceDefault = "default"
