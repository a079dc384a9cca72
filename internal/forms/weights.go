package forms

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/choicemate/internal/errors"
	"github.com/diogo/choicemate/internal/models"
)

// StoredWeights reads the weights the backend recorded in state.facts.weights.
// It returns nil when there are none.
func StoredWeights(state json.RawMessage) models.Weights {
	if models.IsNullJSON(state) {
		return nil
	}
	res := gjson.GetBytes(state, "facts.weights")
	if !res.IsObject() {
		return nil
	}
	var w models.Weights
	if err := json.Unmarshal([]byte(res.Raw), &w); err != nil {
		return nil
	}
	return w
}

// InitialWeights seeds the weights form: stored value first, then the
// dimension's default. Values are clamped into the dimension's range.
func InitialWeights(dims []models.QuestionDimension, stored models.Weights) models.Weights {
	out := make(models.Weights, len(dims))
	for _, dim := range dims {
		v, ok := stored[dim.Key]
		if !ok {
			v = dim.Default
		}
		out[dim.Key] = ClampWeight(dim, v)
	}
	return out
}

// ClampWeight rounds v to an integer inside the dimension's bounds
func ClampWeight(dim models.QuestionDimension, v float64) float64 {
	lo, hi := dim.Bounds()
	v = math.Round(v)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// StepWeight moves v by delta steps of 1, staying inside the bounds
func StepWeight(dim models.QuestionDimension, v float64, delta int) float64 {
	return ClampWeight(dim, v+float64(delta))
}

// ValidateWeights checks a weights answer against the question
func ValidateWeights(dims []models.QuestionDimension, w models.Weights) error {
	for _, dim := range dims {
		v, ok := w[dim.Key]
		if !ok {
			return apierrors.NewValidationError(string(dim.Key), "a weight is required")
		}
		lo, hi := dim.Bounds()
		if v < lo || v > hi {
			return apierrors.NewValidationError(string(dim.Key),
				fmt.Sprintf("weight must be between %s and %s", models.FormatNumber(lo), models.FormatNumber(hi)))
		}
		if v != math.Trunc(v) {
			return apierrors.NewValidationError(string(dim.Key), "weight must be a whole number")
		}
	}
	return nil
}

// ParseWeightAssignments parses "dimension=value" arguments onto base.
// Keys must be canonical dimensions.
func ParseWeightAssignments(base models.Weights, args []string) (models.Weights, error) {
	out := make(models.Weights, len(base)+len(args))
	for k, v := range base {
		out[k] = v
	}

	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, apierrors.NewValidationError(arg, "expected dimension=value")
		}
		dim := models.DimensionKey(strings.ToLower(strings.TrimSpace(key)))
		if !dim.IsValid() {
			return nil, apierrors.NewValidationError(string(dim), "unknown dimension")
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, apierrors.NewValidationError(string(dim), "weight must be a number")
		}
		out[dim] = f
	}
	return out, nil
}
