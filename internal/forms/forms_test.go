package forms

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/diogo/choicemate/internal/errors"
	"github.com/diogo/choicemate/internal/models"
)

func TestSanitizeProblem(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Should I move?  ", "Should I move?"},
		{"\n\tjob offer\n", "job offer"},
		{"   ", ""},
		{"", ""},
		{"inner  spaces kept", "inner  spaces kept"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeProblem(tt.in))
	}
}

func TestSanitizeOptions(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"trims", []string{" A ", "B\t"}, []string{"A", "B"}},
		{"drops empty", []string{"A", "", "  ", "B"}, []string{"A", "B"}},
		{"keeps order", []string{"z", "a", "m"}, []string{"z", "a", "m"}},
		{"keeps duplicates", []string{"A", " A"}, []string{"A", "A"}},
		{"all empty", []string{"", " "}, []string{}},
		{"nil", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeOptions(tt.in))
		})
	}
}

func TestValidateNew(t *testing.T) {
	problem, options, err := ValidateNew("  Which city? ", []string{" Lisbon", "", "Porto "})
	require.NoError(t, err)
	assert.Equal(t, "Which city?", problem)
	assert.Equal(t, []string{"Lisbon", "Porto"}, options)

	_, _, err = ValidateNew("   ", []string{"a", "b"})
	var ve *apierrors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "problem", ve.Field)
	assert.Equal(t, MsgProblemRequired, ve.Message)

	_, _, err = ValidateNew("x", []string{"a", "  "})
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, MsgTooFewOptions, ve.Message)
	assert.True(t, apierrors.IsInline(err))
}

var weightDims = []models.QuestionDimension{
	{Key: models.DimImpact, Label: "Impact", Min: models.Float(1), Max: models.Float(5), Default: 3},
	{Key: models.DimCost, Label: "Cost", Min: models.Float(1), Max: models.Float(5), Default: 2},
	{Key: models.DimRisk, Label: "Risk", Min: models.Float(1), Max: models.Float(5), Default: 3},
	{Key: models.DimReversibility, Label: "Reversibility", Min: models.Float(1), Max: models.Float(5), Default: 4},
}

func TestStoredWeights(t *testing.T) {
	assert.Nil(t, StoredWeights(nil))
	assert.Nil(t, StoredWeights(json.RawMessage(`null`)))
	assert.Nil(t, StoredWeights(json.RawMessage(`{"facts":{}}`)))
	assert.Nil(t, StoredWeights(json.RawMessage(`{"facts":{"weights":[1,2]}}`)))

	w := StoredWeights(json.RawMessage(`{"facts":{"weights":{"impact":5,"cost":1}}}`))
	assert.Equal(t, models.Weights{models.DimImpact: 5, models.DimCost: 1}, w)
}

func TestInitialWeights(t *testing.T) {
	got := InitialWeights(weightDims, models.Weights{models.DimImpact: 5, models.DimRisk: 9})
	assert.Equal(t, models.Weights{
		models.DimImpact:        5,
		models.DimCost:          2,
		models.DimRisk:          5, // clamped
		models.DimReversibility: 4,
	}, got)

	assert.Equal(t, float64(3), InitialWeights(weightDims, nil)[models.DimImpact])
}

func TestStepWeight(t *testing.T) {
	dim := weightDims[0]
	assert.Equal(t, float64(4), StepWeight(dim, 3, 1))
	assert.Equal(t, float64(5), StepWeight(dim, 5, 1))
	assert.Equal(t, float64(1), StepWeight(dim, 1, -1))

	// no explicit bounds falls back to the rating scale
	bare := models.QuestionDimension{Key: models.DimCost}
	assert.Equal(t, float64(5), StepWeight(bare, 5, 3))
	assert.Equal(t, float64(1), StepWeight(bare, 2, -4))

	// a range starting at zero keeps zero
	zero := models.QuestionDimension{Key: models.DimRisk, Min: models.Float(0), Max: models.Float(5)}
	assert.Equal(t, float64(0), StepWeight(zero, 1, -1))
	assert.Equal(t, float64(0), ClampWeight(zero, -2))
	assert.NoError(t, ValidateWeights([]models.QuestionDimension{zero}, models.Weights{models.DimRisk: 0}))
}

func TestValidateWeights(t *testing.T) {
	full := models.Weights{models.DimImpact: 3, models.DimCost: 3, models.DimRisk: 3, models.DimReversibility: 3}
	assert.NoError(t, ValidateWeights(weightDims, full))

	missing := models.Weights{models.DimImpact: 3}
	assert.Error(t, ValidateWeights(weightDims, missing))

	out := models.Weights{models.DimImpact: 6, models.DimCost: 3, models.DimRisk: 3, models.DimReversibility: 3}
	assert.ErrorContains(t, ValidateWeights(weightDims, out), "between 1 and 5")

	frac := models.Weights{models.DimImpact: 2.5, models.DimCost: 3, models.DimRisk: 3, models.DimReversibility: 3}
	assert.ErrorContains(t, ValidateWeights(weightDims, frac), "whole number")
}

func TestParseWeightAssignments(t *testing.T) {
	base := models.Weights{models.DimImpact: 3, models.DimCost: 3}

	got, err := ParseWeightAssignments(base, []string{"impact=5", " RISK = 2 "})
	require.NoError(t, err)
	assert.Equal(t, models.Weights{models.DimImpact: 5, models.DimCost: 3, models.DimRisk: 2}, got)
	assert.Equal(t, float64(3), base[models.DimImpact], "base must not be modified")

	for _, bad := range []string{"impact", "speed=3", "impact=high", "impact=NaN"} {
		_, err := ParseWeightAssignments(nil, []string{bad})
		assert.Error(t, err, bad)
	}
}
