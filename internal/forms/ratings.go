package forms

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/choicemate/internal/errors"
	"github.com/diogo/choicemate/internal/models"
)

// RatingsGrid is the text of every ratings cell, by option then dimension.
// A blank cell means "unknown".
type RatingsGrid map[string]map[models.DimensionKey]string

// Set stores a cell, creating the option row if needed
func (g RatingsGrid) Set(option string, dim models.DimensionKey, text string) {
	row, ok := g[option]
	if !ok {
		row = make(map[models.DimensionKey]string)
		g[option] = row
	}
	row[dim] = text
}

// Get returns a cell's text
func (g RatingsGrid) Get(option string, dim models.DimensionKey) string {
	return g[option][dim]
}

// StoredRatings reads state.facts.option_ratings, or nil when absent
func StoredRatings(state json.RawMessage) models.OptionRatings {
	if models.IsNullJSON(state) {
		return nil
	}
	res := gjson.GetBytes(state, "facts.option_ratings")
	if !res.IsObject() {
		return nil
	}
	var r models.OptionRatings
	if err := json.Unmarshal([]byte(res.Raw), &r); err != nil {
		return nil
	}
	return r
}

// InitialRatings seeds the ratings matrix. When ratings were stored they win
// and missing or null cells stay blank; otherwise the question's defaults
// are used.
func InitialRatings(q *models.Question, stored models.OptionRatings) RatingsGrid {
	grid := make(RatingsGrid)
	if q == nil {
		return grid
	}

	for _, opt := range q.Options {
		for _, dim := range q.Dimensions {
			text := ""
			if stored != nil {
				if v := stored[opt][dim.Key]; v != nil {
					text = models.FormatNumber(*v)
				}
			} else if v, ok := q.Defaults[opt][dim.Key]; ok {
				text = models.FormatNumber(v)
			}
			grid.Set(opt, dim.Key, text)
		}
	}
	return grid
}

// ParseRating converts one cell. Blank is nil; anything else must be a
// number in [1,5]. Decimals are allowed.
func ParseRating(text string) (*float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) {
		return nil, apierrors.NewValidationError("", MsgRatingNotNumber)
	}
	if f < models.ScaleMin || f > models.ScaleMax {
		return nil, apierrors.NewValidationError("", MsgRatingRange)
	}
	return &f, nil
}

// ParseRatings converts the whole grid into an answer. The first invalid
// cell, in option then dimension order, aborts with a validation error.
func ParseRatings(q *models.Question, grid RatingsGrid) (models.OptionRatings, error) {
	if q == nil {
		return nil, apierrors.NewValidationError("", "no ratings question to answer")
	}

	out := make(models.OptionRatings, len(q.Options))
	for _, opt := range q.Options {
		row := make(models.Ratings, len(q.Dimensions))
		for _, dim := range q.Dimensions {
			v, err := ParseRating(grid.Get(opt, dim.Key))
			if err != nil {
				if ve, ok := err.(*apierrors.ValidationError); ok {
					ve.Field = opt + "." + string(dim.Key)
				}
				return nil, err
			}
			row[dim.Key] = v
		}
		out[opt] = row
	}
	return out, nil
}

// ParseRatingAssignments applies "option.dimension=value" arguments onto grid.
// The option name may itself contain dots; the last one separates the
// dimension. An empty value blanks the cell.
func ParseRatingAssignments(grid RatingsGrid, options []string, args []string) error {
	known := make(map[string]bool, len(options))
	for _, o := range options {
		known[o] = true
	}

	for _, arg := range args {
		target, value, ok := strings.Cut(arg, "=")
		if !ok {
			return apierrors.NewValidationError(arg, "expected option.dimension=value")
		}
		i := strings.LastIndex(target, ".")
		if i <= 0 {
			return apierrors.NewValidationError(arg, "expected option.dimension=value")
		}
		opt := strings.TrimSpace(target[:i])
		dim := models.DimensionKey(strings.ToLower(strings.TrimSpace(target[i+1:])))
		if !known[opt] {
			return apierrors.NewValidationError(opt, "unknown option")
		}
		if !dim.IsValid() {
			return apierrors.NewValidationError(string(dim), "unknown dimension")
		}
		grid.Set(opt, dim, strings.TrimSpace(value))
	}
	return nil
}
