package models

import (
	"encoding/json"
	"strconv"

	"github.com/tidwall/gjson"
)

// OptionScore is one row of the decision's per-option breakdown.
// Values are pre-formatted; missing or non-finite numbers read "-".
type OptionScore struct {
	Option        string
	Score         string
	Ratings       map[DimensionKey]string
	Contributions map[DimensionKey]string
}

// DecisionView is a read-only projection of the opaque decision object.
// The decision itself stays owned by the backend; fields it does not send
// are simply empty here.
type DecisionView struct {
	BestOption  string
	Confidence  string
	Weights     map[DimensionKey]string
	HasWeights  bool
	PerOption   []OptionScore
	Assumptions []string
	Raw         json.RawMessage
}

// ParseDecision projects a raw decision. A null decision yields nil.
func ParseDecision(raw json.RawMessage) *DecisionView {
	if IsNullJSON(raw) {
		return nil
	}

	root := gjson.ParseBytes(raw)
	view := &DecisionView{
		BestOption: root.Get("best_option").String(),
		Confidence: root.Get("confidence").String(),
		Raw:        raw,
	}

	if weights := root.Get("score_breakdown.weights"); weights.IsObject() {
		view.HasWeights = true
		view.Weights = dimensionCells(weights)
	}

	if rows := root.Get("score_breakdown.per_option"); rows.IsArray() {
		rows.ForEach(func(_, row gjson.Result) bool {
			view.PerOption = append(view.PerOption, OptionScore{
				Option:        row.Get("option").String(),
				Score:         FormatValue(row.Get("score")),
				Ratings:       dimensionCells(row.Get("ratings")),
				Contributions: dimensionCells(row.Get("contributions")),
			})
			return true
		})
	}

	root.Get("assumptions").ForEach(func(_, item gjson.Result) bool {
		view.Assumptions = append(view.Assumptions, item.String())
		return true
	})

	return view
}

// IsBest reports whether option is the recommended one
func (v *DecisionView) IsBest(option string) bool {
	return v != nil && v.BestOption != "" && v.BestOption == option
}

// Summary is the one-line label stored with decision messages
func (v *DecisionView) Summary() string {
	best := "-"
	if v != nil && v.BestOption != "" {
		best = v.BestOption
	}
	return "best_option=" + best
}

// DecisionSummary formats the summary for a raw decision
func DecisionSummary(raw json.RawMessage) string {
	return ParseDecision(raw).Summary()
}

func dimensionCells(obj gjson.Result) map[DimensionKey]string {
	cells := make(map[DimensionKey]string, 4)
	for _, dim := range Dimensions() {
		cells[dim] = FormatValue(obj.Get(string(dim)))
	}
	return cells
}

// FormatValue renders a JSON value for a table cell
func FormatValue(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return "-"
	case gjson.Number:
		return FormatNumber(v.Float())
	default:
		return v.String()
	}
}

// FormatNumber renders a number without trailing zeros
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
