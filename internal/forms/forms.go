// Package forms holds input sanitization and the validation rules of the
// questionnaire forms. It has no UI of its own: both the TUI and the CLI
// commands feed user input through it before anything reaches the backend.
package forms

import (
	"strings"

	apierrors "github.com/diogo/choicemate/internal/errors"
)

// MinOptions is the smallest number of options a conversation can start with
const MinOptions = 2

// Validation messages shown to the user
const (
	MsgProblemRequired = "please describe the problem"
	MsgTooFewOptions   = "please enter at least two options"
	MsgRatingNotNumber = "please enter a number from 1 to 5, leave blank if unknown"
	MsgRatingRange     = "ratings must be between 1 and 5"
)

// SanitizeProblem trims surrounding whitespace
func SanitizeProblem(problem string) string {
	return strings.TrimSpace(problem)
}

// SanitizeOptions trims every option and drops the empty ones, keeping order
func SanitizeOptions(options []string) []string {
	out := make([]string, 0, len(options))
	for _, opt := range options {
		opt = strings.TrimSpace(opt)
		if opt != "" {
			out = append(out, opt)
		}
	}
	return out
}

// ValidateNew sanitizes a new conversation's inputs and checks them
func ValidateNew(problem string, options []string) (string, []string, error) {
	cleanProblem := SanitizeProblem(problem)
	cleanOptions := SanitizeOptions(options)

	if cleanProblem == "" {
		return "", nil, apierrors.NewValidationError("problem", MsgProblemRequired)
	}
	if len(cleanOptions) < MinOptions {
		return "", nil, apierrors.NewValidationError("options", MsgTooFewOptions)
	}
	return cleanProblem, cleanOptions, nil
}
