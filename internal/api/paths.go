// Package api provides the choicemate backend API client implementation.
package api

// GJSON paths for extracting values from backend error bodies.
// FastAPI reports errors under "detail": a string for HTTPException, an
// array of {loc, msg, type} objects for request validation failures.
const (
	PathDetail    = "detail"
	PathDetailMsg = "msg"
	PathError     = "error"
)

// defaultErrorMessage is used when an error response has no body
const defaultErrorMessage = "request failed"
