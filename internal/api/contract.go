package api

// Backend contract
//
// All endpoints are relative to the configured base URL and exchange JSON.
// Non-2xx responses carry an error body (see ErrorMessage); 400 and 422 are
// input validation failures and are shown next to the form that caused them.
//
// POST /questionnaire/next
//
//	request:  {"problem": str, "options": [str], "state": obj|null,
//	           "last_answer": null | {"weights": {dim: n}}
//	                               | {"option_ratings": {option: {dim: n|null}}}}
//	response: {"round": int, "question": Question|null, "state": obj,
//	           "decision": obj|null, "facts_completion": [FactsCompletionItem],
//	           "assumptions": [str]}
//
// The first call of a conversation sends state and last_answer as null and
// gets round 1 with a weights_sliders question. Answering it with weights
// yields round 2 and a ratings_matrix question. Answering that with
// option_ratings yields round 3, no question and a decision. Blank ratings
// are sent as null and completed by the backend with the neutral value 3;
// every completed cell is listed in facts_completion with source "default".
//
// state is opaque. The client stores it and sends it back unchanged; the only
// field it reads is state.facts (weights and option_ratings) to prefill forms
// and to build explain requests.
//
// POST /explain
//
//	request:  {"problem", "options", "facts": obj, "decision": obj,
//	           "facts_completion", "assumptions",
//	           "messages": [{"role": "system"|"user", "content": str}],
//	           "style": {"tone": str, "length": str}}
//	response: {"explanation": str, "highlights": [str], "followups": [str]}
//
// POST /decide
//
//	request:  {"problem": str, "options": [str],
//	           "facts": {"weights": {dim: n}, "option_ratings": {option: {dim: n}}}}
//	response: Decision
//
// GET /healthz
//
//	response: {"ok": true}
//
// Decision:
//
//	{"best_option": str,
//	 "score_breakdown": {"scale": str, "dimensions": [dim], "weights": {dim: n},
//	                     "per_option": [{"option", "score", "contributions", "ratings"}]},
//	 "assumptions": [str], "confidence": n}
//
// Dimensions are impact, cost, risk and reversibility. Ratings and weights
// use the 1-5 scale; for cost and risk a higher rating is worse.
