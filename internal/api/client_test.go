package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	http "github.com/bogdanfinn/fhttp"

	apierrors "github.com/diogo/choicemate/internal/errors"
	"github.com/diogo/choicemate/internal/models"
)

// fakeDoer answers every request with a canned response and records the request
type fakeDoer struct {
	status int
	body   string
	err    error
	doFunc func(req *http.Request) (*http.Response, error)

	requests []*http.Request
	bodies   []string
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.requests = append(f.requests, req)
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		f.bodies = append(f.bodies, string(data))
	}
	if f.doFunc != nil {
		return f.doFunc(req)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &http.Response{
		StatusCode: f.status,
		Body:       io.NopCloser(strings.NewReader(f.body)),
		Header:     make(http.Header),
	}, nil
}

func newTestClient(t *testing.T, baseURL string, doer HTTPDoer) *Client {
	t.Helper()
	c, err := NewClient(baseURL, WithHTTPClient(doer), WithTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func TestNewClient_TrimsBaseURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://localhost:8000/", "http://localhost:8000"},
		{"http://localhost:8000", "http://localhost:8000"},
		{"  https://api.example.com/v1/ ", "https://api.example.com/v1"},
		{"", ""},
	}
	for _, tt := range tests {
		c := newTestClient(t, tt.in, &fakeDoer{})
		if got := c.BaseURL(); got != tt.want {
			t.Errorf("BaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewClient_DefaultTransport(t *testing.T) {
	c, err := NewClient("http://localhost:8000")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if c.httpClient == nil {
		t.Fatal("expected a default HTTP client")
	}
}

func TestClient_NotConfigured(t *testing.T) {
	doer := &fakeDoer{status: 200, body: `{}`}
	c := newTestClient(t, "", doer)

	_, err := c.QuestionnaireNext(context.Background(), models.QuestionnaireRequest{})
	if !apierrors.IsNotConfigured(err) {
		t.Fatalf("expected not-configured error, got %v", err)
	}
	if apierrors.GetHTTPStatus(err) != 0 {
		t.Errorf("status = %d, want 0", apierrors.GetHTTPStatus(err))
	}
	if len(doer.requests) != 0 {
		t.Error("no request should be sent without a base URL")
	}
}

func TestClient_QuestionnaireNext(t *testing.T) {
	doer := &fakeDoer{status: 200, body: `{
		"round": 1,
		"question": {"type": "weights_sliders", "prompt": "Weigh it",
			"dimensions": [{"key": "impact", "label": "Impact", "min": 1, "max": 5, "default": 3}]},
		"state": {"round": 1, "facts": {}},
		"decision": null,
		"facts_completion": [],
		"assumptions": []
	}`}
	c := newTestClient(t, "http://backend/", doer)

	resp, err := c.QuestionnaireNext(context.Background(), models.QuestionnaireRequest{
		Problem: "p",
		Options: []string{"a", "b"},
	})
	if err != nil {
		t.Fatalf("QuestionnaireNext failed: %v", err)
	}

	req := doer.requests[0]
	if req.Method != http.MethodPost {
		t.Errorf("method = %s", req.Method)
	}
	if got := req.URL.String(); got != "http://backend/questionnaire/next" {
		t.Errorf("url = %s", got)
	}
	if ct := req.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var sent map[string]any
	if err := json.Unmarshal([]byte(doer.bodies[0]), &sent); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	for _, key := range []string{"state", "last_answer"} {
		v, ok := sent[key]
		if !ok || v != nil {
			t.Errorf("%s should be sent as explicit null, got %v (present=%v)", key, v, ok)
		}
	}

	if resp.Round != 1 || !resp.Question.IsWeights() {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Decision != nil {
		t.Errorf("null decision should normalize to nil, got %s", resp.Decision)
	}
	if resp.HasDecision() {
		t.Error("HasDecision should be false")
	}
}

func TestClient_Explain(t *testing.T) {
	doer := &fakeDoer{status: 200, body: `{"explanation":"Because.","highlights":["h1"],"followups":["f1","f2"]}`}
	c := newTestClient(t, "http://backend", doer)

	resp, err := c.Explain(context.Background(), models.ExplainRequest{Style: models.DefaultExplainStyle()})
	if err != nil {
		t.Fatalf("Explain failed: %v", err)
	}
	if resp.Explanation != "Because." || len(resp.Followups) != 2 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if !strings.Contains(doer.bodies[0], `"style":{"tone":"clear","length":"medium"}`) {
		t.Errorf("style not sent: %s", doer.bodies[0])
	}
	if got := doer.requests[0].URL.Path; got != "/explain" {
		t.Errorf("path = %s", got)
	}
}

func TestClient_DecideAndHealth(t *testing.T) {
	doer := &fakeDoer{status: 200, body: `{"best_option":"a"}`}
	c := newTestClient(t, "http://backend", doer)

	raw, err := c.Decide(context.Background(), models.DecideRequest{Problem: "p", Options: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if models.ParseDecision(raw).BestOption != "a" {
		t.Errorf("decision = %s", raw)
	}

	doer.body = `{"ok":true}`
	health, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if !health.OK {
		t.Error("expected ok")
	}
	req := doer.requests[1]
	if req.Method != http.MethodGet || req.URL.Path != "/healthz" {
		t.Errorf("health request = %s %s", req.Method, req.URL.Path)
	}
}

func TestClient_ErrorResponses(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantMsg    string
		wantInline bool
		wantString string
	}{
		{"detail string", 400, `{"detail":"problem is required"}`, "problem is required", true, ""},
		{"detail array", 422, `{"detail":[{"loc":["body","options"],"msg":"field required"},{"msg":"too short"}]}`,
			"field required; too short", true, ""},
		{"detail array without msg", 422, `{"detail":[{"loc":["x"]}]}`, `{"loc":["x"]}`, true, ""},
		{"error field", 500, `{"error":"boom"}`, "boom", false, ""},
		{"unknown object", 502, `{"code": 7}`, `{"code":7}`, false, ""},
		{"plain text", 503, `Service Unavailable`, "Service Unavailable", false, "Service Unavailable"},
		{"empty body", 500, ``, "request failed", false, ""},
		{"json string", 400, `"bad input"`, "bad input", true, "bad input"},
		{"json null", 404, `null`, "request failed", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, "http://backend", &fakeDoer{status: tt.status, body: tt.body})

			_, err := c.QuestionnaireNext(context.Background(), models.QuestionnaireRequest{})
			var apiErr *apierrors.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T: %v", err, err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if apiErr.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", apiErr.Message, tt.wantMsg)
			}
			if apiErr.Endpoint != models.EndpointQuestionnaireNext {
				t.Errorf("endpoint = %q", apiErr.Endpoint)
			}
			if apierrors.IsInline(err) != tt.wantInline {
				t.Errorf("IsInline = %v, want %v", apierrors.IsInline(err), tt.wantInline)
			}
			if tt.wantString != "" && apiErr.Payload != tt.wantString {
				t.Errorf("payload = %#v, want %q", apiErr.Payload, tt.wantString)
			}
		})
	}
}

func TestClient_TransportErrors(t *testing.T) {
	t.Run("network", func(t *testing.T) {
		c := newTestClient(t, "http://backend", &fakeDoer{err: errors.New("connection refused")})
		_, err := c.Explain(context.Background(), models.ExplainRequest{})
		if !apierrors.IsNetworkError(err) {
			t.Fatalf("expected network error, got %v", err)
		}
		if apierrors.IsInline(err) {
			t.Error("network errors are never inline")
		}
	})

	t.Run("timeout", func(t *testing.T) {
		doer := &fakeDoer{doFunc: func(req *http.Request) (*http.Response, error) {
			<-req.Context().Done()
			return nil, req.Context().Err()
		}}
		c, err := NewClient("http://backend", WithHTTPClient(doer), WithTimeout(20*time.Millisecond))
		if err != nil {
			t.Fatal(err)
		}
		_, err = c.Health(context.Background())
		if !apierrors.IsTimeoutError(err) {
			t.Fatalf("expected timeout error, got %v", err)
		}
	})
}

func TestClient_InvalidSuccessBody(t *testing.T) {
	c := newTestClient(t, "http://backend", &fakeDoer{status: 200, body: `<html>oops</html>`})
	_, err := c.QuestionnaireNext(context.Background(), models.QuestionnaireRequest{})
	if !errors.Is(err, apierrors.ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "request failed"},
		{"false", "request failed"},
		{`""`, "request failed"},
		{`{"detail":"x","error":"y"}`, "x"},
		{`{"detail":{"nested":true},"error":"y"}`, "y"},
		{`{"detail":[]}`, ""},
		{`[1, 2]`, "[1,2]"},
	}
	for _, tt := range tests {
		if got := ErrorMessage(tt.in); got != tt.want {
			t.Errorf("ErrorMessage(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
