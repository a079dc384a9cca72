package api

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/diogo/choicemate/internal/models"
)

// MockClient is a mock implementation of ClientInterface for testing
type MockClient struct {
	mu sync.Mutex

	// Mock return values. QuestionnaireResponses is consumed in order; once
	// exhausted the last entry is repeated.
	QuestionnaireResponses []*models.QuestionnaireResponse
	QuestionnaireErr       error
	ExplainVal             *models.ExplainResponse
	ExplainErr             error
	DecideVal              json.RawMessage
	DecideErr              error
	HealthVal              *models.HealthResponse
	HealthErr              error
	BaseURLVal             string

	// Call recorders
	QuestionnaireRequests []models.QuestionnaireRequest
	ExplainRequests       []models.ExplainRequest
	DecideRequests        []models.DecideRequest
	HealthCalls           int
}

var _ ClientInterface = (*MockClient)(nil)

func (m *MockClient) QuestionnaireNext(_ context.Context, req models.QuestionnaireRequest) (*models.QuestionnaireResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.QuestionnaireRequests = append(m.QuestionnaireRequests, req)
	if m.QuestionnaireErr != nil {
		return nil, m.QuestionnaireErr
	}
	if len(m.QuestionnaireResponses) == 0 {
		return &models.QuestionnaireResponse{}, nil
	}
	i := len(m.QuestionnaireRequests) - 1
	if i >= len(m.QuestionnaireResponses) {
		i = len(m.QuestionnaireResponses) - 1
	}
	return m.QuestionnaireResponses[i], nil
}

func (m *MockClient) Explain(_ context.Context, req models.ExplainRequest) (*models.ExplainResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ExplainRequests = append(m.ExplainRequests, req)
	if m.ExplainErr != nil {
		return nil, m.ExplainErr
	}
	if m.ExplainVal == nil {
		return &models.ExplainResponse{}, nil
	}
	return m.ExplainVal, nil
}

func (m *MockClient) Decide(_ context.Context, req models.DecideRequest) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DecideRequests = append(m.DecideRequests, req)
	return m.DecideVal, m.DecideErr
}

func (m *MockClient) Health(context.Context) (*models.HealthResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.HealthCalls++
	if m.HealthErr != nil {
		return nil, m.HealthErr
	}
	if m.HealthVal == nil {
		return &models.HealthResponse{OK: true}, nil
	}
	return m.HealthVal, nil
}

func (m *MockClient) BaseURL() string {
	return m.BaseURLVal
}
