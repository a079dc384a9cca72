// Package session runs the questionnaire flow of a conversation: it sends
// answers to the backend, merges the responses into the stored conversation
// and persists the result.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/diogo/choicemate/internal/api"
	apierrors "github.com/diogo/choicemate/internal/errors"
	"github.com/diogo/choicemate/internal/forms"
	"github.com/diogo/choicemate/internal/history"
	"github.com/diogo/choicemate/internal/models"
)

// Service owns the page handlers of the conversation flow
type Service struct {
	client api.ClientInterface
	store  *history.Store
	logger *zap.Logger
	style  models.ExplainStyle
	now    func() time.Time
	newID  func() string
	msgID  func() string
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithExplainStyle sets the style sent with explain requests
func WithExplainStyle(style models.ExplainStyle) Option {
	return func(s *Service) {
		s.style = style
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator replaces the conversation ID generator, for tests.
// Message IDs keep their own generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

// New creates a Service
func New(client api.ClientInterface, store *history.Store, opts ...Option) *Service {
	s := &Service{
		client: client,
		store:  store,
		logger: zap.NewNop(),
		style:  models.DefaultExplainStyle(),
		now:    time.Now,
		newID:  uuid.NewString,
		msgID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the conversation store
func (s *Service) Store() *history.Store {
	return s.store
}

func (s *Service) millis() int64 {
	return s.now().UnixMilli()
}

func (s *Service) message(role string, content history.MessageContent) history.Message {
	return history.Message{
		ID:      s.msgID(),
		Role:    role,
		Content: content,
		TS:      s.millis(),
	}
}

func (s *Service) questionMessage(q *models.Question) history.Message {
	return s.message(models.RoleSystem, history.MessageContent{Type: models.ContentQuestion, Question: q})
}

// DecisionMessage builds the system message recording a decision
func (s *Service) DecisionMessage(decision json.RawMessage) history.Message {
	return s.message(models.RoleSystem, history.MessageContent{
		Type:     models.ContentDecision,
		Summary:  models.DecisionSummary(decision),
		Decision: decision,
	})
}

// Create starts a conversation. Nothing is stored unless the backend answers.
func (s *Service) Create(ctx context.Context, problem string, options []string) (*history.Conversation, error) {
	problem, options, err := forms.ValidateNew(problem, options)
	if err != nil {
		return nil, err
	}

	id := s.newID()
	created := s.millis()

	resp, err := s.client.QuestionnaireNext(ctx, models.QuestionnaireRequest{
		Problem: problem,
		Options: options,
	})
	if err != nil {
		s.logger.Debug("create failed", zap.Error(err))
		return nil, err
	}

	conv := &history.Conversation{
		ID:        id,
		CreatedAt: created,
		UpdatedAt: created,
		Problem:   problem,
		Options:   options,
		Messages:  []history.Message{},
	}
	merge(conv, resp, s.millis())
	conv.Messages = append(conv.Messages, s.questionMessage(resp.Question))

	if err := s.store.Upsert(conv); err != nil {
		return nil, err
	}

	s.logger.Info("conversation created",
		zap.String("id", conv.ID),
		zap.Int("options", len(options)),
		zap.Int("round", conv.Round))
	return conv, nil
}

// SubmitWeights answers the round 1 question
func (s *Service) SubmitWeights(ctx context.Context, id string, weights models.Weights) (*history.Conversation, error) {
	conv, err := s.store.MustGet(id)
	if err != nil {
		return nil, err
	}
	if q := CurrentQuestion(conv.Messages); q.IsWeights() {
		if err := forms.ValidateWeights(q.Dimensions, weights); err != nil {
			return nil, err
		}
	}

	userMsg := s.message(models.RoleUser, history.MessageContent{Type: models.ContentWeights, Weights: weights})
	return s.advance(ctx, conv, userMsg, &models.Answer{Weights: weights}, false)
}

// SubmitRatings answers the round 2 question
func (s *Service) SubmitRatings(ctx context.Context, id string, ratings models.OptionRatings) (*history.Conversation, error) {
	conv, err := s.store.MustGet(id)
	if err != nil {
		return nil, err
	}

	userMsg := s.message(models.RoleUser, history.MessageContent{Type: models.ContentOptionRatings, OptionRatings: ratings})
	return s.advance(ctx, conv, userMsg, &models.Answer{OptionRatings: ratings}, true)
}

// advance sends one answer. The stored conversation only changes once the
// backend has answered successfully.
func (s *Service) advance(ctx context.Context, conv *history.Conversation, userMsg history.Message, answer *models.Answer, recordDecision bool) (*history.Conversation, error) {
	resp, err := s.client.QuestionnaireNext(ctx, models.QuestionnaireRequest{
		Problem:    conv.Problem,
		Options:    conv.Options,
		State:      conv.State,
		LastAnswer: answer,
	})
	if err != nil {
		s.logger.Debug("questionnaire request failed",
			zap.String("id", conv.ID),
			zap.Int("round", conv.Round),
			zap.Error(err))
		return nil, err
	}

	next := conv.Clone()
	next.Messages = append(next.Messages, userMsg)
	if resp.Question != nil {
		next.Messages = append(next.Messages, s.questionMessage(resp.Question))
	}
	if recordDecision && resp.HasDecision() {
		next.Messages = append(next.Messages, s.DecisionMessage(resp.Decision))
	}
	merge(next, resp, s.millis())

	if err := s.store.Upsert(next); err != nil {
		return nil, err
	}

	s.logger.Info("conversation advanced",
		zap.String("id", next.ID),
		zap.Int("round", next.Round),
		zap.Bool("decided", next.HasDecision()))
	return next, nil
}

// merge copies the backend-owned fields of resp into conv
func merge(conv *history.Conversation, resp *models.QuestionnaireResponse, updated int64) {
	conv.UpdatedAt = updated
	conv.Round = resp.Round
	conv.State = models.NormalizeJSON(resp.State)
	conv.Decision = models.NormalizeJSON(resp.Decision)
	conv.FactsCompletion = resp.FactsCompletion
	if conv.FactsCompletion == nil {
		conv.FactsCompletion = []models.FactsCompletionItem{}
	}
	conv.Assumptions = resp.Assumptions
	if conv.Assumptions == nil {
		conv.Assumptions = []string{}
	}
}

// Explain asks the backend to explain the conversation's decision.
// The result is returned to the caller and not stored.
func (s *Service) Explain(ctx context.Context, id string) (*models.ExplainResponse, error) {
	conv, err := s.store.MustGet(id)
	if err != nil {
		return nil, err
	}
	if !conv.HasDecision() {
		return nil, apierrors.ErrNoDecision
	}

	resp, err := s.client.Explain(ctx, s.BuildExplainRequest(conv))
	if err != nil {
		s.logger.Debug("explain failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return resp, nil
}

// BuildExplainRequest assembles the explain payload for conv
func (s *Service) BuildExplainRequest(conv *history.Conversation) models.ExplainRequest {
	messages := conv.Messages
	if !hasDecisionMessage(messages) {
		messages = append(append([]history.Message{}, messages...), s.DecisionMessage(conv.Decision))
	}

	flat := make([]models.ExplainMessage, 0, len(messages))
	for _, m := range messages {
		flat = append(flat, models.ExplainMessage{Role: m.Role, Content: flattenContent(m.Content)})
	}

	return models.ExplainRequest{
		Problem:         conv.Problem,
		Options:         conv.Options,
		Facts:           Facts(conv.State),
		Decision:        conv.Decision,
		FactsCompletion: conv.FactsCompletion,
		Assumptions:     conv.Assumptions,
		Messages:        flat,
		Style:           s.style,
	}
}

// Decide re-scores the conversation's stored facts with /decide. It needs the
// weights and ratings recorded in state.facts. The result is not stored.
func (s *Service) Decide(ctx context.Context, id string) (json.RawMessage, error) {
	conv, err := s.store.MustGet(id)
	if err != nil {
		return nil, err
	}
	if forms.StoredWeights(conv.State) == nil || forms.StoredRatings(conv.State) == nil {
		return nil, apierrors.NewValidationError("facts", "weights and ratings must be answered first")
	}

	return s.client.Decide(ctx, models.DecideRequest{
		Problem: conv.Problem,
		Options: conv.Options,
		Facts:   Facts(conv.State),
	})
}

func hasDecisionMessage(messages []history.Message) bool {
	for _, m := range messages {
		if m.IsDecision() {
			return true
		}
	}
	return false
}

// flattenContent renders content as the string sent to the explainer:
// plain strings as they are, anything else as JSON.
func flattenContent(c history.MessageContent) string {
	if c.Type == "" && c.Text != "" {
		return c.Text
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Sprint(c)
	}
	return string(data)
}
