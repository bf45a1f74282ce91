package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"formbox/internal/db"
	"formbox/internal/logic"
	"formbox/internal/model"
	"formbox/internal/schema"
	"formbox/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

var (
	// ErrSessionNotFound is returned when a session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionNotActive is returned when an operation needs an ACTIVE
	// session but the session has already been submitted, cancelled or
	// expired.
	ErrSessionNotActive = errors.New("session is not active")

	// ErrUnknownQuestion is returned when an answer targets a question id the
	// form does not define.
	ErrUnknownQuestion = errors.New("question not found in form")

	// ErrFormHasNoSteps is returned when a session is requested for a form
	// whose configuration carries no steps.
	ErrFormHasNoSteps = errors.New("form has no steps to render")

	// ErrSubmissionNotFound is returned when a session has not produced a
	// submission yet.
	ErrSubmissionNotFound = errors.New("submission not found")
)

// SessionService drives rendering sessions: one filler working through one
// form version, answer by answer, step by step, until submission.
type SessionService struct {
	db      *db.Queries
	bus     EventBus
	jobs    JobClient
	schemas *schema.Compiler
	log     *zap.Logger
}

func NewSessionService(queries *db.Queries, bus EventBus, jobs JobClient, schemas *schema.Compiler, log *zap.Logger) *SessionService {
	return &SessionService{
		db:      queries,
		bus:     bus,
		jobs:    jobs,
		schemas: schemas,
		log:     log,
	}
}

// SessionView is the renderer-facing projection of a session: where the
// filler is, what they have answered, and which questions are visible under
// the current answers.
type SessionView struct {
	ID            string             `json:"id"`
	FormID        string             `json:"formId"`
	FormVersion   int                `json:"formVersion"`
	Status        string             `json:"status"`
	StepIndex     int                `json:"stepIndex"`
	LastStepIndex int                `json:"lastStepIndex"`
	Responses     model.FormResponse `json:"responses"`
	Visible       []string           `json:"visibleQuestionIds"`
	ExpiresAt     *time.Time         `json:"expiresAt,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

func buildView(sess db.Session, form *model.FormConfig) *SessionView {
	visibleSet := logic.VisibleSet(form, sess.Responses)
	visible := make([]string, 0, len(visibleSet))
	for _, step := range form.Steps {
		for _, q := range step.Questions {
			if visibleSet[q.ID] {
				visible = append(visible, q.ID)
			}
		}
	}
	return &SessionView{
		ID:            sess.ID,
		FormID:        sess.FormID,
		FormVersion:   sess.FormVersion,
		Status:        sess.Status,
		StepIndex:     sess.StepIndex,
		LastStepIndex: logic.LastStepIndex(form),
		Responses:     sess.Responses,
		Visible:       visible,
		ExpiresAt:     sess.ExpiresAt,
		CreatedAt:     sess.CreatedAt,
		UpdatedAt:     sess.UpdatedAt,
	}
}

type CreateSessionInput struct {
	FormID    string
	CreatedBy string
	TTL       time.Duration
}

func (s *SessionService) CreateSession(ctx context.Context, input CreateSessionInput) (*SessionView, error) {
	form, err := s.db.GetFormByID(ctx, input.FormID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFormNotFound
		}
		return nil, fmt.Errorf("failed to get form: %w", err)
	}
	if len(form.Config.Steps) == 0 {
		return nil, ErrFormHasNoSteps
	}

	var expiresAt *time.Time
	if input.TTL > 0 {
		t := time.Now().Add(input.TTL)
		expiresAt = &t
	}

	sess, err := s.db.CreateSession(ctx, db.CreateSessionParams{
		ID:          ulid.Make().String(),
		FormID:      form.ID,
		FormVersion: form.Version,
		Status:      string(model.SessionActive),
		CreatedBy:   input.CreatedBy,
		ExpiresAt:   expiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	// Compile the answer schema up front so the submit path hits the cache.
	if err := s.schemas.Prepare(&form.Config, form.Version); err != nil {
		s.log.Warn("Failed to prepare answer schema",
			zap.String("form_id", form.ID),
			zap.Error(err),
		)
	}

	if expiresAt != nil && s.jobs != nil {
		if err := s.jobs.ScheduleSessionExpiry(sess.ID, *expiresAt); err != nil {
			s.log.Warn("Failed to schedule session expiry",
				zap.String("session_id", sess.ID),
				zap.Error(err),
			)
		}
	}

	_ = s.bus.PublishSession(sess.ID, map[string]interface{}{
		"type":      "session.created",
		"sessionId": sess.ID,
		"formId":    form.ID,
	})

	s.log.Info("Session created",
		zap.String("session_id", sess.ID),
		zap.String("form_id", form.ID),
		zap.Int("form_version", form.Version),
	)
	return buildView(sess, &form.Config), nil
}

func (s *SessionService) GetSession(ctx context.Context, id string) (*SessionView, error) {
	sess, form, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return buildView(sess, &form.Config), nil
}

// UpdateAnswer records one answer and reconciles the whole response set:
// answers to questions hidden under the new set are discarded, cascading
// until visibility is stable. Setting a null answer clears the entry.
func (s *SessionService) UpdateAnswer(ctx context.Context, sessionID, questionID string, answer model.Answer) (*SessionView, error) {
	sess, form, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != string(model.SessionActive) {
		return nil, ErrSessionNotActive
	}
	if _, ok := form.Config.Question(questionID); !ok {
		return nil, ErrUnknownQuestion
	}

	if answer.Kind == model.KindFile && answer.File != nil {
		normalized, err := storage.NormalizeFile(*answer.File)
		if err != nil {
			return nil, fmt.Errorf("invalid file answer: %w", err)
		}
		answer.File = &normalized
	}

	merged := sess.Responses.With(questionID, answer)
	if answer.Kind == model.KindNull {
		delete(merged, questionID)
	}
	cleaned := logic.Reconcile(merged, &form.Config)

	if err := s.db.UpdateSessionResponses(ctx, sessionID, cleaned); err != nil {
		return nil, fmt.Errorf("failed to update responses: %w", err)
	}
	sess.Responses = cleaned

	view := buildView(sess, &form.Config)
	_ = s.bus.PublishSession(sessionID, map[string]interface{}{
		"type":       "session.updated",
		"sessionId":  sessionID,
		"questionId": questionID,
		"visible":    view.Visible,
	})
	return view, nil
}

// Next advances the session one step. On the last reachable step a successful
// Next submits the form: the reconciled answers are validated against the
// answer schema, snapshotted as a submission, and handed to background
// delivery if the form has a callback.
func (s *SessionService) Next(ctx context.Context, sessionID string) (*SessionView, error) {
	sess, form, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != string(model.SessionActive) {
		return nil, ErrSessionNotActive
	}

	next, submitted, err := logic.Next(&form.Config, sess.StepIndex, sess.Responses)
	if err != nil {
		return nil, err
	}

	if !submitted {
		if err := s.db.UpdateSessionStep(ctx, sessionID, next); err != nil {
			return nil, fmt.Errorf("failed to update step: %w", err)
		}
		sess.StepIndex = next

		view := buildView(sess, &form.Config)
		_ = s.bus.PublishSession(sessionID, map[string]interface{}{
			"type":      "session.step",
			"sessionId": sessionID,
			"stepIndex": next,
		})
		return view, nil
	}

	// Format checks apply to given answers only. Empty strings and lists on
	// optional questions passed the navigator; they carry no value worth
	// format-checking.
	given := make(model.FormResponse, len(sess.Responses))
	for id, a := range sess.Responses {
		if !a.Empty() {
			given[id] = a
		}
	}
	if err := s.schemas.Validate(&form.Config, sess.FormVersion, given); err != nil {
		return nil, err
	}

	sub, err := s.db.CreateSubmission(ctx, db.CreateSubmissionParams{
		ID:        ulid.Make().String(),
		SessionID: sessionID,
		FormID:    form.ID,
		FormTitle: form.Config.Title,
		Responses: sess.Responses,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	if err := s.db.UpdateSessionStatus(ctx, sessionID, string(model.SessionSubmitted)); err != nil {
		return nil, fmt.Errorf("failed to update session status: %w", err)
	}
	sess.Status = string(model.SessionSubmitted)

	if form.CallbackURL != nil && *form.CallbackURL != "" && s.jobs != nil {
		if err := s.jobs.ScheduleSubmissionDelivery(sub.ID); err != nil {
			s.log.Warn("Failed to schedule submission delivery",
				zap.String("submission_id", sub.ID),
				zap.Error(err),
			)
		}
	}

	view := buildView(sess, &form.Config)
	_ = s.bus.PublishSession(sessionID, map[string]interface{}{
		"type":         "session.submitted",
		"sessionId":    sessionID,
		"submissionId": sub.ID,
	})
	_ = s.bus.PublishForm(form.ID, map[string]interface{}{
		"type":         "form.submission",
		"formId":       form.ID,
		"submissionId": sub.ID,
	})

	s.log.Info("Session submitted",
		zap.String("session_id", sessionID),
		zap.String("submission_id", sub.ID),
	)
	return view, nil
}

// Previous steps the session back. Answers already given stay as they are.
func (s *SessionService) Previous(ctx context.Context, sessionID string) (*SessionView, error) {
	sess, form, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != string(model.SessionActive) {
		return nil, ErrSessionNotActive
	}

	prev, err := logic.Previous(&form.Config, sess.StepIndex)
	if err != nil {
		return nil, err
	}

	if err := s.db.UpdateSessionStep(ctx, sessionID, prev); err != nil {
		return nil, fmt.Errorf("failed to update step: %w", err)
	}
	sess.StepIndex = prev

	view := buildView(sess, &form.Config)
	_ = s.bus.PublishSession(sessionID, map[string]interface{}{
		"type":      "session.step",
		"sessionId": sessionID,
		"stepIndex": prev,
	})
	return view, nil
}

func (s *SessionService) CancelSession(ctx context.Context, sessionID string) (*SessionView, error) {
	sess, form, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != string(model.SessionActive) {
		return nil, ErrSessionNotActive
	}

	if err := s.db.UpdateSessionStatus(ctx, sessionID, string(model.SessionCancelled)); err != nil {
		return nil, fmt.Errorf("failed to cancel session: %w", err)
	}
	sess.Status = string(model.SessionCancelled)

	_ = s.bus.PublishSession(sessionID, map[string]interface{}{
		"type":      "session.cancelled",
		"sessionId": sessionID,
	})

	s.log.Info("Session cancelled", zap.String("session_id", sessionID))
	return buildView(sess, &form.Config), nil
}

func (s *SessionService) GetSubmission(ctx context.Context, sessionID string) (*db.Submission, error) {
	sub, err := s.db.GetSubmissionBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &sub, nil
}

func (s *SessionService) load(ctx context.Context, sessionID string) (db.Session, *db.Form, error) {
	sess, err := s.db.GetSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.Session{}, nil, ErrSessionNotFound
		}
		return db.Session{}, nil, fmt.Errorf("failed to get session: %w", err)
	}

	form, err := s.db.GetFormByID(ctx, sess.FormID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.Session{}, nil, ErrFormNotFound
		}
		return db.Session{}, nil, fmt.Errorf("failed to get form: %w", err)
	}
	return sess, &form, nil
}
