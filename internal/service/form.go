package service

import (
	"context"
	"errors"
	"fmt"

	"formbox/internal/codec"
	"formbox/internal/db"
	"formbox/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// ErrFormNotFound is returned when a form does not exist or has been deleted.
var ErrFormNotFound = errors.New("form not found")

// FormService handles form authoring operations.
type FormService struct {
	db  *db.Queries
	bus EventBus
	log *zap.Logger
}

func NewFormService(queries *db.Queries, bus EventBus, log *zap.Logger) *FormService {
	return &FormService{
		db:  queries,
		bus: bus,
		log: log,
	}
}

type CreateFormInput struct {
	CreatedBy   string
	Config      *model.FormConfig
	CallbackURL *string
}

func (s *FormService) CreateForm(ctx context.Context, input CreateFormInput) (*db.Form, error) {
	if input.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if input.Config.ID == "" {
		input.Config.ID = ulid.Make().String()
	}
	if input.Config.Title == "" {
		input.Config.Title = "Untitled Form"
	}

	form, err := s.db.CreateForm(ctx, db.CreateFormParams{
		ID:          input.Config.ID,
		CreatedBy:   input.CreatedBy,
		Config:      *input.Config,
		CallbackURL: input.CallbackURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create form: %w", err)
	}

	_ = s.bus.PublishForm(form.ID, map[string]interface{}{
		"type":   "form.created",
		"formId": form.ID,
	})

	s.log.Info("Form created",
		zap.String("form_id", form.ID),
		zap.String("created_by", input.CreatedBy),
	)
	return &form, nil
}

func (s *FormService) GetForm(ctx context.Context, id string) (*db.Form, error) {
	form, err := s.db.GetFormByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFormNotFound
		}
		return nil, fmt.Errorf("failed to get form: %w", err)
	}
	return &form, nil
}

type UpdateFormInput struct {
	Config      *model.FormConfig
	CallbackURL *string
}

// UpdateForm replaces the form's configuration. The stored version is bumped
// so renderers pinned to the previous version keep validating against it.
func (s *FormService) UpdateForm(ctx context.Context, id string, input UpdateFormInput) (*db.Form, error) {
	if input.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	input.Config.ID = id

	form, err := s.db.UpdateFormConfig(ctx, id, *input.Config, input.CallbackURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFormNotFound
		}
		return nil, fmt.Errorf("failed to update form: %w", err)
	}

	_ = s.bus.PublishForm(form.ID, map[string]interface{}{
		"type":    "form.updated",
		"formId":  form.ID,
		"version": form.Version,
	})

	s.log.Info("Form updated",
		zap.String("form_id", form.ID),
		zap.Int("version", form.Version),
	)
	return &form, nil
}

func (s *FormService) DeleteForm(ctx context.Context, id string) error {
	if err := s.db.SoftDeleteForm(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrFormNotFound
		}
		return fmt.Errorf("failed to delete form: %w", err)
	}

	_ = s.bus.PublishForm(id, map[string]interface{}{
		"type":   "form.deleted",
		"formId": id,
	})

	s.log.Info("Form deleted", zap.String("form_id", id))
	return nil
}

func (s *FormService) ListForms(ctx context.Context, createdBy string, limit, offset int) ([]db.Form, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	forms, err := s.db.ListFormsByCreator(ctx, createdBy, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}
	return forms, nil
}

// ImportForm decodes an interchange document and stores it as a new form.
// The codec's typed errors pass through so callers can distinguish malformed
// text from a structurally invalid configuration.
func (s *FormService) ImportForm(ctx context.Context, createdBy string, data []byte, callbackURL *string) (*db.Form, error) {
	config, err := codec.Decode(data)
	if err != nil {
		return nil, err
	}
	return s.CreateForm(ctx, CreateFormInput{
		CreatedBy:   createdBy,
		Config:      config,
		CallbackURL: callbackURL,
	})
}

// ExportForm renders the stored configuration as the interchange document.
func (s *FormService) ExportForm(ctx context.Context, id string) ([]byte, error) {
	form, err := s.GetForm(ctx, id)
	if err != nil {
		return nil, err
	}
	return codec.Encode(&form.Config)
}

// LintForm runs the strict consistency pass over a stored form.
func (s *FormService) LintForm(ctx context.Context, id string) ([]codec.Issue, error) {
	form, err := s.GetForm(ctx, id)
	if err != nil {
		return nil, err
	}
	return codec.Lint(&form.Config), nil
}

func (s *FormService) ListSubmissions(ctx context.Context, formID string, limit, offset int) ([]db.Submission, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	subs, err := s.db.ListSubmissionsByForm(ctx, formID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return subs, nil
}
