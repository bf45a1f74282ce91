package db

import (
	"context"
	"time"

	"formbox/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries wraps database queries
type Queries struct {
	*pgxpool.Pool
}

// NewQueries creates a new Queries instance
func NewQueries(pool *pgxpool.Pool) *Queries {
	return &Queries{Pool: pool}
}

// Form represents a stored form row. Config is the interchange document as
// structured data; the row carries the service-side fields (owner, callback,
// version) that are not part of the interchange contract.
type Form struct {
	ID          string
	CreatedBy   string
	Title       string
	Config      model.FormConfig
	Version     int
	CallbackURL *string
	DeletedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CreateFormParams struct {
	ID          string
	CreatedBy   string
	Config      model.FormConfig
	CallbackURL *string
}

func (q *Queries) CreateForm(ctx context.Context, p CreateFormParams) (Form, error) {
	var f Form
	err := q.Pool.QueryRow(ctx,
		`INSERT INTO forms (id, created_by, title, config, version, callback_url)
		VALUES ($1, $2, $3, $4, 1, $5)
		RETURNING id, created_by, title, config, version, callback_url, deleted_at, created_at, updated_at`,
		p.ID, p.CreatedBy, p.Config.Title, p.Config, p.CallbackURL,
	).Scan(
		&f.ID, &f.CreatedBy, &f.Title, &f.Config, &f.Version, &f.CallbackURL,
		&f.DeletedAt, &f.CreatedAt, &f.UpdatedAt,
	)
	return f, err
}

func (q *Queries) GetFormByID(ctx context.Context, id string) (Form, error) {
	var f Form
	err := q.Pool.QueryRow(ctx,
		`SELECT id, created_by, title, config, version, callback_url, deleted_at, created_at, updated_at
		FROM forms WHERE id = $1 AND deleted_at IS NULL`,
		id,
	).Scan(
		&f.ID, &f.CreatedBy, &f.Title, &f.Config, &f.Version, &f.CallbackURL,
		&f.DeletedAt, &f.CreatedAt, &f.UpdatedAt,
	)
	return f, err
}

// UpdateFormConfig replaces the stored configuration and bumps the version.
func (q *Queries) UpdateFormConfig(ctx context.Context, id string, config model.FormConfig, callbackURL *string) (Form, error) {
	var f Form
	err := q.Pool.QueryRow(ctx,
		`UPDATE forms
		SET config = $2, title = $3, callback_url = $4, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING id, created_by, title, config, version, callback_url, deleted_at, created_at, updated_at`,
		id, config, config.Title, callbackURL,
	).Scan(
		&f.ID, &f.CreatedBy, &f.Title, &f.Config, &f.Version, &f.CallbackURL,
		&f.DeletedAt, &f.CreatedAt, &f.UpdatedAt,
	)
	return f, err
}

func (q *Queries) SoftDeleteForm(ctx context.Context, id string) error {
	result, err := q.Pool.Exec(ctx,
		"UPDATE forms SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL",
		id,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (q *Queries) ListFormsByCreator(ctx context.Context, createdBy string, limit, offset int) ([]Form, error) {
	rows, err := q.Pool.Query(ctx,
		`SELECT id, created_by, title, config, version, callback_url, deleted_at, created_at, updated_at
		FROM forms
		WHERE created_by = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		createdBy, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	forms := make([]Form, 0)
	for rows.Next() {
		var f Form
		err := rows.Scan(
			&f.ID, &f.CreatedBy, &f.Title, &f.Config, &f.Version, &f.CallbackURL,
			&f.DeletedAt, &f.CreatedAt, &f.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		forms = append(forms, f)
	}
	return forms, rows.Err()
}

// Session represents a rendering session row.
type Session struct {
	ID          string
	FormID      string
	FormVersion int
	Status      string
	StepIndex   int
	Responses   model.FormResponse
	CreatedBy   string
	ExpiresAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CreateSessionParams struct {
	ID          string
	FormID      string
	FormVersion int
	Status      string
	CreatedBy   string
	ExpiresAt   *time.Time
}

func (q *Queries) CreateSession(ctx context.Context, p CreateSessionParams) (Session, error) {
	var s Session
	err := q.Pool.QueryRow(ctx,
		`INSERT INTO sessions (id, form_id, form_version, status, step_index, responses, created_by, expires_at)
		VALUES ($1, $2, $3, $4, 0, '{}'::jsonb, $5, $6)
		RETURNING id, form_id, form_version, status, step_index, responses, created_by, expires_at, created_at, updated_at`,
		p.ID, p.FormID, p.FormVersion, p.Status, p.CreatedBy, p.ExpiresAt,
	).Scan(
		&s.ID, &s.FormID, &s.FormVersion, &s.Status, &s.StepIndex, &s.Responses,
		&s.CreatedBy, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

func (q *Queries) GetSessionByID(ctx context.Context, id string) (Session, error) {
	var s Session
	err := q.Pool.QueryRow(ctx,
		`SELECT id, form_id, form_version, status, step_index, responses, created_by, expires_at, created_at, updated_at
		FROM sessions WHERE id = $1`,
		id,
	).Scan(
		&s.ID, &s.FormID, &s.FormVersion, &s.Status, &s.StepIndex, &s.Responses,
		&s.CreatedBy, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

// UpdateSessionResponses stores a reconciled response set.
func (q *Queries) UpdateSessionResponses(ctx context.Context, id string, responses model.FormResponse) error {
	_, err := q.Pool.Exec(ctx,
		"UPDATE sessions SET responses = $2, updated_at = NOW() WHERE id = $1",
		id, responses,
	)
	return err
}

func (q *Queries) UpdateSessionStep(ctx context.Context, id string, stepIndex int) error {
	_, err := q.Pool.Exec(ctx,
		"UPDATE sessions SET step_index = $2, updated_at = NOW() WHERE id = $1",
		id, stepIndex,
	)
	return err
}

func (q *Queries) UpdateSessionStatus(ctx context.Context, id, status string) error {
	_, err := q.Pool.Exec(ctx,
		"UPDATE sessions SET status = $2, updated_at = NOW() WHERE id = $1",
		id, status,
	)
	return err
}

// ExpireStaleSessions marks ACTIVE sessions whose expiry has passed and
// returns their ids.
func (q *Queries) ExpireStaleSessions(ctx context.Context) ([]string, error) {
	rows, err := q.Pool.Query(ctx,
		`UPDATE sessions SET status = 'EXPIRED', updated_at = NOW()
		WHERE status = 'ACTIVE' AND expires_at IS NOT NULL AND expires_at < NOW()
		RETURNING id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Submission represents a submitted, reconciled response snapshot.
type Submission struct {
	ID          string
	SessionID   string
	FormID      string
	FormTitle   string
	Responses   model.FormResponse
	SubmittedAt time.Time
	DeliveredAt *time.Time
}

type CreateSubmissionParams struct {
	ID        string
	SessionID string
	FormID    string
	FormTitle string
	Responses model.FormResponse
}

func (q *Queries) CreateSubmission(ctx context.Context, p CreateSubmissionParams) (Submission, error) {
	var s Submission
	err := q.Pool.QueryRow(ctx,
		`INSERT INTO submissions (id, session_id, form_id, form_title, responses)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, session_id, form_id, form_title, responses, submitted_at, delivered_at`,
		p.ID, p.SessionID, p.FormID, p.FormTitle, p.Responses,
	).Scan(
		&s.ID, &s.SessionID, &s.FormID, &s.FormTitle, &s.Responses,
		&s.SubmittedAt, &s.DeliveredAt,
	)
	return s, err
}

func (q *Queries) GetSubmissionByID(ctx context.Context, id string) (Submission, error) {
	var s Submission
	err := q.Pool.QueryRow(ctx,
		`SELECT id, session_id, form_id, form_title, responses, submitted_at, delivered_at
		FROM submissions WHERE id = $1`,
		id,
	).Scan(
		&s.ID, &s.SessionID, &s.FormID, &s.FormTitle, &s.Responses,
		&s.SubmittedAt, &s.DeliveredAt,
	)
	return s, err
}

func (q *Queries) GetSubmissionBySessionID(ctx context.Context, sessionID string) (Submission, error) {
	var s Submission
	err := q.Pool.QueryRow(ctx,
		`SELECT id, session_id, form_id, form_title, responses, submitted_at, delivered_at
		FROM submissions
		WHERE session_id = $1
		ORDER BY submitted_at DESC
		LIMIT 1`,
		sessionID,
	).Scan(
		&s.ID, &s.SessionID, &s.FormID, &s.FormTitle, &s.Responses,
		&s.SubmittedAt, &s.DeliveredAt,
	)
	return s, err
}

func (q *Queries) MarkSubmissionDelivered(ctx context.Context, id string) error {
	_, err := q.Pool.Exec(ctx,
		"UPDATE submissions SET delivered_at = NOW() WHERE id = $1",
		id,
	)
	return err
}

func (q *Queries) ListSubmissionsByForm(ctx context.Context, formID string, limit, offset int) ([]Submission, error) {
	rows, err := q.Pool.Query(ctx,
		`SELECT id, session_id, form_id, form_title, responses, submitted_at, delivered_at
		FROM submissions
		WHERE form_id = $1
		ORDER BY submitted_at DESC
		LIMIT $2 OFFSET $3`,
		formID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := make([]Submission, 0)
	for rows.Next() {
		var s Submission
		err := rows.Scan(
			&s.ID, &s.SessionID, &s.FormID, &s.FormTitle, &s.Responses,
			&s.SubmittedAt, &s.DeliveredAt,
		)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}
