package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"formbox/internal/logic"
	"formbox/internal/model"
	"formbox/internal/service"

	"github.com/go-chi/chi/v5"
)

type CreateSessionRequest struct {
	FormID     string `json:"formId"`
	TTLSeconds int    `json:"ttlSeconds,omitempty"`
}

func (d Dependencies) createSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}
	if req.FormID == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "formId required", d.Log)
		return
	}

	view, err := d.Sessions.CreateSession(r.Context(), service.CreateSessionInput{
		FormID:    req.FormID,
		CreatedBy: clientOrAnonymous(r),
		TTL:       time.Duration(req.TTLSeconds) * time.Second,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFormNotFound):
			WriteError(w, http.StatusNotFound, "not_found", "Form not found", d.Log)
		case errors.Is(err, service.ErrFormHasNoSteps):
			WriteError(w, http.StatusUnprocessableEntity, "empty_form", err.Error(), d.Log)
		default:
			WriteError(w, http.StatusInternalServerError, "create_failed", err.Error(), d.Log)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(view)
}

func (d Dependencies) getSession(w http.ResponseWriter, r *http.Request) {
	view, err := d.Sessions.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "Session not found", d.Log)
			return
		}
		WriteError(w, http.StatusInternalServerError, "query_failed", err.Error(), d.Log)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

// updateAnswer accepts {"value": <answer>} where the answer is any of the
// supported value shapes, null included to clear an entry.
func (d Dependencies) updateAnswer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value interface{} `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	answer, err := model.AnswerFrom(body.Value)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_answer", err.Error(), d.Log)
		return
	}

	view, err := d.Sessions.UpdateAnswer(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "questionId"), answer)
	if err != nil {
		d.writeSessionError(w, err, "answer_failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func (d Dependencies) nextStep(w http.ResponseWriter, r *http.Request) {
	view, err := d.Sessions.Next(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		d.writeSessionError(w, err, "next_failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func (d Dependencies) previousStep(w http.ResponseWriter, r *http.Request) {
	view, err := d.Sessions.Previous(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		d.writeSessionError(w, err, "previous_failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func (d Dependencies) cancelSession(w http.ResponseWriter, r *http.Request) {
	view, err := d.Sessions.CancelSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		d.writeSessionError(w, err, "cancel_failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func (d Dependencies) getSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := d.Sessions.GetSubmission(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, service.ErrSubmissionNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "Submission not found", d.Log)
			return
		}
		WriteError(w, http.StatusInternalServerError, "query_failed", err.Error(), d.Log)
		return
	}

	item := map[string]interface{}{
		"id":          sub.ID,
		"sessionId":   sub.SessionID,
		"formId":      sub.FormID,
		"formTitle":   sub.FormTitle,
		"responses":   sub.Responses,
		"submittedAt": sub.SubmittedAt.Format(time.RFC3339),
	}
	if sub.DeliveredAt != nil {
		item["deliveredAt"] = sub.DeliveredAt.Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}

// writeSessionError maps service and navigation errors onto HTTP statuses.
func (d Dependencies) writeSessionError(w http.ResponseWriter, err error, fallbackCode string) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrFormNotFound):
		WriteError(w, http.StatusNotFound, "not_found", err.Error(), d.Log)
	case errors.Is(err, service.ErrSessionNotActive):
		WriteError(w, http.StatusConflict, "session_not_active", err.Error(), d.Log)
	case errors.Is(err, service.ErrUnknownQuestion):
		WriteError(w, http.StatusNotFound, "unknown_question", err.Error(), d.Log)
	case errors.Is(err, logic.ErrIncompleteStep):
		WriteError(w, http.StatusUnprocessableEntity, "incomplete_step", err.Error(), d.Log)
	case errors.Is(err, logic.ErrBackDisabled):
		WriteError(w, http.StatusForbidden, "back_disabled", err.Error(), d.Log)
	case errors.Is(err, logic.ErrAtFirstStep):
		WriteError(w, http.StatusConflict, "at_first_step", err.Error(), d.Log)
	default:
		WriteError(w, http.StatusBadRequest, fallbackCode, err.Error(), d.Log)
	}
}
