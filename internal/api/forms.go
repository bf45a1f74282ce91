package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"formbox/internal/auth"
	"formbox/internal/codec"
	"formbox/internal/db"
	"formbox/internal/model"
	"formbox/internal/service"

	"github.com/go-chi/chi/v5"
)

type FormRequest struct {
	Config      *model.FormConfig `json:"config"`
	CallbackURL *string           `json:"callbackUrl,omitempty"`
}

func formJSON(f *db.Form) map[string]interface{} {
	out := map[string]interface{}{
		"id":        f.ID,
		"title":     f.Title,
		"config":    f.Config,
		"version":   f.Version,
		"createdBy": f.CreatedBy,
		"createdAt": f.CreatedAt.Format(time.RFC3339),
		"updatedAt": f.UpdatedAt.Format(time.RFC3339),
	}
	if f.CallbackURL != nil {
		out["callbackUrl"] = *f.CallbackURL
	}
	return out
}

func clientOrAnonymous(r *http.Request) string {
	if id := auth.GetClientID(r.Context()); id != "" {
		return id
	}
	return "anonymous"
}

func (d Dependencies) createForm(w http.ResponseWriter, r *http.Request) {
	var req FormRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	form, err := d.Forms.CreateForm(r.Context(), service.CreateFormInput{
		CreatedBy:   clientOrAnonymous(r),
		Config:      req.Config,
		CallbackURL: req.CallbackURL,
	})
	if err != nil {
		WriteError(w, http.StatusBadRequest, "create_failed", err.Error(), d.Log)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(formJSON(form))
}

func (d Dependencies) getForm(w http.ResponseWriter, r *http.Request) {
	form, err := d.Forms.GetForm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, service.ErrFormNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "Form not found", d.Log)
			return
		}
		WriteError(w, http.StatusInternalServerError, "query_failed", err.Error(), d.Log)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(formJSON(form))
}

func (d Dependencies) updateForm(w http.ResponseWriter, r *http.Request) {
	var req FormRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	form, err := d.Forms.UpdateForm(r.Context(), chi.URLParam(r, "id"), service.UpdateFormInput{
		Config:      req.Config,
		CallbackURL: req.CallbackURL,
	})
	if err != nil {
		if errors.Is(err, service.ErrFormNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "Form not found", d.Log)
			return
		}
		WriteError(w, http.StatusBadRequest, "update_failed", err.Error(), d.Log)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(formJSON(form))
}

func (d Dependencies) deleteForm(w http.ResponseWriter, r *http.Request) {
	if err := d.Forms.DeleteForm(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, service.ErrFormNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "Form not found", d.Log)
			return
		}
		WriteError(w, http.StatusInternalServerError, "delete_failed", err.Error(), d.Log)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "DELETED"})
}

func (d Dependencies) listForms(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	forms, err := d.Forms.ListForms(r.Context(), clientOrAnonymous(r), limit, offset)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "query_failed", err.Error(), d.Log)
		return
	}

	items := make([]map[string]interface{}, 0, len(forms))
	for i := range forms {
		items = append(items, formJSON(&forms[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"items": items})
}

// importForm accepts a raw interchange document as the request body. The
// codec's error split drives the status code: text that is not the format at
// all is a 400, a document that parses but is not a form is a 422.
func (d Dependencies) importForm(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Failed to read request body", d.Log)
		return
	}

	var callbackURL *string
	if cb := r.URL.Query().Get("callbackUrl"); cb != "" {
		callbackURL = &cb
	}

	form, err := d.Forms.ImportForm(r.Context(), clientOrAnonymous(r), data, callbackURL)
	if err != nil {
		var parseErr *codec.ParseError
		var validationErr *codec.ValidationError
		switch {
		case errors.As(err, &parseErr):
			WriteError(w, http.StatusBadRequest, "malformed_document", parseErr.Error(), d.Log)
		case errors.As(err, &validationErr):
			WriteError(w, http.StatusUnprocessableEntity, "invalid_configuration", validationErr.Error(), d.Log)
		default:
			WriteError(w, http.StatusInternalServerError, "import_failed", err.Error(), d.Log)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(formJSON(form))
}

func (d Dependencies) exportForm(w http.ResponseWriter, r *http.Request) {
	data, err := d.Forms.ExportForm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, service.ErrFormNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "Form not found", d.Log)
			return
		}
		WriteError(w, http.StatusInternalServerError, "export_failed", err.Error(), d.Log)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (d Dependencies) lintForm(w http.ResponseWriter, r *http.Request) {
	issues, err := d.Forms.LintForm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, service.ErrFormNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "Form not found", d.Log)
			return
		}
		WriteError(w, http.StatusInternalServerError, "lint_failed", err.Error(), d.Log)
		return
	}
	if issues == nil {
		issues = []codec.Issue{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"issues": issues})
}

func (d Dependencies) listSubmissions(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	subs, err := d.Forms.ListSubmissions(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "query_failed", err.Error(), d.Log)
		return
	}

	items := make([]map[string]interface{}, 0, len(subs))
	for _, s := range subs {
		item := map[string]interface{}{
			"id":          s.ID,
			"sessionId":   s.SessionID,
			"formId":      s.FormID,
			"formTitle":   s.FormTitle,
			"responses":   s.Responses,
			"submittedAt": s.SubmittedAt.Format(time.RFC3339),
		}
		if s.DeliveredAt != nil {
			item["deliveredAt"] = s.DeliveredAt.Format(time.RFC3339)
		}
		items = append(items, item)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"items": items})
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
