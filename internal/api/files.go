package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"formbox/internal/storage"
)

// signFile hands out upload and download URLs for a file answer. The size
// check happens here so an oversized upload is rejected before any bytes
// move.
func (d Dependencies) signFile(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	contentType := r.URL.Query().Get("contentType")
	sizeStr := r.URL.Query().Get("size")

	if name == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "name parameter required", d.Log)
		return
	}

	if sizeStr != "" {
		size, err := strconv.ParseInt(sizeStr, 10, 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_size", "Invalid file size parameter", d.Log)
			return
		}
		if size > storage.MaxFileSize {
			WriteError(w, http.StatusBadRequest, "file_too_large", "File exceeds maximum size", d.Log)
			return
		}
	}

	putURL, err := d.Storage.PresignPut(r.Context(), name, contentType, 15*time.Minute)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "url_generation_failed", "Failed to generate presigned URL", d.Log)
		return
	}

	getURL, err := d.Storage.PresignGet(r.Context(), name, 24*time.Hour)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "url_generation_failed", "Failed to generate presigned URL", d.Log)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"putUrl": putURL,
		"getUrl": getURL,
	})
}
