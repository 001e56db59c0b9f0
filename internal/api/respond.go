package api

import (
	"encoding/json"
	"net/http"

	"github.com/hackgods/clinic-appointment-portal/internal/notice"
)

type ErrorResponse struct {
	Error   string          `json:"error"`
	Details string          `json:"details,omitempty"`
	Notices []notice.Notice `json:"notices,omitempty"`
}

// DataResponse is the envelope for successful responses.
type DataResponse struct {
	Data    any             `json:"data"`
	Notices []notice.Notice `json:"notices"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// writeData wraps data with the notices raised while serving r.
func writeData(w http.ResponseWriter, r *http.Request, status int, data any) {
	notices := notice.List(r.Context())
	if notices == nil {
		notices = []notice.Notice{}
	}
	writeJSON(w, status, DataResponse{Data: data, Notices: notices})
}

// badRequest rejects input before any store call and tells the user why.
func badRequest(w http.ResponseWriter, r *http.Request, code, details string) {
	notice.Error(r.Context(), details)
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   code,
		Details: details,
		Notices: notice.List(r.Context()),
	})
}

// serverError reports a failed write together with the notices already raised.
func serverError(w http.ResponseWriter, r *http.Request, code, details string) {
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   code,
		Details: details,
		Notices: notice.List(r.Context()),
	})
}
