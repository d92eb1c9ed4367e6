package main

import (
	"errors"
	"log/slog"
	"net/http"

	"seoassist-backend/lib/proxyfetch"
	"seoassist-backend/lib/serviceutil"
	"seoassist-backend/services/research"
)

// writeServiceError maps the service error taxonomy onto statuses.
// Classified fetch and AI failures are bad gateways carrying their
// user-facing text; everything unexpected is a 500 with the detail kept
// out of the response body.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var upstreamErr *research.UpstreamError
	if errors.As(err, &upstreamErr) {
		serviceutil.WriteError(w, http.StatusBadGateway, upstreamErr.Message)
		return
	}
	var fetchErr *proxyfetch.FetchError
	if errors.As(err, &fetchErr) {
		serviceutil.WriteError(w, http.StatusBadGateway, fetchErr.Error())
		return
	}
	if errors.Is(err, research.ErrBadInput) {
		serviceutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, research.ErrNotFound) {
		serviceutil.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
	serviceutil.WriteError(w, http.StatusInternalServerError, "internal error")
}

type healthBody struct {
	Status string `json:"status"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	serviceutil.WriteJSON(w, http.StatusOK, healthBody{Status: "ok"})
}
