package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"studio-go/app/attendance"
	"studio-go/app/billing"
	"studio-go/app/services"
	"studio-go/app/session"
	"studio-go/app/store"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, attendance.ErrInvalidDate),
		errors.Is(err, billing.ErrUnknownPlan),
		errors.Is(err, billing.ErrUnknownCoupon),
		errors.Is(err, billing.ErrCouponExpired),
		errors.Is(err, billing.ErrCouponNotApplicable):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrUnauthenticated),
		errors.Is(err, session.ErrInvalidToken),
		errors.Is(err, session.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorBody{Error: msg})
}

// decodeBody decodes a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeBadPayload(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid request payload"})
}

// Health handles GET /healthz.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
