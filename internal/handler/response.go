package handler

// RESPONSE HELPERS:
// Every JSON response from the card API has the same shape:
//
//	{"message": "Card added successfully!", "category": "success", "card_id": "..."}
//
// Failures use the same fields without card_id, so the page script can
// show any response as a flash message without checking which route it
// called. The category doubles as the CSS class of the message box.
//
// Handlers never build these bodies by hand:
//
//	writeJSON(w, http.StatusOK, MessageResponse{...})  // success
//	writeError(w, h.logger, err)                       // any failure

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BSoup1/flashcards/internal/apperror"
)

// Flash categories, matching the CSS classes in web/static.
const (
	CategorySuccess = "success"
	CategoryWarning = "warning"
	CategoryDanger  = "danger"
)

// MsgLoginRequired is shown to anonymous callers of protected routes.
const MsgLoginRequired = "You need to log in first."

const msgInternal = "An internal error occurred. Please try again."

// MessageResponse is the body of every card API response except the list.
type MessageResponse struct {
	Message  string `json:"message"`
	Category string `json:"category"`
	CardID   string `json:"card_id,omitempty"`
}

// writeJSON sends data as JSON with the given status.
//
// Headers and status must be set before the body: the first Write sends
// them, and changes after that are silently dropped.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// headers are already sent
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorStatus maps a domain error to its HTTP status and flash category.
//
// ERROR MAPPING:
//
//	apperror.ErrValidation    → 400 warning  (empty card, malformed JSON)
//	apperror.ErrUnauthorized  → 401 danger   (bad credentials)
//	apperror.ErrForbidden     → 403 danger   (not your card, or no such card)
//	apperror.ErrNotFound      → 404 danger
//	apperror.ErrConflict      → 409 danger   (email already registered)
//	anything else             → 500 danger   (generic message, details logged)
//
// The services return these kinds without knowing about HTTP; the
// translation to status codes lives here only. errors.Is walks the %w
// chain, so a service may wrap the error with context and the mapping
// still finds the kind. Errors that are not *apperror.AppError are
// internal, and their text never reaches the client.
func errorStatus(err error) (status int, category string, message string) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, CategoryDanger, msgInternal
	}

	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, CategoryWarning, appErr.Message
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, CategoryDanger, appErr.Message
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, CategoryDanger, appErr.Message
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, CategoryDanger, appErr.Message
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, CategoryDanger, appErr.Message
	}
	return http.StatusInternalServerError, CategoryDanger, msgInternal
}

// writeError sends err as a {message, category} body. Internal errors are
// logged and replaced by a generic message.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, category, message := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", slog.String("error", err.Error()))
	}
	writeJSON(w, status, MessageResponse{Message: message, Category: category})
}

// RequireLoginJSON rejects anonymous API calls. It is passed to
// auth.RequireUser for the card routes.
func RequireLoginJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusUnauthorized, MessageResponse{
		Message:  MsgLoginRequired,
		Category: CategoryWarning,
	})
}

// RequireLoginPage sends anonymous page visitors to the login form with a
// one-shot warning.
func RequireLoginPage(w http.ResponseWriter, r *http.Request) {
	setFlash(w, Flash{Message: MsgLoginRequired, Category: CategoryWarning})
	http.Redirect(w, r, "/login", http.StatusFound)
}
