package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BSoup1/flashcards/internal/apperror"
	"github.com/BSoup1/flashcards/internal/auth"
	"github.com/BSoup1/flashcards/internal/service"
)

const maxBodyBytes = 64 << 10

const (
	MsgCardAdded   = "Card added successfully!"
	MsgCardUpdated = "Card updated successfully!"
	MsgCardDeleted = "Card deleted successfully!"
)

// CardHandler serves the JSON card API. Every route sits behind
// auth.RequireUser, so a user id is always present in the context.
type CardHandler struct {
	cards  *service.CardService
	logger *slog.Logger
}

func NewCardHandler(cards *service.CardService, logger *slog.Logger) *CardHandler {
	return &CardHandler{cards: cards, logger: logger}
}

type addCardRequest struct {
	CardContent string `json:"card_content"`
	Translation string `json:"translation"`
}

type updateCardRequest struct {
	CardContent string `json:"card_content"`
}

// HandleAdd creates a card and its translation.
//
// HTTP: POST /add_card  {"card_content": "hola", "translation": "hello"}
func (h *CardHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req addCardRequest
	if !h.decode(w, r, &req) {
		return
	}

	cardID, err := h.cards.AddCard(r.Context(), userID, req.CardContent, req.Translation)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: MsgCardAdded, Category: CategorySuccess, CardID: cardID})
}

// HandleList returns the caller's cards.
//
// HTTP: GET /get_user_cards  →  [{"card_id", "card_content", "translation"}]
func (h *CardHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	cards, err := h.cards.ListCards(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// HandleUpdate replaces a card's content.
//
// HTTP: POST /update_card/{card_id}  {"card_content": "buenas"}
func (h *CardHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	cardID := chi.URLParam(r, "card_id")

	var req updateCardRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.cards.UpdateCard(r.Context(), userID, cardID, req.CardContent); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: MsgCardUpdated, Category: CategorySuccess, CardID: cardID})
}

// HandleDelete removes a card and its translation.
//
// HTTP: POST /delete_card/{card_id}
func (h *CardHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	cardID := chi.URLParam(r, "card_id")

	if err := h.cards.DeleteCard(r.Context(), userID, cardID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: MsgCardDeleted, Category: CategorySuccess})
}

// decode reads a JSON body into v, answering 400 itself when it cannot.
func (h *CardHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("body", "Request body must be valid JSON."))
		return false
	}
	return true
}
