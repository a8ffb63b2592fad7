package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BSoup1/flashcards/internal/apperror"
	"github.com/BSoup1/flashcards/internal/model"
	"github.com/BSoup1/flashcards/internal/repository"
)

const (
	MsgNotAuthorizedUpdate = "You are not authorized to update this card."
	MsgNotAuthorizedDelete = "You are not authorized to delete this card."
	MsgCardContentRequired = "Card content is required."
)

// CardService manages a user's flashcards. Every operation is scoped by
// the caller's user id; a card owned by someone else behaves exactly like
// a card that does not exist.
type CardService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewCardService(store repository.Store, logger *slog.Logger) *CardService {
	return &CardService{
		store:  store,
		logger: logger,
	}
}

// ListCards returns the user's cards with their translations, oldest first.
func (s *CardService) ListCards(ctx context.Context, userID string) ([]model.CardView, error) {
	cards, err := s.store.Cards().ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/card: listing cards for %s: %w", userID, err)
	}
	return cards, nil
}

// AddCard stores a card and its translation in one transaction and returns
// the new card id. If either write fails neither row is kept.
func (s *CardService) AddCard(ctx context.Context, userID, content, translation string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperror.ValidationFailed("card_content", MsgCardContentRequired)
	}

	card := &model.Card{UserID: userID, Content: content}
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		if err := tx.Cards().Create(ctx, card); err != nil {
			return err
		}
		return tx.Translations().Create(ctx, &model.Translation{
			CardID:  card.ID,
			Content: translation,
		})
	})
	if err != nil {
		s.logger.Error("failed to add card",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("service/card: adding card: %w", err)
	}

	s.logger.Info("card added", slog.String("cardID", card.ID), slog.String("userID", userID))
	return card.ID, nil
}

// UpdateCard replaces the content of one of the user's cards. A card that
// is missing or not owned is apperror.ErrForbidden.
func (s *CardService) UpdateCard(ctx context.Context, userID, cardID, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return apperror.ValidationFailed("card_content", MsgCardContentRequired)
	}

	if err := s.store.Cards().UpdateContent(ctx, cardID, userID, content); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.Forbidden(MsgNotAuthorizedUpdate)
		}
		return fmt.Errorf("service/card: updating card %s: %w", cardID, err)
	}

	s.logger.Info("card updated", slog.String("cardID", cardID), slog.String("userID", userID))
	return nil
}

// DeleteCard removes one of the user's cards and its translation in one
// transaction.
func (s *CardService) DeleteCard(ctx context.Context, userID, cardID string) error {
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.Cards().GetOwned(ctx, cardID, userID); err != nil {
			return err
		}
		if err := tx.Translations().DeleteByCard(ctx, cardID); err != nil {
			return err
		}
		return tx.Cards().DeleteOwned(ctx, cardID, userID)
	})
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.Forbidden(MsgNotAuthorizedDelete)
		}
		return fmt.Errorf("service/card: deleting card %s: %w", cardID, err)
	}

	s.logger.Info("card deleted", slog.String("cardID", cardID), slog.String("userID", userID))
	return nil
}
