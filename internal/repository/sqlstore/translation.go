package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/BSoup1/flashcards/internal/apperror"
	"github.com/BSoup1/flashcards/internal/model"
	"github.com/BSoup1/flashcards/internal/repository"
)

var _ repository.TranslationRepository = (*TranslationRepo)(nil)

type TranslationRepo struct {
	q querier
}

// Create inserts the translation. A second translation for the same card
// violates translations.card_id UNIQUE and is reported as a conflict.
func (r *TranslationRepo) Create(ctx context.Context, t *model.Translation) error {
	t.ID = xid.New().String()

	_, err := r.q.exec(ctx,
		`INSERT INTO translations (translation_id, card_id, translation_content)
		 VALUES (?, ?, ?)`,
		t.ID, t.CardID, t.Content,
	)
	if err != nil {
		if r.q.dialect.uniqueViolation(err) {
			return apperror.Conflict("card already has a translation")
		}
		return fmt.Errorf("%s: inserting translation: %w", r.q.dialect.Name, err)
	}
	return nil
}

func (r *TranslationRepo) GetByCard(ctx context.Context, cardID string) (*model.Translation, error) {
	var t model.Translation
	err := r.q.queryRow(ctx,
		`SELECT translation_id, card_id, translation_content
		 FROM translations WHERE card_id = ?`,
		cardID,
	).Scan(&t.ID, &t.CardID, &t.Content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("translation", cardID)
		}
		return nil, fmt.Errorf("%s: getting translation for card %s: %w", r.q.dialect.Name, cardID, err)
	}
	return &t, nil
}

// DeleteByCard removes the card's translation if there is one.
func (r *TranslationRepo) DeleteByCard(ctx context.Context, cardID string) error {
	_, err := r.q.exec(ctx, `DELETE FROM translations WHERE card_id = ?`, cardID)
	if err != nil {
		return fmt.Errorf("%s: deleting translation for card %s: %w", r.q.dialect.Name, cardID, err)
	}
	return nil
}
