package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/BSoup1/flashcards/internal/apperror"
	"github.com/BSoup1/flashcards/internal/model"
	"github.com/BSoup1/flashcards/internal/repository"
)

var _ repository.CardRepository = (*CardRepo)(nil)

type CardRepo struct {
	q querier
}

func (r *CardRepo) Create(ctx context.Context, card *model.Card) error {
	card.ID = xid.New().String()
	now := time.Now().UTC()
	card.CreatedAt = now
	card.UpdatedAt = now

	_, err := r.q.exec(ctx,
		`INSERT INTO cards (card_id, user_id, card_content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		card.ID,
		card.UserID,
		card.Content,
		card.CreatedAt,
		card.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: inserting card: %w", r.q.dialect.Name, err)
	}
	return nil
}

// ListByOwner returns the owner's cards oldest first, each joined with its
// translation. Cards without a translation get an empty string.
func (r *CardRepo) ListByOwner(ctx context.Context, userID string) ([]model.CardView, error) {
	rows, err := r.q.query(ctx,
		`SELECT c.card_id, c.card_content, COALESCE(t.translation_content, '')
		 FROM cards c
		 LEFT JOIN translations t ON t.card_id = c.card_id
		 WHERE c.user_id = ?
		 ORDER BY c.created_at, c.card_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: listing cards: %w", r.q.dialect.Name, err)
	}
	defer rows.Close()

	cards := make([]model.CardView, 0)
	for rows.Next() {
		var v model.CardView
		if err := rows.Scan(&v.CardID, &v.CardContent, &v.Translation); err != nil {
			return nil, fmt.Errorf("%s: scanning card row: %w", r.q.dialect.Name, err)
		}
		cards = append(cards, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterating cards: %w", r.q.dialect.Name, err)
	}
	return cards, nil
}

func (r *CardRepo) GetOwned(ctx context.Context, cardID, userID string) (*model.Card, error) {
	var c model.Card
	err := r.q.queryRow(ctx,
		`SELECT card_id, user_id, card_content, created_at, updated_at
		 FROM cards WHERE card_id = ? AND user_id = ?`,
		cardID, userID,
	).Scan(&c.ID, &c.UserID, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("card", cardID)
		}
		return nil, fmt.Errorf("%s: getting card %s: %w", r.q.dialect.Name, cardID, err)
	}
	return &c, nil
}

// UpdateContent changes the content of a card the user owns. No matching
// row, whether missing or owned by someone else, is apperror.ErrNotFound.
func (r *CardRepo) UpdateContent(ctx context.Context, cardID, userID, content string) error {
	result, err := r.q.exec(ctx,
		`UPDATE cards SET card_content = ?, updated_at = ?
		 WHERE card_id = ? AND user_id = ?`,
		content, time.Now().UTC(), cardID, userID,
	)
	if err != nil {
		return fmt.Errorf("%s: updating card %s: %w", r.q.dialect.Name, cardID, err)
	}
	return r.expectOne(result, cardID)
}

func (r *CardRepo) DeleteOwned(ctx context.Context, cardID, userID string) error {
	result, err := r.q.exec(ctx,
		`DELETE FROM cards WHERE card_id = ? AND user_id = ?`,
		cardID, userID,
	)
	if err != nil {
		return fmt.Errorf("%s: deleting card %s: %w", r.q.dialect.Name, cardID, err)
	}
	return r.expectOne(result, cardID)
}

func (r *CardRepo) expectOne(result sql.Result, cardID string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: checking rows affected: %w", r.q.dialect.Name, err)
	}
	if n == 0 {
		return apperror.NotFound("card", cardID)
	}
	return nil
}
