package model

import "time"

// Card is a flashcard owned by exactly one user.
type Card struct {
	ID        string    `json:"card_id"      db:"card_id"`
	UserID    string    `json:"user_id"      db:"user_id"`
	Content   string    `json:"card_content" db:"card_content"`
	CreatedAt time.Time `json:"created_at"   db:"created_at"`
	UpdatedAt time.Time `json:"updated_at"   db:"updated_at"`
}

// Translation belongs to one card. The card_id column is unique, so a card
// has at most one translation.
type Translation struct {
	ID      string `json:"translation_id"      db:"translation_id"`
	CardID  string `json:"card_id"             db:"card_id"`
	Content string `json:"translation_content" db:"translation_content"`
}

// CardView is a card joined with its translation, the shape returned by
// GET /get_user_cards and rendered on the home page. Translation is empty
// when the card has none.
type CardView struct {
	CardID      string `json:"card_id"`
	CardContent string `json:"card_content"`
	Translation string `json:"translation"`
}
