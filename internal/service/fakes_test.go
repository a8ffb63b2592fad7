package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/BSoup1/flashcards/internal/apperror"
	"github.com/BSoup1/flashcards/internal/model"
	"github.com/BSoup1/flashcards/internal/repository"
)

// =========================================================================
// IN-MEMORY STORE
// =========================================================================
//
// memStore implements repository.Store with maps. WithTx snapshots the
// maps and restores them when fn fails, which is enough to observe
// all-or-nothing behaviour from the service's point of view.

type memStore struct {
	mu           sync.Mutex
	seq          int
	users        map[string]model.User
	cards        map[string]model.Card
	translations map[string]model.Translation // keyed by card id

	// set to simulate database failures
	userLookupErr      error
	translationErr     error
	translationDeletes int
}

func newMemStore() *memStore {
	return &memStore{
		users:        make(map[string]model.User),
		cards:        make(map[string]model.Card),
		translations: make(map[string]model.Translation),
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%03d", prefix, s.seq)
}

func (s *memStore) Users() repository.UserRepository               { return memUsers{s} }
func (s *memStore) Cards() repository.CardRepository               { return memCards{s} }
func (s *memStore) Translations() repository.TranslationRepository { return memTranslations{s} }
func (s *memStore) Sessions() repository.SessionStore              { return nil }
func (s *memStore) Ping(context.Context) error                     { return nil }
func (s *memStore) Close() error                                   { return nil }

func (s *memStore) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	s.mu.Lock()
	users, cards, translations := maps.Clone(s.users), maps.Clone(s.cards), maps.Clone(s.translations)
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.users, s.cards, s.translations = users, cards, translations
		s.mu.Unlock()
		return err
	}
	return nil
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return apperror.Conflict("email taken")
		}
	}
	u.ID = r.s.nextID("user")
	u.CreatedAt = time.Now().UTC()
	r.s.users[u.ID] = *u
	return nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.userLookupErr != nil {
		return nil, r.s.userLookupErr
	}
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (r memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return &u, nil
}

type memCards struct{ s *memStore }

func (r memCards) Create(_ context.Context, c *model.Card) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = r.s.nextID("card")
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	r.s.cards[c.ID] = *c
	return nil
}

func (r memCards) ListByOwner(_ context.Context, userID string) ([]model.CardView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	views := []model.CardView{}
	for _, id := range slices.Sorted(maps.Keys(r.s.cards)) {
		c := r.s.cards[id]
		if c.UserID != userID {
			continue
		}
		views = append(views, model.CardView{
			CardID:      c.ID,
			CardContent: c.Content,
			Translation: r.s.translations[c.ID].Content,
		})
	}
	return views, nil
}

func (r memCards) GetOwned(_ context.Context, cardID, userID string) (*model.Card, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cards[cardID]
	if !ok || c.UserID != userID {
		return nil, apperror.NotFound("card", cardID)
	}
	return &c, nil
}

func (r memCards) UpdateContent(_ context.Context, cardID, userID, content string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cards[cardID]
	if !ok || c.UserID != userID {
		return apperror.NotFound("card", cardID)
	}
	c.Content = content
	r.s.cards[cardID] = c
	return nil
}

func (r memCards) DeleteOwned(_ context.Context, cardID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cards[cardID]
	if !ok || c.UserID != userID {
		return apperror.NotFound("card", cardID)
	}
	delete(r.s.cards, cardID)
	return nil
}

type memTranslations struct{ s *memStore }

func (r memTranslations) Create(_ context.Context, t *model.Translation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.translationErr != nil {
		return r.s.translationErr
	}
	if _, ok := r.s.translations[t.CardID]; ok {
		return apperror.Conflict("card already has a translation")
	}
	t.ID = r.s.nextID("tr")
	r.s.translations[t.CardID] = *t
	return nil
}

func (r memTranslations) GetByCard(_ context.Context, cardID string) (*model.Translation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.translations[cardID]
	if !ok {
		return nil, apperror.NotFound("translation", cardID)
	}
	return &t, nil
}

func (r memTranslations) DeleteByCard(_ context.Context, cardID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.translationDeletes++
	delete(r.s.translations, cardID)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
