package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BSoup1/flashcards/internal/apperror"
	"github.com/BSoup1/flashcards/internal/model"
	"github.com/BSoup1/flashcards/internal/repository"
)

var errDuplicate = errors.New("duplicate key value violates unique constraint")

// numbered behaves like the PostgreSQL dialect without importing pgx.
var numbered = Dialect{
	Name:     "testdb",
	Numbered: true,
	IsUniqueViolation: func(err error) bool {
		return errors.Is(err, errDuplicate)
	},
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return New(db, numbered), mock
}

func TestRebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		in      string
		want    string
	}{
		{"question marks kept", Dialect{}, "a = ? AND b = ?", "a = ? AND b = ?"},
		{"numbered", Dialect{Numbered: true}, "a = ? AND b = ?", "a = $1 AND b = $2"},
		{"no placeholders", Dialect{Numbered: true}, "SELECT 1", "SELECT 1"},
		{"ten or more", Dialect{Numbered: true}, "?,?,?,?,?,?,?,?,?,?", "$1,$2,$3,$4,$5,$6,$7,$8,$9,$10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dialect.rebind(tt.in))
		})
	}
}

func TestUserCreate_Success(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`(?s)^INSERT INTO users \(user_id, email, password, created_at\)\s+VALUES \(\$1, \$2, \$3, \$4\)$`).
		WithArgs(sqlmock.AnyArg(), "a@x.com", "hash", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &model.User{Email: "a@x.com", PasswordHash: "hash"}
	require.NoError(t, store.Users().Create(context.Background(), u))
	assert.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestUserCreate_DuplicateEmailIsConflict(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO users`).WillReturnError(errDuplicate)

	err := store.Users().Create(context.Background(), &model.User{Email: "a@x.com", PasswordHash: "hash"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestUserCreate_DBErrorIsWrapped(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO users`).WillReturnError(errors.New("db down"))

	err := store.Users().Create(context.Background(), &model.User{Email: "a@x.com"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperror.ErrConflict)
	assert.ErrorContains(t, err, "testdb: inserting user: db down")
}

func TestUserGetByEmail(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"user_id", "email", "password", "created_at"}).
		AddRow("u1", "a@x.com", "hash", created)
	mock.ExpectQuery(`(?s)^SELECT user_id, email, password, created_at FROM users WHERE email = \$1$`).
		WithArgs("a@x.com").
		WillReturnRows(rows)

	u, err := store.Users().GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "hash", u.PasswordHash)
	assert.True(t, created.Equal(u.CreatedAt))
}

func TestUserGetByEmail_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM users WHERE email`).WithArgs("nobody@x.com").WillReturnError(sql.ErrNoRows)

	_, err := store.Users().GetByEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCardListByOwner(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"card_id", "card_content", "translation"}).
		AddRow("c1", "hola", "hello").
		AddRow("c2", "adios", "")
	mock.ExpectQuery(`(?s)SELECT c.card_id, c.card_content, COALESCE\(t.translation_content, ''\).*LEFT JOIN translations t ON t.card_id = c.card_id.*WHERE c.user_id = \$1`).
		WithArgs("u1").
		WillReturnRows(rows)

	cards, err := store.Cards().ListByOwner(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []model.CardView{
		{CardID: "c1", CardContent: "hola", Translation: "hello"},
		{CardID: "c2", CardContent: "adios", Translation: ""},
	}, cards)
}

func TestCardListByOwner_EmptyIsNotNil(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM cards c`).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"card_id", "card_content", "translation"}))

	cards, err := store.Cards().ListByOwner(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, cards)
	assert.Empty(t, cards)
}

func TestCardUpdateContent_ScopedByOwner(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`(?s)^UPDATE cards SET card_content = \$1, updated_at = \$2\s+WHERE card_id = \$3 AND user_id = \$4$`).
		WithArgs("nuevo", sqlmock.AnyArg(), "c1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Cards().UpdateContent(context.Background(), "c1", "u1", "nuevo"))
}

func TestCardUpdateContent_NoRowsIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE cards`).
		WithArgs("nuevo", sqlmock.AnyArg(), "c1", "intruder").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Cards().UpdateContent(context.Background(), "c1", "intruder", "nuevo")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCardDeleteOwned_NoRowsIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`(?s)^DELETE FROM cards WHERE card_id = \$1 AND user_id = \$2$`).
		WithArgs("c1", "intruder").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Cards().DeleteOwned(context.Background(), "c1", "intruder")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestTranslationCreate_SecondForCardIsConflict(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO translations`).
		WithArgs(sqlmock.AnyArg(), "c1", "hello").
		WillReturnError(errDuplicate)

	err := store.Translations().Create(context.Background(), &model.Translation{CardID: "c1", Content: "hello"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestTranslationGetByCard(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"translation_id", "card_id", "translation_content"}).
		AddRow("t1", "c1", "hello")
	mock.ExpectQuery(`(?s)^SELECT translation_id, card_id, translation_content\s+FROM translations WHERE card_id = \$1$`).
		WithArgs("c1").
		WillReturnRows(rows)

	tr, err := store.Translations().GetByCard(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, &model.Translation{ID: "t1", CardID: "c1", Content: "hello"}, tr)
}

func TestTranslationGetByCard_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM translations WHERE card_id`).WithArgs("c9").WillReturnError(sql.ErrNoRows)

	_, err := store.Translations().GetByCard(context.Background(), "c9")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestWithTx_CommitsBothWrites(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO cards`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO translations`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithTx(context.Background(), func(tx repository.Tx) error {
		card := &model.Card{UserID: "u1", Content: "hola"}
		if err := tx.Cards().Create(context.Background(), card); err != nil {
			return err
		}
		return tx.Translations().Create(context.Background(), &model.Translation{CardID: card.ID, Content: "hello"})
	})
	require.NoError(t, err)
}

func TestWithTx_RollsBackWhenSecondWriteFails(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO cards`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO translations`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), func(tx repository.Tx) error {
		card := &model.Card{UserID: "u1", Content: "hola"}
		if err := tx.Cards().Create(context.Background(), card); err != nil {
			return err
		}
		return tx.Translations().Create(context.Background(), &model.Translation{CardID: card.ID, Content: "hello"})
	})
	assert.ErrorContains(t, err, "disk full")
}

func TestSessionSet_Upserts(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec(`(?s)^INSERT INTO sessions \(token, user_id, created_at, expires_at\).*ON CONFLICT \(token\) DO UPDATE`).
		WithArgs("tok", "u1", now, now.Add(time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Sessions().Set(context.Background(), &model.Session{
		Token: "tok", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	})
	require.NoError(t, err)
}

func TestSessionGet_UnknownTokenIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM sessions WHERE token = \$1`).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := store.Sessions().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestPing_EmptyUsersTableIsHealthy(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	store := New(db, numbered)

	mock.ExpectPing()
	mock.ExpectQuery(`SELECT 1 FROM users LIMIT 1`).WillReturnRows(sqlmock.NewRows([]string{"one"}))

	require.NoError(t, store.Ping(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPing_MissingTableIsReported(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	store := New(db, numbered)

	mock.ExpectPing()
	mock.ExpectQuery(`SELECT 1 FROM users`).WillReturnError(errors.New(`relation "users" does not exist`))

	err = store.Ping(context.Background())
	assert.ErrorContains(t, err, "querying users")
}
