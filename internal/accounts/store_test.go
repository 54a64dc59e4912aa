package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/graphchat/text2cypher/api/schemas"
)

// matchAny accepts any argument value in mock expectations (hashed passwords
// are not predictable).
type matchAny struct{}

func (matchAny) Match(v any) bool { return true }

func newTestStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return New(mockPool, zap.NewNop()), mockPool
}

func userRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "email", "username", "coalesce", "is_active", "created_at", "updated_at"})
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a new user", func(t *testing.T) {
		store, mockPool := newTestStore(t)

		mockPool.ExpectQuery(`SELECT EXISTS`).
			WithArgs("a@b.c", "alice").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
		mockPool.ExpectQuery(`INSERT INTO users`).
			WithArgs("a@b.c", "alice", "Alice", matchAny{}).
			WillReturnRows(userRows().AddRow(int64(1), "a@b.c", "alice", "Alice", true, time.Now(), time.Now()))

		user, err := store.Create(ctx, schemas.UserCreate{
			Email: "a@b.c", Username: "alice", FullName: "Alice", Password: "pw123456",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
		assert.True(t, user.IsActive)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("duplicate email or username yields ErrDuplicate", func(t *testing.T) {
		store, mockPool := newTestStore(t)

		mockPool.ExpectQuery(`SELECT EXISTS`).
			WithArgs("a@b.c", "alice").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

		_, err := store.Create(ctx, schemas.UserCreate{Email: "a@b.c", Username: "alice", Password: "pw"})
		assert.ErrorIs(t, err, ErrDuplicate)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("rejects missing required fields before touching the database", func(t *testing.T) {
		store, mockPool := newTestStore(t)
		_, err := store.Create(ctx, schemas.UserCreate{Email: "a@b.c"})
		assert.Error(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestGetUser(t *testing.T) {
	ctx := context.Background()

	t.Run("maps no rows to ErrNotFound", func(t *testing.T) {
		store, mockPool := newTestStore(t)
		mockPool.ExpectQuery(`SELECT .* FROM users WHERE id`).
			WithArgs(int64(9)).
			WillReturnRows(userRows())

		_, err := store.GetByID(ctx, 9)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("fetches by email", func(t *testing.T) {
		store, mockPool := newTestStore(t)
		mockPool.ExpectQuery(`SELECT .* FROM users WHERE email`).
			WithArgs("a@b.c").
			WillReturnRows(userRows().AddRow(int64(1), "a@b.c", "alice", "", true, time.Now(), time.Now()))

		user, err := store.GetByEmail(ctx, "a@b.c")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()

	authRows := func(hash string, active bool) *pgxmock.Rows {
		return pgxmock.NewRows([]string{"id", "email", "username", "coalesce", "is_active", "created_at", "updated_at", "hashed_password"}).
			AddRow(int64(1), "a@b.c", "alice", "", active, time.Now(), time.Now(), hash)
	}

	t.Run("valid credentials return the user", func(t *testing.T) {
		store, mockPool := newTestStore(t)
		hash, err := HashPassword("correct-horse")
		require.NoError(t, err)

		mockPool.ExpectQuery(`SELECT .* FROM users WHERE email`).
			WithArgs("a@b.c").
			WillReturnRows(authRows(hash, true))

		user, err := store.Authenticate(ctx, "a@b.c", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		store, mockPool := newTestStore(t)
		hash, err := HashPassword("correct-horse")
		require.NoError(t, err)

		mockPool.ExpectQuery(`SELECT .* FROM users WHERE email`).
			WithArgs("a@b.c").
			WillReturnRows(authRows(hash, true))
		mockPool.ExpectQuery(`SELECT .* FROM users WHERE email`).
			WithArgs("ghost@b.c").
			WillReturnRows(pgxmock.NewRows([]string{"id", "email", "username", "coalesce", "is_active", "created_at", "updated_at", "hashed_password"}))

		_, wrongPw := store.Authenticate(ctx, "a@b.c", "wrong")
		_, unknown := store.Authenticate(ctx, "ghost@b.c", "whatever")
		assert.ErrorIs(t, wrongPw, ErrBadCredentials)
		assert.ErrorIs(t, unknown, ErrBadCredentials)
		assert.Equal(t, wrongPw.Error(), unknown.Error())
	})

	t.Run("inactive users cannot authenticate", func(t *testing.T) {
		store, mockPool := newTestStore(t)
		hash, err := HashPassword("correct-horse")
		require.NoError(t, err)

		mockPool.ExpectQuery(`SELECT .* FROM users WHERE email`).
			WithArgs("a@b.c").
			WillReturnRows(authRows(hash, false))

		_, err = store.Authenticate(ctx, "a@b.c", "correct-horse")
		assert.ErrorIs(t, err, ErrBadCredentials)
	})
}

func TestDeactivateAndDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("deactivate flags the row", func(t *testing.T) {
		store, mockPool := newTestStore(t)
		mockPool.ExpectExec(`UPDATE users SET is_active = false`).
			WithArgs(int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, store.Deactivate(ctx, 1))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("delete of an unknown id yields ErrNotFound", func(t *testing.T) {
		store, mockPool := newTestStore(t)
		mockPool.ExpectExec(`DELETE FROM users`).
			WithArgs(int64(1)).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		assert.ErrorIs(t, store.Delete(ctx, 1), ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestListUsers(t *testing.T) {
	store, mockPool := newTestStore(t)
	ctx := context.Background()

	mockPool.ExpectQuery(`SELECT .* FROM users ORDER BY id`).
		WithArgs(0, 10).
		WillReturnRows(userRows().
			AddRow(int64(1), "a@b.c", "alice", "", true, time.Now(), time.Now()).
			AddRow(int64(2), "b@b.c", "bob", "Bob", true, time.Now(), time.Now()))

	users, err := store.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "bob", users[1].Username)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
