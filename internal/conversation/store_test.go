package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/graphchat/text2cypher/api/schemas"
)

// anyArg matches any argument value in mock expectations.
type anyArg struct{}

func (anyArg) Match(v any) bool { return true }

func newTestStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	mockPool.ExpectPing()
	store, err := New(context.Background(), mockPool, zap.NewNop())
	require.NoError(t, err)
	return store, mockPool
}

func TestNewStorePingFailure(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	pingErr := errors.New("database unavailable")
	mockPool.ExpectPing().WillReturnError(pingErr)

	_, err = New(context.Background(), mockPool, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, pingErr)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestCreate(t *testing.T) {
	store, mockPool := newTestStore(t)
	ctx := context.Background()

	userID := int64(7)
	now := time.Now()
	mockPool.ExpectQuery(`INSERT INTO conservation`).
		WithArgs(&userID, anyArg{}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "last_update"}).AddRow(int64(42), now))

	convo, err := store.Create(ctx, &userID, "First chat")
	require.NoError(t, err)
	assert.Equal(t, int64(42), convo.ID)
	assert.Equal(t, "First chat", convo.Title)
	require.NotNil(t, convo.UserID)
	assert.Equal(t, userID, *convo.UserID)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestGet(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the conversation", func(t *testing.T) {
		store, mockPool := newTestStore(t)
		title := "Chat"
		mockPool.ExpectQuery(`SELECT id, user_id, title, last_update FROM conservation WHERE id`).
			WithArgs(int64(1)).
			WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "title", "last_update"}).
				AddRow(int64(1), (*int64)(nil), &title, time.Now()))

		convo, err := store.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Chat", convo.Title)
		assert.Nil(t, convo.UserID)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("maps no rows to ErrNotFound", func(t *testing.T) {
		store, mockPool := newTestStore(t)
		mockPool.ExpectQuery(`SELECT id, user_id, title, last_update FROM conservation WHERE id`).
			WithArgs(int64(99)).
			WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "title", "last_update"}))

		_, err := store.Get(ctx, 99)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestTouch(t *testing.T) {
	ctx := context.Background()

	t.Run("renames and bumps last_update", func(t *testing.T) {
		store, mockPool := newTestStore(t)
		mockPool.ExpectExec(`UPDATE conservation SET title`).
			WithArgs(int64(1), "New title").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, store.Touch(ctx, 1, "New title"))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("unknown id yields ErrNotFound", func(t *testing.T) {
		store, mockPool := newTestStore(t)
		mockPool.ExpectExec(`UPDATE conservation SET last_update`).
			WithArgs(int64(5)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		assert.ErrorIs(t, store.Touch(ctx, 5, ""), ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestAddPair(t *testing.T) {
	ctx := context.Background()

	t.Run("persists both messages and the bump in one transaction", func(t *testing.T) {
		store, mockPool := newTestStore(t)

		mockPool.ExpectBegin()
		mockPool.ExpectExec(`INSERT INTO conservation_detail`).
			WithArgs(int64(3), schemas.RoleUser, "hello", anyArg{}).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectExec(`INSERT INTO conservation_detail`).
			WithArgs(int64(3), schemas.RoleAssistant, "hi there", anyArg{}).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectExec(`UPDATE conservation SET last_update`).
			WithArgs(int64(3)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mockPool.ExpectCommit()
		mockPool.ExpectRollback()

		require.NoError(t, store.AddPair(ctx, 3, "hello", "hi there"))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("a failed insert rolls the transaction back", func(t *testing.T) {
		store, mockPool := newTestStore(t)

		mockPool.ExpectBegin()
		mockPool.ExpectExec(`INSERT INTO conservation_detail`).
			WithArgs(int64(3), schemas.RoleUser, "hello", anyArg{}).
			WillReturnError(errors.New("disk full"))
		mockPool.ExpectRollback()

		err := store.AddPair(ctx, 3, "hello", "hi there")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert user message")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()

	t.Run("filters by owner when a user id is given", func(t *testing.T) {
		store, mockPool := newTestStore(t)
		userID := int64(7)
		title := "Mine"
		mockPool.ExpectQuery(`WHERE user_id`).
			WithArgs(userID, 0, 20).
			WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "title", "last_update"}).
				AddRow(int64(1), &userID, &title, time.Now()))

		out, err := store.List(ctx, &userID, 0, 20)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "Mine", out[0].Title)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("lists everything for a nil user id", func(t *testing.T) {
		store, mockPool := newTestStore(t)
		mockPool.ExpectQuery(`ORDER BY last_update DESC`).
			WithArgs(0, 20).
			WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "title", "last_update"}))

		out, err := store.List(ctx, nil, 0, 0)
		require.NoError(t, err)
		assert.Empty(t, out)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestListDetails(t *testing.T) {
	store, mockPool := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	mockPool.ExpectQuery(`FROM conservation_detail`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "conversation_id", "role", "message", "created_at"}).
			AddRow(int64(10), int64(3), schemas.RoleUser, "hello", now).
			AddRow(int64(11), int64(3), schemas.RoleAssistant, "hi", now))

	details, err := store.ListDetails(ctx, 3)
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, schemas.RoleUser, details[0].Role)
	assert.Equal(t, schemas.RoleAssistant, details[1].Role)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes the conversation", func(t *testing.T) {
		store, mockPool := newTestStore(t)
		mockPool.ExpectExec(`DELETE FROM conservation`).
			WithArgs(int64(4)).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		require.NoError(t, store.Delete(ctx, 4))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("unknown id yields ErrNotFound", func(t *testing.T) {
		store, mockPool := newTestStore(t)
		mockPool.ExpectExec(`DELETE FROM conservation`).
			WithArgs(int64(4)).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		assert.ErrorIs(t, store.Delete(ctx, 4), ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
